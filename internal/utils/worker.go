package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 100

type WorkerFunction = func(t *tomb.Tomb, task any) error

// WorkerPool runs a fixed number of workers draining a shared task channel.
// Workers live until the tomb dies; a worker returning an error kills the
// tomb and with it the rest of the pool.
type WorkerPool struct {
	n     int
	tasks chan any
}

func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		n:     size,
		tasks: make(chan any, taskChanSize),
	}
}

// Setup starts the workers under the given tomb.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	log.Info().Int("workers", pool.n).Msg("starting worker pool")
	for range pool.n {
		t.Go(func() error {
			return pool.worker(t, work)
		})
	}
}

// AddTask queues a task for the next free worker. Blocks when the queue is
// full and the pool is saturated.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}
