package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"gungnir/internal/cli"
	"gungnir/internal/metrics"
	"gungnir/internal/utils"
)

const (
	defaultNWorkers = 10
	maxLineSize     = 4 * 1024
	taskBacklog     = 256
)

var ErrImproperConversion = errors.New("improper type conversion")

// ClientSession is one connected TCP client. The protocol is the same
// line-oriented text protocol as the stdio front end; trades and rejects
// are written back to the session that submitted the command.
type ClientSession struct {
	id   string
	conn net.Conn
}

// submission links one input line to the session that sent it. All
// submissions funnel into a single channel so that exactly one goroutine
// drives the gateway and engine, keeping event processing totally ordered.
type submission struct {
	session *ClientSession
	line    string
}

// Server is the TCP front end. Connection readers run on a worker pool;
// matching runs on the single owner goroutine.
type Server struct {
	address string

	driver *cli.Driver
	pool   utils.WorkerPool
	stats  *metrics.Collector

	listener    net.Listener
	cancel      context.CancelFunc
	sessions    map[string]*ClientSession
	sessionsMu  sync.Mutex
	submissions chan submission
}

func New(address string, driver *cli.Driver) *Server {
	return &Server{
		address:     address,
		driver:      driver,
		pool:        utils.NewWorkerPool(defaultNWorkers),
		stats:       metrics.Get(),
		sessions:    make(map[string]*ClientSession),
		submissions: make(chan submission, taskBacklog),
	}
}

// Addr returns the bound listen address once Start (or Run) has bound the
// listener, and nil before that.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listener. Split from Run so callers can learn the bound
// address before serving (the tests listen on port 0).
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("unable to start listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Run serves until the context is cancelled. Call Start first.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Start(ctx); err != nil {
			return err
		}
	}
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	// Close the listener and every live session when the context dies,
	// so Accept and the connection readers all unblock.
	t.Go(func() error {
		<-ctx.Done()
		err := s.listener.Close()
		s.closeAllSessions()
		return err
	})

	// The engine owner: the only goroutine that touches gateway and
	// engine state.
	t.Go(func() error {
		return s.matchLoop(t)
	})

	// Connection readers.
	s.pool.Setup(t, s.handleSession)

	log.Info().Str("address", s.listener.Addr().String()).Msg("server running")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				t.Wait()
				return nil
			default:
			}
			log.Error().Err(err).Msg("error accepting client")
			continue
		}

		session := s.addSession(conn)
		log.Info().
			Str("session", session.id).
			Str("remote", conn.RemoteAddr().String()).
			Msg("new client added")
		s.pool.AddTask(session)
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// matchLoop drains submissions in arrival order. Responses go back to the
// submitting session only; a write failure drops that session without
// disturbing the book.
func (s *Server) matchLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case sub := <-s.submissions:
			s.handleLine(sub)
		}
	}
}

func (s *Server) handleLine(sub submission) {
	events, perr := s.driver.Submit(sub.line)
	if perr != nil {
		s.respond(sub.session, fmt.Sprintf("parse error: %v\n", perr))
		return
	}

	var reply strings.Builder
	for _, event := range events {
		reply.WriteString(formatEvent(event))
	}
	if reply.Len() > 0 {
		s.respond(sub.session, reply.String())
	}
}

func (s *Server) respond(session *ClientSession, payload string) {
	if _, err := session.conn.Write([]byte(payload)); err != nil {
		log.Error().
			Err(err).
			Str("session", session.id).
			Msg("unable to send response")
		s.dropSession(session)
	}
}

// handleSession is a pool task that owns one connection's read side for the
// connection's lifetime, forwarding each line to the matching loop.
func (s *Server) handleSession(t *tomb.Tomb, task any) error {
	session, ok := task.(*ClientSession)
	if !ok {
		return ErrImproperConversion
	}
	defer s.dropSession(session)

	scanner := bufio.NewScanner(session.conn)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
	for scanner.Scan() {
		select {
		case <-t.Dying():
			return nil
		default:
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		select {
		case <-t.Dying():
			return nil
		case s.submissions <- submission{session: session, line: line}:
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().
			Err(err).
			Str("session", session.id).
			Msg("error reading from connection")
	}
	// EOF or error either way means the client is gone. Resting orders
	// survive the disconnect; there is no per-owner cancellation.
	return nil
}

func (s *Server) addSession(conn net.Conn) *ClientSession {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	session := &ClientSession{
		id:   uuid.New().String(),
		conn: conn,
	}
	s.sessions[session.id] = session
	s.stats.SessionsActive.Set(float64(len(s.sessions)))
	return session
}

func (s *Server) closeAllSessions() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for id, session := range s.sessions {
		if err := session.conn.Close(); err != nil {
			log.Debug().Err(err).Str("session", id).Msg("closing connection")
		}
		delete(s.sessions, id)
	}
	s.stats.SessionsActive.Set(0)
}

func (s *Server) dropSession(session *ClientSession) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if _, ok := s.sessions[session.id]; !ok {
		return
	}
	delete(s.sessions, session.id)
	s.stats.SessionsActive.Set(float64(len(s.sessions)))
	if err := session.conn.Close(); err != nil {
		log.Debug().Err(err).Str("session", session.id).Msg("closing connection")
	}
	log.Info().Str("session", session.id).Msg("client removed")
}
