package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"gungnir/internal/common"
	"gungnir/internal/metrics"
)

// Gateway validates commands and stamps them with identity.
type Gateway interface {
	Process(Command) common.GatewayEvent
}

// Engine applies validated events and reports book depth.
type Engine interface {
	OnEvent(common.GatewayEvent) []common.EngineEvent
	Depth() (orders, levels int)
}

// Driver runs the line-oriented front end: one command per input line,
// trades on the output stream, rejects and parse errors on the error
// stream.
type Driver struct {
	gateway Gateway
	engine  Engine
	stats   *metrics.Collector
}

func NewDriver(gateway Gateway, engine Engine) *Driver {
	return &Driver{
		gateway: gateway,
		engine:  engine,
		stats:   metrics.Get(),
	}
}

// Run consumes input until EOF or context cancellation. Only a failure of
// the input or output streams themselves returns an error.
func (d *Driver) Run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	log.Info().Msg("matching engine started")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			log.Info().Msg("context cancelled, shutting down")
			return nil
		default:
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		events, perr := d.Submit(line)
		if perr != nil {
			if _, err := fmt.Fprintf(errOut, "parse error: %v\n", perr); err != nil {
				return err
			}
			continue
		}
		for _, event := range events {
			if err := writeEvent(out, errOut, event); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	log.Info().Msg("input exhausted, shutting down")
	return nil
}

// Submit pushes one raw line through parser, gateway and engine, keeping
// the flow metrics current. A parse error produces no engine activity.
func (d *Driver) Submit(line string) ([]common.EngineEvent, error) {
	cmd, err := Parse(line)
	if err != nil {
		d.stats.ParseErrors.Inc()
		return nil, err
	}

	event := d.gateway.Process(cmd)
	if order, ok := event.(common.NewOrder); ok {
		d.stats.OrdersTotal.
			WithLabelValues(order.Order.Side.String(), order.Order.Type.String()).
			Inc()
	}

	events := d.engine.OnEvent(event)
	for _, ev := range events {
		switch e := ev.(type) {
		case common.Trade:
			d.stats.TradesTotal.Inc()
			d.stats.TradedVolume.Add(float64(e.Quantity))
		case common.Reject:
			d.stats.RejectsTotal.Inc()
		}
	}

	orders, levels := d.engine.Depth()
	d.stats.RestingOrders.Set(float64(orders))
	d.stats.PriceLevels.Set(float64(levels))

	return events, nil
}

func writeEvent(out, errOut io.Writer, event common.EngineEvent) error {
	switch e := event.(type) {
	case common.Trade:
		_, err := fmt.Fprintf(out, "%s\n", e)
		return err
	case common.Reject:
		_, err := fmt.Fprintf(errOut, "REJECT: %s\n", e.Reason)
		return err
	}
	return nil
}
