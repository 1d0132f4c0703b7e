package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
	"github.com/tac-sim/default-broker/broker/bootstrap"
	"github.com/tac-sim/default-broker/broker/trace"
	"github.com/tac-sim/default-broker/internal/transport"
	"github.com/tac-sim/default-broker/sim"
)

// RunSummary is printed to stdout at the end of a run.
type RunSummary struct {
	Broker        string              `json:"broker"`
	Mode          string              `json:"mode"`
	Seed          int64               `json:"seed"`
	Timeslots     int                 `json:"timeslots"`
	FinalTimeslot int                 `json:"final_timeslot"`
	Customers     map[string]int      `json:"customers"`
	LiveOrders    int                 `json:"live_orders"`
	Cash          float64             `json:"cash"`
	Trace         *trace.TraceSummary `json:"trace,omitempty"`
	WallTimeMs    int64               `json:"wall_time_ms"`
}

// buildWorld creates the world for s, connecting the order mirror and
// replaying --boot-file when those are configured. cleanup releases the
// NATS connection and is never nil.
func buildWorld(s *sim.Scenario) (*sim.World, func(), error) {
	cleanup := func() {}
	var opts []sim.Option
	if natsURL != "" {
		conn, err := transport.Connect(transport.DefaultConfig(natsURL))
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := conn.Drain(); err != nil {
				logrus.Warnf("draining nats connection: %v", err)
			}
		}
		opts = append(opts, sim.WithRouter(func(inner broker.OrderRouter) broker.OrderRouter {
			return transport.NewOrderMirror(inner, conn, s.Broker.Name)
		}))
		logrus.Infof("mirroring orders to %s on %s", transport.Subject(s.Broker.Name), natsURL)
	}

	world, err := sim.NewWorld(s, opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	if bootFile != "" {
		if s.IsBootstrap() {
			logrus.Warnf("ignoring --boot-file %s in bootstrap mode", bootFile)
		} else {
			ds, err := bootstrap.ReadFile(bootFile)
			if err != nil {
				cleanup()
				return nil, func() {}, err
			}
			if err := world.Replay(ds); err != nil {
				cleanup()
				return nil, func() {}, err
			}
		}
	}
	return world, cleanup, nil
}

// runToCompletion simulates the scenario's run length, writes the bootstrap
// dataset if requested, and prints the summary to out.
func runToCompletion(ctx context.Context, world *sim.World, s *sim.Scenario, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	logrus.Infof("Starting %s run of %d timeslots, seed=%d", modeName(s), s.RunLength(), s.Seed)
	if err := world.Run(ctx, s.RunLength()); err != nil {
		return err
	}
	if s.IsBootstrap() && bootstrapOut != "" {
		ds, err := world.BootstrapDataset()
		if err != nil {
			return err
		}
		if err := bootstrap.WriteFile(bootstrapOut, ds); err != nil {
			return err
		}
		logrus.Infof("wrote %d bootstrap items to %s", len(ds.Items), bootstrapOut)
	}
	return printSummary(out, summarize(world, s, time.Since(start)))
}

func summarize(world *sim.World, s *sim.Scenario, elapsed time.Duration) RunSummary {
	b := world.Broker()
	return RunSummary{
		Broker:        b.Name(),
		Mode:          modeName(s),
		Seed:          s.Seed,
		Timeslots:     world.Steps(),
		FinalTimeslot: world.Clock().CurrentTimeslot(),
		Customers:     b.CustomerCounts(),
		LiveOrders:    len(b.LastOrders()),
		Cash:          world.Market().Cash(),
		Trace:         b.TraceSummary(),
		WallTimeMs:    elapsed.Milliseconds(),
	}
}

func printSummary(out io.Writer, summary RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	_, err = fmt.Fprintf(out, "=== Broker Summary ===\n%s\n", data)
	return err
}

func modeName(s *sim.Scenario) string {
	if s.IsBootstrap() {
		return "bootstrap"
	}
	return "sim"
}
