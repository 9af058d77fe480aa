package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mission-control/internal/logging"
	"mission-control/internal/stream"
	"mission-control/internal/telemetry"
)

var (
	simTicks   int
	simStreams []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run producers headless and print their output",
	Long: "simulate runs the fire, drone and notification producers without a server, " +
		"printing every pushed message to STDOUT as a JSON line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cfg, log, nil, false, nil)
		if err != nil {
			return err
		}
		return a.simulate(ctx, os.Stdout, simStreams, simTicks)
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simTicks, "ticks", 0, "Messages per stream before stopping (0 runs until interrupted)")
	simulateCmd.Flags().StringSliceVar(&simStreams, "streams", []string{"fire", "drone", "notifications"}, "Streams to run")
}

// simulate runs one session per stream against out. Readings are recorded
// in the store exactly as in serve mode.
func (a *app) simulate(ctx context.Context, out io.Writer, streams []string, ticks int) error {
	var mu sync.Mutex
	ctx = logging.NewContext(ctx, a.log)

	producers := make([]stream.Producer, 0, len(streams))
	for _, name := range streams {
		switch name {
		case "fire":
			producers = append(producers, a.producers.Fire())
		case "drone":
			producers = append(producers, a.producers.Drone())
		case "notifications":
			producers = append(producers, a.producers.Notifications())
		default:
			return fmt.Errorf("unknown stream %q", name)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range producers {
		t := stream.NewWriterTransport(p.Name(), out, &mu, ticks)
		g.Go(func() error {
			return a.sessions.Serve(gctx, t, p)
		})
	}
	err := g.Wait()
	a.log.Info("simulation finished",
		"fires", a.store.Len(telemetry.KindFire),
		"drones", a.store.Len(telemetry.KindDrone))
	return err
}
