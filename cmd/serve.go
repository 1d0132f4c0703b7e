package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tac-sim/default-broker/internal/api"
)

// serveCmd runs the scenario in the background and serves the inspection
// API until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and serve a read-only HTTP view of the broker",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		s, err := buildScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		world, cleanup, err := buildWorld(s)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewHandlerWithCORS(world.Broker(), nil),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logrus.Infof("inspection API listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("inspection API: %v", err)
			}
		}()

		if err := runToCompletion(ctx, world, s, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("%v", err)
		}
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("inspection API shutdown: %v", err)
		}
	},
}
