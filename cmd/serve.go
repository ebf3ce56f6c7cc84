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

	"github.com/baseball-sim/run-expectancy/server"
	"github.com/baseball-sim/run-expectancy/simulation"
	"github.com/baseball-sim/run-expectancy/store"
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the simulation API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		st, closeStore, err := openStore(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		if st == nil {
			logrus.Info("Database disabled; runs are kept in memory")
			st = store.NewMemoryStore()
		}

		var sinks []simulation.ResultSink
		kafkaSink, err := openKafka(cfg)
		if err != nil {
			return err
		}
		if kafkaSink != nil {
			defer kafkaSink.Close()
			sinks = append(sinks, kafkaSink)
		}

		engine := simulation.NewSimulationEngine(st, cfg.Workers, cfg.InningsPerHitter, sinks...)
		srv := server.New(cfg, st, engine)

		// Graceful shutdown
		go func() {
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("Server shutdown failed")
			}
			logrus.Info("Server shutdown complete")
		}()

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}
