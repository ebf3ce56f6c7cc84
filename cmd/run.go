package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baseball-sim/run-expectancy/output"
	"github.com/baseball-sim/run-expectancy/simulation"
)

var (
	// CLI flags for a grid run
	seed     int64  // Master seed; unset means time-based
	innings  int    // Innings per hitter
	workers  int    // Worker goroutines
	outPath  string // CSV output file
	useStore bool   // Persist the run to PostgreSQL
	useKafka bool   // Publish summaries to Kafka
)

// runCmd simulates the configured grid and writes the results
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate every profile in the grid and write the results to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("innings") {
			cfg.InningsPerHitter = innings
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("store") {
			cfg.Database.Enabled = useStore
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		masterSeed := resolveSeed(cmd.Flags().Changed("seed"), seed)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		sinks := output.MultiSink{output.NewCSVWriter(outPath)}
		if useKafka {
			kafkaSink, err := openKafka(cfg)
			if err != nil {
				return err
			}
			if kafkaSink != nil {
				defer kafkaSink.Close()
				sinks = append(sinks, kafkaSink)
			} else {
				logrus.Warn("--kafka set but no brokers configured; skipping")
			}
		}

		hitters := cfg.Grid.Enumerate()
		engine := simulation.NewSimulationEngine(st, cfg.Workers, cfg.InningsPerHitter, sinks)
		runID := uuid.New().String()

		logrus.WithFields(logrus.Fields{
			"run_id":  runID,
			"hitters": len(hitters),
			"innings": cfg.InningsPerHitter,
			"workers": engine.Workers(),
			"seed":    masterSeed,
		}).Info("Starting grid simulation")

		start := time.Now()
		runErr := engine.RunSimulation(ctx, runID, simulation.RunRequest{
			Hitters: hitters,
			Innings: cfg.InningsPerHitter,
			Seed:    masterSeed,
		})
		elapsed := time.Since(start)

		fields := logrus.Fields{
			"run_id":  runID,
			"elapsed": elapsed.String(),
		}
		if status, ok := engine.GetRunStatus(runID); ok && status.Result != nil {
			fields["summaries"] = len(status.Result.Summaries)
			fields["skipped"] = len(status.Result.Failures)
		}
		if secs := elapsed.Seconds(); secs > 0 {
			fields["hitters_per_sec"] = float64(len(hitters)) / secs
		}
		logrus.WithFields(fields).Info("Grid simulation finished")

		return runErr
	},
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Master seed for the run (default: time-based)")
	runCmd.Flags().IntVar(&innings, "innings", 0, "Innings simulated per hitter (default from config)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines (default from config)")
	runCmd.Flags().StringVar(&outPath, "out", output.DefaultCSVPath, "CSV output file")
	runCmd.Flags().BoolVar(&useStore, "store", false, "Persist the run to PostgreSQL")
	runCmd.Flags().BoolVar(&useKafka, "kafka", false, "Publish summaries to the configured Kafka topic")
	addGridFlags(runCmd)
}
