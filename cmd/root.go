package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baseball-sim/run-expectancy/config"
	"github.com/baseball-sim/run-expectancy/grid"
	"github.com/baseball-sim/run-expectancy/output"
	"github.com/baseball-sim/run-expectancy/store"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML config file

	// Grid bounds shared by the run and grid commands
	gridFlags = grid.Default()
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "runsim",
	Short: "Run expectancy simulator for batting profiles",
	Long: `runsim plays many independent innings in which one hitter bats every
time, for each AVG/OBP/SLG profile in a grid, and reports runs scored.`,
	SilenceUsage: true,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "", "Log level (trace, debug, info, warn, error, fatal, panic); overrides config")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(gridCmd)
}

// loadConfig reads the config file and environment, applies the log level
// and any grid flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log") {
		cfg.LogLevel = logLevel
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	logrus.SetLevel(level)

	applyGridFlags(cmd, &cfg.Grid)
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&gridFlags.OBPLow, "obp-low", gridFlags.OBPLow, "Lowest on-base percentage in the grid")
	cmd.Flags().Float64Var(&gridFlags.OBPHigh, "obp-high", gridFlags.OBPHigh, "Highest on-base percentage in the grid (inclusive)")
	cmd.Flags().Float64Var(&gridFlags.SLGLow, "slg-low", gridFlags.SLGLow, "Lowest slugging percentage in the grid")
	cmd.Flags().Float64Var(&gridFlags.SLGHigh, "slg-high", gridFlags.SLGHigh, "Highest slugging percentage in the grid (inclusive)")
	cmd.Flags().Float64Var(&gridFlags.AVGLow, "avg-low", gridFlags.AVGLow, "Lowest batting average; each profile runs up to its OBP")
	cmd.Flags().Float64Var(&gridFlags.Step, "step", gridFlags.Step, "Grid step for all three statistics")
}

// applyGridFlags copies explicitly set grid flags over the configured grid.
func applyGridFlags(cmd *cobra.Command, g *grid.Spec) {
	for name, pair := range map[string]struct{ dst, src *float64 }{
		"obp-low":  {&g.OBPLow, &gridFlags.OBPLow},
		"obp-high": {&g.OBPHigh, &gridFlags.OBPHigh},
		"slg-low":  {&g.SLGLow, &gridFlags.SLGLow},
		"slg-high": {&g.SLGHigh, &gridFlags.SLGHigh},
		"avg-low":  {&g.AVGLow, &gridFlags.AVGLow},
		"step":     {&g.Step, &gridFlags.Step},
	} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*pair.dst = *pair.src
		}
	}
}

// resolveSeed returns the flag value when the user set one and a
// time-based seed otherwise.
func resolveSeed(changed bool, flagSeed int64) int64 {
	if changed {
		return flagSeed
	}
	return time.Now().UnixNano()
}

// openStore connects the configured persistence. It returns a nil Store when
// the database is disabled.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if !cfg.Database.Enabled {
		return nil, func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL(), cfg.Workers)
	if err != nil {
		return nil, nil, err
	}
	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logrus.WithField("host", cfg.Database.Host).Info("Connected to database")

	if cfg.Redis.URL == "" {
		return pg, pool.Close, nil
	}
	rdb, err := store.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logrus.Info("Caching finished runs in redis")
	cleanup := func() {
		_ = rdb.Close()
		pool.Close()
	}
	return store.NewCachedStore(pg, rdb, cfg.Redis.TTL), cleanup, nil
}

// openKafka returns a sink publishing to the configured topic, or nil when
// no brokers are configured.
func openKafka(cfg *config.Config) (*output.KafkaSink, error) {
	if !cfg.KafkaEnabled() {
		return nil, nil
	}
	sink, err := output.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	logrus.WithField("topic", cfg.Kafka.Topic).Info("Publishing summaries to kafka")
	return sink, nil
}
