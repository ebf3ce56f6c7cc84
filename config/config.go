// Package config loads simulator settings from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baseball-sim/run-expectancy/grid"
)

const (
	// DefaultInningsPerHitter is the number of innings simulated per profile.
	DefaultInningsPerHitter = 1_000_000

	// DefaultMaxGridSize caps how many profiles one HTTP request may simulate.
	DefaultMaxGridSize = 1_000_000
)

// Config holds every runtime setting
type Config struct {
	Port             string         `yaml:"port"`
	Workers          int            `yaml:"workers"`
	InningsPerHitter int            `yaml:"innings_per_hitter"`
	LogLevel         string         `yaml:"log_level"`
	MaxGridSize      int            `yaml:"max_grid_size"`
	Database         DatabaseConfig `yaml:"database"`
	Redis            RedisConfig    `yaml:"redis"`
	Kafka            KafkaConfig    `yaml:"kafka"`
	Grid             grid.Spec      `yaml:"grid"`
}

// DatabaseConfig configures the PostgreSQL store.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// RedisConfig configures the result cache. An empty URL disables it.
type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

// KafkaConfig configures summary publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:             "8081",
		Workers:          runtime.NumCPU(),
		InningsPerHitter: DefaultInningsPerHitter,
		LogLevel:         "info",
		MaxGridSize:      DefaultMaxGridSize,
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "baseball_user",
			Password: "baseball_pass",
			Name:     "baseball_sim",
		},
		Redis: RedisConfig{TTL: 10 * time.Minute},
		Kafka: KafkaConfig{Topic: "hitter-summaries"},
		Grid:  grid.Default(),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	// Unknown keys are errors so that typos do not silently fall back to defaults
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	var err error
	if c.Database.Enabled, err = getEnvBool("DB_ENABLED", c.Database.Enabled); err != nil {
		return err
	}
	if c.Workers, err = getEnvInt("WORKERS", c.Workers); err != nil {
		return err
	}
	if c.InningsPerHitter, err = getEnvInt("INNINGS_PER_HITTER", c.InningsPerHitter); err != nil {
		return err
	}
	if c.MaxGridSize, err = getEnvInt("MAX_GRID_SIZE", c.MaxGridSize); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.InningsPerHitter <= 0 {
		errs = append(errs, fmt.Errorf("innings_per_hitter must be positive, got %d", c.InningsPerHitter))
	}
	if c.MaxGridSize <= 0 {
		errs = append(errs, fmt.Errorf("max_grid_size must be positive, got %d", c.MaxGridSize))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic must be set when brokers are configured"))
	}
	if err := c.Grid.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Host:   c.Database.Host + ":" + c.Database.Port,
		Path:   c.Database.Name,
	}
	return u.String()
}

// KafkaEnabled reports whether summaries should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
