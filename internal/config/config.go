package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultConfigFile = "migrate.yml"
	DefaultFormat     = "text"
	DefaultLogLevel   = slog.LevelInfo

	// DefaultLockWaitTimeout bounds a lock wait so that a lock left behind by
	// a crashed process cannot block startup forever.
	DefaultLockWaitTimeout = 5 * time.Minute
)

// ErrInvalidLogLevel is returned for a log level name slog does not know.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL string
	// MigrationsDir is an optional directory of SQL-file migrations merged
	// with the built-in set. Empty means built-in migrations only.
	MigrationsDir    string
	LockTimeout      time.Duration // 0 disables
	StatementTimeout time.Duration // 0 disables
	AllowOutOfOrder  bool
	LockWait         bool
	LockWaitTimeout  time.Duration // 0 waits indefinitely
	LogLevel         slog.Level
	OTelEndpoint     string
	AutoMigrate      bool
	Format           string
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	MigrationsDir    string `yaml:"migrations_dir"`
	LockTimeout      string `yaml:"lock_timeout"`
	StatementTimeout string `yaml:"statement_timeout"`
	AllowOutOfOrder  bool   `yaml:"allow_out_of_order"`
	LockWait         bool   `yaml:"lock_wait"`
	LockWaitTimeout  string `yaml:"lock_wait_timeout"`
	LogLevel         string `yaml:"log_level"`
	Format           string `yaml:"format"`
}

// envConfig mirrors Config for environment parsing. Pointer fields stay nil
// when the variable is unset so they do not clobber file values.
type envConfig struct {
	DatabaseURL        string         `env:"DATABASE_URL"`
	MigrateDatabaseURL string         `env:"MIGRATE_DATABASE_URL"`
	MigrationsDir      string         `env:"MIGRATE_MIGRATIONS_DIR"`
	LockTimeout        *time.Duration `env:"MIGRATE_LOCK_TIMEOUT"`
	StatementTimeout   *time.Duration `env:"MIGRATE_STATEMENT_TIMEOUT"`
	AllowOutOfOrder    *bool          `env:"MIGRATE_ALLOW_OUT_OF_ORDER"`
	LockWait           *bool          `env:"MIGRATE_LOCK_WAIT"`
	LockWaitTimeout    *time.Duration `env:"MIGRATE_LOCK_WAIT_TIMEOUT"`
	LogLevel           string         `env:"LOG_LEVEL"`
	OTelEndpoint       string         `env:"TEP_OTEL_ENDPOINT"`
	AutoMigrate        *bool          `env:"AUTO_MIGRATE"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		LockWaitTimeout: DefaultLockWaitTimeout,
		LogLevel:        DefaultLogLevel,
		Format:          DefaultFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	cfg.DatabaseURL = raw.DatabaseURL
	cfg.MigrationsDir = raw.MigrationsDir
	cfg.AllowOutOfOrder = raw.AllowOutOfOrder
	cfg.LockWait = raw.LockWait

	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_timeout %q: %w", raw.LockTimeout, err)
		}

		cfg.LockTimeout = d
	}

	if raw.StatementTimeout != "" {
		d, err := time.ParseDuration(raw.StatementTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing statement_timeout %q: %w", raw.StatementTimeout, err)
		}

		cfg.StatementTimeout = d
	}

	if raw.LockWaitTimeout != "" {
		d, err := time.ParseDuration(raw.LockWaitTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_wait_timeout %q: %w", raw.LockWaitTimeout, err)
		}

		cfg.LockWaitTimeout = d
	}

	if raw.LogLevel != "" {
		lvl, err := ParseLogLevel(raw.LogLevel)
		if err != nil {
			return nil, err
		}

		cfg.LogLevel = lvl
	}

	if raw.Format != "" {
		cfg.Format = raw.Format
	}

	return cfg, nil
}

// MergeEnv overrides config fields from environment variables.
// MIGRATE_DATABASE_URL takes precedence over DATABASE_URL.
func MergeEnv(cfg *Config) error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	switch {
	case e.MigrateDatabaseURL != "":
		cfg.DatabaseURL = e.MigrateDatabaseURL
	case e.DatabaseURL != "":
		cfg.DatabaseURL = e.DatabaseURL
	}

	if e.MigrationsDir != "" {
		cfg.MigrationsDir = e.MigrationsDir
	}

	if e.LockTimeout != nil {
		cfg.LockTimeout = *e.LockTimeout
	}

	if e.StatementTimeout != nil {
		cfg.StatementTimeout = *e.StatementTimeout
	}

	if e.AllowOutOfOrder != nil {
		cfg.AllowOutOfOrder = *e.AllowOutOfOrder
	}

	if e.LockWait != nil {
		cfg.LockWait = *e.LockWait
	}

	if e.LockWaitTimeout != nil {
		cfg.LockWaitTimeout = *e.LockWaitTimeout
	}

	if e.AutoMigrate != nil {
		cfg.AutoMigrate = *e.AutoMigrate
	}

	if e.LogLevel != "" {
		lvl, err := ParseLogLevel(e.LogLevel)
		if err != nil {
			return err
		}

		cfg.LogLevel = lvl
	}

	if e.OTelEndpoint != "" {
		cfg.OTelEndpoint = e.OTelEndpoint
	}

	return nil
}

// ParseLogLevel parses debug, info, warn or error (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return DefaultLogLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}

	return lvl, nil
}
