package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thephilippbusch/tep-app/internal/config"
	"github.com/thephilippbusch/tep-app/internal/telemetry"
)

const (
	version     = "0.1.0"
	serviceName = "tep-migrate"
)

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// logger is replaced in PersistentPreRunE once the level is known.
var logger = slog.New(slog.DiscardHandler) //nolint:gochecknoglobals // shared with subcommands

var shutdownTracing telemetry.ShutdownFunc //nolint:gochecknoglobals // set in PersistentPreRunE

// rootCmd is the base command for the migrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "migrate",
	Version: version,
	Short:   "Versioned, reversible schema migrations for the TEP backend",
	Long: `migrate applies and reverts the TEP schema migrations against
PostgreSQL or SQLite. Built-in migrations can be extended with SQL files
from a migrations directory. Every migration runs in its own transaction
together with its bookkeeping row, and runs are serialized by a database lock.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		shutdown, err := telemetry.Setup(commandContext(cmd), serviceName, AppConfig.OTelEndpoint)
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}

		shutdownTracing = shutdown

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if shutdownTracing == nil {
			return nil
		}

		return shutdownTracing(context.WithoutCancel(commandContext(cmd)))
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().String("database-url", "", "postgres:// or sqlite:// connection string")
	rootCmd.PersistentFlags().String("migrations-dir", "", "directory of additional SQL-file migrations")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := config.MergeEnv(cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mergeFlags(cmd, cfg)

	AppConfig = cfg
	logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("database-url") {
		cfg.DatabaseURL, _ = cmd.Flags().GetString("database-url")
	}

	if cmd.Flags().Changed("migrations-dir") {
		cfg.MigrationsDir, _ = cmd.Flags().GetString("migrations-dir")
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = slog.LevelDebug
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
