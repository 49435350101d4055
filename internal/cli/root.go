// Package cli holds the bankassist command tree: serve, ingest, seed, chat
// and version.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"bankassist/internal/config"
)

// version is set at build time with -ldflags "-X bankassist/internal/cli.version=...".
var version = "dev"

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bankassist",
	Short: "Customer-scoped banking support assistant",
	Long: `bankassist answers banking questions from a customer's own records.

Configuration is read from the environment and from a .env file in the
working directory or one of its parents.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging installs the default slog logger with the configured level and format.
func setupLogging(c *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: c.LogLevel,
	}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", c.LogLevel.String(), "format", c.LogFormat)
	return logger
}
