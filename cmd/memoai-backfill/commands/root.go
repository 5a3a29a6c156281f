// Package commands implements the CLI commands for memoai-backfill.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memoai-backfill",
	Short: "Import saved conversation pages into MemoAI",
	Long: `memoai-backfill captures conversation pages that were saved to disk
before the browser extension was installed.

Examples:
  # Capture every .html file under a directory
  memoai-backfill run --dir ~/Downloads/claude --model Claude

  # See what would be extracted without storing anything
  memoai-backfill run --dir ~/Downloads/chatgpt --model ChatGPT --dry-run

  # Print the transcript of one saved page
  memoai-backfill extract page.html --model Claude`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		level, _ := cmd.Flags().GetString("log-level")
		if debug {
			level = "debug"
		}
		setupLogging(level)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

var errDatabaseURL = errors.New("DATABASE_URL is required unless --dry-run is set")
