// Command verify runs the stack verification harness. Each subcommand
// checks one dependency of the local LLM stack with a readiness poll and
// a write/read round-trip, and exits with a code describing the failure
// class:
//
//	0  round-trip succeeded
//	1  missing dependency or unclassified failure
//	2  connectivity failure or readiness timeout
//	3  unparseable response or missing key
//	4  read-back value differs from what was written
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwessel/relais/pkg/verify"
)

var (
	flagRetries  int
	flagInterval time.Duration
	flagTimeout  time.Duration
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "verify",
	Short:         "Verify the local LLM stack dependencies",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogger(flagLogLevel)
	},
}

func main() {
	rootCmd.PersistentFlags().IntVar(&flagRetries, "retries", 30, "readiness poll attempts")
	rootCmd.PersistentFlags().DurationVar(&flagInterval, "interval", 2*time.Second, "sleep between poll attempts")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(
		vaultCmd(),
		keycloakCmd(),
		litellmCmd(),
		mcpCmd(),
		adapterCmd(),
		allCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(verify.ExitCode(err))
	}
}

// poller builds the shared readiness poller from the persistent flags.
func poller() verify.Poller {
	return verify.Poller{
		Retries:  flagRetries,
		Interval: flagInterval,
	}
}

// envOrDefault reads an environment variable with a fallback.
func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func setupLogger(level string) {
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
