package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/whispera-app/whispera/internal/apierr"
	"github.com/whispera-app/whispera/internal/cli"
	"github.com/whispera-app/whispera/internal/config"
	"github.com/whispera-app/whispera/internal/media"
	"github.com/whispera-app/whispera/internal/pipeline"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitInterrupt     = 130
)

func main() {
	// Load the settings file next to the binary, then any .env in the
	// working directory (ignore errors if missing).
	if p, err := config.Path(); err == nil {
		_ = godotenv.Load(p)
	}
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	// Root command.
	rootCmd := &cobra.Command{
		Use:     "whispera",
		Short:   "Transcribe audio and video files with the OpenAI API",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Subcommands.
	rootCmd.AddCommand(cli.TranscribeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, pipeline.ErrToolUnavailable) || errors.Is(err, cli.ErrAPIKeyMissing) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, pipeline.ErrNoFile) || errors.Is(err, pipeline.ErrFileNotFound) ||
		errors.Is(err, pipeline.ErrUnsupportedFormat) || errors.Is(err, media.ErrSplitFailed) ||
		errors.Is(err, cli.ErrOutputExists) {
		return ExitValidation
	}

	// Transcription errors (ExitTranscription = 5).
	if errors.Is(err, apierr.ErrBadInput) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) {
		return ExitTranscription
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate
// Cobra usage errors. Cobra doesn't expose typed errors, so string matching
// is the only reliable approach. These patterns are stable across Cobra
// versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
