// Package cli provides the command-line interface for blfdump.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/boatkit-io/blf/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		// SilenceErrors keeps cobra from printing it
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blfdump",
		Short: "Inspect Vector BLF log files",
		Long: `blfdump reads Vector Binary Logging Format (BLF) files.

It can:
  - print every frame, optionally through a custom template (dump)
  - summarize the file header and object statistics (info)
  - convert classic CAN frames to canboat RAW lines (raw)

Settings come from an optional YAML file (--config), then the BLFDUMP_LOG_LEVEL and
BLFDUMP_TEMPLATE environment variables, then command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String(commands.FlagConfig, "", "YAML configuration file")
	rootCmd.PersistentFlags().String(commands.FlagLogLevel, "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(commands.NewDumpCommand())
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewRawCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
