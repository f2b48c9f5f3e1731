package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/cargoscript/internal/assoc"
	"github.com/VoxDroid/cargoscript/internal/ctxlog"
)

var rootCmd = &cobra.Command{
	Use:   "cargo-script",
	Short: "cargo-script runs single-file Rust scripts",
	Long:  "cargo-script manages how .crs scripts are launched on this machine",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		logger := ctxlog.New(level, format, cmd.ErrOrStderr())
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "cargo-script: run 'cargo-script --help' to see available commands")
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}

// exitCode maps a command error to the process exit status. System-blamed
// failures exit 2; everything else, including usage errors, exits 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *assoc.Error
	if errors.As(err, &e) && e.Blame == assoc.BlameSystem {
		return 2
	}
	return 1
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
