package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/cargoscript/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cargo-script version and platform",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cargo-script %s (%s/%s)\n", version.String(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
