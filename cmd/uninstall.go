package cmd

import (
	"github.com/spf13/cobra"

	"github.com/VoxDroid/cargoscript/internal/assoc"
)

var fileAssocUninstallCmd = &cobra.Command{
	Use:          "uninstall",
	Short:        "Remove the .crs file association and its PATHEXT entry",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
		in, err := newInstaller(cmd)
		if err != nil {
			return err
		}
		return in.Uninstall(cmd.Context(), assoc.UninstallOptions{DryRun: dry})
	},
}

func init() {
	fileAssocUninstallCmd.Flags().BoolP("dry-run", "n", false, "Show actions but do not perform them")
}
