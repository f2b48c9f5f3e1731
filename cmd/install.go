package cmd

import (
	"github.com/spf13/cobra"

	"github.com/VoxDroid/cargoscript/internal/assoc"
)

var fileAssocInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the .crs file association",
	Long: "Point .crs files at the run-cargo-script launcher next to this binary. " +
		"Use --amend-pathext to also add .CRS to the system PATHEXT and --dry-run to preview actions.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		amend, _ := cmd.Flags().GetBool("amend-pathext")
		dry, _ := cmd.Flags().GetBool("dry-run")
		in, err := newInstaller(cmd)
		if err != nil {
			return err
		}
		return in.Install(cmd.Context(), assoc.InstallOptions{AmendPathExt: amend, DryRun: dry})
	},
}

func init() {
	fileAssocInstallCmd.Flags().Bool("amend-pathext", false, "Add .CRS to the system PATHEXT so scripts run without their extension")
	fileAssocInstallCmd.Flags().BoolP("dry-run", "n", false, "Show actions but do not perform them")
}
