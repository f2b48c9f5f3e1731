package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/cargoscript/internal/assoc"
	"github.com/VoxDroid/cargoscript/internal/keystore"
)

// Overridden in tests.
var (
	newStore   = keystore.System
	executable = os.Executable
)

var errNoAction = &assoc.Error{
	Kind:  assoc.KindInvalid,
	Blame: assoc.BlameHuman,
	Op:    "file-association",
	Err:   errors.New("no action specified"),
}

var fileAssocCmd = &cobra.Command{
	Use:   "file-association",
	Short: "Manage the .crs file association",
	Long: "Register or remove the .crs file association so scripts can be run by " +
		"double-clicking them or, with --amend-pathext, by name from a console.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_ = cmd.Help()
		return errNoAction
	},
}

// newInstaller opens the system store and binds an Installer to cmd's output.
func newInstaller(cmd *cobra.Command) (*assoc.Installer, error) {
	store, err := newStore()
	if err != nil {
		return nil, &assoc.Error{Kind: assoc.KindIO, Blame: assoc.BlameSystem, Op: "open registry", Err: err}
	}
	in := assoc.New(store, cmd.OutOrStdout())
	in.Executable = executable
	return in, nil
}

func init() {
	fileAssocCmd.AddCommand(fileAssocInstallCmd, fileAssocUninstallCmd, fileAssocStatusCmd)
	if keystore.Supported() {
		rootCmd.AddCommand(fileAssocCmd)
	}
}
