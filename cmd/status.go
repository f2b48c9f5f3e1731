package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fileAssocStatusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Show the .crs file association and PATHEXT state",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := newInstaller(cmd)
		if err != nil {
			return err
		}
		st, err := in.Status(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s file association status:\n", st.Extension)
		if st.Handler == "" {
			fmt.Fprintf(out, "- Extension: not mapped\n")
		} else {
			fmt.Fprintf(out, "- Extension: mapped to %s\n", st.Handler)
		}
		fmt.Fprintf(out, "- ProgID %s: %s\n", st.ProgID, presence(st.ProgIDPresent))
		if st.CommandPresent {
			fmt.Fprintf(out, "- Open command: %s\n", st.CommandLine)
		} else {
			fmt.Fprintf(out, "- Open command: missing\n")
		}
		if st.PathExtSet {
			fmt.Fprintf(out, "- PATHEXT contains %s: %v\n", st.PathExtToken, st.OnPathExt)
		} else {
			fmt.Fprintf(out, "- PATHEXT: not set\n")
		}
		fmt.Fprintf(out, "- Installed: %v\n", st.Installed())
		return nil
	},
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "missing"
}
