package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/branding"
	"github.com/agentx-labs/tooldex/internal/store"
)

var (
	versionShort bool
	versionJSON  bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, buildVersion)
			return nil
		}

		if versionJSON {
			return printJSON(out, map[string]any{
				"version":           buildVersion,
				"commit":            buildCommit,
				"date":              buildDate,
				"schema_generation": store.Generation,
			})
		}

		fmt.Fprintf(out, "%s version %s (commit: %s, built: %s, catalog schema %d)\n",
			branding.CLIName(), buildVersion, buildCommit, buildDate, store.Generation)
		return nil
	},
}
