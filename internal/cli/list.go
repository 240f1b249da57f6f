package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/store"
)

var (
	listPlatform string
	listType     string
	listOrigin   string
	listStatus   string
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued components",
	Long:  `List the components recorded by the last scans, optionally filtered.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listPlatform, "platform", "", "Filter by platform (claude, codex)")
	listCmd.Flags().StringVar(&listType, "type", "", "Filter by type (skill, plugin, command, hook, mcp, binary)")
	listCmd.Flags().StringVar(&listOrigin, "origin", "", "Filter by origin (in-house, official, community, external, plugin, local, legacy)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (active, disabled, error)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listFilter validates the list flags.
func listFilter(platform, typ, origin, status string) (store.Filter, error) {
	var f store.Filter
	if platform != "" {
		p, err := catalog.ParsePlatform(platform)
		if err != nil {
			return f, err
		}
		f.Platform = p
	}
	if typ != "" {
		t, err := catalog.ParseComponentType(typ)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	f.Origin = catalog.Origin(origin)
	switch s := catalog.Status(status); s {
	case "", catalog.StatusActive, catalog.StatusDisabled, catalog.StatusError:
		f.Status = s
	default:
		return f, fmt.Errorf("unknown status %q (valid: active, disabled, error)", status)
	}
	return f, nil
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := listFilter(listPlatform, listType, listOrigin, listStatus)
	if err != nil {
		return err
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if listJSON {
		if entries == nil {
			entries = []catalog.Entry{}
		}
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		if filter == (store.Filter{}) {
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog is empty. Run '%s scan' first.\n", rootCmd.Name())
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No components match the given filters.")
		}
		return nil
	}
	return printEntries(cmd.OutOrStdout(), entries)
}
