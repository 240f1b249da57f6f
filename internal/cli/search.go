package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/store"
)

var (
	searchPlatform string
	searchType     string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the catalog",
	Long: `Search component names, descriptions and keywords. Every word of the query
must match, and each word also matches as a prefix ("gma" finds "gmail").`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchPlatform, "platform", "", "Filter by platform (claude, codex)")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Filter by type (skill, plugin, command, hook, mcp, binary)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	filter, err := listFilter(searchPlatform, searchType, "", "")
	if err != nil {
		return err
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	found, err := st.Search(cmd.Context(), query)
	if err != nil {
		return err
	}
	entries := filterEntries(found, filter)

	if searchJSON {
		if entries == nil {
			entries = []catalog.Entry{}
		}
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No components matching %q\n", query)
		return nil
	}
	return printEntries(cmd.OutOrStdout(), entries)
}

// filterEntries keeps the entries matching f, preserving rank order.
func filterEntries(entries []catalog.Entry, f store.Filter) []catalog.Entry {
	if f == (store.Filter{}) {
		return entries
	}
	var out []catalog.Entry
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
