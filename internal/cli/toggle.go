package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/store"
	"github.com/agentx-labs/tooldex/internal/toggle"
)

var toggleNoRescan bool

func init() {
	toggleCmd.Flags().BoolVar(&toggleNoRescan, "no-rescan", false, "Do not refresh the catalog afterwards")
	rootCmd.AddCommand(toggleCmd)
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <identity>",
	Short: "Enable or disable a component",
	Long: `Flip a catalogued component between active and disabled by rewriting the
artifact that defines it. Skills, commands, hooks and binaries move in and out
of the .disabled directory next to them; MCP servers move between the active
and disabled collections of their config document.

Plugin-provided and built-in components cannot be toggled individually.`,
	Args: cobra.ExactArgs(1),
	RunE: runToggle,
}

func runToggle(cmd *cobra.Command, args []string) error {
	id, err := parseIdentity(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := st.Get(ctx, id)
	if store.IsNotFound(err) {
		return fmt.Errorf("%s is not in the catalog; run '%s scan' first", id, rootCmd.Name())
	}
	if err != nil {
		return err
	}

	res, err := toggleEngine().Toggle(entry)
	switch {
	case toggle.IsNotSupported(err):
		return err
	case toggle.IsFailed(err):
		return fmt.Errorf("%w (fix the underlying problem and retry)", err)
	case err != nil:
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)

	if toggleNoRescan {
		return nil
	}
	if _, _, err := scanAndStore(ctx, st, []catalog.Platform{id.Platform}, app.settings.ScanParallel); err != nil {
		return err
	}
	return nil
}
