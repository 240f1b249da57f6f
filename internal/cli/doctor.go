package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/branding"
	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/manifest"
	"github.com/agentx-labs/tooldex/internal/platform"
	"github.com/agentx-labs/tooldex/internal/store"
	"github.com/agentx-labs/tooldex/internal/userdata"
)

var (
	doctorFix    bool
	checkPaths   bool
	checkCatalog bool
	checkDocs    []string
)

func init() {
	doctorCmd.Flags().BoolVar(&checkPaths, "check-paths", false, "Verify tool homes and the catalog directory")
	doctorCmd.Flags().BoolVar(&checkCatalog, "check-catalog", false, "Verify the catalog database opens and is fresh")
	doctorCmd.Flags().StringArrayVar(&checkDocs, "check-doc", nil, "Validate the frontmatter of a SKILL.md or command file (repeatable)")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create the catalog directory and repair its permissions")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for " + branding.DisplayName(),
	Long:  `Run diagnostic checks on the resolved tool homes and the catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		all := !checkPaths && !checkCatalog && len(checkDocs) == 0

		var failed bool
		if all || checkPaths {
			r := userdata.CheckPaths(out, app.paths, doctorFix)
			printer.Fprintf(out, "  %d ok, %d missing, %d warning(s)\n", r.OK, r.Missing, r.Warnings)
		}
		if all || checkCatalog {
			if err := runCatalogCheck(cmd, out); err != nil {
				failed = true
			}
		}
		for _, path := range checkDocs {
			if err := runFrontmatterCheck(out, path); err != nil {
				failed = true
			}
		}
		if failed {
			return errors.New("doctor found problems")
		}
		return nil
	},
}

func runCatalogCheck(cmd *cobra.Command, out io.Writer) error {
	fmt.Fprintln(out, "Catalog check:")
	if !platform.Exists(app.paths.DBPath) {
		fmt.Fprintf(out, "  [MISS] %s does not exist (run '%s scan')\n", app.paths.DBPath, rootCmd.Name())
		return nil
	}

	st, err := store.Open(cmd.Context(), store.Options{Path: app.paths.DBPath, Logger: app.logger})
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] cannot open %s: %v\n", app.paths.DBPath, err)
		return err
	}
	defer st.Close()

	n, err := st.Count(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	printer.Fprintf(out, "  [ OK ] %s opens (schema generation %d, %d components)\n", app.paths.DBPath, store.Generation, n)

	last, err := st.LastScan(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	if catalog.IsStale(last, catalog.DefaultMaxAge, time.Now()) {
		fmt.Fprintf(out, "  [WARN] last scan %s is more than a week old (run '%s scan')\n", formatTime(last), rootCmd.Name())
		return nil
	}
	fmt.Fprintf(out, "  [ OK ] last scan %s\n", formatTime(last))
	return nil
}

func runFrontmatterCheck(out io.Writer, path string) error {
	fmt.Fprintf(out, "Frontmatter validation: %s\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	fm, _, err := manifest.ParseFrontmatter(string(data))
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	result, err := manifest.ValidateFrontmatter(fm)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return err
	}
	if result.Valid {
		fmt.Fprintf(out, "  [ OK ] valid frontmatter: %s\n", orDash(fm.Name))
		return nil
	}

	fmt.Fprintf(out, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(out, "    - %s\n", issue)
	}
	return fmt.Errorf("%s has %d validation issue(s)", path, len(result.Issues))
}
