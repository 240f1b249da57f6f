package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/scanner"
)

var (
	scanPlatform   string
	scanSequential bool
	scanNoDB       bool
	scanJSON       bool
)

func init() {
	scanCmd.Flags().StringVar(&scanPlatform, "platform", "all", "Platform to scan (claude, codex, all)")
	scanCmd.Flags().BoolVar(&scanSequential, "sequential", false, "Run scanners one at a time")
	scanCmd.Flags().BoolVar(&scanNoDB, "no-db", false, "Print the scan without saving it to the catalog")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Output the scan result as JSON")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan tool homes and refresh the catalog",
	Long: `Scan the configured Claude and Codex homes for skills, plugins, commands,
hooks, MCP servers and binaries, then record the result in the catalog.

Entries that disappeared since the last scan stay in the catalog.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	platforms, err := parsePlatforms(scanPlatform)
	if err != nil {
		return err
	}
	parallel := app.settings.ScanParallel && !scanSequential
	ctx := cmd.Context()

	if scanNoDB {
		result := scanner.NewOrchestrator(platformRoots(), app.logger).ScanAll(ctx, platforms, parallel)
		if scanJSON {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printScanSummary(cmd, result)
		return nil
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	result, summary, err := scanAndStore(ctx, st, platforms, parallel)
	if err != nil {
		return err
	}
	if scanJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printScanSummary(cmd, result)
	printer.Fprintf(cmd.OutOrStdout(), "Catalog updated: %d installed, %d updated (%s)\n",
		summary.Installed, summary.Updated, st.Path())
	return nil
}

func printScanSummary(cmd *cobra.Command, result catalog.ScanResult) {
	out := cmd.OutOrStdout()
	counts := result.Counts()
	tw := newTable(out)
	fmt.Fprintln(tw, "TYPE\tCOUNT")
	for _, t := range catalog.ComponentTypes {
		printer.Fprintf(tw, "%s\t%d\n", t, counts[t])
	}
	printer.Fprintf(tw, "total\t%d\n", result.Total())
	tw.Flush()

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\n%d scan error(s):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
}
