package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/scanner"
	"github.com/agentx-labs/tooldex/internal/store"
)

var (
	statsDays     int
	statsDetailed bool
	statsJSON     bool
)

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "Usage window in days (default from config, 30)")
	statsCmd.Flags().BoolVar(&statsDetailed, "detailed", false, "Also read session, event, transcript and growth activity")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := statsDays
		if days <= 0 {
			days = app.settings.UsageWindowDays
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.UsageStats(ctx, days)
		if err != nil {
			return err
		}
		var activity scanner.Activity
		if statsDetailed {
			activity = scanner.ScanActivity(ctx, platformRoots()[0], time.Now(), app.logger)
		}
		if statsJSON {
			if statsDetailed {
				return printJSON(cmd.OutOrStdout(), struct {
					Usage    store.UsageStats `json:"usage"`
					Activity scanner.Activity `json:"activity"`
				}{stats, activity})
			}
			return printJSON(cmd.OutOrStdout(), stats)
		}

		total, err := st.Count(ctx)
		if err != nil {
			return err
		}
		last, err := st.LastScan(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printer.Fprintf(out, "Components: %d (last scan: %s)\n", total, formatTime(last))
		printer.Fprintf(out, "Invocations in the last %d days: %d\n", stats.WindowDays, stats.TotalInvocations)

		if len(stats.MostUsed) > 0 {
			fmt.Fprintln(out, "\nMost used:")
			tw := newTable(out)
			for _, u := range stats.MostUsed {
				printer.Fprintf(tw, "  %s\t%d\n", u.Identity, u.Count)
			}
			tw.Flush()
		}
		if len(stats.Performance) > 0 {
			fmt.Fprintln(out, "\nSlowest (average duration):")
			tw := newTable(out)
			for _, p := range stats.Performance {
				printer.Fprintf(tw, "  %s\t%s\t%d samples\n", p.Identity, formatDuration(p.AvgDuration), p.Samples)
			}
			tw.Flush()
		}
		if len(stats.RecentInstalls) > 0 {
			fmt.Fprintln(out, "\nRecently installed:")
			tw := newTable(out)
			for _, r := range stats.RecentInstalls {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Identity, orDash(r.Version), formatTime(r.InstalledAt))
			}
			tw.Flush()
		}
		if statsDetailed {
			printActivity(out, activity, time.Now())
		}
		return nil
	},
}
