package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/tooldex/internal/store"
)

var (
	usageDays   int
	usageErrors int
	usageJSON   bool
)

func init() {
	usageCmd.Flags().IntVar(&usageDays, "days", 0, "Usage window in days (default from config, 30)")
	usageCmd.Flags().IntVar(&usageErrors, "errors", store.DefaultErrorLimit, "Number of recent errors to show")
	usageCmd.Flags().BoolVar(&usageJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(usageCmd)
}

var usageCmd = &cobra.Command{
	Use:   "usage <identity>",
	Short: "Show usage of one component",
	Long:  `Show invocation counts, success rate and latency for [platform:]type:name.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIdentity(args[0])
		if err != nil {
			return err
		}
		days := usageDays
		if days <= 0 {
			days = app.settings.UsageWindowDays
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.EntryUsage(cmd.Context(), id, days, usageErrors)
		if err != nil {
			return err
		}
		if usageJSON {
			return printJSON(cmd.OutOrStdout(), u)
		}

		out := cmd.OutOrStdout()
		if !u.Found {
			fmt.Fprintf(out, "%s is not in the catalog.\n", id)
			return nil
		}
		printer.Fprintf(out, "%s (last %d days)\n", id, u.WindowDays)
		printer.Fprintf(out, "  Invocations:  %d in %d session(s)\n", u.Total, u.Sessions)
		printer.Fprintf(out, "  Success rate: %.1f%%\n", u.SuccessRate*100)
		fmt.Fprintf(out, "  Avg duration: %s\n", formatDuration(u.AvgDuration))
		fmt.Fprintf(out, "  p95 duration: %s\n", formatDuration(u.P95Duration))
		fmt.Fprintf(out, "  Last invoked: %s\n", formatTime(u.LastInvoked))
		if len(u.RecentErrors) > 0 {
			fmt.Fprintln(out, "  Recent errors:")
			for _, e := range u.RecentErrors {
				fmt.Fprintf(out, "    %s  %s\n", formatTime(e.Timestamp), orDash(e.Message))
			}
		}
		return nil
	},
}
