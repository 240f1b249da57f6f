package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyJSON bool

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <identity>",
	Short: "Show the installation history of a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIdentity(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		events, err := st.History(cmd.Context(), id)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(cmd.OutOrStdout(), events)
		}

		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "WHEN\tEVENT\tVERSION")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", formatTime(e.Timestamp), e.Kind, orDash(e.Version))
		}
		return tw.Flush()
	},
}
