package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// printer formats counts with thousands separators.
var printer = message.NewPrinter(language.English)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printEntries writes the table used by list and search.
func printEntries(w io.Writer, entries []catalog.Entry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "PLATFORM\tTYPE\tNAME\tSTATUS\tORIGIN\tVERSION\tDESCRIPTION")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Platform, e.Type, e.Name, e.Status, e.Origin, orDash(e.Version), truncate(e.Description(), 60))
	}
	return tw.Flush()
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return printer.Sprintf("%d ms", d.Milliseconds())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
