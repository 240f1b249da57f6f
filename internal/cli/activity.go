package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/agentx-labs/tooldex/internal/scanner"
)

// printActivity renders every activity section whose source exists.
func printActivity(out io.Writer, a scanner.Activity, now time.Time) {
	fmt.Fprintln(out, "\nActivity:")
	if a.UserSettings == nil && a.Events == nil && a.Insights == nil && a.Sessions == nil &&
		a.Tasks == nil && a.Transcripts == nil && a.Growth == nil {
		fmt.Fprintln(out, "  No activity data found.")
	}

	if us := a.UserSettings; us != nil {
		fmt.Fprintln(out, "\nUser activity:")
		tw := newTable(out)
		printer.Fprintf(tw, "  Startups\t%d\n", us.TotalStartups)
		printer.Fprintf(tw, "  Account age\t%d days\n", us.AccountAgeDays)
		printer.Fprintf(tw, "  Sessions per day\t%.2f\n", us.SessionsPerDay)
		printer.Fprintf(tw, "  Projects\t%d\n", len(us.Projects))
		printer.Fprintf(tw, "  GitHub repos\t%d\n", len(us.GitHubRepos))
		printer.Fprintf(tw, "  Memory uses\t%d\n", us.MemoryUsageCount)
		printer.Fprintf(tw, "  Prompt queue uses\t%d\n", us.PromptQueueUseCount)
		tw.Flush()
		if len(us.TopSkills) > 0 {
			fmt.Fprintln(out, "  Top skills:")
			tw := newTable(out)
			for _, s := range us.TopSkills {
				last := "unknown"
				if !s.LastUsedAt.IsZero() {
					last = s.LastUsedAt.Local().Format(scanner.DayLayout)
				}
				printer.Fprintf(tw, "    %s\t%d uses\tlast %s\n", s.Name, s.UsageCount, last)
			}
			tw.Flush()
		}
		if len(us.HighAdoptionFeatures) > 0 {
			fmt.Fprintf(out, "  High adoption features: %s\n", strings.Join(us.HighAdoptionFeatures, ", "))
		}
	}

	if ev := a.Events; ev != nil {
		fmt.Fprintln(out, "\nEvent queue:")
		printer.Fprintf(out, "  %d events in %d sessions\n", ev.TotalEvents, ev.Sessions)
		if !ev.FirstEventAt.IsZero() {
			fmt.Fprintf(out, "  From %s to %s\n", ev.FirstEventAt.Local().Format(scanner.DayLayout), ev.LastEventAt.Local().Format(scanner.DayLayout))
		}
		printCounts(out, "Event types", ev.EventTypes, 0)
		printRanked(out, "Top tools", ev.TopTools)
		if len(ev.Permissions) > 0 {
			fmt.Fprintln(out, "  Permission modes:")
			tw := newTable(out)
			for _, row := range rankShares(ev.Permissions) {
				printer.Fprintf(tw, "    %s\t%.1f%%\n", row.name, row.share*100)
			}
			tw.Flush()
		}
	}

	if in := a.Insights; in != nil {
		fmt.Fprintln(out, "\nInsights:")
		printer.Fprintf(out, "  %d insights from %d processed sessions\n", in.TotalInsights, in.ProcessedSessions)
		printCounts(out, "By category", in.ByCategory, 0)
		printRanked(out, "Top projects", limitRanked(in.ByProject, 10))
		printQuotes(out, "Recent warnings", in.RecentWarnings)
		printQuotes(out, "Recent patterns", in.RecentPatterns)
	}

	if se := a.Sessions; se != nil {
		fmt.Fprintln(out, "\nSessions:")
		printer.Fprintf(out, "  %d sessions, %.1f prompts per session, %d source apps\n",
			se.TotalSessions, se.PromptsPerSession, len(se.SourceApps))
		printRanked(out, "Top source apps", limitRanked(se.TopSourceApps, 10))
		fmt.Fprintln(out, "  Last 7 days:")
		today := now.Local()
		for i := 6; i >= 0; i-- {
			day := today.AddDate(0, 0, -i).Format(scanner.DayLayout)
			n := se.ActivityByDay[day]
			fmt.Fprintf(out, "    %s %s (%d)\n", day, strings.Repeat("#", min(n, 20)), n)
		}
	}

	if t := a.Tasks; t != nil {
		fmt.Fprintln(out, "\nTasks:")
		printer.Fprintf(out, "  %d tasks: %d completed (%.0f%%), %d pending, %d in progress\n",
			t.TotalTasks, t.Completed, t.CompletionRate*100, t.Pending, t.InProgress)
	}

	if tr := a.Transcripts; tr != nil {
		fmt.Fprintln(out, "\nTranscripts:")
		tw := newTable(out)
		printer.Fprintf(tw, "  Transcripts\t%d\n", tr.Transcripts)
		printer.Fprintf(tw, "  Input tokens\t%d\n", tr.InputTokens)
		printer.Fprintf(tw, "  Output tokens\t%d\n", tr.OutputTokens)
		printer.Fprintf(tw, "  Cache read tokens\t%d\n", tr.CacheReadTokens)
		printer.Fprintf(tw, "  Cache creation tokens\t%d\n", tr.CacheCreationTokens)
		if tr.InputTokens > 0 {
			printer.Fprintf(tw, "  Cache efficiency\t%.1f%%\n", tr.CacheEfficiency()*100)
		}
		tw.Flush()
		printRanked(out, "Top tools", limitRanked(tr.TopTools, 10))
		printCounts(out, "Models", tr.ModelCounts, 5)
	}

	if g := a.Growth; g != nil {
		fmt.Fprintln(out, "\nGrowth:")
		fmt.Fprintf(out, "  Level %s, %d edges, %d patterns, %d projects with edges\n",
			orDash(g.CurrentLevel), g.TotalEdges, g.TotalPatterns, g.ProjectsWithEdges)
		printCounts(out, "Edges by category", g.EdgesByCategory, 0)
		printCounts(out, "Patterns by category", g.PatternsByCategory, 0)
	}

	for _, e := range a.Errors {
		fmt.Fprintf(out, "\nwarning: %s\n", e)
	}
}

func printCounts(out io.Writer, title string, counts map[string]int, limit int) {
	rows := make([]scanner.NameCount, 0, len(counts))
	for name, n := range counts {
		rows = append(rows, scanner.NameCount{Name: name, Count: n})
	}
	sortRanked(rows)
	if limit > 0 {
		rows = limitRanked(rows, limit)
	}
	printRanked(out, title, rows)
}

func printRanked(out io.Writer, title string, rows []scanner.NameCount) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s:\n", title)
	tw := newTable(out)
	for _, r := range rows {
		printer.Fprintf(tw, "    %s\t%d\n", r.Name, r.Count)
	}
	tw.Flush()
}

func printQuotes(out io.Writer, title string, texts []string) {
	if len(texts) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s:\n", title)
	for _, t := range texts[:min(len(texts), 5)] {
		fmt.Fprintf(out, "    - %s\n", truncate(t, 80))
	}
}

func limitRanked(rows []scanner.NameCount, n int) []scanner.NameCount {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func sortRanked(rows []scanner.NameCount) {
	slices.SortFunc(rows, func(a, b scanner.NameCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
}

type shareRow struct {
	name  string
	share float64
}

func rankShares(shares map[string]float64) []shareRow {
	rows := make([]shareRow, 0, len(shares))
	for name, s := range shares {
		rows = append(rows, shareRow{name, s})
	}
	slices.SortFunc(rows, func(a, b shareRow) int {
		switch {
		case a.share > b.share:
			return -1
		case a.share < b.share:
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	return rows
}
