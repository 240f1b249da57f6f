package extract

import (
	"regexp"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

var (
	speedupPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)[xX]\s*(?:faster|speedup)`)
	timePattern    = regexp.MustCompile(`~?(\d+)\s*(?:ms|milliseconds)\b`)
	tokenPattern   = regexp.MustCompile(`(?i)saves?\s+(\d+)\s+tokens?`)
)

// PerformanceMetrics reads a Performance or Benchmarks table when present,
// falling back to free-text figures ("5.6x faster", "~300ms",
// "saves 800 tokens"). For the fallback the last match of each kind wins.
func PerformanceMetrics(body string) []catalog.Metric {
	if metrics := tableMetrics(Section(body, "performance", "benchmarks")); len(metrics) > 0 {
		return metrics
	}

	var out []catalog.Metric
	if m := lastSubmatch(speedupPattern, body); m != "" {
		out = append(out, catalog.Metric{Name: "speedup", Value: m + "x"})
	}
	if m := lastSubmatch(timePattern, body); m != "" {
		out = append(out, catalog.Metric{Name: "execution_time", Value: m + "ms"})
	}
	if m := lastSubmatch(tokenPattern, body); m != "" {
		out = append(out, catalog.Metric{Name: "token_savings", Value: m + " tokens"})
	}
	return out
}

func lastSubmatch(p *regexp.Regexp, s string) string {
	all := p.FindAllStringSubmatch(s, -1)
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1][1]
}

var separatorRow = regexp.MustCompile(`^\|?[\s:|-]+\|?$`)

func tableMetrics(section string) []catalog.Metric {
	if section == "" {
		return nil
	}
	var (
		out     []catalog.Metric
		headers []string
	)
	for _, l := range strings.Split(section, "\n") {
		l = strings.TrimSpace(l)
		if !strings.HasPrefix(l, "|") {
			headers = nil
			continue
		}
		cells := splitRow(l)
		switch {
		case headers == nil:
			headers = cells
		case separatorRow.MatchString(l):
		case len(cells) == len(headers):
			row := make(map[string]string, len(cells))
			for i, h := range headers {
				row[strings.ToLower(h)] = cells[i]
			}
			op := row["operation"]
			if op == "" {
				continue
			}
			value := firstNonEmpty(row["gateway cli"], row["time"], row["latency"], row["duration"])
			out = append(out, catalog.Metric{Name: op, Value: value, Speedup: row["speedup"]})
		}
	}
	return out
}

func splitRow(l string) []string {
	parts := strings.Split(strings.Trim(l, "|"), "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
