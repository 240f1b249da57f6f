package extract

import (
	"regexp"
	"strings"
)

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	listItemPattern = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+)$`)
)

// line is one body line annotated with whether it sits inside a fence.
type line struct {
	text    string
	inFence bool
	fence   bool // the line is itself a fence delimiter
}

func scanLines(body string) []line {
	raw := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	out := make([]line, 0, len(raw))
	in := false
	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			out = append(out, line{text: l, inFence: in, fence: true})
			in = !in
			continue
		}
		out = append(out, line{text: l, inFence: in})
	}
	return out
}

// heading returns the level and normalized title of a markdown heading line.
func heading(l line) (int, string, bool) {
	if l.inFence || l.fence {
		return 0, "", false
	}
	m := headingPattern.FindStringSubmatch(l.text)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), normalizeTitle(m[2]), true
}

func normalizeTitle(s string) string {
	s = strings.ToLower(strings.Trim(s, "*_` :"))
	return strings.Join(strings.Fields(s), " ")
}

// Section returns the text under the first heading whose title equals or
// starts with one of names (case-insensitive), up to the next heading of
// the same or a higher level. Fenced code is never mistaken for a heading.
func Section(body string, names ...string) string {
	lines := scanLines(body)
	for i, l := range lines {
		level, title, ok := heading(l)
		if !ok || !titleMatches(title, names) {
			continue
		}
		var b strings.Builder
		for _, next := range lines[i+1:] {
			if lvl, _, ok := heading(next); ok && lvl <= level {
				break
			}
			b.WriteString(next.text)
			b.WriteByte('\n')
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

func titleMatches(title string, names []string) bool {
	for _, n := range names {
		n = strings.ToLower(n)
		if title == n || strings.HasPrefix(title, n+" ") || strings.HasPrefix(title, n+":") {
			return true
		}
	}
	return false
}

// ListItems returns the bullet or numbered items of text outside fences.
// When text has no list, its non-empty prose lines are returned instead.
func ListItems(text string) []string {
	var items, prose []string
	for _, l := range scanLines(text) {
		if l.inFence || l.fence {
			continue
		}
		if m := listItemPattern.FindStringSubmatch(l.text); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		if t := strings.TrimSpace(l.text); t != "" {
			if _, _, isHeading := heading(l); !isHeading {
				prose = append(prose, t)
			}
		}
	}
	if len(items) > 0 {
		return items
	}
	return prose
}

// Headings returns the normalized titles of every heading in body.
func Headings(body string) []string {
	var out []string
	for _, l := range scanLines(body) {
		if _, title, ok := heading(l); ok {
			out = append(out, title)
		}
	}
	return out
}
