package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultGrowthLevel is reported when progression.md names no level.
const DefaultGrowthLevel = "L1"

// GrowthMetrics summarises an agentic-growth journal: documented edges and
// patterns per category and the current progression level.
type GrowthMetrics struct {
	CurrentLevel       string         `json:"current_level,omitempty"`
	TotalEdges         int            `json:"total_edges"`
	EdgesByCategory    map[string]int `json:"edges_by_category"`
	TotalPatterns      int            `json:"total_patterns"`
	PatternsByCategory map[string]int `json:"patterns_by_category"`
	ProjectsWithEdges  int            `json:"projects_with_edges"`
}

var (
	currentMarkerLevel = regexp.MustCompile(`(L[1-5])[^*]*\*CURRENT`)
	currentLabelLevel  = regexp.MustCompile(`[Cc]urrent[^:]*:\s*(L[1-5])`)
	achievedLevel      = regexp.MustCompile(`(?i)(L[1-5]).*(?:✅|achieved|complete)`)
)

// ScanGrowth reads the growth journal rooted at dir.
func ScanGrowth(dir string) (*GrowthMetrics, error) {
	if gone, err := missing(dir); gone || err != nil {
		return nil, err
	}

	m := &GrowthMetrics{}
	m.EdgesByCategory, m.TotalEdges = countByCategory(filepath.Join(dir, "edges"), "EDGE-*.md")
	m.PatternsByCategory, m.TotalPatterns = countByCategory(filepath.Join(dir, "patterns"), "PATTERN-*.md")

	if data, err := os.ReadFile(filepath.Join(dir, "progression.md")); err == nil {
		m.CurrentLevel = ProgressionLevel(string(data))
	}

	if data, err := os.ReadFile(filepath.Join(dir, "project-edges.json")); err == nil {
		var projects map[string]json.RawMessage
		if json.Unmarshal(data, &projects) == nil {
			for key := range projects {
				if !strings.HasPrefix(key, "_") {
					m.ProjectsWithEdges++
				}
			}
		}
	}
	return m, nil
}

// countByCategory counts files matching pattern in each subdirectory of dir.
// Categories without matches are omitted.
func countByCategory(dir, pattern string) (map[string]int, int) {
	counts := map[string]int{}
	total := 0
	subdirs, err := readDir(dir)
	if err != nil {
		return counts, 0
	}
	for _, sub := range subdirs {
		if !sub.IsDir() {
			continue
		}
		matches, _ := filepath.Glob(filepath.Join(dir, sub.Name(), pattern))
		if len(matches) > 0 {
			counts[sub.Name()] = len(matches)
			total += len(matches)
		}
	}
	return counts, total
}

// ProgressionLevel finds the current L1-L5 level in a progression document:
// a level followed by a *CURRENT marker, then a "Current...: Ln" label, then
// the highest level marked achieved.
func ProgressionLevel(doc string) string {
	if m := currentMarkerLevel.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	if m := currentLabelLevel.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	best := ""
	for _, m := range achievedLevel.FindAllStringSubmatch(doc, -1) {
		level := strings.ToUpper(m[1])
		if level > best {
			best = level
		}
	}
	if best != "" {
		return best
	}
	return DefaultGrowthLevel
}
