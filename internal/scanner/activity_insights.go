package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// insightTextLimit caps the length of quoted insight texts.
const insightTextLimit = 200

// InsightMetrics summarises the insights database kept by session hooks.
type InsightMetrics struct {
	TotalInsights     int            `json:"total_insights"`
	ProcessedSessions int            `json:"processed_sessions"`
	ByCategory        map[string]int `json:"by_category"`
	ByProject         []NameCount    `json:"by_project,omitempty"`
	RecentWarnings    []string       `json:"recent_warnings,omitempty"`
	RecentPatterns    []string       `json:"recent_patterns,omitempty"`
	RecentTradeoffs   []string       `json:"recent_tradeoffs,omitempty"`
}

// ScanInsights opens insights.db read-only. A database without an insights
// table yields nil.
func ScanInsights(ctx context.Context, path string) (*InsightMetrics, error) {
	if gone, err := missing(path); gone || err != nil {
		return nil, err
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ok, err := hasTable(ctx, db, "insights")
	if err != nil || !ok {
		return nil, err
	}

	m := &InsightMetrics{ByCategory: map[string]int{}}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM insights`).Scan(&m.TotalInsights); err != nil {
		return nil, fmt.Errorf("count insights: %w", err)
	}

	if err := eachRow(ctx, db, `
		SELECT COALESCE(category, ''), COUNT(*) FROM insights GROUP BY category
	`, func(rows *sql.Rows) error {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return err
		}
		m.ByCategory[category] += n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("insights by category: %w", err)
	}

	byProject := map[string]int{}
	if err := eachRow(ctx, db, `
		SELECT COALESCE(project_path, ''), COUNT(*) FROM insights GROUP BY project_path
	`, func(rows *sql.Rows) error {
		var (
			project string
			n       int
		)
		if err := rows.Scan(&project, &n); err != nil {
			return err
		}
		name := "unknown"
		if project != "" {
			name = filepath.Base(project)
		}
		byProject[name] += n
		return nil
	}); err != nil {
		return nil, fmt.Errorf("insights by project: %w", err)
	}
	m.ByProject = topCounts(byProject, 20)

	if ok, err := hasTable(ctx, db, "processed_sessions"); err != nil {
		return nil, err
	} else if ok {
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_sessions`).Scan(&m.ProcessedSessions); err != nil {
			return nil, fmt.Errorf("count processed sessions: %w", err)
		}
	}

	for category, dst := range map[string]*[]string{
		"warning":  &m.RecentWarnings,
		"pattern":  &m.RecentPatterns,
		"tradeoff": &m.RecentTradeoffs,
	} {
		if err := eachRow(ctx, db, `
			SELECT COALESCE(insight_text, '') FROM insights
			WHERE category = ?
			ORDER BY timestamp DESC
			LIMIT 10
		`, func(rows *sql.Rows) error {
			var text string
			if err := rows.Scan(&text); err != nil {
				return err
			}
			*dst = append(*dst, clip(text, insightTextLimit))
			return nil
		}, category); err != nil {
			return nil, fmt.Errorf("recent %s insights: %w", category, err)
		}
	}
	return m, nil
}

func hasTable(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", name, err)
	}
	return n > 0, nil
}

func eachRow(ctx context.Context, db *sql.DB, query string, fn func(*sql.Rows) error, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
