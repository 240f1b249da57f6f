package scanner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DayLayout keys per-day activity counts.
const DayLayout = "2006-01-02"

// SessionMetrics summarises the saved session documents.
type SessionMetrics struct {
	TotalSessions     int            `json:"total_sessions"`
	PromptsPerSession float64        `json:"prompts_per_session"`
	SourceApps        map[string]int `json:"source_apps"`
	TopSourceApps     []NameCount    `json:"top_source_apps,omitempty"`
	ActivityByDay     map[string]int `json:"activity_by_day"`
}

// TaskMetrics summarises the todo lists written by agent sessions.
type TaskMetrics struct {
	TotalTasks     int     `json:"total_tasks"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	CompletionRate float64 `json:"completion_rate"`
}

// ScanSessions reads every *.json session document in dir. Each file counts
// as a session on the day it was last modified (local time) even when its
// content cannot be parsed.
func ScanSessions(dir string) (*SessionMetrics, error) {
	if gone, err := missing(dir); gone || err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := &SessionMetrics{SourceApps: map[string]int{}, ActivityByDay: map[string]int{}}
	prompts := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		m.TotalSessions++
		if info, err := de.Info(); err == nil {
			m.ActivityByDay[info.ModTime().Local().Format(DayLayout)]++
		}

		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		var doc struct {
			Prompts   json.RawMessage `json:"prompts"`
			SourceApp *string         `json:"source_app"`
		}
		if json.Unmarshal(data, &doc) != nil {
			continue
		}
		var list []json.RawMessage
		if json.Unmarshal(doc.Prompts, &list) == nil {
			prompts += len(list)
		}
		app := "unknown"
		if doc.SourceApp != nil {
			app = *doc.SourceApp
		}
		if app != "" {
			m.SourceApps[app]++
		}
	}

	if m.TotalSessions > 0 {
		m.PromptsPerSession = float64(prompts) / float64(m.TotalSessions)
	}
	m.TopSourceApps = topCounts(m.SourceApps, 20)
	return m, nil
}

// ScanTodos reads every *.json todo list in dir. Files holding at most an
// empty list are skipped.
func ScanTodos(dir string) (*TaskMetrics, error) {
	if gone, err := missing(dir); gone || err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	m := &TaskMetrics{}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil || info.Size() <= 2 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		var tasks []json.RawMessage
		if json.Unmarshal(data, &tasks) != nil {
			continue
		}
		for _, raw := range tasks {
			var task map[string]any
			if json.Unmarshal(raw, &task) != nil || task == nil {
				continue
			}
			m.TotalTasks++
			switch status, _ := task["status"].(string); status {
			case "completed":
				m.Completed++
			case "pending":
				m.Pending++
			case "in_progress":
				m.InProgress++
			}
		}
	}
	if m.TotalTasks > 0 {
		m.CompletionRate = float64(m.Completed) / float64(m.TotalTasks)
	}
	return m, nil
}
