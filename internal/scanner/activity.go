package scanner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Activity telemetry locations relative to the Claude home.
const (
	SessionsDir    = "data/sessions"
	EventQueueFile = "data/event_queue.jsonl"
	InsightsDBFile = "data/insights.db"
	TodosDir       = "todos"
	ProjectsDir    = "projects"
	GrowthDir      = "agentic-growth"
)

// Activity is the read-only usage telemetry found around a Claude
// installation. A nil section means its source does not exist.
type Activity struct {
	UserSettings *UserSettings      `json:"user_settings,omitempty"`
	Events       *EventMetrics      `json:"events,omitempty"`
	Insights     *InsightMetrics    `json:"insights,omitempty"`
	Sessions     *SessionMetrics    `json:"sessions,omitempty"`
	Tasks        *TaskMetrics       `json:"tasks,omitempty"`
	Transcripts  *TranscriptMetrics `json:"transcripts,omitempty"`
	Growth       *GrowthMetrics     `json:"growth,omitempty"`
	Errors       []string           `json:"errors,omitempty"`
}

// NameCount is one row of a ranked frequency table.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ScanActivity reads every activity source under roots concurrently. A
// failing source is reported in Errors and leaves its section nil.
func ScanActivity(ctx context.Context, roots PlatformRoots, now time.Time, logger *zap.Logger) Activity {
	if logger == nil {
		logger = zap.NewNop()
	}
	home := roots.Home

	var a Activity
	sources := []struct {
		name string
		run  func() error
	}{
		{"user settings", func() (err error) { a.UserSettings, err = ScanUserSettings(roots.ClaudeJSON, now); return }},
		{"event queue", func() (err error) { a.Events, err = ScanEventQueue(joinHome(home, EventQueueFile)); return }},
		{"insights", func() (err error) { a.Insights, err = ScanInsights(ctx, joinHome(home, InsightsDBFile)); return }},
		{"sessions", func() (err error) { a.Sessions, err = ScanSessions(joinHome(home, SessionsDir)); return }},
		{"todos", func() (err error) { a.Tasks, err = ScanTodos(joinHome(home, TodosDir)); return }},
		{"transcripts", func() (err error) { a.Transcripts, err = ScanTranscripts(joinHome(home, ProjectsDir)); return }},
		{"growth", func() (err error) { a.Growth, err = ScanGrowth(joinHome(home, GrowthDir)); return }},
	}

	errs := make([]error, len(sources))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallel)
	for i, src := range sources {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%v", r)
				}
			}()
			errs[i] = src.run()
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		logger.Warn("activity source failed", zap.String("source", sources[i].name), zap.Error(err))
		a.Errors = append(a.Errors, fmt.Sprintf("[%s] error scanning %s: %v", roots.Platform, sources[i].name, err))
	}
	return a
}

func joinHome(home, rel string) string {
	if home == "" {
		return ""
	}
	return filepath.Join(home, filepath.FromSlash(rel))
}

// missing reports whether path is unset or does not exist.
func missing(path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}

// eachLine calls fn for every non-blank line of path. Lines of any length
// are supported.
func eachLine(path string, fn func([]byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			fn(trimmed)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// topCounts ranks m by count, then name, keeping at most n rows (all when
// n <= 0).
func topCounts(m map[string]int, n int) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, c := range m {
		out = append(out, NameCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
