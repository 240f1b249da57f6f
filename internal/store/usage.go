package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

const (
	// DefaultWindowDays is the usage window used when none is given.
	DefaultWindowDays = 30
	// DefaultErrorLimit bounds EntryUsage.RecentErrors when no limit is given.
	DefaultErrorLimit = 5

	topLimit = 10
	// minPerformanceSamples keeps single-sample averages out of the
	// performance table.
	minPerformanceSamples = 3
)

// Track records one invocation. Invocations of identities the catalog does
// not know are dropped: it returns false and no error.
func (s *Store) Track(ctx context.Context, inv catalog.Invocation) (bool, error) {
	componentID, err := s.componentID(ctx, inv.Identity)
	if err != nil || componentID == 0 {
		return false, err
	}

	ts := inv.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	var duration any
	if inv.Duration != nil {
		duration = inv.Duration.Milliseconds()
	}
	var errText any
	if inv.Error != "" {
		errText = inv.Error
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (component_id, session_id, timestamp, duration_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, componentID, inv.SessionID, formatTime(ts), duration, inv.Success, errText); err != nil {
		return false, &Error{Op: "track", Err: err}
	}
	return true, nil
}

// UsageCount is an entry with its invocation count.
type UsageCount struct {
	Identity catalog.Identity
	Count    int
}

// InstallRecord is one installed event.
type InstallRecord struct {
	Identity    catalog.Identity
	InstalledAt time.Time
	Version     string
}

// PerformanceStat is the average duration of an entry's timed invocations.
type PerformanceStat struct {
	Identity    catalog.Identity
	Samples     int
	AvgDuration time.Duration
}

// UsageStats summarises invocations over a trailing window.
type UsageStats struct {
	WindowDays       int
	TotalInvocations int
	MostUsed         []UsageCount
	RecentInstalls   []InstallRecord
	Performance      []PerformanceStat
}

func (s *Store) windowStart(days int) (int, string) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return days, formatTime(s.now().Add(-time.Duration(days) * 24 * time.Hour))
}

// UsageStats aggregates invocations from the last windowDays days. Only
// entries with at least three timed invocations in the window appear in
// Performance.
func (s *Store) UsageStats(ctx context.Context, windowDays int) (UsageStats, error) {
	days, since := s.windowStart(windowDays)
	stats := UsageStats{WindowDays: days}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invocations WHERE timestamp >= ?`, since).Scan(&stats.TotalInvocations); err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.platform, c.type, c.name, COUNT(*) AS n
		FROM invocations i
		JOIN components c ON c.id = i.component_id
		WHERE i.timestamp >= ?
		GROUP BY c.id
		ORDER BY n DESC, c.name
		LIMIT ?
	`, since, topLimit)
	if err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}
	err = scanAll(rows, func(rows *sql.Rows) error {
		var u UsageCount
		if err := scanIdentity(rows, &u.Identity, &u.Count); err != nil {
			return err
		}
		stats.MostUsed = append(stats.MostUsed, u)
		return nil
	})
	if err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT c.platform, c.type, c.name, e.timestamp, COALESCE(e.version, '')
		FROM installation_events e
		JOIN components c ON c.id = e.component_id
		WHERE e.event_type = ?
		ORDER BY e.timestamp DESC, e.id DESC
		LIMIT ?
	`, string(catalog.EventInstalled), topLimit)
	if err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}
	err = scanAll(rows, func(rows *sql.Rows) error {
		var (
			r  InstallRecord
			ts string
		)
		if err := scanIdentity(rows, &r.Identity, &ts, &r.Version); err != nil {
			return err
		}
		r.InstalledAt = parseTime(ts)
		stats.RecentInstalls = append(stats.RecentInstalls, r)
		return nil
	})
	if err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT c.platform, c.type, c.name, COUNT(*) AS n, AVG(i.duration_ms) AS avg_ms
		FROM invocations i
		JOIN components c ON c.id = i.component_id
		WHERE i.duration_ms IS NOT NULL AND i.timestamp >= ?
		GROUP BY c.id
		HAVING COUNT(*) >= ?
		ORDER BY avg_ms DESC, c.name
	`, since, minPerformanceSamples)
	if err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}
	err = scanAll(rows, func(rows *sql.Rows) error {
		var (
			p     PerformanceStat
			avgMS float64
		)
		if err := scanIdentity(rows, &p.Identity, &p.Samples, &avgMS); err != nil {
			return err
		}
		p.AvgDuration = msDuration(avgMS)
		stats.Performance = append(stats.Performance, p)
		return nil
	})
	if err != nil {
		return UsageStats{}, &Error{Op: "usage stats", Err: err}
	}

	return stats, nil
}

// InvocationError is a failed invocation with its message.
type InvocationError struct {
	Timestamp time.Time
	SessionID string
	Message   string
}

// EntryUsage is the usage of one entry over a window. Found is false (and
// every other field zero) when the catalog has no such entry.
type EntryUsage struct {
	Identity     catalog.Identity
	Found        bool
	WindowDays   int
	Total        int
	Sessions     int
	SuccessRate  float64
	AvgDuration  time.Duration
	P95Duration  time.Duration
	LastInvoked  time.Time
	RecentErrors []InvocationError
}

// EntryUsage computes the usage of one entry over the last windowDays days.
// At most errorLimit recent failures are returned, newest first.
func (s *Store) EntryUsage(ctx context.Context, id catalog.Identity, windowDays, errorLimit int) (EntryUsage, error) {
	days, since := s.windowStart(windowDays)
	usage := EntryUsage{Identity: id, WindowDays: days}
	if errorLimit <= 0 {
		errorLimit = DefaultErrorLimit
	}

	componentID, err := s.componentID(ctx, id)
	if err != nil {
		return EntryUsage{}, err
	}
	if componentID == 0 {
		return usage, nil
	}
	usage.Found = true

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, COALESCE(session_id, ''), duration_ms, success, COALESCE(error_message, '')
		FROM invocations
		WHERE component_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC, id DESC
	`, componentID, since)
	if err != nil {
		return EntryUsage{}, &Error{Op: "entry usage", Err: err}
	}

	var (
		durations []time.Duration
		successes int
		sessions  = map[string]bool{}
	)
	err = scanAll(rows, func(rows *sql.Rows) error {
		var (
			ts, session, message string
			durationMS           sql.NullInt64
			success              sql.NullBool
		)
		if err := rows.Scan(&ts, &session, &durationMS, &success, &message); err != nil {
			return err
		}
		at := parseTime(ts)
		usage.Total++
		if at.After(usage.LastInvoked) {
			usage.LastInvoked = at
		}
		if session != "" {
			sessions[session] = true
		}
		if durationMS.Valid {
			durations = append(durations, time.Duration(durationMS.Int64)*time.Millisecond)
		}
		if !success.Valid || success.Bool {
			successes++
		} else if len(usage.RecentErrors) < errorLimit {
			usage.RecentErrors = append(usage.RecentErrors, InvocationError{Timestamp: at, SessionID: session, Message: message})
		}
		return nil
	})
	if err != nil {
		return EntryUsage{}, &Error{Op: "entry usage", Err: err}
	}

	usage.Sessions = len(sessions)
	if usage.Total > 0 {
		usage.SuccessRate = float64(successes) / float64(usage.Total)
	}
	if len(durations) > 0 {
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		usage.AvgDuration = sum / time.Duration(len(durations))
		usage.P95Duration = P95(durations)
	}
	return usage, nil
}

// P95 returns the 95th percentile of durations: the element at index
// round(0.95*(n-1)) of the sorted values, without interpolation. The input
// is not modified.
func P95(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Round(0.95 * float64(len(sorted)-1)))
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func msDuration(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// scanIdentity scans platform, type and name followed by extra columns.
func scanIdentity(rows *sql.Rows, id *catalog.Identity, extra ...any) error {
	var platform, typ string
	dest := append([]any{&platform, &typ, &id.Name}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan usage row: %w", err)
	}
	id.Platform = catalog.Platform(platform)
	id.Type = catalog.ComponentType(typ)
	return nil
}

func scanAll(rows *sql.Rows, fn func(*sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
