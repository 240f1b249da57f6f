package catalog

import (
	"strings"
	"time"
)

// ScanResult is the transient aggregate of one orchestrator run. It is
// never persisted directly.
type ScanResult struct {
	Skills   []Entry
	Plugins  []Entry
	Commands []Entry
	Hooks    []Entry
	Servers  []Entry
	Binaries []Entry
	Errors   []string
	ScanTime time.Time
}

// List returns the sequence for t.
func (r *ScanResult) List(t ComponentType) []Entry {
	switch t {
	case TypeSkill:
		return r.Skills
	case TypePlugin:
		return r.Plugins
	case TypeCommand:
		return r.Commands
	case TypeHook:
		return r.Hooks
	case TypeServer:
		return r.Servers
	case TypeBinary:
		return r.Binaries
	}
	return nil
}

// Append adds entries to the sequence for t.
func (r *ScanResult) Append(t ComponentType, entries ...Entry) {
	switch t {
	case TypeSkill:
		r.Skills = append(r.Skills, entries...)
	case TypePlugin:
		r.Plugins = append(r.Plugins, entries...)
	case TypeCommand:
		r.Commands = append(r.Commands, entries...)
	case TypeHook:
		r.Hooks = append(r.Hooks, entries...)
	case TypeServer:
		r.Servers = append(r.Servers, entries...)
	case TypeBinary:
		r.Binaries = append(r.Binaries, entries...)
	}
}

// Merge concatenates other onto r, per type and for errors. No identity
// deduplication happens here.
func (r *ScanResult) Merge(other ScanResult) {
	for _, t := range ComponentTypes {
		r.Append(t, other.List(t)...)
	}
	r.Errors = append(r.Errors, other.Errors...)
	if other.ScanTime.After(r.ScanTime) {
		r.ScanTime = other.ScanTime
	}
}

// All returns every entry in type order.
func (r *ScanResult) All() []Entry {
	all := make([]Entry, 0, r.Total())
	for _, t := range ComponentTypes {
		all = append(all, r.List(t)...)
	}
	return all
}

// Total counts entries across all types.
func (r *ScanResult) Total() int {
	n := 0
	for _, t := range ComponentTypes {
		n += len(r.List(t))
	}
	return n
}

// Counts returns the number of entries per type.
func (r *ScanResult) Counts() map[ComponentType]int {
	counts := make(map[ComponentType]int, len(ComponentTypes))
	for _, t := range ComponentTypes {
		counts[t] = len(r.List(t))
	}
	return counts
}

// ErrorsFor returns the scan errors tagged with platform p.
func (r *ScanResult) ErrorsFor(p Platform) []string {
	prefix := "[" + string(p) + "]"
	var out []string
	for _, e := range r.Errors {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// IsStale reports whether a catalog last refreshed at lastScan is older than
// maxAge. A zero lastScan is always stale.
func IsStale(lastScan time.Time, maxAge time.Duration, now time.Time) bool {
	if lastScan.IsZero() {
		return true
	}
	return now.Sub(lastScan) > maxAge
}

// DefaultMaxAge is the staleness threshold used by the CLI hint.
const DefaultMaxAge = 7 * 24 * time.Hour
