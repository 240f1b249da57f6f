package scanner

import (
	"encoding/json"
	"strings"
	"time"
)

// EventMetrics summarises the hook event queue.
type EventMetrics struct {
	TotalEvents  int                `json:"total_events"`
	Sessions     int                `json:"sessions"`
	EventTypes   map[string]int     `json:"event_types"`
	ToolCounts   map[string]int     `json:"tool_counts"`
	TopTools     []NameCount        `json:"top_tools,omitempty"`
	Permissions  map[string]float64 `json:"permission_modes,omitempty"`
	FirstEventAt time.Time          `json:"first_event_at,omitzero"`
	LastEventAt  time.Time          `json:"last_event_at,omitzero"`
}

type queuedEvent struct {
	HookEventType string         `json:"hook_event_type"`
	SessionID     string         `json:"session_id"`
	Timestamp     float64        `json:"timestamp"` // unix milliseconds
	Payload       map[string]any `json:"payload"`
}

// ScanEventQueue reads event_queue.jsonl. Lines that are not JSON objects
// are skipped and not counted.
func ScanEventQueue(path string) (*EventMetrics, error) {
	if gone, err := missing(path); gone || err != nil {
		return nil, err
	}

	m := &EventMetrics{EventTypes: map[string]int{}, ToolCounts: map[string]int{}}
	sessions := map[string]bool{}
	permissions := map[string]int{}

	err := eachLine(path, func(line []byte) {
		var ev queuedEvent
		if json.Unmarshal(line, &ev) != nil {
			return
		}
		m.TotalEvents++

		kind := ev.HookEventType
		if kind == "" {
			kind = "unknown"
		}
		m.EventTypes[kind]++

		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}
		if ev.Timestamp > 0 {
			at := time.UnixMilli(int64(ev.Timestamp)).UTC()
			if m.FirstEventAt.IsZero() || at.Before(m.FirstEventAt) {
				m.FirstEventAt = at
			}
			if at.After(m.LastEventAt) {
				m.LastEventAt = at
			}
		}

		mode, _ := ev.Payload["permission_mode"].(string)
		if mode == "" {
			mode = "unknown"
		}
		permissions[mode]++

		if kind == "PreToolUse" || kind == "PostToolUse" {
			if tool := eventToolName(ev.Payload); tool != "" {
				m.ToolCounts[tool]++
			}
		}
	})
	if err != nil {
		return nil, err
	}

	m.Sessions = len(sessions)
	m.TopTools = topCounts(m.ToolCounts, 15)
	if m.TotalEvents > 0 {
		m.Permissions = make(map[string]float64, len(permissions))
		for mode, n := range permissions {
			m.Permissions[mode] = float64(n) / float64(m.TotalEvents)
		}
	}
	return m, nil
}

// eventToolName finds the tool of a tool-use event: payload tool_name, then
// tool_input.name, then the suffix of a "Event:Tool" hook_event_name.
func eventToolName(payload map[string]any) string {
	if name, _ := payload["tool_name"].(string); name != "" {
		return name
	}
	if input, ok := payload["tool_input"].(map[string]any); ok {
		if name, _ := input["name"].(string); name != "" {
			return name
		}
	}
	if hook, _ := payload["hook_event_name"].(string); hook != "" {
		if parts := strings.Split(hook, ":"); len(parts) >= 2 {
			return parts[1]
		}
	}
	return ""
}
