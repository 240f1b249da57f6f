package catalog

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Entry is the canonical catalog record: a common core plus a detail whose
// concrete type matches Identity.Type.
type Entry struct {
	Identity
	Origin       Origin
	Status       Status
	Version      string
	InstallPath  string
	LastModified time.Time
	ErrorMessage string
	Detail       Detail
}

// NewErrorEntry builds a status=error record for an artifact whose identity
// is known but whose extraction failed.
func NewErrorEntry(id Identity, path string, err error) Entry {
	return Entry{
		Identity:     id,
		Origin:       OriginUnknown,
		Status:       StatusError,
		InstallPath:  path,
		LastModified: time.Now().UTC(),
		ErrorMessage: err.Error(),
	}
}

// Description returns the human-readable summary carried by the detail.
func (e Entry) Description() string {
	switch d := e.Detail.(type) {
	case *SkillDetail:
		return d.Description
	case *CommandDetail:
		return d.Description
	case *PluginDetail:
		return d.Description
	case *ServerDetail:
		return d.Description
	case *HookDetail:
		if d.Trigger != "" {
			return d.Trigger + " hook (" + d.Language + ")"
		}
	case *BinaryDetail:
		if d.Language != "" {
			return d.Language + " executable"
		}
	}
	return ""
}

// Keywords returns the space-separated search keywords for the entry: the
// type name, origin, and detail-specific tags.
func (e Entry) Keywords() string {
	words := []string{string(e.Type), string(e.Origin), string(e.Platform)}
	switch d := e.Detail.(type) {
	case *SkillDetail:
		words = append(words, d.Tags...)
		words = append(words, d.CapabilityTags...)
	case *CommandDetail:
		words = append(words, d.CapabilityTags...)
		words = append(words, d.InvocationAliases...)
		if d.FromPlugin != "" {
			words = append(words, d.FromPlugin)
		}
	case *PluginDetail:
		words = append(words, d.Marketplace)
		words = append(words, d.ProvidesCommands...)
		words = append(words, d.ProvidesServers...)
	case *HookDetail:
		words = append(words, d.Trigger, d.Language)
	case *ServerDetail:
		words = append(words, d.Transport, d.Command)
	case *BinaryDetail:
		words = append(words, d.Language)
	}
	return strings.Join(dedupe(words), " ")
}

type entryJSON struct {
	Platform     Platform        `json:"platform"`
	Type         ComponentType   `json:"type"`
	Name         string          `json:"name"`
	Origin       Origin          `json:"origin"`
	Status       Status          `json:"status"`
	Version      string          `json:"version,omitempty"`
	InstallPath  string          `json:"install_path"`
	LastModified time.Time       `json:"last_modified"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Detail       json.RawMessage `json:"detail,omitempty"`
}

// MarshalJSON encodes the entry with its detail wrapped in a tagged envelope.
func (e Entry) MarshalJSON() ([]byte, error) {
	raw, err := EncodeDetail(e.Detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryJSON{
		Platform:     e.Platform,
		Type:         e.Type,
		Name:         e.Name,
		Origin:       e.Origin,
		Status:       e.Status,
		Version:      e.Version,
		InstallPath:  e.InstallPath,
		LastModified: e.LastModified,
		ErrorMessage: e.ErrorMessage,
		Detail:       raw,
	})
}

// UnmarshalJSON decodes an entry produced by MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var j entryJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	detail, err := DecodeDetail(j.Detail)
	if err != nil {
		return err
	}
	*e = Entry{
		Identity:     Identity{Platform: j.Platform, Type: j.Type, Name: j.Name},
		Origin:       j.Origin,
		Status:       j.Status,
		Version:      j.Version,
		InstallPath:  j.InstallPath,
		LastModified: j.LastModified,
		ErrorMessage: j.ErrorMessage,
		Detail:       detail,
	}
	return nil
}

// SortEntries orders entries by platform, then name, then type.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Type < b.Type
	})
}

func dedupe(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
