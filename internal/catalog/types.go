package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Platform names a distinct agentic-tool installation.
type Platform string

const (
	PlatformClaude Platform = "claude"
	PlatformCodex  Platform = "codex"
)

// Platforms lists every known platform in scan order.
var Platforms = []Platform{PlatformClaude, PlatformCodex}

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == strings.ToLower(s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q (valid: claude, codex)", s)
}

// ComponentType is the kind of a catalogued component.
type ComponentType string

const (
	TypeSkill   ComponentType = "skill"
	TypePlugin  ComponentType = "plugin"
	TypeCommand ComponentType = "command"
	TypeHook    ComponentType = "hook"
	TypeServer  ComponentType = "mcp"
	TypeBinary  ComponentType = "binary"
)

// ComponentTypes lists every type in ScanResult order.
var ComponentTypes = []ComponentType{TypeSkill, TypePlugin, TypeCommand, TypeHook, TypeServer, TypeBinary}

// ParseComponentType validates a component type name. "server" is accepted
// as an alias for "mcp".
func ParseComponentType(s string) (ComponentType, error) {
	s = strings.ToLower(s)
	if s == "server" {
		return TypeServer, nil
	}
	for _, t := range ComponentTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown component type %q (valid: skill, plugin, command, hook, mcp, binary)", s)
}

// Origin is the provenance classification of an entry.
type Origin string

const (
	OriginInHouse   Origin = "in-house"
	OriginOfficial  Origin = "official"
	OriginCommunity Origin = "community"
	OriginExternal  Origin = "external"
	OriginPlugin    Origin = "plugin"
	OriginLocal     Origin = "local"
	OriginLegacy    Origin = "legacy"
	OriginUnknown   Origin = "unknown" // error records only
)

// Status is the enabled state of an entry. Exactly one applies.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusError    Status = "error"
)

// Toggleable reports whether s is one of the two states a toggle flips between.
func (s Status) Toggleable() bool {
	return s == StatusActive || s == StatusDisabled
}

// Opposite returns the state a toggle moves to.
func (s Status) Opposite() Status {
	if s == StatusActive {
		return StatusDisabled
	}
	return StatusActive
}

// Identity is the (platform, type, name) triple addressing an entry.
type Identity struct {
	Platform Platform      `json:"platform"`
	Type     ComponentType `json:"type"`
	Name     string        `json:"name"`
}

// String renders the identity as platform:type:name.
func (id Identity) String() string {
	return string(id.Platform) + ":" + string(id.Type) + ":" + id.Name
}

// ParseIdentity parses "[platform:]type:name". Names may themselves contain
// colons (plugin:p1:hello), so the platform prefix is only consumed when it
// names a known platform.
func ParseIdentity(s string, defaultPlatform Platform) (Identity, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Identity{}, fmt.Errorf("invalid identity %q: expected [platform:]type:name", s)
	}

	platform := defaultPlatform
	if p, err := ParsePlatform(parts[0]); err == nil {
		platform = p
		parts = strings.SplitN(parts[1], ":", 2)
		if len(parts) != 2 {
			return Identity{}, fmt.Errorf("invalid identity %q: expected [platform:]type:name", s)
		}
	}

	typ, err := ParseComponentType(parts[0])
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	if parts[1] == "" {
		return Identity{}, fmt.Errorf("invalid identity %q: empty name", s)
	}
	if platform == "" {
		platform = PlatformClaude
	}
	return Identity{Platform: platform, Type: typ, Name: parts[1]}, nil
}

// EventKind classifies an installation event.
type EventKind string

const (
	EventInstalled EventKind = "installed"
	EventUpdated   EventKind = "updated"
)

// InstallationEvent is one append-only history row written per upsert.
type InstallationEvent struct {
	Identity  Identity  `json:"identity"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	Snapshot  *Entry    `json:"snapshot,omitempty"`
}

// Invocation is one observed execution of an entry.
type Invocation struct {
	Identity  Identity
	SessionID string
	Timestamp time.Time
	Duration  *time.Duration // nil when unknown
	Success   bool
	Error     string
}
