package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// PluginRootVar is the placeholder plugin configs use for their own directory.
const PluginRootVar = "${CLAUDE_PLUGIN_ROOT}"

// Collection keys for active and disabled server descriptors.
const (
	ClaudeActiveKey   = "mcpServers"
	ClaudeDisabledKey = "mcpServersDisabled"
	CodexActiveKey    = "mcp_servers"
	CodexDisabledKey  = "mcp_servers_disabled"
)

// ServerSpec is a normalized server descriptor.
type ServerSpec struct {
	Command     string
	Args        []string
	Env         map[string]any
	Transport   string
	URL         string
	Description string
	// Extra holds every member not normalized above.
	Extra map[string]any
}

var specKeys = map[string]bool{
	"command": true, "args": true, "env": true, "transport": true,
	"type": true, "url": true, "description": true,
}

// ParseServerSpec normalizes a decoded server config. URL servers get
// transport "http" unless they declare "sse"; others default to "stdio".
func ParseServerSpec(cfg map[string]any) ServerSpec {
	s := ServerSpec{
		Command:     trimmed(cfg["command"]),
		URL:         trimmed(cfg["url"]),
		Description: trimmed(cfg["description"]),
		Transport:   trimmed(cfg["transport"]),
	}
	if s.Transport == "" {
		s.Transport = trimmed(cfg["type"])
	}

	switch args := cfg["args"].(type) {
	case []any:
		for _, a := range args {
			s.Args = append(s.Args, fmt.Sprint(a))
		}
	case []string:
		s.Args = append(s.Args, args...)
	case string:
		s.Args = []string{args}
	}

	if env, ok := cfg["env"].(map[string]any); ok {
		s.Env = env
	}

	switch {
	case s.URL != "" && s.Transport != "sse":
		s.Transport = "http"
	case s.Transport == "":
		s.Transport = "stdio"
	}

	for k, v := range cfg {
		if specKeys[k] {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]any{}
		}
		s.Extra[k] = v
	}
	return s
}

// ResolvePluginRoot returns a copy of cfg with PluginRootVar replaced by
// root in every string, recursively.
func ResolvePluginRoot(cfg map[string]any, root string) map[string]any {
	out, _ := resolveVar(cfg, root).(map[string]any)
	return out
}

func resolveVar(v any, root string) any {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, PluginRootVar, root)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = resolveVar(val, root)
		}
		return m
	case []any:
		a := make([]any, len(t))
		for i, val := range t {
			a[i] = resolveVar(val, root)
		}
		return a
	}
	return v
}

// CodexConfig holds the server tables of a Codex config.toml.
type CodexConfig struct {
	Servers  map[string]map[string]any
	Disabled map[string]map[string]any
}

// ParseCodexConfig decodes config.toml and extracts the mcp_servers and
// mcp_servers_disabled tables. Non-table members are ignored.
func ParseCodexConfig(data []byte) (*CodexConfig, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing codex config: %w", err)
	}
	return &CodexConfig{
		Servers:  ServerMap(raw[CodexActiveKey]),
		Disabled: ServerMap(raw[CodexDisabledKey]),
	}, nil
}

// SortedNames returns the keys of m in order.
func SortedNames(m map[string]map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
