package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PluginInstall is one entry of installed_plugins.json.
type PluginInstall struct {
	Key          string // name@marketplace
	Name         string
	Marketplace  string
	InstallPath  string
	Version      string
	InstalledAt  *time.Time
	LastUpdated  *time.Time
	GitCommitSHA string
}

type pluginInstallJSON struct {
	InstallPath  string `json:"installPath"`
	Version      string `json:"version"`
	InstalledAt  string `json:"installedAt"`
	LastUpdated  string `json:"lastUpdated"`
	GitCommitSHA string `json:"gitCommitSha"`
}

// SplitPluginKey splits "name@marketplace". A key without @ has marketplace
// "unknown".
func SplitPluginKey(key string) (name, marketplace string) {
	i := strings.LastIndex(key, "@")
	if i < 0 {
		return key, "unknown"
	}
	return key[:i], key[i+1:]
}

// ParseInstalledPlugins decodes both generations of installed_plugins.json:
// the legacy flat map of key -> entry, and the versioned document
// {"version": 2, "plugins": {key: [entries]}}. Entries are returned sorted
// by key; versions of one key keep document order.
func ParseInstalledPlugins(data []byte) ([]PluginInstall, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing installed plugins: %w", err)
	}

	generation := 1
	if raw, ok := doc["version"]; ok {
		if err := json.Unmarshal(raw, &generation); err != nil {
			return nil, fmt.Errorf("parsing installed plugins version: %w", err)
		}
	}

	entries := doc
	if generation >= 2 {
		entries = map[string]json.RawMessage{}
		if raw, ok := doc["plugins"]; ok {
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil, fmt.Errorf("parsing installed plugins map: %w", err)
			}
		}
	} else {
		delete(entries, "version")
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []PluginInstall
	for _, key := range keys {
		raws, err := entryList(entries[key])
		if err != nil {
			return nil, fmt.Errorf("parsing plugin %s: %w", key, err)
		}
		name, marketplace := SplitPluginKey(key)
		for _, r := range raws {
			out = append(out, PluginInstall{
				Key:          key,
				Name:         name,
				Marketplace:  marketplace,
				InstallPath:  r.InstallPath,
				Version:      r.Version,
				InstalledAt:  parseTimestamp(r.InstalledAt),
				LastUpdated:  parseTimestamp(r.LastUpdated),
				GitCommitSHA: r.GitCommitSHA,
			})
		}
	}
	return out, nil
}

// entryList accepts a single entry object or an array of entries.
func entryList(raw json.RawMessage) ([]pluginInstallJSON, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []pluginInstallJSON
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var one pluginInstallJSON
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		return []pluginInstallJSON{one}, nil
	}
	return nil, nil
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// PluginCommand is a command a plugin declares in plugin.json.
type PluginCommand struct {
	Name        string
	Description string
}

// PluginManifest is the subset of .claude-plugin/plugin.json the scanners use.
type PluginManifest struct {
	Name        string
	Description string
	Version     string
	Author      string
	Homepage    string
	Repository  string
	License     string
	Commands    []PluginCommand
	Servers     map[string]map[string]any
	// Root is the plugin directory (the parent of .claude-plugin).
	Root string
	Path string
}

// ParsePluginManifest decodes plugin.json. Author may be a string or an
// object with a name; repository may be a string or an object with a url;
// commands may be a map of name -> config or a list of names/objects.
func ParsePluginManifest(data []byte) (*PluginManifest, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing plugin manifest: %w", err)
	}

	m := &PluginManifest{
		Name:        trimmed(raw["name"]),
		Description: trimmed(raw["description"]),
		Version:     trimmed(raw["version"]),
		Homepage:    trimmed(raw["homepage"]),
		License:     trimmed(raw["license"]),
		Author:      nestedString(raw["author"], "name"),
		Repository:  nestedString(raw["repository"], "url"),
		Commands:    pluginCommands(raw["commands"]),
		Servers:     ServerMap(raw["mcpServers"]),
	}
	return m, nil
}

// ReadPluginManifest reads and decodes a plugin.json file, inferring the
// plugin name from the cache layout when the manifest omits it:
// cache/<marketplace>/<plugin>/.claude-plugin/plugin.json or
// cache/<marketplace>/<plugin>/<version>/.claude-plugin/plugin.json.
func ReadPluginManifest(path string) (*PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	m, err := ParsePluginManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	m.Root = filepath.Dir(filepath.Dir(path))
	if m.Name == "" {
		m.Name = PluginNameFromDir(m.Root)
	}
	return m, nil
}

// PluginNameFromDir returns the plugin name for a plugin root directory,
// skipping a trailing version directory (one starting with a digit).
func PluginNameFromDir(dir string) string {
	base := filepath.Base(dir)
	if base != "" && base[0] >= '0' && base[0] <= '9' {
		return filepath.Base(filepath.Dir(dir))
	}
	return base
}

// ParseServerFile decodes a .mcp.json document. Both {"mcpServers": {...}}
// and a flat map of server name -> config are accepted.
func ParseServerFile(data []byte) (map[string]map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if nested, ok := raw["mcpServers"]; ok {
		return ServerMap(nested), nil
	}
	return ServerMap(raw), nil
}

// ServerMap keeps the object-valued members of v.
func ServerMap(v any) map[string]map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]map[string]any, len(m))
	for name, cfg := range m {
		if c, ok := cfg.(map[string]any); ok {
			out[name] = c
		}
	}
	return out
}

// ClaudeSettings is the subset of settings.json the scanners use.
type ClaudeSettings struct {
	EnabledPlugins map[string]bool `json:"enabledPlugins"`
}

// ReadClaudeSettings reads settings.json. A missing file yields empty
// settings and no error.
func ReadClaudeSettings(path string) (ClaudeSettings, error) {
	var s ClaudeSettings
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return s, nil
}

func pluginCommands(v any) []PluginCommand {
	var out []PluginCommand
	switch t := v.(type) {
	case map[string]any:
		for name, cfg := range t {
			out = append(out, PluginCommand{Name: name, Description: commandDescription(cfg)})
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, PluginCommand{Name: commandNameFromPath(it)})
			case map[string]any:
				if name := trimmed(it["name"]); name != "" {
					out = append(out, PluginCommand{Name: name, Description: commandDescription(it)})
				}
			}
		}
	case string:
		out = append(out, PluginCommand{Name: commandNameFromPath(t)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// commandNameFromPath turns "./commands/hello.md" into "hello"; plain
// names pass through.
func commandNameFromPath(s string) string {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, `/\`) || strings.HasSuffix(s, ".md") {
		return strings.TrimSuffix(filepath.Base(s), ".md")
	}
	return s
}

func commandDescription(cfg any) string {
	m, ok := cfg.(map[string]any)
	if !ok {
		return ""
	}
	if d := trimmed(m["description"]); d != "" {
		return d
	}
	return trimmed(m["help"])
}

func nestedString(v any, key string) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return trimmed(t[key])
	}
	return ""
}

func trimmed(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
