package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/manifest"
	"github.com/agentx-labs/tooldex/internal/redact"
)

const (
	// LegacyServerFile is the pre-claude.json server document in the home.
	LegacyServerFile = "mcp.json"
	// BuiltinChromeServer names the browser integration the host manages.
	BuiltinChromeServer = "claude-in-chrome"
)

// Server scopes recorded in ServerDetail.Scope.
const (
	ScopeUser    = "user"
	ScopeProject = "project"
	ScopePlugin  = "plugin"
	ScopeLegacy  = "legacy"
	ScopeBuiltin = "builtin"
	ScopeCodex   = "codex"
)

// ServerOrigin classifies a server that does not come from a plugin or a
// project scope, by its name and command.
func ServerOrigin(name, command string) catalog.Origin {
	lname := strings.ToLower(name)
	switch {
	case strings.Contains(lname, "anthropic") || strings.Contains(lname, "claude"):
		return catalog.OriginOfficial
	case strings.Contains(strings.ToLower(command), "modelcontextprotocol"):
		return catalog.OriginCommunity
	case strings.HasPrefix(command, "/") || strings.HasPrefix(command, "~"):
		return catalog.OriginInHouse
	}
	return catalog.OriginExternal
}

// ServerScanner reads server descriptors from every Claude source, in
// priority order: claude.json, its project entry for the home directory,
// plugin cache documents, the legacy mcp.json, and built-in integrations.
// The first source to define a name wins.
type ServerScanner struct {
	claudeHome string
	claudeJSON string
	opts       Options
}

// NewServerScanner creates a scanner over claudeHome and the claude.json
// document at claudeJSON (which may be empty).
func NewServerScanner(claudeHome, claudeJSON string, opts Options) *ServerScanner {
	return &ServerScanner{claudeHome: claudeHome, claudeJSON: claudeJSON, opts: opts.withDefaults()}
}

func (s *ServerScanner) Type() catalog.ComponentType { return catalog.TypeServer }

// serverSource describes where a descriptor was read from.
type serverSource struct {
	path   string
	scope  string
	origin catalog.Origin // empty: derived by ServerOrigin
	mod    time.Time
}

type serverCollector struct {
	opts    Options
	seen    map[string]bool
	entries []catalog.Entry
}

func (c *serverCollector) add(name string, cfg map[string]any, src serverSource, status catalog.Status) {
	if c.seen[name] {
		return
	}
	c.seen[name] = true
	c.entries = append(c.entries, serverEntry(c.opts.identity(catalog.TypeServer, name), cfg, src, status, redact.Strings))
}

// addCollections adds the active and disabled collections of a document.
func (c *serverCollector) addCollections(doc map[string]any, src serverSource) {
	active := manifest.ServerMap(doc[manifest.ClaudeActiveKey])
	for _, name := range manifest.SortedNames(active) {
		c.add(name, active[name], src, catalog.StatusActive)
	}
	disabled := manifest.ServerMap(doc[manifest.ClaudeDisabledKey])
	for _, name := range manifest.SortedNames(disabled) {
		c.add(name, disabled[name], src, catalog.StatusDisabled)
	}
}

func (s *ServerScanner) Scan() ([]catalog.Entry, []string) {
	c := &serverCollector{opts: s.opts, seen: map[string]bool{}}
	var errs []string

	if s.claudeJSON != "" {
		doc, mod, err := readJSONDocument(s.claudeJSON)
		switch {
		case err != nil:
			errs = append(errs, err.Error())
		case doc != nil:
			c.addCollections(doc, serverSource{path: s.claudeJSON, scope: ScopeUser, mod: mod})
			if projects, ok := doc["projects"].(map[string]any); ok {
				if project, ok := projects[s.claudeHome].(map[string]any); ok {
					c.addCollections(project, serverSource{path: s.claudeJSON, scope: ScopeProject, origin: catalog.OriginLocal, mod: mod})
				}
			}
		}
	}

	s.addPluginServers(c)

	legacy := filepath.Join(s.claudeHome, LegacyServerFile)
	doc, mod, err := readJSONDocument(legacy)
	switch {
	case err != nil:
		errs = append(errs, err.Error())
	case doc != nil:
		c.addCollections(doc, serverSource{path: legacy, scope: ScopeLegacy, origin: catalog.OriginLegacy, mod: mod})
	}

	s.addBuiltins(c)

	catalog.SortEntries(c.entries)
	return c.entries, errs
}

// addPluginServers reads .mcp.json documents and plugin.json mcpServers from
// the plugin cache. ${CLAUDE_PLUGIN_ROOT} resolves to the directory of the
// .mcp.json, or the plugin root for plugin.json.
func (s *ServerScanner) addPluginServers(c *serverCollector) {
	cache := filepath.Join(s.claudeHome, "plugins", "cache")

	for _, path := range serverFilePaths(cache) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		servers, err := manifest.ParseServerFile(data)
		if err != nil {
			s.opts.Logger.Debug("skipping plugin server file", zap.String("path", path), zap.Error(err))
			continue
		}
		root := filepath.Dir(path)
		plugin := manifest.PluginNameFromDir(root)
		src := pluginSource(path)
		for _, name := range manifest.SortedNames(servers) {
			c.add(qualifiedName(plugin, name), manifest.ResolvePluginRoot(servers[name], root), src, catalog.StatusActive)
		}
	}

	for _, path := range pluginManifestPaths(cache) {
		m, err := manifest.ReadPluginManifest(path)
		if err != nil {
			s.opts.Logger.Debug("skipping plugin manifest", zap.String("path", path), zap.Error(err))
			continue
		}
		src := pluginSource(path)
		for _, name := range manifest.SortedNames(m.Servers) {
			c.add(qualifiedName(m.Name, name), manifest.ResolvePluginRoot(m.Servers[name], m.Root), src, catalog.StatusActive)
		}
	}
}

func pluginSource(path string) serverSource {
	src := serverSource{path: path, scope: ScopePlugin, origin: catalog.OriginPlugin, mod: time.Now().UTC()}
	if info, err := os.Stat(path); err == nil {
		src.mod = info.ModTime().UTC()
	}
	return src
}

// addBuiltins records integrations the host manages itself.
func (s *ServerScanner) addBuiltins(c *serverCollector) {
	host := filepath.Join(s.claudeHome, "chrome", "chrome-native-host")
	info, err := os.Stat(host)
	if err != nil || c.seen[BuiltinChromeServer] {
		return
	}
	c.seen[BuiltinChromeServer] = true
	c.entries = append(c.entries, catalog.Entry{
		Identity:     s.opts.identity(catalog.TypeServer, BuiltinChromeServer),
		Origin:       catalog.OriginOfficial,
		Status:       catalog.StatusActive,
		InstallPath:  host,
		LastModified: info.ModTime().UTC(),
		Detail: &catalog.ServerDetail{
			Command:   "chrome-extension",
			Transport: "native-messaging",
			Source:    host,
			Scope:     ScopeBuiltin,
			Builtin:   true,
		},
	})
}

// serverEntry normalizes one descriptor. envFilter decides how env values
// are masked.
func serverEntry(id catalog.Identity, cfg map[string]any, src serverSource, status catalog.Status, envFilter func(map[string]any) map[string]string) catalog.Entry {
	spec := manifest.ParseServerSpec(cfg)

	origin := src.origin
	if origin == "" {
		command := spec.Command
		if command == "" {
			command = spec.URL
		}
		origin = ServerOrigin(id.Name, command)
	}

	detail := &catalog.ServerDetail{
		Description: spec.Description,
		Command:     spec.Command,
		Args:        redactArgs(spec.Args),
		Transport:   spec.Transport,
		URL:         spec.URL,
		Source:      src.path,
		Scope:       src.scope,
	}
	if len(spec.Env) > 0 {
		detail.Env = envFilter(spec.Env)
	}
	if len(spec.Extra) > 0 {
		detail.Extra = make(map[string]any, len(spec.Extra))
		for k, v := range spec.Extra {
			detail.Extra[k] = redact.Value(k, v)
		}
	}

	installPath := src.path
	if isLocalCommand(spec.Command) {
		installPath = spec.Command
		detail.GitRemote = GitRemote(spec.Command)
	}

	return catalog.Entry{
		Identity:     id,
		Origin:       origin,
		Status:       status,
		InstallPath:  installPath,
		LastModified: src.mod,
		Detail:       detail,
	}
}

func redactArgs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = redact.Redact("args", a)
	}
	return out
}

func isLocalCommand(command string) bool {
	return filepath.IsAbs(command) || strings.HasPrefix(command, "~/") || strings.HasPrefix(command, "./")
}

// readJSONDocument decodes a JSON object document. A missing file yields a
// nil document and no error.
func readJSONDocument(path string) (map[string]any, time.Time, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	mod := time.Now().UTC()
	if info, err := os.Stat(path); err == nil {
		mod = info.ModTime().UTC()
	}
	return doc, mod, nil
}
