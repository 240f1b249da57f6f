package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/manifest"
	"github.com/agentx-labs/tooldex/internal/redact"
)

// CodexConfigFile is the Codex settings document inside its home.
const CodexConfigFile = "config.toml"

// CodexServerScanner reads the mcp_servers and mcp_servers_disabled tables
// of a Codex config.toml. Env values are masked strictly: only placeholders
// survive.
type CodexServerScanner struct {
	path string
	opts Options
}

// NewCodexServerScanner creates a scanner for the config.toml at path.
func NewCodexServerScanner(path string, opts Options) *CodexServerScanner {
	return &CodexServerScanner{path: path, opts: opts.withDefaults()}
}

func (s *CodexServerScanner) Type() catalog.ComponentType { return catalog.TypeServer }

func (s *CodexServerScanner) Scan() ([]catalog.Entry, []string) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []string{fmt.Sprintf("reading %s: %v", s.path, err)}
	}
	cfg, err := manifest.ParseCodexConfig(data)
	if err != nil {
		return nil, []string{fmt.Sprintf("%s: %v", s.path, err)}
	}

	src := serverSource{path: s.path, scope: ScopeCodex, origin: s.opts.Origin}
	if info, err := os.Stat(s.path); err == nil {
		src.mod = info.ModTime().UTC()
	}

	var entries []catalog.Entry
	seen := map[string]bool{}
	collect := func(servers map[string]map[string]any, status catalog.Status) {
		for _, name := range manifest.SortedNames(servers) {
			if seen[name] {
				continue
			}
			seen[name] = true
			e := serverEntry(s.opts.identity(catalog.TypeServer, name), servers[name], src, status, redact.Env)
			e.InstallPath = s.path
			entries = append(entries, e)
		}
	}
	collect(cfg.Servers, catalog.StatusActive)
	collect(cfg.Disabled, catalog.StatusDisabled)

	catalog.SortEntries(entries)
	return entries, nil
}
