package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/tooldex/internal/branding"
	"github.com/agentx-labs/tooldex/internal/config"
)

// Directory and file name constants for the well-known tool homes.
const (
	ClaudeDir      = ".claude"
	ClaudeJSONFile = ".claude.json"
	CodexDir       = ".codex"
	DatabaseFile   = "catalog.db"
	LogsDir        = "logs"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
)

// Paths is the fully resolved set of locations a command operates on.
type Paths struct {
	ClaudeHome string // e.g. ~/.claude
	ClaudeJSON string // e.g. ~/.claude.json
	CodexHome  string // e.g. ~/.codex
	DBPath     string // e.g. ~/.tooldex/catalog.db
	LogFile    string // empty when file logging is disabled; relative names live under ~/.tooldex/logs
}

// Resolve fills every unset location in s with its home-directory default.
func Resolve(s config.Settings) (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolving home directory: %w", err)
	}

	p := Paths{
		ClaudeHome: firstNonEmpty(s.ClaudeHome, filepath.Join(home, ClaudeDir)),
		ClaudeJSON: firstNonEmpty(s.ClaudeJSON, filepath.Join(home, ClaudeJSONFile)),
		CodexHome:  firstNonEmpty(s.CodexHome, filepath.Join(home, CodexDir)),
		DBPath:     firstNonEmpty(s.DBPath, filepath.Join(home, branding.HomeDir(), DatabaseFile)),
		LogFile:    s.LogFile,
	}
	if p.LogFile != "" && !filepath.IsAbs(p.LogFile) {
		p.LogFile = filepath.Join(home, branding.HomeDir(), LogsDir, p.LogFile)
	}
	return p, nil
}

// EnsureDBDir creates the parent directory of the catalog database.
func (p Paths) EnsureDBDir() error {
	dir := filepath.Dir(p.DBPath)
	if err := os.MkdirAll(dir, DirPermSecure); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
