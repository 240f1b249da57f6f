package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// DisabledDir is the sibling directory that holds disabled file-backed
// components (root/.disabled).
const DisabledDir = ".disabled"

// Scanner reads one kind of on-disk artifact. Scan never fails as a whole:
// per-artifact failures become error-status entries, failures with no
// knowable identity become error strings.
type Scanner interface {
	Type() catalog.ComponentType
	Scan() ([]catalog.Entry, []string)
}

// Options carries what every scanner is constructed with.
type Options struct {
	Platform catalog.Platform
	// Origin is assigned to entries whose provenance is not derived from
	// the artifact itself.
	Origin catalog.Origin
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Platform == "" {
		o.Platform = catalog.PlatformClaude
	}
	if o.Origin == "" {
		o.Origin = catalog.OriginInHouse
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) identity(t catalog.ComponentType, name string) catalog.Identity {
	return catalog.Identity{Platform: o.Platform, Type: t, Name: name}
}

// location is one discovery phase: the directory and the status implied by
// finding an artifact there.
type location struct {
	dir    string
	status catalog.Status
}

// locations returns the active root followed by its disabled sibling.
func locations(root string) []location {
	return []location{
		{dir: root, status: catalog.StatusActive},
		{dir: filepath.Join(root, DisabledDir), status: catalog.StatusDisabled},
	}
}

// readDir lists dir. A missing directory is empty, not an error.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// statEntry resolves symlinks so linked files and directories are treated
// like the real thing.
func statEntry(dir string, d os.DirEntry) (string, os.FileInfo, error) {
	path := filepath.Join(dir, d.Name())
	info, err := os.Stat(path)
	return path, info, err
}
