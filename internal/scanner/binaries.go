package scanner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/platform"
)

// errNotExecutable marks an active binary that cannot be run.
var errNotExecutable = errors.New("not executable")

// BinaryScanner reads executables from root and root/.disabled.
type BinaryScanner struct {
	root string
	opts Options
}

// NewBinaryScanner creates a scanner for the bin directory root.
func NewBinaryScanner(root string, opts Options) *BinaryScanner {
	return &BinaryScanner{root: root, opts: opts.withDefaults()}
}

func (s *BinaryScanner) Type() catalog.ComponentType { return catalog.TypeBinary }

func (s *BinaryScanner) Scan() ([]catalog.Entry, []string) {
	var (
		entries []catalog.Entry
		errs    []string
	)
	for _, loc := range locations(s.root) {
		dirents, err := readDir(loc.dir)
		if err != nil {
			errs = append(errs, fmt.Sprintf("reading %s: %v", loc.dir, err))
			continue
		}
		for _, d := range dirents {
			if hidden(d.Name()) {
				continue
			}
			path, info, err := statEntry(loc.dir, d)
			if err != nil {
				s.opts.Logger.Debug("binary stat failed", zap.String("path", path), zap.Error(err))
				entries = append(entries, catalog.NewErrorEntry(s.opts.identity(catalog.TypeBinary, d.Name()), path, err))
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}

			executable := platform.IsExecutable(info)
			entry := catalog.Entry{
				Identity:     s.opts.identity(catalog.TypeBinary, d.Name()),
				Origin:       s.opts.Origin,
				Status:       loc.status,
				InstallPath:  path,
				LastModified: info.ModTime().UTC(),
				Detail: &catalog.BinaryDetail{
					Language:   detectLanguage(path),
					FileSize:   info.Size(),
					Executable: executable,
				},
			}
			if !executable && loc.status == catalog.StatusActive {
				entry.Status = catalog.StatusError
				entry.ErrorMessage = errNotExecutable.Error()
			}
			entries = append(entries, entry)
		}
	}

	catalog.SortEntries(entries)
	return entries, errs
}
