package scanner

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// HookScanner reads hook scripts from root and root/.disabled.
type HookScanner struct {
	root string
	opts Options
}

// NewHookScanner creates a scanner for the hooks directory root.
func NewHookScanner(root string, opts Options) *HookScanner {
	return &HookScanner{root: root, opts: opts.withDefaults()}
}

func (s *HookScanner) Type() catalog.ComponentType { return catalog.TypeHook }

func (s *HookScanner) Scan() ([]catalog.Entry, []string) {
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
				s.opts.Logger.Debug("hook stat failed", zap.String("path", path), zap.Error(err))
				entries = append(entries, catalog.NewErrorEntry(s.opts.identity(catalog.TypeHook, d.Name()), path, err))
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}

			name := d.Name()
			origin := s.opts.Origin
			if strings.Contains(strings.ToLower(name), "tooling") {
				origin = catalog.OriginOfficial
			}
			entries = append(entries, catalog.Entry{
				Identity:     s.opts.identity(catalog.TypeHook, name),
				Origin:       origin,
				Status:       loc.status,
				InstallPath:  path,
				LastModified: info.ModTime().UTC(),
				Detail: &catalog.HookDetail{
					Trigger:  strings.TrimSuffix(name, filepath.Ext(name)),
					Language: detectLanguage(path),
					FileSize: info.Size(),
				},
			})
		}
	}

	catalog.SortEntries(entries)
	return entries, errs
}
