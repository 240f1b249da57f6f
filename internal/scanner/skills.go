package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/extract"
	"github.com/agentx-labs/tooldex/internal/manifest"
)

// SkillFile is the document that marks a directory as a skill.
const SkillFile = "SKILL.md"

// skipDirs are never counted toward a skill's size.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
	".git":         true,
}

// SkillScanner reads skill directories from root and root/.disabled.
type SkillScanner struct {
	root string
	opts Options
}

// NewSkillScanner creates a scanner for the skills directory root.
func NewSkillScanner(root string, opts Options) *SkillScanner {
	return &SkillScanner{root: root, opts: opts.withDefaults()}
}

func (s *SkillScanner) Type() catalog.ComponentType { return catalog.TypeSkill }

func (s *SkillScanner) Scan() ([]catalog.Entry, []string) {
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
			if loc.status == catalog.StatusActive && hidden(d.Name()) {
				continue
			}
			path, info, err := statEntry(loc.dir, d)
			if err != nil || !info.IsDir() {
				continue
			}
			entry, found, err := s.scanSkill(path, loc.status)
			if err != nil {
				s.opts.Logger.Debug("skill extraction failed", zap.String("path", path), zap.Error(err))
				entries = append(entries, catalog.NewErrorEntry(s.opts.identity(catalog.TypeSkill, d.Name()), path, err))
				continue
			}
			if found {
				entries = append(entries, entry)
			}
		}
	}

	ResolveReferences(entries)
	catalog.SortEntries(entries)
	return entries, errs
}

// scanSkill extracts one skill directory. found is false when the directory
// has no SKILL.md.
func (s *SkillScanner) scanSkill(dir string, status catalog.Status) (entry catalog.Entry, found bool, err error) {
	doc := filepath.Join(dir, SkillFile)
	info, err := os.Stat(doc)
	if errors.Is(err, fs.ErrNotExist) {
		return catalog.Entry{}, false, nil
	}
	if err != nil {
		return catalog.Entry{}, true, err
	}
	data, err := os.ReadFile(doc)
	if err != nil {
		return catalog.Entry{}, true, fmt.Errorf("reading %s: %w", doc, err)
	}

	fm, body, warnings := parseDocument(string(data))
	name := fm.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	files, lines := countFilesAndLines(dir)
	insights := extract.Analyze(name+"\n"+fm.Description, body)
	insights.DependsOn = mergeNames(fm.DependsOn, insights.DependsOn)

	return catalog.Entry{
		Identity:     s.opts.identity(catalog.TypeSkill, name),
		Origin:       s.opts.Origin,
		Status:       status,
		Version:      manifest.NormalizeVersion(fm.Version),
		InstallPath:  dir,
		LastModified: info.ModTime().UTC(),
		Detail: &catalog.SkillDetail{
			Description:  fm.Description,
			Tags:         fm.Tags,
			AllowedTools: fm.AllowedTools,
			FileCount:    files,
			TotalLines:   lines,
			HasDocs:      true,
			Performance:  extract.PerformanceMetrics(body),
			Warnings:     warnings,
			Insights:     insights,
		},
	}, true, nil
}

// parseDocument splits a markdown artifact into frontmatter and body.
// Malformed or schema-invalid frontmatter degrades to warnings; the body is
// still analyzed.
func parseDocument(content string) (manifest.Frontmatter, string, []string) {
	fm, body, err := manifest.ParseFrontmatter(content)
	switch {
	case errors.Is(err, manifest.ErrNoFrontmatter):
		return fm, body, nil
	case err != nil:
		return manifest.Frontmatter{}, body, []string{err.Error()}
	}

	result, err := manifest.ValidateFrontmatter(fm)
	if err != nil {
		return fm, body, []string{err.Error()}
	}
	return fm, body, result.Warnings()
}

// countFilesAndLines counts regular files under dir and the lines of those
// that are UTF-8 text. Caches, dependency trees and build output are skipped.
func countFilesAndLines(dir string) (files, lines int) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if d.Name() == "debug" || d.Name() == "release" {
				if filepath.Base(filepath.Dir(path)) == "target" {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasSuffix(d.Name(), ".pyc") {
			return nil
		}
		files++
		if data, err := os.ReadFile(path); err == nil && utf8.Valid(data) {
			lines += countLines(data)
		}
		return nil
	})
	return files, lines
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// mergeNames concatenates name lists, dropping blanks and duplicates.
func mergeNames(lists ...[]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, list := range lists {
		for _, n := range list {
			n = strings.TrimSpace(n)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
