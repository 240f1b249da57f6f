package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/extract"
	"github.com/agentx-labs/tooldex/internal/manifest"
)

// CommandScanner reads slash-command markdown files from root and
// root/.disabled, plus the commands plugins declare in the plugin cache.
type CommandScanner struct {
	root        string
	pluginCache string
	opts        Options
}

// NewCommandScanner creates a scanner for the commands directory root.
// pluginCache may be empty when the platform has no plugins.
func NewCommandScanner(root, pluginCache string, opts Options) *CommandScanner {
	return &CommandScanner{root: root, pluginCache: pluginCache, opts: opts.withDefaults()}
}

func (s *CommandScanner) Type() catalog.ComponentType { return catalog.TypeCommand }

func (s *CommandScanner) Scan() ([]catalog.Entry, []string) {
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
			if hidden(d.Name()) || !strings.HasSuffix(d.Name(), ".md") {
				continue
			}
			path, info, err := statEntry(loc.dir, d)
			if err == nil && info.IsDir() {
				continue
			}
			name := strings.TrimSuffix(d.Name(), ".md")
			if err == nil {
				var entry catalog.Entry
				if entry, err = s.scanCommand(path, name, loc.status, info); err == nil {
					entries = append(entries, entry)
					continue
				}
			}
			s.opts.Logger.Debug("command extraction failed", zap.String("path", path), zap.Error(err))
			entries = append(entries, catalog.NewErrorEntry(s.opts.identity(catalog.TypeCommand, name), path, err))
		}
	}

	entries = append(entries, s.scanPluginCommands()...)

	ResolveReferences(entries)
	catalog.SortEntries(entries)
	return entries, errs
}

func (s *CommandScanner) scanCommand(path, name string, status catalog.Status, info os.FileInfo) (catalog.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return catalog.Entry{
		Identity:     s.opts.identity(catalog.TypeCommand, name),
		Origin:       s.opts.Origin,
		Status:       status,
		InstallPath:  path,
		LastModified: info.ModTime().UTC(),
		Detail:       commandDetail(name, string(data)),
	}, nil
}

// commandDetail runs the frontmatter parse and heuristic battery over a
// command document.
func commandDetail(name, content string) *catalog.CommandDetail {
	fm, body, warnings := parseDocument(content)

	args := extract.InvocationArguments(body)
	if args == "" {
		args = fm.ArgumentHint
	}
	instruction := extract.InvocationInstruction(body)
	description := fm.Description
	if description == "" {
		description = instruction
	}

	insights := extract.Analyze(name+"\n"+description, body)
	insights.DependsOn = mergeNames(fm.DependsOn, insights.DependsOn)

	return &catalog.CommandDetail{
		Description:           description,
		ArgumentHint:          fm.ArgumentHint,
		AllowedTools:          fm.AllowedTools,
		InvocationAliases:     extract.InvocationAliases(name, body),
		InvocationArguments:   args,
		InvocationInstruction: instruction,
		Warnings:              warnings,
		Insights:              insights,
	}
}

// scanPluginCommands emits plugin:<plugin>:<command> entries for commands
// declared in plugin manifests. When the plugin ships the command document
// (commands/<name>.md) it is analyzed like a local command.
func (s *CommandScanner) scanPluginCommands() []catalog.Entry {
	var entries []catalog.Entry
	seen := map[string]bool{}
	for _, path := range pluginManifestPaths(s.pluginCache) {
		m, err := manifest.ReadPluginManifest(path)
		if err != nil {
			// Reported once, by the plugin scanner.
			s.opts.Logger.Debug("skipping plugin manifest", zap.String("path", path), zap.Error(err))
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		for _, cmd := range m.Commands {
			name := qualifiedName(m.Name, cmd.Name)
			if seen[name] {
				continue
			}
			seen[name] = true

			installPath := path
			detail := &catalog.CommandDetail{
				Description:       cmd.Description,
				InvocationAliases: []string{"/" + cmd.Name},
			}
			doc := filepath.Join(m.Root, "commands", cmd.Name+".md")
			if data, err := os.ReadFile(doc); err == nil {
				installPath = doc
				detail = commandDetail(cmd.Name, string(data))
				if cmd.Description != "" {
					detail.Description = cmd.Description
				}
			}
			detail.FromPlugin = m.Name

			entries = append(entries, catalog.Entry{
				Identity:     s.opts.identity(catalog.TypeCommand, name),
				Origin:       catalog.OriginPlugin,
				Status:       catalog.StatusActive,
				Version:      manifest.NormalizeVersion(m.Version),
				InstallPath:  installPath,
				LastModified: info.ModTime().UTC(),
				Detail:       detail,
			})
		}
	}
	return entries
}
