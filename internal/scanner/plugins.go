package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/manifest"
	"github.com/agentx-labs/tooldex/internal/platform"
)

// InstalledPluginsFile is the plugin install manifest inside the plugins root.
const InstalledPluginsFile = "installed_plugins.json"

var (
	officialMarketplaces  = map[string]bool{"claude-plugins-official": true, "claude-code-plugins": true}
	communityMarketplaces = map[string]bool{"superpowers-marketplace": true, "awesome-claude-skills": true, "cc-marketplace": true}
)

// MarketplaceOrigin classifies a plugin by the marketplace it came from.
func MarketplaceOrigin(marketplace string) catalog.Origin {
	switch {
	case officialMarketplaces[marketplace]:
		return catalog.OriginOfficial
	case communityMarketplaces[marketplace]:
		return catalog.OriginCommunity
	case strings.HasPrefix(marketplace, "local-") || marketplace == "custom":
		return catalog.OriginInHouse
	}
	return catalog.OriginExternal
}

// PluginScanner reads root/installed_plugins.json and enriches each plugin
// from the manifests in root/cache.
type PluginScanner struct {
	root     string
	settings string
	opts     Options
}

// NewPluginScanner creates a scanner for the plugins directory root.
// settingsPath points at the settings.json whose enabledPlugins map marks
// plugins as disabled; it may be empty.
func NewPluginScanner(root, settingsPath string, opts Options) *PluginScanner {
	return &PluginScanner{root: root, settings: settingsPath, opts: opts.withDefaults()}
}

func (s *PluginScanner) Type() catalog.ComponentType { return catalog.TypePlugin }

func (s *PluginScanner) Scan() ([]catalog.Entry, []string) {
	path := filepath.Join(s.root, InstalledPluginsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []string{fmt.Sprintf("reading %s: %v", path, err)}
	}
	installs, err := manifest.ParseInstalledPlugins(data)
	if err != nil {
		return nil, []string{fmt.Sprintf("%s: %v", path, err)}
	}

	var errs []string
	cache, cacheErrs := indexPluginCache(filepath.Join(s.root, "cache"))
	errs = append(errs, cacheErrs...)

	var enabled map[string]bool
	if s.settings != "" {
		settings, err := manifest.ReadClaudeSettings(s.settings)
		if err != nil {
			errs = append(errs, err.Error())
		}
		enabled = settings.EnabledPlugins
	}

	fallback := time.Now().UTC()
	if info, err := os.Stat(path); err == nil {
		fallback = info.ModTime().UTC()
	}

	var entries []catalog.Entry
	for _, group := range groupByKey(installs) {
		entries = append(entries, s.pluginEntry(group, cache, enabled, fallback))
	}
	catalog.SortEntries(entries)
	return entries, errs
}

// groupByKey groups installs sharing a name@marketplace key, keeping the
// (already sorted) key order.
func groupByKey(installs []manifest.PluginInstall) [][]manifest.PluginInstall {
	var groups [][]manifest.PluginInstall
	for _, in := range installs {
		if n := len(groups); n > 0 && groups[n-1][0].Key == in.Key {
			groups[n-1] = append(groups[n-1], in)
			continue
		}
		groups = append(groups, []manifest.PluginInstall{in})
	}
	return groups
}

// selectInstall picks the highest semver version; ties go to the most
// recently updated install.
func selectInstall(group []manifest.PluginInstall) (manifest.PluginInstall, []string) {
	best := 0
	for i := 1; i < len(group); i++ {
		a, b := group[best], group[i]
		switch {
		case manifest.VersionLess(a.Version, b.Version):
			best = i
		case !manifest.VersionLess(b.Version, a.Version) && updatedAfter(b, a):
			best = i
		}
	}
	var others []string
	for i, in := range group {
		if i != best && in.Version != "" {
			others = append(others, in.Version)
		}
	}
	return group[best], mergeNames(others)
}

func updatedAfter(a, b manifest.PluginInstall) bool {
	switch {
	case a.LastUpdated == nil:
		return false
	case b.LastUpdated == nil:
		return true
	}
	return a.LastUpdated.After(*b.LastUpdated)
}

func (s *PluginScanner) pluginEntry(group []manifest.PluginInstall, cache map[string]*pluginMeta, enabled map[string]bool, fallback time.Time) catalog.Entry {
	in, others := selectInstall(group)

	detail := &catalog.PluginDetail{
		Marketplace:   in.Marketplace,
		InstalledAt:   in.InstalledAt,
		LastUpdated:   in.LastUpdated,
		GitCommitSHA:  in.GitCommitSHA,
		OtherVersions: others,
	}
	if meta := cache[in.Name]; meta != nil {
		detail.Description = meta.Description
		detail.Author = meta.Author
		detail.Homepage = meta.Homepage
		detail.Repository = meta.Repository
		detail.License = meta.License
		detail.ProvidesCommands = meta.Commands
		detail.ProvidesServers = meta.Servers
	}

	entry := catalog.Entry{
		Identity:     s.opts.identity(catalog.TypePlugin, in.Name),
		Origin:       MarketplaceOrigin(in.Marketplace),
		Status:       catalog.StatusActive,
		Version:      in.Version,
		InstallPath:  in.InstallPath,
		LastModified: fallback,
		Detail:       detail,
	}
	if in.LastUpdated != nil {
		entry.LastModified = in.LastUpdated.UTC()
	}

	switch {
	case in.InstallPath == "":
		entry.Status = catalog.StatusError
		entry.ErrorMessage = "install path not recorded"
	case !platform.Exists(in.InstallPath):
		entry.Status = catalog.StatusError
		entry.ErrorMessage = "install path not found: " + in.InstallPath
	default:
		if on, listed := enabled[in.Key]; listed && !on {
			entry.Status = catalog.StatusDisabled
		}
	}
	return entry
}

// pluginMeta is what the plugin cache says about one plugin.
type pluginMeta struct {
	Description string
	Author      string
	Homepage    string
	Repository  string
	License     string
	Commands    []string
	Servers     []string
}

// indexPluginCache reads every plugin.json and .mcp.json in the cache and
// groups their metadata by plugin name. Unreadable files are skipped.
func indexPluginCache(cacheDir string) (map[string]*pluginMeta, []string) {
	index := map[string]*pluginMeta{}
	ensure := func(name string) *pluginMeta {
		if index[name] == nil {
			index[name] = &pluginMeta{}
		}
		return index[name]
	}

	var errs []string
	for _, path := range pluginManifestPaths(cacheDir) {
		m, err := manifest.ReadPluginManifest(path)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		meta := ensure(m.Name)
		setIfEmpty(&meta.Description, m.Description)
		setIfEmpty(&meta.Author, m.Author)
		setIfEmpty(&meta.Homepage, m.Homepage)
		setIfEmpty(&meta.Repository, m.Repository)
		setIfEmpty(&meta.License, m.License)
		for _, c := range m.Commands {
			meta.Commands = append(meta.Commands, c.Name)
		}
		for _, name := range manifest.SortedNames(m.Servers) {
			meta.Servers = append(meta.Servers, qualifiedName(m.Name, name))
		}
	}

	for _, path := range serverFilePaths(cacheDir) {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		servers, err := manifest.ParseServerFile(data)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		plugin := manifest.PluginNameFromDir(filepath.Dir(path))
		meta := ensure(plugin)
		for _, name := range manifest.SortedNames(servers) {
			meta.Servers = append(meta.Servers, qualifiedName(plugin, name))
		}
	}

	for _, meta := range index {
		meta.Commands = sortedUnique(meta.Commands)
		meta.Servers = sortedUnique(meta.Servers)
	}
	return index, errs
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func sortedUnique(in []string) []string {
	out := mergeNames(in)
	sort.Strings(out)
	return out
}
