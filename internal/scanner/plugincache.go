package scanner

import (
	"path/filepath"
	"sort"
)

// Plugin cache layouts: cache/<marketplace>/<plugin>/ and the versioned
// cache/<marketplace>/<plugin>/<version>/.
var (
	pluginManifestGlobs = []string{
		filepath.Join("*", "*", ".claude-plugin", "plugin.json"),
		filepath.Join("*", "*", "*", ".claude-plugin", "plugin.json"),
	}
	serverFileGlobs = []string{
		filepath.Join("*", "*", ".mcp.json"),
		filepath.Join("*", "*", "*", ".mcp.json"),
	}
)

// pluginManifestPaths returns every plugin.json under the plugin cache.
func pluginManifestPaths(cacheDir string) []string {
	return globAll(cacheDir, pluginManifestGlobs)
}

// serverFilePaths returns every .mcp.json under the plugin cache.
func serverFilePaths(cacheDir string) []string {
	return globAll(cacheDir, serverFileGlobs)
}

func globAll(dir string, patterns []string) []string {
	if dir == "" {
		return nil
	}
	var out []string
	for _, p := range patterns {
		// Glob only fails on malformed patterns.
		matches, _ := filepath.Glob(filepath.Join(dir, p))
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out
}

// qualifiedName scopes a plugin-provided component: plugin:<plugin>:<name>.
func qualifiedName(plugin, name string) string {
	return "plugin:" + plugin + ":" + name
}
