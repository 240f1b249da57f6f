package scanner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

func TestMarketplaceOrigin(t *testing.T) {
	tests := map[string]catalog.Origin{
		"claude-plugins-official": catalog.OriginOfficial,
		"claude-code-plugins":     catalog.OriginOfficial,
		"superpowers-marketplace": catalog.OriginCommunity,
		"cc-marketplace":          catalog.OriginCommunity,
		"local-dev":               catalog.OriginInHouse,
		"custom":                  catalog.OriginInHouse,
		"acme":                    catalog.OriginExternal,
	}
	for marketplace, want := range tests {
		assert.Equal(t, want, MarketplaceOrigin(marketplace), marketplace)
	}
}

func TestPluginScanner(t *testing.T) {
	root := t.TempDir()
	installed := filepath.Join(root, "installs")
	alpha := filepath.Join(installed, "alpha")
	beta := filepath.Join(installed, "beta")
	writeFile(t, filepath.Join(alpha, "README.md"), "alpha")
	writeFile(t, filepath.Join(beta, "README.md"), "beta")

	writeFile(t, filepath.Join(root, InstalledPluginsFile), `{
  "version": 2,
  "plugins": {
    "alpha@claude-plugins-official": [
      {"installPath": "`+alpha+`", "version": "1.2.0", "lastUpdated": "2025-01-01T00:00:00Z"},
      {"installPath": "`+alpha+`", "version": "1.10.0", "lastUpdated": "2024-06-01T00:00:00Z", "gitCommitSha": "abc123"}
    ],
    "beta@local-tools": [{"installPath": "`+beta+`", "version": "0.1.0"}],
    "gone@acme": [{"installPath": "`+filepath.Join(installed, "gone")+`", "version": "2.0.0"}]
  }
}`)

	cache := filepath.Join(root, "cache")
	writeFile(t, filepath.Join(cache, "claude-plugins-official", "alpha", "1.10.0", ".claude-plugin", "plugin.json"), `{
  "name": "alpha",
  "description": "Alpha tools",
  "author": {"name": "Ada"},
  "repository": {"url": "https://example.com/alpha"},
  "license": "MIT",
  "commands": {"deploy": {"description": "Ship it"}},
  "mcpServers": {"db": {"command": "alpha-db"}}
}`)
	writeFile(t, filepath.Join(cache, "claude-plugins-official", "alpha", "1.10.0", ".mcp.json"), `{"search": {"command": "alpha-search"}}`)

	settings := writeFile(t, filepath.Join(root, "settings.json"), `{"enabledPlugins": {"beta@local-tools": false}}`)

	entries, errs := NewPluginScanner(root, settings, Options{}).Scan()
	require.Empty(t, errs)
	require.Len(t, entries, 3)

	a := findEntry(t, entries, "alpha")
	assert.Equal(t, catalog.OriginOfficial, a.Origin)
	assert.Equal(t, catalog.StatusActive, a.Status)
	assert.Equal(t, "1.10.0", a.Version, "highest semver wins over lexical order")
	ad := a.Detail.(*catalog.PluginDetail)
	assert.Equal(t, []string{"1.2.0"}, ad.OtherVersions)
	assert.Equal(t, "abc123", ad.GitCommitSHA)
	assert.Equal(t, "Alpha tools", ad.Description)
	assert.Equal(t, "Ada", ad.Author)
	assert.Equal(t, "https://example.com/alpha", ad.Repository)
	assert.Equal(t, "MIT", ad.License)
	assert.Equal(t, []string{"deploy"}, ad.ProvidesCommands)
	assert.Equal(t, []string{"plugin:alpha:db", "plugin:alpha:search"}, ad.ProvidesServers)

	b := findEntry(t, entries, "beta")
	assert.Equal(t, catalog.OriginInHouse, b.Origin)
	assert.Equal(t, catalog.StatusDisabled, b.Status)

	g := findEntry(t, entries, "gone")
	assert.Equal(t, catalog.OriginExternal, g.Origin)
	assert.Equal(t, catalog.StatusError, g.Status)
	assert.Contains(t, g.ErrorMessage, "install path not found")
}

func TestPluginScannerLegacyDocument(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p")
	writeFile(t, filepath.Join(path, "x"), "")
	writeFile(t, filepath.Join(root, InstalledPluginsFile), `{"solo@custom": {"installPath": "`+path+`", "version": "3.0.0"}}`)

	entries, errs := NewPluginScanner(root, "", Options{}).Scan()
	require.Empty(t, errs)
	require.Len(t, entries, 1)
	assert.Equal(t, "solo", entries[0].Name)
	assert.Equal(t, "custom", entries[0].Detail.(*catalog.PluginDetail).Marketplace)
}

func TestPluginScannerMalformedManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, InstalledPluginsFile), `{not json`)

	entries, errs := NewPluginScanner(root, "", Options{}).Scan()
	assert.Empty(t, entries)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], InstalledPluginsFile)
}

func TestPluginScannerNoManifest(t *testing.T) {
	entries, errs := NewPluginScanner(t.TempDir(), "", Options{}).Scan()
	assert.Empty(t, entries)
	assert.Empty(t, errs)
}
