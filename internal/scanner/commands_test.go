package scanner

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

func TestCommandScanner(t *testing.T) {
	home := t.TempDir()
	root := filepath.Join(home, "commands")
	cache := filepath.Join(home, "plugins", "cache")

	writeFile(t, filepath.Join(root, "email.md"), emailCommandDoc)
	writeFile(t, filepath.Join(root, DisabledDir, "hidden.md"), "---\ndescription: Off\n---\nDo nothing.\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(cache, "custom", "p1", ".claude-plugin", "plugin.json"),
		`{"name":"p1","commands":{"hello":{"description":"Hi"}}}`)

	entries, errs := NewCommandScanner(root, cache, Options{}).Scan()
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	email := findEntry(t, entries, "email")
	d := email.Detail.(*catalog.CommandDetail)
	if d.Description != "Send an email" || d.ArgumentHint != "<recipient>" {
		t.Errorf("frontmatter = %q / %q", d.Description, d.ArgumentHint)
	}
	if !contains(d.InvocationAliases, "/email") {
		t.Errorf("InvocationAliases = %v", d.InvocationAliases)
	}
	if d.InvocationArguments == "" {
		t.Error("InvocationArguments is empty")
	}
	if !strings.HasPrefix(d.InvocationInstruction, "Implement") {
		t.Errorf("InvocationInstruction = %q", d.InvocationInstruction)
	}
	checks := []struct {
		name string
		list []string
		want string
	}{
		{"RequiredEnvVars", d.RequiredEnvVars, "API_KEY"},
		{"Prerequisites", d.Prerequisites, "brew install x"},
		{"Gotchas", d.Gotchas, "Beware rate limits"},
		{"Composio", d.DetectedTools.Composio, "GMAIL_SEND_EMAIL"},
		{"MCP", d.DetectedTools.MCP, "mcp__neon__run_sql"},
		{"CapabilityTags", d.CapabilityTags, "email"},
		{"CapabilityTags", d.CapabilityTags, "database"},
		{"FileRefs", d.FileRefs, "CLAUDE.md"},
		{"DependsOn", d.DependsOn, "other-skill"},
	}
	for _, c := range checks {
		if !contains(c.list, c.want) {
			t.Errorf("%s = %v, missing %q", c.name, c.list, c.want)
		}
	}

	hidden := findEntry(t, entries, "hidden")
	if hidden.Status != catalog.StatusDisabled {
		t.Errorf("hidden status = %s, want disabled", hidden.Status)
	}

	hello := findEntry(t, entries, "plugin:p1:hello")
	hd := hello.Detail.(*catalog.CommandDetail)
	if hello.Origin != catalog.OriginPlugin || hd.FromPlugin != "p1" || hd.Description != "Hi" {
		t.Errorf("plugin command = %+v / %+v", hello, hd)
	}
	if !contains(hd.InvocationAliases, "/hello") {
		t.Errorf("plugin aliases = %v", hd.InvocationAliases)
	}
}

func TestCommandScannerPluginDocument(t *testing.T) {
	cache := t.TempDir()
	plugin := filepath.Join(cache, "market", "p2", "1.0.0")
	writeFile(t, filepath.Join(plugin, ".claude-plugin", "plugin.json"), `{"commands":["./commands/review.md"]}`)
	writeFile(t, filepath.Join(plugin, "commands", "review.md"), "---\ndescription: Review a PR\n---\nReview the pull request $ARGUMENTS\n")

	entries, _ := NewCommandScanner(filepath.Join(cache, "none"), cache, Options{}).Scan()
	e := findEntry(t, entries, "plugin:p2:review")
	d := e.Detail.(*catalog.CommandDetail)
	if d.FromPlugin != "p2" || d.Description != "Review a PR" || d.InvocationArguments != "$ARGUMENTS" {
		t.Errorf("detail = %+v", d)
	}
	if e.InstallPath != filepath.Join(plugin, "commands", "review.md") {
		t.Errorf("InstallPath = %q", e.InstallPath)
	}
}

func TestCommandScannerUnreadableFile(t *testing.T) {
	root := t.TempDir()
	// A dangling symlink is discovered but cannot be read.
	if err := symlink(filepath.Join(root, "missing-target"), filepath.Join(root, "ghost.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	entries, _ := NewCommandScanner(root, "", Options{}).Scan()
	e := findEntry(t, entries, "ghost")
	if e.Status != catalog.StatusError || e.ErrorMessage == "" || e.Origin != catalog.OriginUnknown {
		t.Errorf("ghost = %+v", e)
	}
}
