package userdata

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentx-labs/tooldex/internal/config"
)

func TestResolve_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Resolve(config.Settings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ClaudeHome != filepath.Join(home, ".claude") {
		t.Errorf("ClaudeHome = %s", p.ClaudeHome)
	}
	if p.ClaudeJSON != filepath.Join(home, ".claude.json") {
		t.Errorf("ClaudeJSON = %s", p.ClaudeJSON)
	}
	if p.CodexHome != filepath.Join(home, ".codex") {
		t.Errorf("CodexHome = %s", p.CodexHome)
	}
	if p.DBPath != filepath.Join(home, ".tooldex", "catalog.db") {
		t.Errorf("DBPath = %s", p.DBPath)
	}
	if p.LogFile != "" {
		t.Errorf("LogFile = %q, want empty", p.LogFile)
	}
}

func TestResolve_Overrides(t *testing.T) {
	p, err := Resolve(config.Settings{
		ClaudeHome: "/x/claude",
		ClaudeJSON: "/x/claude.json",
		CodexHome:  "/x/codex",
		DBPath:     "/x/db.sqlite",
		LogFile:    "/x/log",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Paths{"/x/claude", "/x/claude.json", "/x/codex", "/x/db.sqlite", "/x/log"}
	if p != want {
		t.Errorf("Resolve() = %+v, want %+v", p, want)
	}
}

func TestResolve_RelativeLogFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Resolve(config.Settings{LogFile: "tooldex.log"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, ".tooldex", "logs", "tooldex.log"); p.LogFile != want {
		t.Errorf("LogFile = %s, want %s", p.LogFile, want)
	}
}

func TestEnsureDBDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	p := Paths{DBPath: filepath.Join(dir, "catalog.db")}
	if err := p.EnsureDBDir(); err != nil {
		t.Fatalf("EnsureDBDir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected %s to be a directory", dir)
	}
}

func TestCheckPaths(t *testing.T) {
	root := t.TempDir()
	claudeHome := filepath.Join(root, ".claude")
	if err := os.MkdirAll(claudeHome, 0755); err != nil {
		t.Fatal(err)
	}
	p := Paths{
		ClaudeHome: claudeHome,
		ClaudeJSON: filepath.Join(root, ".claude.json"),
		CodexHome:  filepath.Join(root, ".codex"),
		DBPath:     filepath.Join(root, ".tooldex", "catalog.db"),
	}

	var buf bytes.Buffer
	r := CheckPaths(&buf, p, true)

	out := buf.String()
	if !strings.Contains(out, "[ OK ] "+claudeHome) {
		t.Errorf("expected claude home OK, got:\n%s", out)
	}
	if !strings.Contains(out, "[MISS] "+p.CodexHome) {
		t.Errorf("expected codex home MISS, got:\n%s", out)
	}
	if !strings.Contains(out, "[FIX ]") {
		t.Errorf("expected database dir to be created, got:\n%s", out)
	}
	if r.Missing != 3 {
		t.Errorf("Missing = %d, want 3 (claude.json, codex home, db file)", r.Missing)
	}
}
