package toggle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/scanner"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func requireReason(t *testing.T, err error, want Reason) {
	t.Helper()
	require.Error(t, err)
	require.True(t, IsFailed(err), "want FailedError, got %v", err)
	assert.False(t, IsNotSupported(err))
	got, _ := FailureReason(err)
	assert.Equal(t, want, got, "%v", err)
}

func scanSkill(t *testing.T, root, name string) catalog.Entry {
	t.Helper()
	entries, errs := scanner.NewSkillScanner(root, scanner.Options{}).Scan()
	require.Empty(t, errs)
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("skill %s not scanned", name)
	return catalog.Entry{}
}

func TestToggleSkillRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "skills")
	writeFile(t, filepath.Join(root, "pdf", "SKILL.md"), "---\nname: pdf\ndescription: Read PDFs\n---\nUse it.\n")
	engine := New(Locations{}, nil)

	original := scanSkill(t, root, "pdf")
	require.Equal(t, catalog.StatusActive, original.Status)

	res, err := engine.Toggle(original)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusDisabled, res.NewStatus)
	assert.Contains(t, res.Message, "Disabled claude skill: pdf")
	assert.NoDirExists(t, filepath.Join(root, "pdf"))
	assert.FileExists(t, filepath.Join(root, scanner.DisabledDir, "pdf", "SKILL.md"))

	disabled := scanSkill(t, root, "pdf")
	assert.Equal(t, catalog.StatusDisabled, disabled.Status)

	res, err = engine.Toggle(disabled)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusActive, res.NewStatus)

	restored := scanSkill(t, root, "pdf")
	assert.Equal(t, original.Status, restored.Status)
	assert.Equal(t, original.InstallPath, restored.InstallPath)
}

func TestToggleFileCollision(t *testing.T) {
	root := t.TempDir()
	active := writeFile(t, filepath.Join(root, "hooks", "notify.sh"), "#!/bin/sh\necho new\n")
	writeFile(t, filepath.Join(root, "hooks", scanner.DisabledDir, "notify.sh"), "#!/bin/sh\necho old\n")

	e := catalog.Entry{
		Identity:    catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeHook, Name: "notify.sh"},
		Status:      catalog.StatusActive,
		InstallPath: active,
	}
	_, err := New(Locations{}, nil).Toggle(e)
	requireReason(t, err, ReasonCollision)
	assert.Equal(t, "#!/bin/sh\necho new\n", readFile(t, active))
	assert.Equal(t, "#!/bin/sh\necho old\n", readFile(t, filepath.Join(root, "hooks", scanner.DisabledDir, "notify.sh")))
}

func TestToggleFileInconsistentStatus(t *testing.T) {
	root := t.TempDir()
	active := writeFile(t, filepath.Join(root, "bin", "tool"), "#!/bin/sh\n")

	e := catalog.Entry{
		Identity:    catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeBinary, Name: "tool"},
		Status:      catalog.StatusDisabled,
		InstallPath: active,
	}
	_, err := New(Locations{}, nil).Toggle(e)
	requireReason(t, err, ReasonInconsistent)
	assert.FileExists(t, active)
}

func TestToggleFileMissing(t *testing.T) {
	e := catalog.Entry{
		Identity:    catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeCommand, Name: "gone"},
		Status:      catalog.StatusActive,
		InstallPath: filepath.Join(t.TempDir(), "commands", "gone.md"),
	}
	_, err := New(Locations{}, nil).Toggle(e)
	requireReason(t, err, ReasonMissing)
}

func TestToggleNotSupported(t *testing.T) {
	id := func(p catalog.Platform, typ catalog.ComponentType, name string) catalog.Identity {
		return catalog.Identity{Platform: p, Type: typ, Name: name}
	}
	tests := []struct {
		name  string
		entry catalog.Entry
	}{
		{"error status", catalog.Entry{
			Identity: id(catalog.PlatformClaude, catalog.TypeSkill, "broken"),
			Status:   catalog.StatusError,
		}},
		{"plugin command", catalog.Entry{
			Identity: id(catalog.PlatformClaude, catalog.TypeCommand, "plugin:kit:deploy"),
			Status:   catalog.StatusActive,
			Detail:   &catalog.CommandDetail{FromPlugin: "kit"},
		}},
		{"plugin server", catalog.Entry{
			Identity: id(catalog.PlatformClaude, catalog.TypeServer, "plugin:kit:db"),
			Origin:   catalog.OriginPlugin,
			Status:   catalog.StatusActive,
		}},
		{"builtin server", catalog.Entry{
			Identity: id(catalog.PlatformClaude, catalog.TypeServer, scanner.BuiltinChromeServer),
			Origin:   catalog.OriginOfficial,
			Status:   catalog.StatusActive,
			Detail:   &catalog.ServerDetail{Builtin: true},
		}},
		{"plugin", catalog.Entry{
			Identity: id(catalog.PlatformClaude, catalog.TypePlugin, "kit"),
			Status:   catalog.StatusActive,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Locations{}, nil).Toggle(tt.entry)
			require.Error(t, err)
			assert.True(t, IsNotSupported(err), "%v", err)
			assert.False(t, IsFailed(err))
		})
	}
}
