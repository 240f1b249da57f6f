package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

type testEnv struct {
	t          *testing.T
	configPath string
	claudeHome string
	claudeJSON string
	dbPath     string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newTestEnv builds a home with one skill and one MCP server and points
// every setting at it.
func newTestEnv(t *testing.T) *testEnv {
	home := t.TempDir()
	env := &testEnv{
		t:          t,
		configPath: filepath.Join(home, ".tooldex", "config.yaml"),
		claudeHome: filepath.Join(home, ".claude"),
		claudeJSON: filepath.Join(home, ".claude.json"),
		dbPath:     filepath.Join(home, ".tooldex", "catalog.db"),
	}
	t.Setenv("HOME", home)
	t.Setenv("TOOLDEX_CLAUDE_HOME", env.claudeHome)
	t.Setenv("TOOLDEX_CLAUDE_JSON", env.claudeJSON)
	t.Setenv("TOOLDEX_CODEX_HOME", filepath.Join(home, ".codex"))
	t.Setenv("TOOLDEX_DB", env.dbPath)
	t.Setenv("TOOLDEX_LOG_FILE", "")

	writeFile(t, filepath.Join(env.claudeHome, "skills", "pdf", "SKILL.md"),
		"---\nname: pdf\ndescription: Extract text from PDF files\n---\n# PDF\n\nRun the extractor.\n")
	writeFile(t, env.claudeJSON, `{
  "mcpServers": {
    "gmail": {"command": "npx", "args": ["-y", "gmail-server"]}
  }
}
`)
	t.Cleanup(viper.Reset)
	return env
}

// run executes the root command with fresh flag values.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, "%v: %s", args, out)
	return out
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestScanListSearch(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("scan")
	assert.Contains(t, out, "Catalog updated: 2 installed, 0 updated")

	out = env.mustRun("list", "--type", "skill")
	assert.Contains(t, out, "pdf")
	assert.Contains(t, out, "Extract text from PDF files")
	assert.NotContains(t, out, "gmail")

	out = env.mustRun("search", "gmai")
	assert.Contains(t, out, "gmail")

	out = env.mustRun("search", "gmai", "--type", "mcp", "--platform", "claude")
	assert.Contains(t, out, "gmail")

	out = env.mustRun("search", "gmai", "--type", "skill")
	assert.Contains(t, out, `No components matching "gmai"`)

	_, err := env.run("search", "gmai", "--platform", "cursor")
	assert.Error(t, err)

	out = env.mustRun("search", "nothing-like-this")
	assert.Contains(t, out, `No components matching "nothing-like-this"`)

	out = env.mustRun("scan")
	assert.Contains(t, out, "0 installed, 2 updated")
}

func TestScanNoDB(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("scan", "--no-db", "--platform", "claude")
	assert.Contains(t, out, "total")
	assert.NoFileExists(t, env.dbPath)
}

func TestToggleRefreshesCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("scan")

	out := env.mustRun("toggle", "skill:pdf")
	assert.Contains(t, out, "Disabled claude skill: pdf")
	assert.FileExists(t, filepath.Join(env.claudeHome, "skills", ".disabled", "pdf", "SKILL.md"))

	out = env.mustRun("list", "--status", "disabled", "--json")
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "pdf", entries[0].Name)

	env.mustRun("toggle", "claude:mcp:gmail")
	data, err := os.ReadFile(env.claudeJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mcpServersDisabled"`)

	out = env.mustRun("toggle", "skill:pdf")
	assert.Contains(t, out, "Enabled claude skill: pdf")
	assert.DirExists(t, filepath.Join(env.claudeHome, "skills", "pdf"))

	out = env.mustRun("history", "skill:pdf")
	assert.Contains(t, out, "installed")
	assert.Contains(t, out, "updated")
}

func TestToggleUnknownIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("scan")

	_, err := env.run("toggle", "skill:nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the catalog")
}

func TestTrackAndUsage(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("scan")

	out := env.mustRun("track", "skill:pdf", "--duration-ms", "120", "--session", "s1")
	assert.Contains(t, out, "Tracked claude:skill:pdf")

	out = env.mustRun("track", "skill:ghost")
	assert.Contains(t, out, "invocation ignored")

	t.Setenv(ToolDataEnv, `{"tool_name":"Skill","tool_input":{"skill":"pdf"},"duration_ms":80,"session_id":"s2"}`)
	out = env.mustRun("track", "--from-hook")
	assert.Empty(t, strings.TrimSpace(out))

	out = env.mustRun("usage", "skill:pdf")
	assert.Contains(t, out, "Invocations:  2 in 2 session(s)")
	assert.Contains(t, out, "Success rate: 100.0%")
	assert.Contains(t, out, "Avg duration: 100 ms")

	out = env.mustRun("stats")
	assert.Contains(t, out, "Components: 2")
	assert.Contains(t, out, "claude:skill:pdf")
}

func TestTrackFromHookWithoutCatalog(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv(ToolDataEnv, `{"tool_name":"Skill","tool_input":{"skill":"pdf"}}`)

	env.mustRun("track", "--from-hook")
	assert.NoFileExists(t, env.dbPath)
}

func TestConfigSetGet(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("config", "set", "usage_window_days", "7")
	assert.Contains(t, out, "Set usage_window_days = 7")
	assert.FileExists(t, env.configPath)

	out = env.mustRun("config", "get", "usage_window_days")
	assert.Equal(t, "7\n", out)

	_, err := env.run("config", "get", "bogus")
	assert.Error(t, err)
}

func TestDoctor(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("scan")

	out := env.mustRun("doctor", "--check-catalog")
	assert.Contains(t, out, "[ OK ] "+env.dbPath+" opens")
	assert.Contains(t, out, "last scan")

	bad := filepath.Join(t.TempDir(), "SKILL.md")
	writeFile(t, bad, "no frontmatter here\n")
	_, err := env.run("doctor", "--check-doc", bad)
	assert.Error(t, err)
}

func TestVersionJSON(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("version", "--json")
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.EqualValues(t, 2, info["schema_generation"])
}

func TestStatsDetailed(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("scan")
	writeFile(t, filepath.Join(env.claudeHome, "todos", "s1.json"),
		`[{"status": "completed"}, {"status": "pending"}]`)
	writeFile(t, filepath.Join(env.claudeHome, "data", "event_queue.jsonl"),
		`{"hook_event_type":"PreToolUse","session_id":"s1","payload":{"tool_name":"Bash"}}`+"\n")

	out := env.mustRun("stats")
	assert.NotContains(t, out, "Activity:")

	out = env.mustRun("stats", "--detailed")
	assert.Contains(t, out, "Activity:")
	assert.Contains(t, out, "Tasks:")
	assert.Contains(t, out, "2 tasks: 1 completed (50%), 1 pending, 0 in progress")
	assert.Contains(t, out, "1 events in 1 sessions")
	assert.NotContains(t, out, "Transcripts:")

	out = env.mustRun("stats", "--detailed", "--json")
	var doc struct {
		Usage    map[string]any `json:"usage"`
		Activity struct {
			Tasks struct {
				TotalTasks int `json:"total_tasks"`
			} `json:"tasks"`
		} `json:"activity"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.NotNil(t, doc.Usage)
	assert.Equal(t, 2, doc.Activity.Tasks.TotalTasks)
}
