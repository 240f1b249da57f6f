package manifest

import (
	"reflect"
	"testing"
)

func TestParseServerSpec(t *testing.T) {
	tests := []struct {
		name          string
		cfg           map[string]any
		wantTransport string
		wantCommand   string
		wantArgs      []string
	}{
		{"stdio default", map[string]any{"command": "npx", "args": []any{"-y", "pkg"}}, "stdio", "npx", []string{"-y", "pkg"}},
		{"url means http", map[string]any{"url": "https://x/mcp", "type": "streamable"}, "http", "", nil},
		{"sse kept", map[string]any{"url": "https://x/sse", "type": "sse"}, "sse", "", nil},
		{"explicit transport", map[string]any{"command": "srv", "transport": "ws"}, "ws", "srv", nil},
		{"scalar args", map[string]any{"command": "srv", "args": "--once"}, "stdio", "srv", []string{"--once"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseServerSpec(tt.cfg)
			if s.Transport != tt.wantTransport || s.Command != tt.wantCommand {
				t.Errorf("spec = %+v", s)
			}
			if !reflect.DeepEqual(s.Args, tt.wantArgs) {
				t.Errorf("Args = %v, want %v", s.Args, tt.wantArgs)
			}
		})
	}
}

func TestParseServerSpec_Extra(t *testing.T) {
	s := ParseServerSpec(map[string]any{
		"command": "x",
		"headers": map[string]any{"Authorization": "Bearer t"},
		"timeout": 30.0,
	})
	if len(s.Extra) != 2 || s.Extra["timeout"] != 30.0 {
		t.Errorf("Extra = %v", s.Extra)
	}
}

func TestResolvePluginRoot(t *testing.T) {
	cfg := map[string]any{
		"command": "${CLAUDE_PLUGIN_ROOT}/bin/srv",
		"args":    []any{"--config", "${CLAUDE_PLUGIN_ROOT}/cfg.json", 3.0},
		"env":     map[string]any{"DATA": "${CLAUDE_PLUGIN_ROOT}/data"},
	}
	got := ResolvePluginRoot(cfg, "/plugins/p1")
	if got["command"] != "/plugins/p1/bin/srv" {
		t.Errorf("command = %v", got["command"])
	}
	if got["args"].([]any)[1] != "/plugins/p1/cfg.json" || got["args"].([]any)[2] != 3.0 {
		t.Errorf("args = %v", got["args"])
	}
	if got["env"].(map[string]any)["DATA"] != "/plugins/p1/data" {
		t.Errorf("env = %v", got["env"])
	}
	if cfg["command"] != "${CLAUDE_PLUGIN_ROOT}/bin/srv" {
		t.Error("ResolvePluginRoot modified its input")
	}
}

func TestParseCodexConfig(t *testing.T) {
	data := []byte(`
model = "o4"

[mcp_servers.test-server]
command = "python3"
args = ["-m", "test_mcp"]

[mcp_servers.test-server.env]
API_KEY = "${API_KEY}"

[mcp_servers_disabled."quoted.name"]
command = "npx"
`)
	cfg, err := ParseCodexConfig(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	srv := cfg.Servers["test-server"]
	if srv == nil || srv["command"] != "python3" {
		t.Fatalf("Servers = %v", cfg.Servers)
	}
	spec := ParseServerSpec(srv)
	if spec.Env["API_KEY"] != "${API_KEY}" {
		t.Errorf("Env = %v", spec.Env)
	}
	if _, ok := cfg.Disabled["quoted.name"]; !ok {
		t.Errorf("Disabled = %v", cfg.Disabled)
	}
	if names := SortedNames(cfg.Servers); len(names) != 1 {
		t.Errorf("SortedNames = %v", names)
	}
}

func TestParseCodexConfig_Invalid(t *testing.T) {
	if _, err := ParseCodexConfig([]byte("[mcp_servers\n")); err == nil {
		t.Error("expected error for invalid TOML")
	}
	cfg, err := ParseCodexConfig(nil)
	if err != nil || len(cfg.Servers) != 0 {
		t.Errorf("empty config = %+v, %v", cfg, err)
	}
}
