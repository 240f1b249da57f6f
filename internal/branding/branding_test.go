package branding

import "testing"

func TestEmbeddedValues(t *testing.T) {
	if got := CLIName(); got != "tooldex" {
		t.Errorf("CLIName() = %q, want %q", got, "tooldex")
	}
	if got := HomeDir(); got != ".tooldex" {
		t.Errorf("HomeDir() = %q, want %q", got, ".tooldex")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("claude_home"); got != "TOOLDEX_CLAUDE_HOME" {
		t.Errorf("EnvVar() = %q, want %q", got, "TOOLDEX_CLAUDE_HOME")
	}
}
