package toggle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/manifest"
	"github.com/agentx-labs/tooldex/internal/platform"
	"github.com/agentx-labs/tooldex/internal/scanner"
)

// tableHeader matches [mcp_servers.<key>] and [mcp_servers_disabled.<key>]
// headers, including subtables such as [mcp_servers.<key>.env].
var tableHeader = regexp.MustCompile(
	`^(\s*\[\s*)(mcp_servers(?:_disabled)?)(\s*\.\s*)("(?:[^"\\]|\\.)*"|'[^']*'|[A-Za-z0-9_-]+)((?:\s*\.[^\]]*)?\s*\]\s*(?:#.*)?\r?\n?)$`)

// headerKey decodes a bare or quoted TOML key.
func headerKey(raw string) string {
	switch {
	case strings.HasPrefix(raw, `"`):
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
		return strings.Trim(raw, `"`)
	case strings.HasPrefix(raw, "'"):
		return strings.Trim(raw, "'")
	}
	return raw
}

// toggleCodexServer renames the table headers of one server between
// mcp_servers and mcp_servers_disabled. Subtables move with it.
func (t *Engine) toggleCodexServer(e catalog.Entry) (string, error) {
	fail := func(reason Reason, detail string, err error) (string, error) {
		return "", &FailedError{Identity: e.Identity, Reason: reason, Detail: detail, Err: err}
	}

	path := filepath.Join(t.loc.CodexHome, scanner.CodexConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(ReasonMissing, path+" not found", nil)
	}
	if err != nil {
		return fail(ReasonIO, "", err)
	}

	before, err := manifest.ParseCodexConfig(data)
	if err != nil {
		return fail(ReasonInvalidDocument, path, err)
	}
	cfg, inActive := before.Servers[e.Name]
	disabledCfg, inDisabled := before.Disabled[e.Name]
	switch {
	case inActive && inDisabled:
		return fail(ReasonAmbiguous, fmt.Sprintf("server %q defined in both %s and %s", e.Name, manifest.CodexActiveKey, manifest.CodexDisabledKey), nil)
	case !inActive && !inDisabled:
		return fail(ReasonMissing, fmt.Sprintf("server %q not found in %s", e.Name, path), nil)
	}

	current, src, dst := catalog.StatusActive, manifest.CodexActiveKey, manifest.CodexDisabledKey
	if inDisabled {
		cfg = disabledCfg
		current, src, dst = catalog.StatusDisabled, dst, src
	}
	if current != e.Status {
		return fail(ReasonInconsistent, fmt.Sprintf("found in %s but recorded as %s", src, e.Status), nil)
	}

	lines := strings.SplitAfter(string(data), "\n")
	renamed := 0
	for i, line := range lines {
		m := tableHeader.FindStringSubmatch(line)
		if m == nil || m[2] != src || headerKey(m[4]) != e.Name {
			continue
		}
		lines[i] = m[1] + dst + m[3] + m[4] + m[5]
		renamed++
	}
	if renamed == 0 {
		return fail(ReasonInvalidDocument, fmt.Sprintf("server %q has no [%s.%s] table header", e.Name, src, e.Name), nil)
	}
	out := []byte(strings.Join(lines, ""))

	after, err := manifest.ParseCodexConfig(out)
	if err != nil {
		return fail(ReasonInvalidDocument, "rewritten document is invalid", err)
	}
	var (
		moved    map[string]any
		ok, left bool
	)
	if current == catalog.StatusActive {
		moved, ok = after.Disabled[e.Name]
		_, left = after.Servers[e.Name]
	} else {
		moved, ok = after.Servers[e.Name]
		_, left = after.Disabled[e.Name]
	}
	if !ok || left || !reflect.DeepEqual(moved, cfg) {
		return fail(ReasonInvalidDocument, fmt.Sprintf("server %q is not defined by whole tables", e.Name), nil)
	}

	if err := platform.WriteFileAtomic(path, out, 0600); err != nil {
		return fail(ReasonIO, "", err)
	}
	return path, nil
}
