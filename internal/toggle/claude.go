package toggle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/manifest"
	"github.com/agentx-labs/tooldex/internal/platform"
	"github.com/agentx-labs/tooldex/internal/scanner"
)

// claudeMatch is one occurrence of a server name in a Claude document.
type claudeMatch struct {
	path       string
	data       []byte
	container  jsonObject
	scope      []string // member keys from the root to the container
	collection jsonObject
	member     jsonMember
	status     catalog.Status
}

func (m claudeMatch) String() string {
	key := manifest.ClaudeActiveKey
	if m.status == catalog.StatusDisabled {
		key = manifest.ClaudeDisabledKey
	}
	return m.path + ":" + strings.Join(append(append([]string(nil), m.scope...), key), ".")
}

func (t *Engine) claudeDocuments() []string {
	var docs []string
	if t.loc.ClaudeJSON != "" {
		docs = append(docs, t.loc.ClaudeJSON)
	}
	if t.loc.ClaudeHome != "" {
		docs = append(docs, filepath.Join(t.loc.ClaudeHome, scanner.LegacyServerFile))
	}
	return docs
}

// toggleClaudeServer moves a descriptor between mcpServers and
// mcpServersDisabled. The name must occur exactly once across the
// top-level and project containers of every Claude document.
func (t *Engine) toggleClaudeServer(e catalog.Entry) (string, error) {
	fail := func(reason Reason, detail string, err error) (string, error) {
		return "", &FailedError{Identity: e.Identity, Reason: reason, Detail: detail, Err: err}
	}

	var matches []claudeMatch
	for _, path := range t.claudeDocuments() {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fail(ReasonIO, "", err)
		}
		found, err := findClaudeServer(path, data, e.Name)
		if err != nil {
			return fail(ReasonInvalidDocument, path, err)
		}
		matches = append(matches, found...)
	}

	switch len(matches) {
	case 0:
		return fail(ReasonMissing, fmt.Sprintf("server %q not found in Claude config documents", e.Name), nil)
	case 1:
	default:
		where := make([]string, len(matches))
		for i, m := range matches {
			where[i] = m.String()
		}
		return fail(ReasonAmbiguous, fmt.Sprintf("server %q defined in %s", e.Name, strings.Join(where, ", ")), nil)
	}

	m := matches[0]
	if m.status != e.Status {
		return fail(ReasonInconsistent, fmt.Sprintf("found in %s but recorded as %s", m, e.Status), nil)
	}

	out, err := moveClaudeMember(m)
	if err != nil {
		return fail(ReasonInvalidDocument, m.path, err)
	}
	if err := verifyClaudeMove(out, m, e.Name); err != nil {
		return fail(ReasonInvalidDocument, m.path, err)
	}
	if err := platform.WriteFileAtomic(m.path, out, 0600); err != nil {
		return fail(ReasonIO, "", err)
	}
	return m.path, nil
}

// findClaudeServer lists the collections of data that define name.
func findClaudeServer(path string, data []byte, name string) ([]claudeMatch, error) {
	root, err := parseRootObject(data)
	if err != nil {
		return nil, err
	}

	type scoped struct {
		obj   jsonObject
		scope []string
	}
	containers := []scoped{{obj: root}}
	if pm, ok := root.member("projects"); ok {
		if projects, err := parseObjectValue(data, pm); err == nil {
			for _, p := range projects.members {
				if obj, err := parseObjectValue(data, p); err == nil {
					containers = append(containers, scoped{obj: obj, scope: []string{"projects", p.key}})
				}
			}
		}
	}

	var matches []claudeMatch
	for _, c := range containers {
		for _, col := range []struct {
			key    string
			status catalog.Status
		}{
			{manifest.ClaudeActiveKey, catalog.StatusActive},
			{manifest.ClaudeDisabledKey, catalog.StatusDisabled},
		} {
			cm, ok := c.obj.member(col.key)
			if !ok {
				continue
			}
			collection, err := parseObjectValue(data, cm)
			if err != nil {
				continue
			}
			for _, sm := range collection.members {
				if sm.key == name {
					matches = append(matches, claudeMatch{
						path: path, data: data, container: c.obj, scope: c.scope,
						collection: collection, member: sm, status: col.status,
					})
				}
			}
		}
	}
	return matches, nil
}

// moveClaudeMember cuts the matched member out of its collection and
// appends it to the sibling collection, creating that collection when the
// container lacks it. All other bytes are kept.
func moveClaudeMember(m claudeMatch) ([]byte, error) {
	srcKey, dstKey := manifest.ClaudeActiveKey, manifest.ClaudeDisabledKey
	if m.status == catalog.StatusDisabled {
		srcKey, dstKey = dstKey, srcKey
	}

	data := m.data
	text := string(data[m.member.keyStart:m.member.valueEnd])
	remove := removeMember(m.collection, m.member)

	if dm, ok := m.container.member(dstKey); ok {
		dst, err := parseObjectValue(data, dm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dstKey, err)
		}
		return applyEdits(data, remove, appendMember(data, dst, text, m.collection)), nil
	}

	sm, _ := m.container.member(srcKey)
	keyEnd, err := skipString(data, sm.keyStart)
	if err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(dstKey)
	if err != nil {
		return nil, err
	}
	lead, trail := memberIndent(data, m.collection)
	collection := string(quoted) + string(data[keyEnd:sm.valueStart]) + "{" + lead + text + trail + "}"
	return applyEdits(data, remove, appendMember(data, m.container, collection, m.container)), nil
}

// verifyClaudeMove decodes the rewritten document and checks the server now
// lives only in the destination collection of the same container.
func verifyClaudeMove(out []byte, m claudeMatch, name string) error {
	var doc map[string]any
	if err := json.Unmarshal(out, &doc); err != nil {
		return fmt.Errorf("rewritten document is invalid: %w", err)
	}
	container := doc
	for _, key := range m.scope {
		next, ok := container[key].(map[string]any)
		if !ok {
			return fmt.Errorf("rewritten document lost %s", strings.Join(m.scope, "."))
		}
		container = next
	}

	srcKey, dstKey := manifest.ClaudeActiveKey, manifest.ClaudeDisabledKey
	if m.status == catalog.StatusDisabled {
		srcKey, dstKey = dstKey, srcKey
	}
	if !hasMember(container[dstKey], name) {
		return fmt.Errorf("server %q missing from %s after rewrite", name, dstKey)
	}
	if hasMember(container[srcKey], name) {
		return fmt.Errorf("server %q still in %s after rewrite", name, srcKey)
	}
	return nil
}

func hasMember(v any, name string) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = obj[name]
	return ok
}
