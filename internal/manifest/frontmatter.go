package manifest

import (
	"errors"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrNoFrontmatter is returned when content has no leading --- block.
var ErrNoFrontmatter = errors.New("no frontmatter block")

// Frontmatter holds the well-known keys of a skill or command header. Raw
// keeps every key for schema validation and callers that need extras.
type Frontmatter struct {
	Name         string
	Description  string
	Version      string
	Tags         []string
	AllowedTools []string
	ArgumentHint string
	DependsOn    []string
	Raw          map[string]any
}

// SplitFrontmatter separates a leading ---\n...\n--- block from the body.
// Line endings are normalized to \n. ok is false when no block is present,
// in which case body is the whole content.
func SplitFrontmatter(content string) (front, body string, ok bool) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---\n") {
		return "", content, false
	}
	lines := strings.Split(content, "\n")
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end <= 0 {
		return "", content, false
	}
	front = strings.Join(lines[1:end], "\n")
	if end+1 < len(lines) {
		body = strings.Join(lines[end+1:], "\n")
	}
	return front, body, true
}

// ParseFrontmatter splits content and decodes its frontmatter. The body is
// always returned. A missing block yields ErrNoFrontmatter; malformed YAML
// yields a wrapped decode error. In both cases fm is empty but usable.
func ParseFrontmatter(content string) (Frontmatter, string, error) {
	front, body, ok := SplitFrontmatter(content)
	if !ok {
		return Frontmatter{}, body, ErrNoFrontmatter
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(front), &raw); err != nil {
		return Frontmatter{}, body, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	fm := Frontmatter{
		Name:         scalarString(raw["name"]),
		Description:  strings.TrimSpace(scalarString(raw["description"])),
		Version:      scalarString(raw["version"]),
		Tags:         StringList(raw["tags"]),
		AllowedTools: StringList(firstPresent(raw, "allowed-tools", "allowed_tools", "tools")),
		ArgumentHint: scalarString(firstPresent(raw, "argument-hint", "argument_hint")),
		DependsOn:    StringList(firstPresent(raw, "depends_on", "depends-on", "dependencies")),
		Raw:          raw,
	}
	return fm, body, nil
}

// StringList coerces a YAML/JSON value into a list of strings. A scalar
// string is split on commas; sequences keep their scalar elements.
func StringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range t {
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	return nil
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(t)
	}
	return ""
}
