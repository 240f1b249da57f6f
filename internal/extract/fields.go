package extract

import (
	"regexp"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

var (
	fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-\[\]]*$`)
	requiredPattern  = regexp.MustCompile(`(?i)\(\s*required\s*\)|\brequired\b`)
	optionalPattern  = regexp.MustCompile(`(?i)\boptional\b`)
)

// Fields parses list items of the form "name: description",
// "`name` - description" or "**name**: description". An item is required
// when it says so and does not also say optional.
func Fields(section string) []catalog.Field {
	var out []catalog.Field
	for _, item := range ListItems(section) {
		name, desc := splitField(item)
		if name == "" {
			continue
		}
		f := catalog.Field{Name: name, Description: desc}
		if requiredPattern.MatchString(desc) && !optionalPattern.MatchString(desc) {
			f.Required = true
			f.Description = strings.TrimSpace(requiredParen.ReplaceAllString(desc, ""))
		}
		out = append(out, f)
	}
	return out
}

var requiredParen = regexp.MustCompile(`(?i)\s*\(\s*required\s*\)`)

func splitField(item string) (string, string) {
	for _, sep := range []string{": ", " - ", " — ", " – ", ":"} {
		if i := strings.Index(item, sep); i > 0 {
			name := cleanName(item[:i])
			if fieldNamePattern.MatchString(name) {
				return name, strings.TrimSpace(item[i+len(sep):])
			}
		}
	}
	name := cleanName(item)
	if fieldNamePattern.MatchString(name) {
		return name, ""
	}
	return "", ""
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	if i := strings.Index(s, " ("); i > 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), "*_`")
}

// Inputs extracts the declared inputs of a skill or command.
func Inputs(body string) []catalog.Field {
	return Fields(Section(body, "inputs", "input", "parameters"))
}

// Outputs extracts the declared outputs.
func Outputs(body string) []catalog.Field {
	return Fields(Section(body, "outputs", "output", "returns"))
}

// SafetyNotes returns the items under a Safety, Security or Guardrails heading.
func SafetyNotes(body string) []string {
	return ListItems(Section(body, "safety", "security", "guardrails"))
}

// Gotchas returns the items under a Pitfalls, Gotchas, Caveats or Known
// issues heading.
func Gotchas(body string) []string {
	return ListItems(Section(body, "pitfalls", "gotchas", "caveats", "known issues"))
}

// WhenToUse returns the items under a "When to use" or "Use when" heading.
func WhenToUse(body string) []string {
	return ListItems(Section(body, "when to use", "use when", "usage"))
}

var installLinePattern = regexp.MustCompile(`^(?:sudo\s+)?(?:pip3?|pipx|uv|brew|npm|pnpm|yarn|go|cargo|gem|apt|apt-get)\s+(?:install|add|get|tool install)\b.*$`)

// Prerequisites returns the items under Install/Prerequisites/Setup
// headings plus package-manager install lines found in code fences.
func Prerequisites(body string) []string {
	out := ListItems(Section(body, "install", "installation", "prerequisites", "requirements", "setup"))
	for _, block := range CodeBlocks(body) {
		for _, l := range strings.Split(block.Text, "\n") {
			l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "$ "))
			if installLinePattern.MatchString(l) {
				out = append(out, l)
			}
		}
	}
	return unique(out)
}

func unique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
