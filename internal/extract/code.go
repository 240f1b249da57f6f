package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// CodeBlock is one fenced code block.
type CodeBlock struct {
	Lang string
	Text string
}

// CodeBlocks returns every fenced block in body in order. An unterminated
// fence runs to the end of the body.
func CodeBlocks(body string) []CodeBlock {
	var (
		out     []CodeBlock
		current *CodeBlock
		buf     []string
	)
	for _, l := range scanLines(body) {
		if l.fence {
			if current == nil {
				lang := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l.text), "`~"))
				if i := strings.IndexAny(lang, " {"); i >= 0 {
					lang = lang[:i]
				}
				current = &CodeBlock{Lang: strings.ToLower(lang)}
				buf = buf[:0]
				continue
			}
			current.Text = strings.Join(buf, "\n")
			out = append(out, *current)
			current = nil
			continue
		}
		if current != nil {
			buf = append(buf, l.text)
		}
	}
	if current != nil {
		current.Text = strings.Join(buf, "\n")
		out = append(out, *current)
	}
	return out
}

// Prose returns body with fenced code removed.
func Prose(body string) string {
	var b strings.Builder
	for _, l := range scanLines(body) {
		if l.inFence || l.fence {
			continue
		}
		b.WriteString(l.text)
		b.WriteByte('\n')
	}
	return b.String()
}

var envPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]*)(?::?-[^}]*)?\}`),
	regexp.MustCompile(`\bexport\s+([A-Z][A-Z0-9_]*)=`),
	regexp.MustCompile(`\$([A-Z][A-Z0-9_]{2,})\b`),
	regexp.MustCompile(`os\.(?:environ(?:\.get)?\(|environ\[|getenv\()\s*["']([A-Z][A-Z0-9_]*)["']`),
	regexp.MustCompile(`process\.env\.([A-Z][A-Z0-9_]*)`),
	regexp.MustCompile(`os\.Getenv\("([A-Z][A-Z0-9_]*)"\)`),
}

// ambientEnv are variables every shell has; they are never requirements.
var ambientEnv = map[string]bool{
	"HOME": true, "PATH": true, "PWD": true, "USER": true, "SHELL": true,
	"TMPDIR": true, "LANG": true, "TERM": true, "ARGUMENTS": true,
	"CLAUDE_PLUGIN_ROOT": true,
}

// EnvVarNames returns the sorted upper-case environment variable names
// referenced by body via ${NAME}, $NAME, export NAME=, or getenv calls.
func EnvVarNames(body string) []string {
	seen := map[string]bool{}
	for _, p := range envPatterns {
		for _, m := range p.FindAllStringSubmatch(body, -1) {
			if name := m[1]; !ambientEnv[name] {
				seen[name] = true
			}
		}
	}
	return sortedKeys(seen)
}

var (
	composioCallPattern = regexp.MustCompile(`(?i:composio)[\w.]*\(\s*["']([A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+)["']`)
	composioSlugPattern = regexp.MustCompile(`["']([A-Z][A-Z0-9]+(?:_[A-Z0-9]+){2,})["']`)
	mcpToolPattern      = regexp.MustCompile(`\bmcp__[A-Za-z0-9-]+(?:_[A-Za-z0-9-]+)*__[A-Za-z0-9_-]+`)
)

var shellLangs = map[string]bool{"": true, "bash": true, "sh": true, "shell": true, "zsh": true, "console": true, "fish": true}

var shellBuiltins = map[string]bool{
	"export": true, "cd": true, "echo": true, "set": true, "source": true, "if": true,
	"then": true, "fi": true, "for": true, "do": true, "done": true, "else": true,
	"exit": true, "return": true, "local": true, "read": true, "true": true, "false": true,
	"sudo": true, "env": true, "unset": true, "alias": true, "#": true,
}

// DetectTools finds Composio tool slugs, MCP tool names, and CLI programs
// invoked from shell code blocks.
func DetectTools(body string) catalog.Tools {
	composio := map[string]bool{}
	for _, m := range composioCallPattern.FindAllStringSubmatch(body, -1) {
		composio[m[1]] = true
	}

	mcp := map[string]bool{}
	for _, m := range mcpToolPattern.FindAllString(body, -1) {
		mcp[m] = true
	}

	cli := map[string]bool{}
	for _, block := range CodeBlocks(body) {
		for _, m := range composioSlugPattern.FindAllStringSubmatch(block.Text, -1) {
			composio[m[1]] = true
		}
		if !shellLangs[block.Lang] {
			continue
		}
		for _, l := range strings.Split(block.Text, "\n") {
			if prog := commandProgram(l); prog != "" {
				cli[prog] = true
			}
		}
	}

	return catalog.Tools{
		Composio: sortedKeys(composio),
		MCP:      sortedKeys(mcp),
		CLI:      sortedKeys(cli),
	}
}

var programPattern = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)

func commandProgram(l string) string {
	l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "$ "))
	if l == "" || strings.HasPrefix(l, "#") {
		return ""
	}
	fields := strings.Fields(l)
	for len(fields) > 0 && (fields[0] == "sudo" || strings.Contains(fields[0], "=")) {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	prog := fields[0]
	if shellBuiltins[prog] || !programPattern.MatchString(prog) {
		return ""
	}
	return prog
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
