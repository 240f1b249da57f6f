package extract

import (
	"regexp"
	"strings"
)

var (
	skillRefPattern = regexp.MustCompile(`(?:^|[\s(\[,])\$([a-z][a-z0-9]*(?:[-_][a-z0-9]+)*)`)
	fileRefPattern  = regexp.MustCompile(`(?:^|[\s(\[,])@([A-Za-z0-9_~.][A-Za-z0-9_./~-]*)`)
	aliasPattern    = regexp.MustCompile(`^#{1,6}\s+(/[A-Za-z0-9][A-Za-z0-9:_-]*)`)
	argsPattern     = regexp.MustCompile(`(?i)^\s*\*{0,2}(?:arguments?|args|usage)\*{0,2}\s*:\s*\*{0,2}\s*(.+)$`)
)

// SkillRefs returns the lower-case $name references in prose, in order of
// first appearance. Shell variables inside code fences are ignored.
func SkillRefs(body string) []string {
	var out []string
	for _, m := range skillRefPattern.FindAllStringSubmatch(Prose(body), -1) {
		out = append(out, m[1])
	}
	return unique(out)
}

// FileRefs returns the @path references in prose. Only values that look
// like files (containing a dot or a slash) are kept; argument placeholders
// such as @$1 never match.
func FileRefs(body string) []string {
	var out []string
	for _, m := range fileRefPattern.FindAllStringSubmatch(Prose(body), -1) {
		ref := strings.TrimRight(m[1], ".,;:")
		if strings.ContainsAny(ref, "./") {
			out = append(out, ref)
		}
	}
	return unique(out)
}

// InvocationAliases returns "/name" plus every slash alias used as a heading.
func InvocationAliases(name, body string) []string {
	var out []string
	if name != "" {
		out = append(out, "/"+name)
	}
	for _, l := range scanLines(body) {
		if l.inFence || l.fence {
			continue
		}
		if m := aliasPattern.FindStringSubmatch(strings.TrimSpace(l.text)); m != nil {
			out = append(out, m[1])
		}
	}
	return unique(out)
}

// InvocationArguments returns the text of the first "Arguments:" line, or
// "$ARGUMENTS" when the body consumes raw arguments without describing them.
func InvocationArguments(body string) string {
	for _, l := range scanLines(body) {
		if l.inFence || l.fence {
			continue
		}
		if m := argsPattern.FindStringSubmatch(l.text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	if strings.Contains(body, "$ARGUMENTS") {
		return "$ARGUMENTS"
	}
	return ""
}

// InvocationInstruction returns the first prose line of body: not a
// heading, list item, argument line, quote, HTML comment, or code.
func InvocationInstruction(body string) string {
	for _, l := range scanLines(body) {
		if l.inFence || l.fence {
			continue
		}
		t := strings.TrimSpace(l.text)
		switch {
		case t == "",
			strings.HasPrefix(t, "#"),
			strings.HasPrefix(t, "<!--"),
			strings.HasPrefix(t, ">"),
			strings.HasPrefix(t, "|"),
			listItemPattern.MatchString(t),
			argsPattern.MatchString(t):
			continue
		}
		return t
	}
	return ""
}
