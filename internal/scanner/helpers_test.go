package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func findEntry(t *testing.T, entries []catalog.Entry, name string) catalog.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	t.Fatalf("entry %q not found in %v", name, names)
	return catalog.Entry{}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

const skillADoc = `---
name: skill-a
description: Sends email through Gmail
version: v1.2
---
## Inputs
- recipient_email: Who to email (required)
- subject: Subject line

## Safety
- Never log ${API_KEY}

## Trigger rules
- Run daily at 9:00

## Example
` + "```python\nrun_composio_tool(\"GMAIL_SEND_EMAIL\", {\"to\": \"x\"})\n```\n" + `
Pairs with $skill-b for retries.
`

const skillBDoc = `---
name: skill-b
description: Retry helper
---
## Gotchas
- Beware rate limits
`

const emailCommandDoc = `---
description: Send an email
argument-hint: <recipient>
---
# /email
**Arguments:** first arg is recipient

Implement the plan from: @$1

Use @CLAUDE.md and $other-skill.

## Install
- brew install x

` + "```bash\nexport API_KEY=secret\n```\n" + `
## Gotchas
- Beware rate limits

` + "```python\nrun_composio_tool(\"GMAIL_SEND_EMAIL\", {\"to\": \"x\"})\n```\n\n```sql\nselect 1; -- mcp__neon__run_sql\n```\n"

func symlink(target, link string) error {
	return os.Symlink(target, link)
}
