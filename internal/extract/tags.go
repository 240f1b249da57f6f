package extract

import (
	"regexp"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

type rule struct {
	tag   string
	text  *regexp.Regexp // matched against lower-cased text
	tools []string       // substrings matched against lower-cased tool names
}

var capabilityRules = []rule{
	{"email", regexp.MustCompile(`\b(e-?mails?|gmail|smtp|outlook|inbox)\b`), []string{"gmail", "email", "outlook"}},
	{"database", regexp.MustCompile(`\b(sql|postgres(ql)?|mysql|sqlite|database|neon|supabase|mongodb|redis|query the db)\b`), []string{"sql", "neon", "postgres", "supabase", "database", "mongo"}},
	{"messaging", regexp.MustCompile(`\b(slack|discord|telegram|sms|whatsapp|teams message)\b`), []string{"slack", "discord", "telegram", "twilio"}},
	{"calendar", regexp.MustCompile(`\b(calendar|meetings?|schedule a call)\b`), []string{"calendar"}},
	{"git", regexp.MustCompile(`\b(git|github|gitlab|pull requests?|commits?)\b`), []string{"github", "gitlab"}},
	{"web", regexp.MustCompile(`\b(browser|scrap(e|ing)|crawl|web ?search|fetch(es)? (a |the )?url|http requests?)\b`), []string{"browser", "playwright", "puppeteer", "firecrawl", "fetch"}},
	{"documents", regexp.MustCompile(`\b(notion|google docs|confluence|pdf|spreadsheet|sheets)\b`), []string{"notion", "googledocs", "googlesheets", "confluence"}},
	{"cloud", regexp.MustCompile(`\b(aws|gcp|azure|s3 bucket|kubernetes|docker|terraform)\b`), []string{"aws", "gcp", "azure", "kubernetes"}},
	{"payments", regexp.MustCompile(`\b(stripe|payments?|invoices?|refunds?)\b`), []string{"stripe"}},
	{"ai", regexp.MustCompile(`\b(openai|anthropic|llm|embeddings?|gpt-?\d)\b`), []string{"openai"}},
}

var sideEffectRules = []rule{
	{"email", regexp.MustCompile(`\b(send|sends|sending|sent|draft|reply to)\b[^\n]{0,40}\be-?mails?\b|\bemail (someone|them|the user|a )`), []string{"send_email", "gmail_send", "reply_to", "outlook_send"}},
	{"messaging", regexp.MustCompile(`\b(post|posts|send|sends)\b[^\n]{0,40}\b(message|slack|channel|dm)\b`), []string{"send_message", "slack_send", "post_message", "chat_post"}},
	{"database", regexp.MustCompile(`\b(insert into|update \w+ set|delete from|drop table|alter table|create table|truncate)\b`), []string{"run_sql", "execute_sql", "insert", "delete_", "update_row"}},
	{"filesystem", regexp.MustCompile(`\brm -rf?\b|\b(writes?|overwrites?|deletes?|removes?) (to )?(the |a )?(files?|director(y|ies))\b`), []string{"write_file", "delete_file", "move_file"}},
	{"git", regexp.MustCompile(`\bgit (push|commit|merge|rebase|reset)\b|\b(opens?|creates?|merges?) (a )?pull request\b`), []string{"create_pull_request", "merge_pull", "push"}},
	{"network", regexp.MustCompile(`\bcurl\b[^\n]*-x\s*(post|put|patch|delete)\b|\bhttp (post|put|patch|delete)\b|\b(deploys?|deploying|publish(es)?)\b`), []string{"deploy", "publish"}},
	{"payments", regexp.MustCompile(`\b(charges?|refunds?|transfers?) (a |the )?(customer|card|payment|funds)\b`), []string{"stripe_create", "create_charge", "refund"}},
}

func applyRules(rules []rule, text string, tools catalog.Tools) []string {
	lower := strings.ToLower(text)
	var names []string
	for _, list := range [][]string{tools.Composio, tools.MCP, tools.CLI} {
		for _, n := range list {
			names = append(names, strings.ToLower(n))
		}
	}

	var out []string
	for _, r := range rules {
		if r.text.MatchString(lower) || anyContains(names, r.tools) {
			out = append(out, r.tag)
		}
	}
	return out
}

func anyContains(names, needles []string) bool {
	for _, n := range names {
		for _, needle := range needles {
			if strings.Contains(n, needle) {
				return true
			}
		}
	}
	return false
}

// CapabilityTags derives capability tags from text and detected tools.
func CapabilityTags(text string, tools catalog.Tools) []string {
	return applyRules(capabilityRules, text, tools)
}

// SideEffects lists the kinds of external state the text or tools imply
// will be changed.
func SideEffects(text string, tools catalog.Tools) []string {
	return applyRules(sideEffectRules, text, tools)
}

var highRiskEffects = map[string]bool{"payments": true, "filesystem": true, "database": true}

// RiskLevel grades an artifact from its side effects and credential needs:
// high for destructive or financial effects or several effects at once,
// medium for a single effect or any required credentials, low otherwise.
func RiskLevel(sideEffects, envVars []string) string {
	for _, e := range sideEffects {
		if highRiskEffects[e] {
			return "high"
		}
	}
	switch {
	case len(sideEffects) >= 2:
		return "high"
	case len(sideEffects) == 1 || len(envVars) > 0:
		return "medium"
	}
	return "low"
}

var (
	scheduledPattern = regexp.MustCompile(`\b(daily|hourly|weekly|monthly|nightly|cron|every \d*\s*(minutes?|hours?|days?|weeks?|mornings?|evenings?)|at \d{1,2}(:\d{2})?\s*(am|pm)?\b|on a schedule|scheduled)\b`)
	eventPattern     = regexp.MustCompile(`\b(webhooks?|on (push|commit|merge|save|change|error|failure|deploy)|when (a|an|the) [a-z ]{1,30} (is|are) (created|opened|merged|received|updated|pushed)|after each|hooks? into)\b`)
	manualPattern    = regexp.MustCompile(`\b(manually|on demand|on-demand|when (the )?user asks|invoke|run /|use when|when you need)\b`)
)

// TriggerTypes classifies how the artifact is started: "scheduled",
// "event" and/or "manual". A non-empty body with no scheduled or event cue
// is manual.
func TriggerTypes(body string) []string {
	lower := strings.ToLower(body)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var out []string
	if manualPattern.MatchString(lower) {
		out = append(out, "manual")
	}
	if scheduledPattern.MatchString(lower) {
		out = append(out, "scheduled")
	}
	if eventPattern.MatchString(lower) {
		out = append(out, "event")
	}
	if len(out) == 0 {
		out = append(out, "manual")
	}
	return out
}
