package extract

import (
	"github.com/agentx-labs/tooldex/internal/catalog"
)

// Analyze runs every extractor over body. summary is extra prose (name and
// description from frontmatter) considered for tagging but not for
// structure.
func Analyze(summary, body string) catalog.Insights {
	tools := DetectTools(body)
	text := summary + "\n" + body
	envVars := EnvVarNames(body)
	effects := SideEffects(text, tools)

	return catalog.Insights{
		Inputs:          Inputs(body),
		Outputs:         Outputs(body),
		SafetyNotes:     SafetyNotes(body),
		Gotchas:         Gotchas(body),
		Prerequisites:   Prerequisites(body),
		WhenToUse:       WhenToUse(body),
		RequiredEnvVars: envVars,
		TriggerTypes:    TriggerTypes(body),
		CapabilityTags:  CapabilityTags(text, tools),
		SideEffects:     effects,
		RiskLevel:       RiskLevel(effects, envVars),
		DetectedTools:   tools,
		FileRefs:        FileRefs(body),
		DependsOn:       SkillRefs(body),
	}
}
