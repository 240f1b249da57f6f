package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// HighAdoptionRatio is the share of startups a tip must have been shown in
// to count as a high-adoption feature.
const HighAdoptionRatio = 0.9

// UserSettings summarises the activity counters kept in claude.json.
type UserSettings struct {
	TotalStartups        int                       `json:"total_startups"`
	MemoryUsageCount     int                       `json:"memory_usage_count"`
	PromptQueueUseCount  int                       `json:"prompt_queue_use_count"`
	FirstStartup         time.Time                 `json:"first_startup,omitzero"`
	AccountAgeDays       int                       `json:"account_age_days"`
	SessionsPerDay       float64                   `json:"sessions_per_day"`
	SkillUsage           map[string]SkillUsage     `json:"skill_usage,omitempty"`
	TopSkills            []SkillUsage              `json:"top_skills,omitempty"`
	TipAdoption          map[string]int            `json:"tip_adoption,omitempty"`
	HighAdoptionFeatures []string                  `json:"high_adoption_features,omitempty"`
	Projects             map[string]ProjectMetrics `json:"projects,omitempty"`
	GitHubRepos          map[string][]string       `json:"github_repos,omitempty"`
}

// SkillUsage is the built-in usage counter of one skill.
type SkillUsage struct {
	Name       string    `json:"name"`
	UsageCount int       `json:"usage_count"`
	LastUsedAt time.Time `json:"last_used_at,omitzero"`
}

// ProjectMetrics are the last-session figures recorded per project.
type ProjectMetrics struct {
	LastCost            *float64 `json:"lastCost,omitempty"`
	LastDurationMS      int64    `json:"lastDuration"`
	LinesAdded          int64    `json:"lastLinesAdded"`
	LinesRemoved        int64    `json:"lastLinesRemoved"`
	InputTokens         int64    `json:"lastTotalInputTokens"`
	OutputTokens        int64    `json:"lastTotalOutputTokens"`
	CacheReadTokens     int64    `json:"lastTotalCacheReadInputTokens"`
	APIDurationMS       int64    `json:"lastAPIDuration"`
	OnboardingSeenCount int      `json:"projectOnboardingSeenCount"`
	TrustAccepted       bool     `json:"hasTrustDialogAccepted"`
}

type settingsDocument struct {
	NumStartups         int                        `json:"numStartups"`
	MemoryUsageCount    int                        `json:"memoryUsageCount"`
	PromptQueueUseCount int                        `json:"promptQueueUseCount"`
	FirstStartTime      string                     `json:"firstStartTime"`
	SkillUsage          map[string]json.RawMessage `json:"skillUsage"`
	TipsHistory         map[string]json.RawMessage `json:"tipsHistory"`
	Projects            map[string]json.RawMessage `json:"projects"`
	GitHubRepoPaths     map[string]json.RawMessage `json:"githubRepoPaths"`
}

// ScanUserSettings reads the activity counters of claude.json. Members with
// an unexpected shape are skipped.
func ScanUserSettings(path string, now time.Time) (*UserSettings, error) {
	if gone, err := missing(path); gone || err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc settingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	us := &UserSettings{
		TotalStartups:       doc.NumStartups,
		MemoryUsageCount:    doc.MemoryUsageCount,
		PromptQueueUseCount: doc.PromptQueueUseCount,
		SkillUsage:          map[string]SkillUsage{},
		TipAdoption:         map[string]int{},
		Projects:            map[string]ProjectMetrics{},
		GitHubRepos:         map[string][]string{},
	}

	if first, err := time.Parse(time.RFC3339Nano, doc.FirstStartTime); err == nil {
		us.FirstStartup = first.UTC()
		us.AccountAgeDays = int(now.Sub(first).Hours() / 24)
		if us.AccountAgeDays > 0 {
			us.SessionsPerDay = float64(us.TotalStartups) / float64(us.AccountAgeDays)
		}
	}

	for name, raw := range doc.SkillUsage {
		var u struct {
			UsageCount int     `json:"usageCount"`
			LastUsedAt float64 `json:"lastUsedAt"`
		}
		if json.Unmarshal(raw, &u) != nil {
			continue
		}
		su := SkillUsage{Name: name, UsageCount: u.UsageCount}
		if u.LastUsedAt > 0 {
			su.LastUsedAt = time.UnixMilli(int64(u.LastUsedAt)).UTC()
		}
		us.SkillUsage[name] = su
		us.TopSkills = append(us.TopSkills, su)
	}
	sort.Slice(us.TopSkills, func(i, j int) bool {
		a, b := us.TopSkills[i], us.TopSkills[j]
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		return a.Name < b.Name
	})
	if len(us.TopSkills) > 10 {
		us.TopSkills = us.TopSkills[:10]
	}

	threshold := float64(us.TotalStartups) * HighAdoptionRatio
	for tip, raw := range doc.TipsHistory {
		var n int
		if json.Unmarshal(raw, &n) != nil {
			continue
		}
		us.TipAdoption[tip] = n
		if threshold > 0 && float64(n) >= threshold {
			us.HighAdoptionFeatures = append(us.HighAdoptionFeatures, tip)
		}
	}
	sort.Strings(us.HighAdoptionFeatures)

	for project, raw := range doc.Projects {
		var m ProjectMetrics
		if json.Unmarshal(raw, &m) != nil {
			continue
		}
		us.Projects[project] = m
	}

	for repo, raw := range doc.GitHubRepoPaths {
		var paths []string
		if json.Unmarshal(raw, &paths) != nil {
			continue
		}
		us.GitHubRepos[repo] = paths
	}
	return us, nil
}
