package scanner

import (
	"sort"
	"strings"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

func insightsOf(e catalog.Entry) *catalog.Insights {
	switch d := e.Detail.(type) {
	case *catalog.SkillDetail:
		return &d.Insights
	case *catalog.CommandDetail:
		return &d.Insights
	}
	return nil
}

// ResolveReferences links the DependsOn names of skills and commands to the
// entries they name and derives the reverse UsedBy edges. A reference
// resolves to an entry on the same platform when one exists (skills before
// commands), otherwise to the first match on any platform. Same-platform
// targets are recorded by name, cross-platform ones by full identity.
// Unresolved references are kept as written. Entries are updated in place
// through their details; running it again over the same entries is a no-op.
func ResolveReferences(entries []catalog.Entry) {
	byName := map[string][]int{}
	byID := map[string]int{}
	for i, e := range entries {
		ins := insightsOf(e)
		if ins == nil {
			continue
		}
		ins.UsedBy = nil
		key := strings.ToLower(e.Name)
		byName[key] = append(byName[key], i)
		byID[e.Identity.String()] = i
	}

	lookup := func(ref string, from catalog.Entry) (int, bool) {
		if j, ok := byID[ref]; ok {
			return j, true
		}
		candidates := byName[strings.ToLower(ref)]
		best, rank := -1, 4
		for _, j := range candidates {
			c := entries[j]
			r := 3
			switch {
			case c.Platform == from.Platform && c.Type == catalog.TypeSkill:
				r = 0
			case c.Platform == from.Platform:
				r = 1
			case c.Type == catalog.TypeSkill:
				r = 2
			}
			if r < rank {
				best, rank = j, r
			}
		}
		return best, best >= 0
	}

	reference := func(target, from catalog.Entry) string {
		if target.Platform == from.Platform {
			return target.Name
		}
		return target.Identity.String()
	}

	for i, e := range entries {
		ins := insightsOf(e)
		if ins == nil || len(ins.DependsOn) == 0 {
			continue
		}
		resolved := make([]string, 0, len(ins.DependsOn))
		for _, ref := range ins.DependsOn {
			j, ok := lookup(ref, e)
			if !ok || j == i {
				resolved = append(resolved, ref)
				continue
			}
			target := entries[j]
			resolved = append(resolved, reference(target, e))
			tins := insightsOf(target)
			tins.UsedBy = append(tins.UsedBy, reference(e, target))
		}
		ins.DependsOn = mergeNames(resolved)
	}

	for _, e := range entries {
		if ins := insightsOf(e); ins != nil && len(ins.UsedBy) > 0 {
			ins.UsedBy = mergeNames(ins.UsedBy)
			sort.Strings(ins.UsedBy)
		}
	}
}
