package stats

import "sort"

// WeakestSkills returns up to top skills with the lowest display score.
// Ties go to the less confident estimate, then to skill name.
func WeakestSkills(skills []SkillReport, top int) []string {
	if len(skills) == 0 {
		return nil
	}
	candidates := make([]SkillReport, len(skills))
	copy(candidates, skills)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Display != b.Display {
			return a.Display < b.Display
		}
		if a.Stable.Confidence != b.Stable.Confidence {
			return a.Stable.Confidence < b.Stable.Confidence
		}
		return a.Skill < b.Skill
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]string, 0, top)
	for i := 0; i < top; i++ {
		out = append(out, candidates[i].Skill)
	}
	return out
}
