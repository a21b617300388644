package stats

import "sort"

// MostPracticed returns the top N skills by number of counted attempts.
func MostPracticed(skills []SkillReport, n int) []string {
	if n <= 0 || len(skills) == 0 {
		return nil
	}
	type item struct {
		skill string
		total int
	}
	items := make([]item, 0, len(skills))
	for _, s := range skills {
		items = append(items, item{
			skill: s.Skill,
			total: len(s.Attempts),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total == items[j].total {
			return items[i].skill < items[j].skill
		}
		return items[i].total > items[j].total
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].skill)
	}
	return out
}
