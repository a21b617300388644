package stats

import (
	"context"
	"sort"

	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/store"
)

// SkillReport holds the history and aggregate of one skill.
type SkillReport struct {
	Skill    string
	Attempts []model.AttemptScore
	Stable   model.StableScore
	Display  float64
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Skills []SkillReport
}

// BuildReport loads counted attempts and aggregates them per skill.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig, agg Aggregator) (Report, error) {
	records, err := st.ListAttempts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return ReportFromRecords(records, cfg.Last, agg), nil
}

// ReportFromRecords groups ordered records by skill. When last is positive
// only the last attempts of each skill are aggregated.
func ReportFromRecords(records []model.AttemptRecord, last int, agg Aggregator) Report {
	bySkill := map[string][]model.AttemptScore{}
	for _, rec := range records {
		bySkill[rec.Skill] = append(bySkill[rec.Skill], rec.Attempt())
	}
	skills := make([]string, 0, len(bySkill))
	for skill := range bySkill {
		skills = append(skills, skill)
	}
	sort.Strings(skills)

	report := Report{Skills: make([]SkillReport, 0, len(skills))}
	for _, skill := range skills {
		attempts := bySkill[skill]
		if last > 0 && len(attempts) > last {
			attempts = attempts[len(attempts)-last:]
		}
		stable := agg.Compute(attempts)
		report.Skills = append(report.Skills, SkillReport{
			Skill:    skill,
			Attempts: attempts,
			Stable:   stable,
			Display:  agg.DisplayScore(stable, len(attempts)),
		})
	}
	return report
}

// Skill returns the report for a skill.
func (r Report) Skill(name string) (SkillReport, bool) {
	for _, s := range r.Skills {
		if s.Skill == name {
			return s, true
		}
	}
	return SkillReport{}, false
}

// Scores returns the raw attempt scores in order.
func (s SkillReport) Scores() []float64 {
	out := make([]float64, len(s.Attempts))
	for i, a := range s.Attempts {
		out[i] = a.Score
	}
	return out
}
