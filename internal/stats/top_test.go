package stats

import (
	"testing"

	"github.com/verte-zerg/speakscore/internal/model"
)

func TestMostPracticed(t *testing.T) {
	skills := []SkillReport{
		{Skill: "pronunciation", Attempts: make([]model.AttemptScore, 3)},
		{Skill: "fluency", Attempts: make([]model.AttemptScore, 4)},
		{Skill: "grammar", Attempts: make([]model.AttemptScore, 3)},
	}
	top := MostPracticed(skills, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(top))
	}
	if top[0] != "fluency" || top[1] != "grammar" {
		t.Fatalf("unexpected order: %v", top)
	}
}
