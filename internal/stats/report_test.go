package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "speakscore.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	id, err := st.CreateAssessment(ctx, "fr", base)
	if err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	fluency := []float64{50, 55, 70, 72, 74}
	for i, score := range fluency {
		if _, err := st.InsertAttempt(ctx, id, "fluency", score, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("insert attempt: %v", err)
		}
	}
	if _, err := st.InsertAttempt(ctx, id, "pronunciation", 80, base.Add(time.Hour)); err != nil {
		t.Fatalf("insert attempt: %v", err)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{}, Aggregator{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Skills) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(report.Skills))
	}
	fl, ok := report.Skill("fluency")
	if !ok {
		t.Fatalf("expected fluency report")
	}
	if len(fl.Attempts) != 5 || fl.Stable.Trend != model.TrendImproving {
		t.Fatalf("unexpected fluency report: %+v", fl)
	}
	if fl.Display != fl.Stable.Stable {
		t.Fatalf("expected conservative display for spread history, got %v", fl.Display)
	}

	report, err = BuildReport(ctx, st, model.StatsConfig{Skill: "fluency", Last: 3}, Aggregator{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	fl, _ = report.Skill("fluency")
	if len(report.Skills) != 1 || len(fl.Attempts) != 3 || fl.Attempts[0].Score != 70 {
		t.Fatalf("expected last 3 fluency attempts, got %+v", report.Skills)
	}
}

func TestRenderSummaryAndHistory(t *testing.T) {
	records := []model.AttemptRecord{
		{Skill: "fluency", AttemptNumber: 1, Score: 60},
		{Skill: "fluency", AttemptNumber: 2, Score: 80},
		{Skill: "pronunciation", AttemptNumber: 1, Score: 70},
	}
	report := ReportFromRecords(records, 0, Aggregator{})

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Skills", "fluency", "pronunciation", "insufficient_data", "58"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderHistory(&buf, report, 1, 40); err != nil {
		t.Fatalf("render history: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "History" {
		t.Fatalf("unexpected history output: %q", buf.String())
	}
	if !strings.HasSuffix(lines[1], " @") {
		t.Fatalf("expected rising sparkline, got %q", lines[1])
	}

	buf.Reset()
	if err := RenderSummary(&buf, Report{}); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No attempts found.") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}

func TestRenderHistoryWideLabels(t *testing.T) {
	records := []model.AttemptRecord{
		{Skill: "Aussprache-Übung", AttemptNumber: 1, Score: 70},
		{Skill: "発音練習スキル", AttemptNumber: 1, Score: 60},
		{Skill: "grammaire", AttemptNumber: 1, Score: 50},
	}
	report := ReportFromRecords(records, 0, Aggregator{})

	var buf bytes.Buffer
	if err := RenderHistory(&buf, report, 1, 40); err != nil {
		t.Fatalf("render history: %v", err)
	}
	out := buf.String()
	if !utf8.ValidString(out) {
		t.Fatalf("history split a multi-byte label: %q", out)
	}
	for _, label := range []string{"Aussprache-Ü", "発音練習スキ", "grammaire   "} {
		if w := runewidth.StringWidth(label); w != historyLabelWidth {
			t.Fatalf("label %q has width %d", label, w)
		}
		if !strings.Contains(out, "\n"+label+" ") {
			t.Fatalf("expected label %q padded to %d columns:\n%s", label, historyLabelWidth, out)
		}
	}
}

func TestRenderFluency(t *testing.T) {
	var buf bytes.Buffer
	m := model.FluencyMetrics{WordCount: 42, ArticulationRate: 120, PauseRatio: 0.15}
	score := model.FluencyScore{Speed: 57, Pause: 40, Total: 97, SpeedBand: "brisk", PauseBand: "smooth"}
	if err := RenderFluency(&buf, m, score); err != nil {
		t.Fatalf("render fluency: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"120.0 wpm", "15%", "Speed: 57/60 (brisk)", "Pause control: 40/40 (smooth)", "Fluency: 97/100"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWeakestSkills(t *testing.T) {
	skills := []SkillReport{
		{Skill: "fluency", Display: 60, Stable: model.StableScore{Confidence: 0.8}},
		{Skill: "grammar", Display: 45, Stable: model.StableScore{Confidence: 0.5}},
		{Skill: "pronunciation", Display: 60, Stable: model.StableScore{Confidence: 0.2}},
	}
	got := WeakestSkills(skills, 2)
	if len(got) != 2 || got[0] != "grammar" || got[1] != "pronunciation" {
		t.Fatalf("unexpected weakest skills: %v", got)
	}
	if len(WeakestSkills(skills, 0)) != 3 {
		t.Fatalf("expected all skills when top is 0")
	}
}

func TestMovingAverageAndSparkline(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected moving average: %v", got)
		}
	}
	if Sparkline([]float64{5, 5, 5}) != "+++" {
		t.Fatalf("expected flat sparkline, got %q", Sparkline([]float64{5, 5, 5}))
	}
}
