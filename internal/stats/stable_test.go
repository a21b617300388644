package stats

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/speakscore/internal/model"
)

func attempts(scores ...float64) []model.AttemptScore {
	out := make([]model.AttemptScore, len(scores))
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, s := range scores {
		out[i] = model.AttemptScore{
			AttemptNumber: i + 1,
			Score:         s,
			Timestamp:     base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestStableScoreEmpty(t *testing.T) {
	got := StableScoreOf(nil)
	want := model.StableScore{Trend: model.TrendInsufficientData}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestStableScoreTwoAttempts(t *testing.T) {
	got := StableScoreOf(attempts(60, 80))
	if got.Mean != 70 || got.StdDev != 10 {
		t.Fatalf("unexpected mean/stddev: %+v", got)
	}
	// 70 - 1.2*10
	if got.Stable != 58 {
		t.Fatalf("expected stable 58, got %v", got.Stable)
	}
	if math.Abs(got.Confidence-0.4*0.9) > 1e-9 {
		t.Fatalf("unexpected confidence %v", got.Confidence)
	}
	if got.Trend != model.TrendInsufficientData {
		t.Fatalf("expected insufficient data, got %q", got.Trend)
	}
}

func TestStableScoreNeverNegative(t *testing.T) {
	got := StableScoreOf(attempts(0, 100))
	if got.Stable != 0 {
		t.Fatalf("expected stable floored at 0, got %v", got.Stable)
	}
	if got.Confidence < 0 || got.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", got.Confidence)
	}
}

func TestStableNeverExceedsMean(t *testing.T) {
	for _, scores := range [][]float64{{50}, {10, 90}, {40, 45, 50, 55}, {70, 71, 72, 73, 74, 75}} {
		got := StableScoreOf(attempts(scores...))
		if got.Stable > math.Round(got.Mean) {
			t.Fatalf("stable %v exceeds mean %v", got.Stable, got.Mean)
		}
	}
}

func TestSingleAttemptLessConfidentThanFive(t *testing.T) {
	one := StableScoreOf(attempts(72))
	five := StableScoreOf(attempts(72, 72, 72, 72, 72))
	if one.Confidence >= five.Confidence {
		t.Fatalf("expected lower confidence for one attempt: %v vs %v", one.Confidence, five.Confidence)
	}
	if one.Confidence != 0.2 || five.Confidence != 1 {
		t.Fatalf("unexpected confidences: %v %v", one.Confidence, five.Confidence)
	}
	if one.Stable != 72 || five.Stable != 72 {
		t.Fatalf("expected constant scores to keep the mean: %v %v", one.Stable, five.Stable)
	}
}

func TestAdaptiveKMonotonicTrust(t *testing.T) {
	agg := Aggregator{}
	want := []float64{1.5, 1.2, 1.0, 1.0, 0.7, 0.7, 0.7}
	for i, w := range want {
		if got := agg.AdaptiveK(i + 1); math.Abs(got-w) > 1e-9 {
			t.Fatalf("AdaptiveK(%d) = %v, want %v", i+1, got, w)
		}
	}

	// Same spread at every length: the gap between mean and stable shrinks.
	prevGap := math.Inf(1)
	pattern := []float64{60, 80}
	var scores []float64
	for n := 2; n <= 10; n += 2 {
		scores = append(scores, pattern...)
		got := StableScoreOf(attempts(scores...))
		gap := got.Mean - got.Stable
		if gap > prevGap {
			t.Fatalf("stable moved away from mean at n=%d: gap %v > %v", n, gap, prevGap)
		}
		prevGap = gap
	}
}

func TestTrend(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64
		want   model.Trend
	}{
		{"three attempts", []float64{40, 60, 80}, model.TrendInsufficientData},
		{"improving", []float64{40, 45, 60, 62, 64}, model.TrendImproving},
		{"declining", []float64{80, 82, 70, 68, 66}, model.TrendDeclining},
		{"stable", []float64{70, 72, 71, 73, 69}, model.TrendStable},
		{"exact delta is stable", []float64{60, 65, 65, 65}, model.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StableScoreOf(attempts(tc.scores...)).Trend; got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDisplayScore(t *testing.T) {
	consistent := attempts(80, 81, 79, 80, 82)
	s := StableScoreOf(consistent)
	// mean 80.4 is returned as is; presentation rounds it
	if got := DisplayScore(s, len(consistent)); got != s.Mean || got == math.Round(got) {
		t.Fatalf("expected unrounded mean %v for consistent history, got %v", s.Mean, got)
	}

	spread := attempts(60, 90, 70, 95, 65)
	s = StableScoreOf(spread)
	if got := DisplayScore(s, len(spread)); got != s.Stable {
		t.Fatalf("expected stable for spread history, got %v", got)
	}

	few := attempts(80, 80)
	s = StableScoreOf(few)
	if got := DisplayScore(s, len(few)); got != s.Stable {
		t.Fatalf("expected stable for short history, got %v", got)
	}
}

func TestAggregatorParams(t *testing.T) {
	k, window := 2.0, 2
	agg := NewAggregator(ParamsFromConfig(model.AggregateConfig{K: &k, TrendWindow: &window}))
	got := agg.Compute(attempts(50, 52, 50))
	// mean 50.67, stddev 0.94, k' = 2
	if got.Stable != 49 {
		t.Fatalf("expected stable 49 with k=2, got %v", got.Stable)
	}
	if got.Trend != model.TrendStable {
		t.Fatalf("expected stable trend with window 2, got %q", got.Trend)
	}
}

func TestParamsFromConfigKeepsExplicitZero(t *testing.T) {
	k, delta := 0.0, 0.0
	p := ParamsFromConfig(model.AggregateConfig{K: &k, TrendDelta: &delta})
	if p.K != 0 || p.TrendDelta != 0 {
		t.Fatalf("expected explicit zeros kept, got %+v", p)
	}
	if p.SingleFactor != DefaultParams().SingleFactor {
		t.Fatalf("expected unset fields to keep defaults, got %+v", p)
	}

	agg := NewAggregator(p)
	got := agg.Compute(attempts(60, 90, 70))
	// k = 0 drops the spread penalty
	if got.Stable != math.Round(got.Mean) {
		t.Fatalf("expected stable == round(mean) with k=0, got %v (mean %v)", got.Stable, got.Mean)
	}
	// any difference counts as a trend once delta is zero
	if got := agg.Compute(attempts(60, 60, 60, 61, 61, 61)).Trend; got != model.TrendImproving {
		t.Fatalf("expected improving trend with zero delta, got %q", got)
	}
}

func TestStableScoreConcurrent(t *testing.T) {
	histories := [][]model.AttemptScore{
		attempts(80),
		attempts(60, 80),
		attempts(55, 62, 71, 48, 90, 66),
		attempts(80, 81, 79, 80, 82),
	}
	want := make([]model.StableScore, len(histories))
	for i, h := range histories {
		want[i] = StableScoreOf(h)
	}

	var wg sync.WaitGroup
	got := make([][]model.StableScore, 8)
	for w := range got {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h := histories[(w+i)%len(histories)]
				got[w] = append(got[w], StableScoreOf(h))
			}
		}(w)
	}
	wg.Wait()
	for w, results := range got {
		for i, s := range results {
			if exp := want[(w+i)%len(histories)]; s != exp {
				t.Fatalf("worker %d run %d: got %+v, want %+v", w, i, s, exp)
			}
		}
	}
}

func TestAggregatorDeterministic(t *testing.T) {
	in := attempts(55, 62, 71, 48, 90, 66)
	first := StableScoreOf(in)
	for i := 0; i < 100; i++ {
		if got := StableScoreOf(in); got != first {
			t.Fatalf("result changed on run %d", i)
		}
	}
}
