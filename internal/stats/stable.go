package stats

import (
	"math"

	"github.com/verte-zerg/speakscore/internal/model"
)

// Params tunes the stable score aggregator.
type Params struct {
	// K is the base number of standard deviations subtracted from the mean.
	K            float64
	SingleFactor float64
	PairFactor   float64
	ManyFactor   float64
	// ManyThreshold is the attempt count from which ManyFactor applies.
	ManyThreshold int
	// FullConfidenceAt is the attempt count at which sample size stops
	// limiting confidence.
	FullConfidenceAt int
	TrendWindow      int
	TrendDelta       float64
	// ConsistentStdDev is the spread under which the display score prefers
	// the mean once ManyThreshold attempts exist.
	ConsistentStdDev float64
}

// DefaultParams returns the default aggregator parameters.
func DefaultParams() Params {
	return Params{
		K:                1.0,
		SingleFactor:     1.5,
		PairFactor:       1.2,
		ManyFactor:       0.7,
		ManyThreshold:    5,
		FullConfidenceAt: 5,
		TrendWindow:      3,
		TrendDelta:       5,
		ConsistentStdDev: 5,
	}
}

// ParamsFromConfig overlays the set config values on the defaults. An
// explicit zero is kept: k = 0 makes the stable score the rounded mean.
func ParamsFromConfig(cfg model.AggregateConfig) Params {
	p := DefaultParams()
	overlay(&p.K, cfg.K)
	overlay(&p.SingleFactor, cfg.SingleFactor)
	overlay(&p.PairFactor, cfg.PairFactor)
	overlay(&p.ManyFactor, cfg.ManyFactor)
	overlay(&p.TrendWindow, cfg.TrendWindow)
	overlay(&p.TrendDelta, cfg.TrendDelta)
	overlay(&p.ConsistentStdDev, cfg.ConsistentStdDev)
	return p
}

func overlay[T float64 | int](target *T, value *T) {
	if value != nil {
		*target = *value
	}
}

// Aggregator reduces attempt histories to stable scores. The zero value
// uses DefaultParams.
type Aggregator struct {
	Params Params
}

// NewAggregator returns an aggregator with the given parameters.
func NewAggregator(p Params) Aggregator {
	return Aggregator{Params: p}
}

func (a Aggregator) params() Params {
	if a.Params == (Params{}) {
		return DefaultParams()
	}
	return a.Params
}

// AdaptiveK returns the conservatism factor for n attempts.
func (a Aggregator) AdaptiveK(n int) float64 {
	p := a.params()
	switch {
	case n == 1:
		return p.K * p.SingleFactor
	case n == 2:
		return p.K * p.PairFactor
	case n >= p.ManyThreshold:
		return p.K * p.ManyFactor
	default:
		return p.K
	}
}

// Compute aggregates attempts, ordered oldest first, into a stable score.
func (a Aggregator) Compute(attempts []model.AttemptScore) model.StableScore {
	if len(attempts) == 0 {
		return model.StableScore{Trend: model.TrendInsufficientData}
	}
	p := a.params()
	scores := make([]float64, len(attempts))
	for i, at := range attempts {
		scores[i] = at.Score
	}
	n := len(scores)
	mean, stddev := meanStdDev(scores)

	sampleFactor := 1.0
	if p.FullConfidenceAt > 0 {
		sampleFactor = math.Min(1, float64(n)/float64(p.FullConfidenceAt))
	}
	variabilityFactor := math.Max(0, 1-stddev/100)

	return model.StableScore{
		Stable:     math.Max(0, math.Round(mean-a.AdaptiveK(n)*stddev)),
		Mean:       mean,
		StdDev:     stddev,
		Confidence: sampleFactor * variabilityFactor,
		Trend:      trend(scores, p.TrendWindow, p.TrendDelta),
	}
}

// DisplayScore picks the value to present for a stable score computed over
// n attempts. It returns the unrounded mean once attempts are numerous and
// consistent and the conservative estimate otherwise. Callers format the
// result for presentation.
func (a Aggregator) DisplayScore(s model.StableScore, n int) float64 {
	p := a.params()
	if n >= p.ManyThreshold && s.StdDev < p.ConsistentStdDev {
		return s.Mean
	}
	return s.Stable
}

// StableScoreOf aggregates attempts with the default parameters.
func StableScoreOf(attempts []model.AttemptScore) model.StableScore {
	return Aggregator{}.Compute(attempts)
}

// DisplayScore picks the presented value using the default parameters.
func DisplayScore(s model.StableScore, n int) float64 {
	return Aggregator{}.DisplayScore(s, n)
}

func meanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func trend(scores []float64, window int, delta float64) model.Trend {
	if window <= 0 || len(scores) <= window {
		return model.TrendInsufficientData
	}
	split := len(scores) - window
	earlier, _ := meanStdDev(scores[:split])
	recent, _ := meanStdDev(scores[split:])
	switch {
	case recent > earlier+delta:
		return model.TrendImproving
	case recent < earlier-delta:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}
