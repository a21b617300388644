// Package fluency derives fluency metrics and scores from word timings.
package fluency

import (
	"math"

	"github.com/verte-zerg/speakscore/internal/lexicon"
	"github.com/verte-zerg/speakscore/internal/model"
)

const (
	defaultPauseThreshold     = 0.3
	defaultLongPauseThreshold = 1.2
)

// Thresholds sets the silence lengths, in seconds, that count as pauses.
// Zero values fall back to the defaults.
type Thresholds struct {
	Pause     float64
	LongPause float64
}

// DefaultThresholds returns a 0.3s pause and a 1.2s long pause.
func DefaultThresholds() Thresholds {
	return Thresholds{Pause: defaultPauseThreshold, LongPause: defaultLongPauseThreshold}
}

// WithDefaults replaces unset thresholds with the defaults.
func (t Thresholds) WithDefaults() Thresholds {
	if t.Pause <= 0 {
		t.Pause = defaultPauseThreshold
	}
	if t.LongPause <= 0 {
		t.LongPause = defaultLongPauseThreshold
	}
	return t
}

// ExtractMetrics computes fluency metrics with the default thresholds.
func ExtractMetrics(words []model.WordTimestamp, totalDuration float64, lex *lexicon.Lexicon) model.FluencyMetrics {
	return DefaultThresholds().Extract(words, totalDuration, lex)
}

// Extract computes fluency metrics for one utterance. totalDuration is the
// full recording length and may include leading or trailing silence.
func (t Thresholds) Extract(words []model.WordTimestamp, totalDuration float64, lex *lexicon.Lexicon) model.FluencyMetrics {
	t = t.WithDefaults()
	fillers, content := lex.Partition(words)
	m := model.FluencyMetrics{
		WordCount:   len(content),
		TotalWords:  len(words),
		FillerCount: len(fillers),
	}
	if len(content) == 0 {
		return m
	}

	m.SpeakingTime = nonNegative(content[len(content)-1].End - content[0].Start)
	if m.SpeakingTime > 0 {
		m.ArticulationRate = float64(len(content)) / (m.SpeakingTime / 60.0)
	}

	for _, p := range t.pauses(content) {
		m.PauseCount++
		m.TotalPause += p.Duration
		if p.Duration > t.LongPause {
			m.LongPauseCount++
		}
		if p.Duration > m.MaxPause {
			m.MaxPause = p.Duration
		}
	}
	if totalDuration > 0 {
		m.PauseRatio = m.TotalPause / totalDuration
	}
	return m
}

// Pauses returns the pauses between consecutive non-filler words.
func (t Thresholds) Pauses(words []model.WordTimestamp, lex *lexicon.Lexicon) []model.PauseInterval {
	_, content := lex.Partition(words)
	return t.WithDefaults().pauses(content)
}

// PausesBefore maps the index of each non-filler word that ends a pause to
// the pause duration.
func (t Thresholds) PausesBefore(words []model.WordTimestamp, lex *lexicon.Lexicon) map[int]float64 {
	t = t.WithDefaults()
	out := map[int]float64{}
	prev := -1
	for i, w := range words {
		if lex.IsFiller(w.Word) {
			continue
		}
		if prev >= 0 {
			if gap := nonNegative(w.Start - words[prev].End); gap > t.Pause {
				out[i] = gap
			}
		}
		prev = i
	}
	return out
}

func (t Thresholds) pauses(content []model.WordTimestamp) []model.PauseInterval {
	var out []model.PauseInterval
	for i := 1; i < len(content); i++ {
		prev := content[i-1]
		gap := nonNegative(content[i].Start - prev.End)
		if gap <= t.Pause {
			continue
		}
		out = append(out, model.PauseInterval{
			Start:    prev.End,
			Duration: gap,
			End:      prev.End + gap,
		})
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
