package fluency

import (
	"fmt"
	"math"
	"strings"

	"github.com/verte-zerg/speakscore/internal/model"
)

// Score ranges.
const (
	MaxSpeed = 60
	MaxPause = 40
	MaxTotal = MaxSpeed + MaxPause
)

const (
	longPausePenalty    = 5
	longPausePenaltyCap = 20
	maxPauseLimit       = 2.5
	maxPausePenalty     = 10
	pauseRatioLimit     = 0.35
	pauseRatioPenalty   = 10
)

// SpeedBand maps articulation rates in [Min, Max) words per minute to a
// score rising up to Ceiling.
type SpeedBand struct {
	Min     float64
	Max     float64
	Ceiling int
	Label   string
}

var speedBands = [...]SpeedBand{
	{Min: 0, Max: 45, Ceiling: 10, Label: "very slow"},
	{Min: 45, Max: 65, Ceiling: 25, Label: "slow"},
	{Min: 65, Max: 85, Ceiling: 40, Label: "moderate"},
	{Min: 85, Max: 110, Ceiling: 55, Label: "fluent"},
	{Min: 110, Max: 140, Ceiling: MaxSpeed, Label: "brisk"},
}

const saturatedSpeedLabel = "very fast"

// SpeedBands returns a copy of the articulation rate bands.
func SpeedBands() []SpeedBand {
	out := make([]SpeedBand, len(speedBands))
	copy(out, speedBands[:])
	return out
}

// SpeedSubscore scores an articulation rate from 0 to 60. Inside a band the
// score is interpolated from the previous band's ceiling.
func SpeedSubscore(rate float64) int {
	if rate <= 0 || math.IsNaN(rate) {
		return 0
	}
	prev := 0
	for _, band := range speedBands {
		if rate < band.Max {
			progress := (rate - band.Min) / (band.Max - band.Min)
			return prev + int(math.Round(progress*float64(band.Ceiling-prev)))
		}
		prev = band.Ceiling
	}
	return MaxSpeed
}

// SpeedBandFor returns the band label for an articulation rate.
func SpeedBandFor(rate float64) string {
	if rate <= 0 || math.IsNaN(rate) {
		return speedBands[0].Label
	}
	for _, band := range speedBands {
		if rate < band.Max {
			return band.Label
		}
	}
	return saturatedSpeedLabel
}

// PauseSubscore scores pause control from 0 to 40. Penalties add up and
// only the final score is floored.
func PauseSubscore(longPauses int, maxPause, pauseRatio float64) int {
	penalty := 0
	if longPauses > 0 {
		penalty += min(longPauses*longPausePenalty, longPausePenaltyCap)
	}
	if maxPause > maxPauseLimit {
		penalty += maxPausePenalty
	}
	if pauseRatio > pauseRatioLimit {
		penalty += pauseRatioPenalty
	}
	return max(MaxPause-penalty, 0)
}

// PauseBandFor returns the band label for a pause subscore.
func PauseBandFor(pause int) string {
	switch {
	case pause >= 35:
		return "smooth"
	case pause >= 25:
		return "some hesitation"
	case pause >= 15:
		return "choppy"
	default:
		return "fragmented"
	}
}

// Score computes the fluency score of an utterance from its metrics.
func Score(m model.FluencyMetrics) model.FluencyScore {
	speed := SpeedSubscore(m.ArticulationRate)
	pause := PauseSubscore(m.LongPauseCount, m.MaxPause, m.PauseRatio)
	return model.FluencyScore{
		Speed:       speed,
		Pause:       pause,
		Total:       speed + pause,
		SpeedBand:   SpeedBandFor(m.ArticulationRate),
		PauseBand:   PauseBandFor(pause),
		Explanation: explain(m),
	}
}

func explain(m model.FluencyMetrics) string {
	parts := []string{fmt.Sprintf("%.0f wpm (%s)", m.ArticulationRate, SpeedBandFor(m.ArticulationRate))}
	if m.LongPauseCount > 0 {
		parts = append(parts, fmt.Sprintf("%d long pauses (-%d)", m.LongPauseCount, min(m.LongPauseCount*longPausePenalty, longPausePenaltyCap)))
	}
	if m.MaxPause > maxPauseLimit {
		parts = append(parts, fmt.Sprintf("longest pause %.1fs (-%d)", m.MaxPause, maxPausePenalty))
	}
	if m.PauseRatio > pauseRatioLimit {
		parts = append(parts, fmt.Sprintf("silence %.0f%% of recording (-%d)", m.PauseRatio*100, pauseRatioPenalty))
	}
	if m.FillerCount > 0 {
		parts = append(parts, fmt.Sprintf("%d fillers ignored", m.FillerCount))
	}
	return strings.Join(parts, "; ")
}
