// Package model defines shared data structures.
package model

import "time"

// WordTimestamp is one transcribed word with its timing in seconds.
type WordTimestamp struct {
	Word  string  `json:"word" yaml:"word"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// PauseInterval is a silence between two consecutive non-filler words.
type PauseInterval struct {
	Start    float64
	Duration float64
	End      float64
}

// FluencyMetrics holds the timing measurements of one utterance.
type FluencyMetrics struct {
	WordCount        int
	TotalWords       int
	FillerCount      int
	SpeakingTime     float64
	ArticulationRate float64
	PauseCount       int
	LongPauseCount   int
	MaxPause         float64
	PauseRatio       float64
	TotalPause       float64
}

// FluencyScore is the fluency score of one utterance.
type FluencyScore struct {
	Speed       int
	Pause       int
	Total       int
	SpeedBand   string
	PauseBand   string
	Explanation string
}

// AttemptScore is the score of one recorded attempt at a skill.
type AttemptScore struct {
	AttemptNumber int
	Score         float64
	Timestamp     time.Time
}

// Trend classifies recent attempts against earlier ones.
type Trend string

// Trend values.
const (
	TrendImproving        Trend = "improving"
	TrendStable           Trend = "stable"
	TrendDeclining        Trend = "declining"
	TrendInsufficientData Trend = "insufficient_data"
)

// StableScore is a conservative skill estimate over an attempt history.
type StableScore struct {
	Stable     float64
	Mean       float64
	StdDev     float64
	Confidence float64
	Trend      Trend
}

// AssessConfig defines settings for scoring one utterance.
type AssessConfig struct {
	Lang               string
	LexiconPath        string
	PauseThreshold     float64
	LongPauseThreshold float64
}

// AggregateConfig defines the tunables of the stable score aggregator.
// Nil fields keep their defaults.
type AggregateConfig struct {
	K                *float64
	SingleFactor     *float64
	PairFactor       *float64
	ManyFactor       *float64
	TrendWindow      *int
	TrendDelta       *float64
	ConsistentStdDev *float64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Skill        string
	AssessmentID string
	Since        *time.Time
	Last         int
	CurveWindow  int
}

// AttemptRecord is a stored attempt with its bookkeeping columns.
type AttemptRecord struct {
	ID            int64
	AssessmentID  string
	Skill         string
	AttemptNumber int
	Score         float64
	Counted       bool
	CreatedAt     time.Time
}

// Attempt converts a stored record to the aggregator input.
func (r AttemptRecord) Attempt() AttemptScore {
	return AttemptScore{
		AttemptNumber: r.AttemptNumber,
		Score:         r.Score,
		Timestamp:     r.CreatedAt,
	}
}

// SkillAggregate summarizes a skill for reporting.
type SkillAggregate struct {
	Skill       string
	Attempts    int
	LastAttempt time.Time
}
