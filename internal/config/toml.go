// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Assess    AssessConfig    `toml:"assess"`
	Aggregate AggregateConfig `toml:"aggregate"`
	Stats     StatsConfig     `toml:"stats"`
}

// AssessConfig maps settings for scoring one utterance.
type AssessConfig struct {
	Lang               *string  `toml:"lang"`
	Lexicon            *string  `toml:"lexicon"`
	PauseThreshold     *float64 `toml:"pause-threshold"`
	LongPauseThreshold *float64 `toml:"long-pause-threshold"`
}

// AggregateConfig maps stable score aggregator settings.
type AggregateConfig struct {
	K                *float64 `toml:"k"`
	SingleFactor     *float64 `toml:"single-factor"`
	PairFactor       *float64 `toml:"pair-factor"`
	ManyFactor       *float64 `toml:"many-factor"`
	TrendWindow      *int     `toml:"trend-window"`
	TrendDelta       *float64 `toml:"trend-delta"`
	ConsistentStdDev *float64 `toml:"consistent-stddev"`
}

// StatsConfig maps stats-related settings.
type StatsConfig struct {
	Skill       *string `toml:"skill"`
	Last        *int    `toml:"last"`
	CurveWindow *int    `toml:"curve-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Aggregate.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c AggregateConfig) validate() error {
	floats := []struct {
		key   string
		value *float64
	}{
		{"k", c.K},
		{"single-factor", c.SingleFactor},
		{"pair-factor", c.PairFactor},
		{"many-factor", c.ManyFactor},
		{"trend-delta", c.TrendDelta},
		{"consistent-stddev", c.ConsistentStdDev},
	}
	for _, f := range floats {
		if f.value != nil && *f.value < 0 {
			return fmt.Errorf("aggregate.%s must be >= 0", f.key)
		}
	}
	if c.TrendWindow != nil && *c.TrendWindow < 1 {
		return fmt.Errorf("aggregate.trend-window must be >= 1")
	}
	return nil
}
