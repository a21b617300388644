// Package transcript loads timed transcripts produced by a speech-to-text service.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/speakscore/internal/model"
)

// Transcript is one recorded utterance with word timings in seconds.
type Transcript struct {
	Language string                `json:"language" yaml:"language"`
	Duration float64               `json:"duration" yaml:"duration"`
	Words    []model.WordTimestamp `json:"words" yaml:"words"`
}

// Load reads a transcript from a .json, .yaml or .yml file.
func Load(path string) (Transcript, error) {
	file, err := os.Open(path)
	if err != nil {
		return Transcript{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only transcript.
			_ = cerr
		}
	}()
	return Decode(file, formatFor(path))
}

// Decode parses a transcript in the given format ("json" or "yaml").
func Decode(r io.Reader, format string) (Transcript, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Transcript{}, fmt.Errorf("failed to read transcript: %w", err)
	}
	var t Transcript
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return Transcript{}, fmt.Errorf("failed to decode yaml transcript: %w", err)
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&t); err != nil {
			return Transcript{}, fmt.Errorf("failed to decode json transcript: %w", err)
		}
	default:
		return Transcript{}, fmt.Errorf("unsupported transcript format %q", format)
	}
	if err := t.Validate(); err != nil {
		return Transcript{}, err
	}
	return t, nil
}

func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Validate rejects words with empty text, negative times or an end before
// their start.
func (t Transcript) Validate() error {
	if t.Duration < 0 {
		return fmt.Errorf("duration must be >= 0, got %v", t.Duration)
	}
	for i, w := range t.Words {
		if strings.TrimSpace(w.Word) == "" {
			return fmt.Errorf("word %d: text is empty", i)
		}
		if w.Start < 0 || w.End < 0 {
			return fmt.Errorf("word %d (%q): negative timestamp", i, w.Word)
		}
		if w.End < w.Start {
			return fmt.Errorf("word %d (%q): end %.3f before start %.3f", i, w.Word, w.End, w.Start)
		}
	}
	return nil
}

// OutOfOrder returns the indexes of words that start before the previous word.
func (t Transcript) OutOfOrder() []int {
	var out []int
	for i := 1; i < len(t.Words); i++ {
		if t.Words[i].Start < t.Words[i-1].Start {
			out = append(out, i)
		}
	}
	return out
}

// TotalDuration returns the recording duration, falling back to the latest
// word end when the transcript has none.
func (t Transcript) TotalDuration() float64 {
	if t.Duration > 0 {
		return t.Duration
	}
	var end float64
	for _, w := range t.Words {
		if w.End > end {
			end = w.End
		}
	}
	return end
}
