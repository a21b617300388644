// Package stats contains score aggregation and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/verte-zerg/speakscore/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	historyLabelWidth   = 12
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TerminalWidth returns the width of stdout or a fallback of 80 columns.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints the per-skill stable score table.
func RenderSummary(w io.Writer, report Report) error {
	if len(report.Skills) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Skills"); err != nil {
		return err
	}
	tbl := newTable(left("Skill"), right("Attempts"), right("Score"), right("Stable"),
		right("Mean"), right("StdDev"), right("Confidence"), left("Trend"))
	for _, s := range report.Skills {
		tbl.add(SummaryRow(s)...)
	}
	return tbl.write(w)
}

// SummaryRow formats one skill report as table cells.
func SummaryRow(s SkillReport) []string {
	return []string{
		s.Skill,
		fmt.Sprintf("%d", len(s.Attempts)),
		fmt.Sprintf("%.0f", s.Display),
		fmt.Sprintf("%.0f", s.Stable.Stable),
		fmt.Sprintf("%.1f", s.Stable.Mean),
		fmt.Sprintf("%.1f", s.Stable.StdDev),
		fmt.Sprintf("%.0f%%", s.Stable.Confidence*100),
		string(s.Stable.Trend),
	}
}

// RenderHistory prints a sparkline of attempt scores per skill, smoothed
// over window attempts and fitted to width columns.
func RenderHistory(w io.Writer, report Report, window, width int) error {
	if len(report.Skills) == 0 {
		return nil
	}
	if width <= 0 {
		width = TerminalWidth()
	}
	maxPoints := width - historyLabelWidth - 1
	if maxPoints < 1 {
		maxPoints = 1
	}
	if _, err := fmt.Fprintln(w, "History"); err != nil {
		return err
	}
	for _, s := range report.Skills {
		values := MovingAverage(s.Scores(), window)
		if len(values) > maxPoints {
			values = values[len(values)-maxPoints:]
		}
		label := runewidth.FillRight(runewidth.Truncate(s.Skill, historyLabelWidth, ""), historyLabelWidth)
		if _, err := fmt.Fprintf(w, "%s %s\n", label, Sparkline(values)); err != nil {
			return err
		}
	}
	return nil
}

// RenderFluency prints the breakdown of one fluency assessment.
func RenderFluency(w io.Writer, m model.FluencyMetrics, score model.FluencyScore) error {
	tbl := newTable(left("Metric"), right("Value"))
	tbl.add("Words", fmt.Sprintf("%d", m.WordCount))
	tbl.add("Fillers", fmt.Sprintf("%d", m.FillerCount))
	tbl.add("Speaking time", fmt.Sprintf("%.1fs", m.SpeakingTime))
	tbl.add("Articulation rate", fmt.Sprintf("%.1f wpm", m.ArticulationRate))
	tbl.add("Pauses", fmt.Sprintf("%d", m.PauseCount))
	tbl.add("Long pauses", fmt.Sprintf("%d", m.LongPauseCount))
	tbl.add("Longest pause", fmt.Sprintf("%.2fs", m.MaxPause))
	tbl.add("Pause ratio", fmt.Sprintf("%.0f%%", m.PauseRatio*100))
	if err := tbl.write(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Speed: %d/60 (%s)\n", score.Speed, score.SpeedBand); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Pause control: %d/40 (%s)\n", score.Pause, score.PauseBand); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Fluency: %d/100\n", score.Total); err != nil {
		return err
	}
	return nil
}
