// Package tui provides the Bubble Tea view of one assessed utterance.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/speakscore/internal/fluency"
	"github.com/verte-zerg/speakscore/internal/lexicon"
	"github.com/verte-zerg/speakscore/internal/model"
)

const (
	pauseGlyph     = "·"
	longPauseGlyph = "‖"
)

// Model implements the Bubble Tea assessment view.
type Model struct {
	words      []model.WordTimestamp
	lex        *lexicon.Lexicon
	thresholds fluency.Thresholds
	metrics    model.FluencyMetrics
	score      model.FluencyScore
	pauses     map[int]float64

	cursor     int
	showPauses bool

	width  int
	height int
}

var (
	wordStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	fillerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	pauseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	longPauseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs an assessment view for a scored utterance.
func NewModel(words []model.WordTimestamp, lex *lexicon.Lexicon, th fluency.Thresholds, metrics model.FluencyMetrics, score model.FluencyScore) *Model {
	th = th.WithDefaults()
	return &Model{
		words:      words,
		lex:        lex,
		thresholds: th,
		metrics:    metrics,
		score:      score,
		pauses:     th.PausesBefore(words, lex),
		showPauses: true,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "left", "h":
			m.moveCursor(-1)
		case "right", "l":
			m.moveCursor(1)
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(len(m.words)-1, 0)
		case "p":
			m.showPauses = !m.showPauses
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.words) == 0 {
		return m.renderFooter()
	}
	tokens := m.buildTokens()
	if m.width == 0 || m.height == 0 {
		return renderTokens(tokens) + "\n" + m.renderFooter()
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapTokens(tokens, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) moveCursor(delta int) {
	if len(m.words) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.words)-1)
}

func (m *Model) buildTokens() []styledToken {
	tokens := make([]styledToken, 0, len(m.words)*3)
	for i, w := range m.words {
		if i > 0 {
			tokens = append(tokens, spaceToken())
		}
		if gap, ok := m.pauses[i]; ok && m.showPauses {
			if gap > m.thresholds.LongPause {
				tokens = append(tokens, newToken(longPauseGlyph, longPauseStyle.Render))
			} else {
				tokens = append(tokens, newToken(pauseGlyph, pauseStyle.Render))
			}
			tokens = append(tokens, spaceToken())
		}
		style := wordStyle
		if m.lex.IsFiller(w.Word) {
			style = fillerStyle
		}
		if i == m.cursor {
			style = selectedStyle
		}
		tokens = append(tokens, newToken(w.Word, style.Render))
	}
	return tokens
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Speed %d/%d (%s)", m.score.Speed, fluency.MaxSpeed, m.score.SpeedBand),
		fmt.Sprintf("Pause %d/%d (%s)", m.score.Pause, fluency.MaxPause, m.score.PauseBand),
		fmt.Sprintf("Fluency %d/%d", m.score.Total, fluency.MaxTotal),
		fmt.Sprintf("%.0f wpm", m.metrics.ArticulationRate),
	}
	if m.cursor < len(m.words) {
		w := m.words[m.cursor]
		word := fmt.Sprintf("%q %.2f-%.2fs", w.Word, w.Start, w.End)
		if gap, ok := m.pauses[m.cursor]; ok {
			word += fmt.Sprintf(" after %.2fs pause", gap)
		}
		segments = append(segments, word)
	}
	footer := strings.Join(segments, "  ")
	return footerStyle.Render(footer)
}
