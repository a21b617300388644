package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/speakscore/internal/fluency"
	"github.com/verte-zerg/speakscore/internal/lexicon"
	"github.com/verte-zerg/speakscore/internal/model"
)

func testModel() *Model {
	words := []model.WordTimestamp{
		{Word: "je", Start: 0.2, End: 0.4},
		{Word: "euh", Start: 0.6, End: 0.9},
		{Word: "pense", Start: 1.0, End: 1.3},
		{Word: "que", Start: 1.8, End: 2.0},
		{Word: "oui", Start: 4.0, End: 4.3},
	}
	lex := lexicon.ForLang("fr")
	metrics := fluency.ExtractMetrics(words, 5, lex)
	return NewModel(words, lex, fluency.Thresholds{}, metrics, fluency.Score(metrics))
}

func TestBuildTokensMarksPausesAndFillers(t *testing.T) {
	m := testModel()
	tokens := m.buildTokens()
	var plain []string
	for _, tok := range tokens {
		if tok.isSpace {
			continue
		}
		plain = append(plain, tok.s)
	}
	want := []string{
		selectedStyle.Render("je"),
		fillerStyle.Render("euh"),
		pauseStyle.Render(pauseGlyph),
		wordStyle.Render("pense"),
		pauseStyle.Render(pauseGlyph),
		wordStyle.Render("que"),
		longPauseStyle.Render(longPauseGlyph),
		wordStyle.Render("oui"),
	}
	if len(plain) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(plain))
	}
	for i := range want {
		if plain[i] != want[i] {
			t.Fatalf("token %d: expected %q, got %q", i, want[i], plain[i])
		}
	}

	m.showPauses = false
	for _, tok := range m.buildTokens() {
		if tok.s == longPauseStyle.Render(longPauseGlyph) {
			t.Fatalf("expected pause markers hidden")
		}
	}
}

func TestUpdateMovesCursor(t *testing.T) {
	m := testModel()
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor != 2 {
		t.Fatalf("expected cursor 2, got %d", m.cursor)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor != 4 {
		t.Fatalf("expected cursor clamped at 4, got %d", m.cursor)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if m.showPauses {
		t.Fatalf("expected pauses toggled off")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := testModel()
	m.cursor = 4
	out := m.renderFooter()
	for _, want := range []string{"Speed", "/60", "Pause", "/40", "Fluency", "/100", `"oui"`, "after 2.00s pause"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestWrapTokens(t *testing.T) {
	tokens := []styledToken{
		newToken("one", wordStyle.Render),
		spaceToken(),
		newToken("two", wordStyle.Render),
		spaceToken(),
		newToken("three", wordStyle.Render),
	}
	out := wrapTokens(tokens, 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out)
	}
	if lines[1] != wordStyle.Render("three") {
		t.Fatalf("unexpected second line: %q", lines[1])
	}
}
