// Package lexicon classifies hesitation (filler) tokens.
package lexicon

import (
	"sort"
	"strings"

	"github.com/verte-zerg/speakscore/internal/model"
)

// Lexicon is an immutable, case-insensitive set of filler tokens.
// A nil Lexicon contains no fillers.
type Lexicon struct {
	lang  string
	words map[string]struct{}
}

// New builds a lexicon from the given tokens.
func New(lang string, words ...string) *Lexicon {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = normalize(w)
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return &Lexicon{lang: normalize(lang), words: set}
}

// Lang returns the language code the lexicon was built for.
func (l *Lexicon) Lang() string {
	if l == nil {
		return ""
	}
	return l.lang
}

// Len returns the number of tokens in the lexicon.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.words)
}

// Words returns the tokens in sorted order.
func (l *Lexicon) Words() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.words))
	for w := range l.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// IsFiller reports whether word is a hesitation token.
func (l *Lexicon) IsFiller(word string) bool {
	if l == nil {
		return false
	}
	_, ok := l.words[normalize(word)]
	return ok
}

// FilterFillers returns words without filler tokens, preserving order.
func (l *Lexicon) FilterFillers(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if l.IsFiller(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Partition splits timed words into fillers and non-fillers, preserving order.
func (l *Lexicon) Partition(words []model.WordTimestamp) (fillers, content []model.WordTimestamp) {
	for _, w := range words {
		if l.IsFiller(w.Word) {
			fillers = append(fillers, w)
			continue
		}
		content = append(content, w)
	}
	return fillers, content
}

// Merge returns a new lexicon holding the tokens of all given lexicons.
// The language of the first non-nil lexicon is kept.
func Merge(lexicons ...*Lexicon) *Lexicon {
	merged := &Lexicon{words: map[string]struct{}{}}
	for _, l := range lexicons {
		if l == nil {
			continue
		}
		if merged.lang == "" {
			merged.lang = l.lang
		}
		for w := range l.words {
			merged.words[w] = struct{}{}
		}
	}
	return merged
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
