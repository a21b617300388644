package lexicon

import (
	"sort"
	"strings"
)

var builtin = map[string][]string{
	"fr": {"euh", "euhh", "heu", "hum", "hmm", "mmh", "mh", "ben", "bah", "bé", "beh", "hein", "ah", "oh", "eh", "pff"},
	"en": {"um", "umm", "uh", "uhh", "er", "erm", "ah", "hmm", "mm", "mhm", "eh", "uhm"},
	"es": {"eh", "ehh", "em", "mmm"},
	"de": {"äh", "ähm", "öh", "hm", "hmm", "tja"},
}

// ForLang returns the built-in filler lexicon for a language code.
// Unknown languages get an empty lexicon.
func ForLang(lang string) *Lexicon {
	lang = normalize(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return New(lang, builtin[lang]...)
}

// Languages lists the language codes with a built-in lexicon.
func Languages() []string {
	langs := make([]string, 0, len(builtin))
	for lang := range builtin {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
