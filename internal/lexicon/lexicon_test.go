package lexicon

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/verte-zerg/speakscore/internal/model"
)

func TestIsFillerNormalizes(t *testing.T) {
	lex := ForLang("fr")
	for _, word := range []string{"euh", "EUH", "  Euh ", "hum", "Ben"} {
		if !lex.IsFiller(word) {
			t.Fatalf("expected %q to be a filler", word)
		}
	}
	for _, word := range []string{"bonjour", "", "euhm", "le"} {
		if lex.IsFiller(word) {
			t.Fatalf("expected %q not to be a filler", word)
		}
	}
}

func TestNilLexiconHasNoFillers(t *testing.T) {
	var lex *Lexicon
	if lex.IsFiller("um") {
		t.Fatalf("expected nil lexicon to classify nothing")
	}
	if got := lex.FilterFillers([]string{"um", "yes"}); len(got) != 2 {
		t.Fatalf("expected words unchanged, got %v", got)
	}
}

func TestFilterFillersPreservesOrder(t *testing.T) {
	lex := ForLang("en")
	got := lex.FilterFillers([]string{"so", "um", "I", "uh", "think", "Erm", "yes"})
	want := []string{"so", "I", "think", "yes"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected filtered words: %v", got)
	}
}

func TestPartition(t *testing.T) {
	lex := ForLang("fr")
	words := []model.WordTimestamp{
		{Word: "je", Start: 0, End: 0.2},
		{Word: "euh", Start: 0.3, End: 0.6},
		{Word: "pense", Start: 0.8, End: 1.1},
	}
	fillers, content := lex.Partition(words)
	if len(fillers) != 1 || fillers[0].Word != "euh" {
		t.Fatalf("unexpected fillers: %+v", fillers)
	}
	if len(content) != 2 || content[0].Word != "je" || content[1].Word != "pense" {
		t.Fatalf("unexpected content words: %+v", content)
	}
}

func TestForLangRegionAndUnknown(t *testing.T) {
	if !ForLang("fr-CA").IsFiller("euh") {
		t.Fatalf("expected regional code to use base lexicon")
	}
	if ForLang("xx").Len() != 0 {
		t.Fatalf("expected empty lexicon for unknown language")
	}
}

func TestMerge(t *testing.T) {
	merged := Merge(nil, New("en", "um"), New("fr", "euh", "UM"))
	if merged.Lang() != "en" {
		t.Fatalf("expected first language, got %q", merged.Lang())
	}
	if !reflect.DeepEqual(merged.Words(), []string{"euh", "um"}) {
		t.Fatalf("unexpected merged words: %v", merged.Words())
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fillers.txt")
	content := "# custom fillers\nbon\n\n  Voilà \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	lex, err := Load("fr", path)
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	if !lex.IsFiller("voilà") || !lex.IsFiller("BON") {
		t.Fatalf("expected loaded tokens, got %v", lex.Words())
	}
	if lex.Len() != 2 {
		t.Fatalf("expected 2 tokens, got %d", lex.Len())
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	if _, err := Load("fr", empty); err == nil {
		t.Fatalf("expected error for empty lexicon")
	}
}
