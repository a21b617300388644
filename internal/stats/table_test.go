package stats

import (
	"bytes"
	"testing"
)

func TestTableAlignsColumns(t *testing.T) {
	tbl := newTable(left("Skill"), right("Score"), left("Trend"))
	tbl.add("fluency", "72", "improving")
	tbl.add("pronunciation", "8", "stable")

	lines := tbl.lines()
	want := []string{
		"Skill         Score Trend    ",
		"fluency          72 improving",
		"pronunciation     8 stable   ",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTableMeasuresWideCells(t *testing.T) {
	tbl := newTable(left("Skill"), right("Score"))
	tbl.add("発音", "9")
	tbl.add("grammar")

	var buf bytes.Buffer
	if err := tbl.write(&buf); err != nil {
		t.Fatalf("write table: %v", err)
	}
	want := "Skill   Score\n発音        9\ngrammar      \n\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
