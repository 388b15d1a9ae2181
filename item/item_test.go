package item

import (
	"testing"

	"github.com/hadronomy/ram/source"
	"github.com/hadronomy/ram/syntax"
)

func build(t *testing.T, text string) (*Table, int) {
	t.Helper()
	db := source.NewDatabase()
	file := db.AddFile("test.ram", text)
	tree, _ := syntax.Parse(file, db)
	table, diags := Build(syntax.NewProgram(tree))
	return table, diags.Len()
}

func TestLabelResolvesToFollowingInstruction(t *testing.T) {
	table, n := build(t, "loop: ADD =1\nJUMP loop\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	pos, ok := table.Lookup("loop")
	if !ok || pos != 0 {
		t.Fatalf("got %v %d, want true 0", ok, pos)
	}
}

func TestMultipleLabelsOnSameInstruction(t *testing.T) {
	table, n := build(t, "a:\nb: HALT\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	for _, name := range []string{"a", "b"} {
		pos, ok := table.Lookup(name)
		if !ok || pos != 0 {
			t.Fatalf("label %q: got %v %d, want true 0", name, ok, pos)
		}
	}
}

func TestDuplicateLabelFirstWins(t *testing.T) {
	table, n := build(t, "x: ADD =1\nx: SUB =1\n")
	if n != 1 {
		t.Fatalf("expected 1 duplicate-label diagnostic, got %d", n)
	}
	pos, ok := table.Lookup("x")
	if !ok || pos != 0 {
		t.Fatalf("expected first definition (pos 0) to win, got %v %d", ok, pos)
	}
}

func TestTrailingLabelResolvesSynthetically(t *testing.T) {
	table, n := build(t, "ADD =1\ndone:\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	pos, ok := table.Lookup("done")
	if !ok || pos != table.InstructionCount {
		t.Fatalf("got %v %d, want true %d", ok, pos, table.InstructionCount)
	}
	if table.InstructionCount != 1 {
		t.Fatalf("got InstructionCount %d, want 1", table.InstructionCount)
	}
}
