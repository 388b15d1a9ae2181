package diag

import (
	"strings"
	"testing"

	"github.com/hadronomy/ram/source"
)

func TestBagOrderAndMerge(t *testing.T) {
	var a, b Bag
	a.Add(New(Error, CodeUnknownLabel, "first", source.Span{}))
	b.Add(New(Warning, CodeUnreachable, "second", source.Span{}))
	b.Add(New(Info, CodeDeadCode, "third", source.Span{}))
	a.Merge(b)

	got := a.All()
	if len(got) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Message != want {
			t.Errorf("diagnostic %d: got %q, want %q", i, got[i].Message, want)
		}
	}
}

func TestFilterAndMaxSeverity(t *testing.T) {
	var b Bag
	b.Add(New(Info, CodeDeadCode, "i", source.Span{}))
	b.Add(New(Warning, CodeUnreachable, "w", source.Span{}))
	if b.HasErrors() {
		t.Fatal("no errors were added")
	}
	if b.MaxSeverity() != Warning {
		t.Fatalf("got %v, want Warning", b.MaxSeverity())
	}
	b.Add(New(Error, CodeDivByZero, "e", source.Span{}))
	if !b.HasErrors() || b.MaxSeverity() != Error {
		t.Fatal("expected an error after adding one")
	}
	if got := b.Filter(Warning); len(got) != 2 {
		t.Fatalf("Filter(Warning): got %d, want 2", len(got))
	}
}

func TestRenderFormat(t *testing.T) {
	db := source.NewDatabase()
	file := db.AddFile("test.ram", "JUMP foo\n")

	var b Bag
	d := New(Error, CodeUnknownLabel, "unknown label \"foo\"", source.Span{File: file, Start: 5, End: 8})
	b.Add(d.WithHelp("define the label before referencing it"))

	var sb strings.Builder
	b.Render(&sb, db)
	out := sb.String()

	wantLines := []string{
		"error[E020-unknown-label]: unknown label \"foo\"",
		"  --> test.ram:1:5",
		"  | JUMP foo",
		"  |      ^^^",
		"  = help: define the label before referencing it",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q:\n%s", want, out)
		}
	}
}
