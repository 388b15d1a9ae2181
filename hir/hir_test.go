package hir

import (
	"testing"

	"github.com/hadronomy/ram/item"
	"github.com/hadronomy/ram/source"
	"github.com/hadronomy/ram/syntax"
)

func lower(t *testing.T, text string) (*Program, int) {
	t.Helper()
	db := source.NewDatabase()
	file := db.AddFile("test.ram", text)
	tree, _ := syntax.Parse(file, db)
	prog := syntax.NewProgram(tree)
	table, _ := item.Build(prog)
	lowered, diags := Lower(prog, table)
	return lowered, diags.Len()
}

func TestLowerBasicInstructions(t *testing.T) {
	prog, n := lower(t, "LOAD =5\nADD 3\nHALT\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	if len(prog.Instructions) != 3 {
		t.Fatalf("got %d instructions, want 3", len(prog.Instructions))
	}
	if prog.Instructions[0].Opcode != "LOAD" || prog.Instructions[0].Operands[0].Kind != Immediate {
		t.Errorf("unexpected LOAD lowering: %+v", prog.Instructions[0])
	}
	if prog.Instructions[2].Opcode != "HALT" || len(prog.Instructions[2].Operands) != 0 {
		t.Errorf("unexpected HALT lowering: %+v", prog.Instructions[2])
	}
}

func TestLowerResolvesLabelRef(t *testing.T) {
	prog, n := lower(t, "loop: ADD =1\nJUMP loop\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	jump := prog.Instructions[1]
	if jump.Opcode != "JUMP" || jump.Operands[0].Kind != LabelRef || jump.Operands[0].Target != 0 {
		t.Fatalf("unexpected JUMP lowering: %+v", jump)
	}
}

func TestLowerUnknownLabelDiagnosed(t *testing.T) {
	_, n := lower(t, "JUMP nowhere\n")
	if n != 1 {
		t.Fatalf("expected 1 diagnostic for unresolved label, got %d", n)
	}
}

func TestLowerUnknownOpcodeDiagnosed(t *testing.T) {
	prog, n := lower(t, "FROB =1\n")
	if n != 1 {
		t.Fatalf("expected 1 diagnostic for unknown opcode, got %d", n)
	}
	if prog.Instructions[0].Opcode != "UNKNOWN" {
		t.Errorf("got opcode %q, want UNKNOWN", prog.Instructions[0].Opcode)
	}
}

func TestLowerDirectWithAccessor(t *testing.T) {
	prog, n := lower(t, "STORE 4[=2]\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	op := prog.Instructions[0].Operands[0]
	if op.Kind != Direct || op.Value != 4 {
		t.Fatalf("unexpected direct base: %+v", op)
	}
	if op.Index == nil || op.Index.Kind != Immediate || op.Index.Value != 2 {
		t.Fatalf("unexpected index operand: %+v", op.Index)
	}
}

func TestLowerAppendsSyntheticHaltForTrailingLabel(t *testing.T) {
	prog, n := lower(t, "ADD =1\ndone:\n")
	if n != 0 {
		t.Fatalf("expected no diagnostics, got %d", n)
	}
	if len(prog.Instructions) != 2 {
		t.Fatalf("got %d instructions, want 2 (synthetic halt appended)", len(prog.Instructions))
	}
	last := prog.Instructions[1]
	if last.Opcode != "HALT" {
		t.Fatalf("expected synthetic HALT, got %q", last.Opcode)
	}
}
