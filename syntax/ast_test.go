package syntax

import "testing"

func TestOperandKindString(t *testing.T) {
	tree, _ := parse(t, "JUMP loop\n")
	prog := NewProgram(tree)
	instr, _ := prog.Lines()[0].Instruction()
	operand, ok := instr.Operand()
	if !ok {
		t.Fatal("expected an operand")
	}
	if operand.Kind() != OpLabelRef {
		t.Fatalf("got %v, want OpLabelRef", operand.Kind())
	}
	if operand.Kind().String() != "label_ref" {
		t.Errorf("got %q, want %q", operand.Kind().String(), "label_ref")
	}
	name, ok := operand.LabelName()
	if !ok || name != "loop" {
		t.Fatalf("got %v %q, want true \"loop\"", ok, name)
	}
}

func TestLineWithoutLabelOrInstruction(t *testing.T) {
	tree, _ := parse(t, "# just a comment\n")
	prog := NewProgram(tree)
	lines := prog.Lines()
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if _, ok := lines[0].Label(); ok {
		t.Error("did not expect a label")
	}
	if _, ok := lines[0].Instruction(); ok {
		t.Error("did not expect an instruction")
	}
}

func TestBlankProgramHasNoInstructionLines(t *testing.T) {
	tree, _ := parse(t, "\n\n")
	prog := NewProgram(tree)
	for _, line := range prog.Lines() {
		if _, ok := line.Instruction(); ok {
			t.Error("blank lines must not yield an instruction")
		}
	}
}
