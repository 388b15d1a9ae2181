// Package item builds the label table: it walks the AST in source order,
// assigns every label definition the instruction position it precedes, and
// reports duplicates without discarding the first binding.
package item

import (
	"fmt"

	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/syntax"
)

// Table maps a label name to the 0-based position of the instruction it
// precedes, in the flat, source-order instruction sequence that HIR lowering
// will later assign InstrIds from. A label with no following instruction
// resolves to InstructionCount, a synthetic position one past the last real
// instruction.
type Table struct {
	positions map[string]int
	order     []string

	// InstructionCount is the number of instructions found while building
	// the table; HIR lowering uses it to know whether it must append a
	// synthetic halt for trailing labels.
	InstructionCount int
}

// Lookup returns the position a label resolves to.
func (t *Table) Lookup(name string) (int, bool) {
	pos, ok := t.positions[name]
	return pos, ok
}

// Names returns every defined label name in first-definition order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) define(name string, pos int) (first bool) {
	if _, exists := t.positions[name]; exists {
		return false
	}
	if t.positions == nil {
		t.positions = make(map[string]int)
	}
	t.positions[name] = pos
	t.order = append(t.order, name)
	return true
}

// Build walks prog in source order and produces its label table plus any
// E010-duplicate-label diagnostics. Policy: multiple labels may precede the
// same instruction; a redefinition of an existing name is diagnosed but the
// first definition wins; a label bound to nothing resolves to a synthetic
// halt position past the last instruction.
func Build(prog syntax.Program) (*Table, diag.Bag) {
	t := &Table{}
	var diags diag.Bag

	var pending []syntax.Label
	instrIndex := 0

	flush := func(pos int) {
		for _, lbl := range pending {
			if !t.define(lbl.Name(), pos) {
				diags.Add(diag.New(
					diag.Error,
					diag.CodeDuplicateLabel,
					fmt.Sprintf("label %q is already defined", lbl.Name()),
					lbl.NameSpan(),
				))
			}
		}
		pending = nil
	}

	for _, line := range prog.Lines() {
		if lbl, ok := line.Label(); ok {
			pending = append(pending, lbl)
		}
		if _, ok := line.Instruction(); ok {
			flush(instrIndex)
			instrIndex++
		}
	}
	// Any labels still pending had no following instruction: they resolve
	// to a synthetic halt one past the last real instruction.
	flush(instrIndex)

	t.InstructionCount = instrIndex
	return t, diags
}
