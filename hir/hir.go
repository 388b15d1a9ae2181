// Package hir lowers the AST into a flat, dense instruction sequence with
// resolved opcodes, kind-tagged operands and label references replaced by
// instruction indices.
package hir

import (
	"strings"

	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/item"
	"github.com/hadronomy/ram/source"
	"github.com/hadronomy/ram/syntax"
)

// InstrId is the dense, 0-based index of a lowered instruction.
type InstrId int

// OperandKind is the closed set of lowered operand shapes. Modeled as a
// tagged variant rather than an interface hierarchy so the VM can dispatch
// on Kind directly on its hot path.
type OperandKind uint8

const (
	Immediate OperandKind = iota
	Direct
	Indirect
	LabelRef
)

func (k OperandKind) String() string {
	switch k {
	case Immediate:
		return "immediate"
	case Direct:
		return "direct"
	case Indirect:
		return "indirect"
	default:
		return "label_ref"
	}
}

// Operand is the lowered, resolved counterpart of syntax.Operand.
//
//   - Immediate: Value is the literal.
//   - Direct: Value is the base register; Index, if non-nil, is the
//     computed offset operand (restricted to Immediate|Direct|Indirect).
//   - Indirect: Value is the register holding the pointer.
//   - LabelRef: Target is the resolved InstrId, or -1 if the name did not
//     resolve (a placeholder produced alongside an E020 diagnostic).
type Operand struct {
	Kind   OperandKind
	Value  int64
	Index  *Operand
	Target InstrId
	Span   source.Span
}

// Instruction is one lowered instruction.
type Instruction struct {
	ID        InstrId
	Opcode    string // canonical upper-case, or "UNKNOWN"
	RawOpcode string // original source text, case preserved
	Operands  []Operand
	Span      source.Span
}

// Program is the flat, lowered instruction sequence.
type Program struct {
	Instructions []Instruction
}

// At returns the instruction at id, or false if id is out of range.
func (p *Program) At(id InstrId) (Instruction, bool) {
	if int(id) < 0 || int(id) >= len(p.Instructions) {
		return Instruction{}, false
	}
	return p.Instructions[id], true
}

// opcodes is the catalog lowering recognizes.
var opcodes = map[string]bool{
	"LOAD": true, "STORE": true, "READ": true, "WRITE": true,
	"ADD": true, "SUB": true, "MUL": true, "DIV": true, "MOD": true,
	"JUMP": true, "JGTZ": true, "JZERO": true, "JNEG": true, "HALT": true,
}

// Lower walks prog in source order, assigning each instruction a dense
// InstrId matching the positions table built against the same program.
func Lower(prog syntax.Program, table *item.Table) (*Program, diag.Bag) {
	var diags diag.Bag
	var instrs []Instruction

	id := 0
	for _, line := range prog.Lines() {
		instr, ok := line.Instruction()
		if !ok {
			continue
		}
		instrs = append(instrs, lowerInstruction(instr, id, table, &diags))
		id++
	}

	if needsSynthetic(table, len(instrs)) {
		instrs = append(instrs, syntheticHalt(len(instrs), lastSpan(instrs, prog)))
	}

	return &Program{Instructions: instrs}, diags
}

func needsSynthetic(table *item.Table, instrCount int) bool {
	for _, name := range table.Names() {
		if pos, ok := table.Lookup(name); ok && pos == instrCount {
			return true
		}
	}
	return false
}

func lastSpan(instrs []Instruction, prog syntax.Program) source.Span {
	if len(instrs) > 0 {
		last := instrs[len(instrs)-1].Span
		return source.Span{File: last.File, Start: last.End, End: last.End}
	}
	lines := prog.Lines()
	if len(lines) > 0 {
		s := lines[len(lines)-1].Span()
		return source.Span{File: s.File, Start: s.End, End: s.End}
	}
	return source.Span{}
}

func syntheticHalt(id int, span source.Span) Instruction {
	return Instruction{ID: InstrId(id), Opcode: "HALT", RawOpcode: "HALT", Span: span}
}

func lowerInstruction(instr syntax.Instruction, id int, table *item.Table, diags *diag.Bag) Instruction {
	raw := instr.Opcode()
	canonical := strings.ToUpper(raw)
	out := Instruction{ID: InstrId(id), RawOpcode: raw, Span: instr.Span()}

	if !opcodes[canonical] {
		out.Opcode = "UNKNOWN"
		diags.Add(diag.New(
			diag.Error,
			diag.CodeUnknownInstruction,
			"unknown instruction \""+raw+"\"",
			instr.OpcodeSpan(),
		))
	} else {
		out.Opcode = canonical
	}

	if operand, ok := instr.Operand(); ok {
		out.Operands = []Operand{lowerOperand(operand, table, diags)}
	}
	return out
}

func lowerOperand(op syntax.Operand, table *item.Table, diags *diag.Bag) Operand {
	switch op.Kind() {
	case syntax.OpImmediate:
		v, _ := op.Number()
		return Operand{Kind: Immediate, Value: v, Span: op.Span()}
	case syntax.OpIndirect:
		v, _ := op.Number()
		return Operand{Kind: Indirect, Value: v, Span: op.Span()}
	case syntax.OpDirect:
		base, _ := op.Number()
		result := Operand{Kind: Direct, Value: base, Span: op.Span()}
		if idx, ok := op.Accessor(); ok {
			sub := lowerOperand(idx.Operand, table, diags)
			result.Index = &sub
		}
		return result
	default: // syntax.OpLabelRef
		name, _ := op.LabelName()
		pos, ok := table.Lookup(name)
		if !ok {
			diags.Add(diag.New(
				diag.Error,
				diag.CodeUnknownLabel,
				"unknown label \""+name+"\"",
				op.Span(),
			))
			return Operand{Kind: LabelRef, Target: -1, Span: op.Span()}
		}
		return Operand{Kind: LabelRef, Target: InstrId(pos), Span: op.Span()}
	}
}
