package analysis

import "github.com/hadronomy/ram/hir"

// RegSet is a small set of register numbers.
type RegSet map[int]bool

func (s RegSet) clone() RegSet {
	out := make(RegSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func (s RegSet) equal(o RegSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}

func union(a, b RegSet) RegSet {
	out := a.clone()
	for k := range b {
		out[k] = true
	}
	return out
}

func subtract(a, b RegSet) RegSet {
	out := make(RegSet, len(a))
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}

// DataFlowResult holds per-instruction def/use and the fixed-point live-in
// and live-out register sets.
type DataFlowResult struct {
	Def, Use        map[hir.InstrId]RegSet
	LiveIn, LiveOut map[hir.InstrId]RegSet
}

// DataFlow computes register liveness via standard iterative backward
// dataflow to a fixed point.
type DataFlow struct{}

func (p *DataFlow) Tag() Tag         { return TagDataFlow }
func (p *DataFlow) DependsOn() []Tag { return []Tag{TagControlFlowGraph} }
func (p *DataFlow) Critical() bool   { return false }

func (p *DataFlow) Run(ctx *Context, program *hir.Program) (any, error) {
	cfgOut, _ := ctx.Output(TagControlFlowGraph)
	g, _ := cfgOut.(*CFG)
	result := &DataFlowResult{
		Def:     make(map[hir.InstrId]RegSet),
		Use:     make(map[hir.InstrId]RegSet),
		LiveIn:  make(map[hir.InstrId]RegSet),
		LiveOut: make(map[hir.InstrId]RegSet),
	}
	if g == nil {
		return result, nil
	}

	for _, instr := range program.Instructions {
		result.Def[instr.ID] = defOf(instr)
		result.Use[instr.ID] = useOf(instr)
		result.LiveIn[instr.ID] = RegSet{}
		result.LiveOut[instr.ID] = RegSet{}
	}

	succs := instrSuccessors(g, program)
	changed := true
	for changed {
		changed = false
		for _, instr := range program.Instructions {
			id := instr.ID
			var out RegSet = RegSet{}
			for _, s := range succs[id] {
				out = union(out, result.LiveIn[s])
			}
			in := union(result.Use[id], subtract(out, result.Def[id]))
			if !in.equal(result.LiveIn[id]) {
				result.LiveIn[id] = in
				changed = true
			}
			if !out.equal(result.LiveOut[id]) {
				result.LiveOut[id] = out
				changed = true
			}
		}
	}
	return result, nil
}

// addressReadRegisters returns the registers whose values are consulted to
// evaluate op (not counting the accumulator): a bare Direct base is a
// literal register slot, read directly; a Direct with an accessor reads
// only the index's registers, since the base is folded into the computed
// address rather than dereferenced itself; an Indirect reads its pointer
// register.
func addressReadRegisters(op hir.Operand) RegSet {
	switch op.Kind {
	case hir.Direct:
		if op.Index != nil {
			return addressReadRegisters(*op.Index)
		}
		return RegSet{int(op.Value): true}
	case hir.Indirect:
		return RegSet{int(op.Value): true}
	default:
		return RegSet{}
	}
}

// addressWriteRegisters returns the registers consulted to compute the
// address a write through op lands at: nothing for a bare Direct (the
// address is the literal base), the index's registers for an accessor, and
// the pointer register for an Indirect.
func addressWriteRegisters(op hir.Operand) RegSet {
	switch op.Kind {
	case hir.Direct:
		if op.Index != nil {
			return addressReadRegisters(*op.Index)
		}
		return RegSet{}
	case hir.Indirect:
		return RegSet{int(op.Value): true}
	default:
		return RegSet{}
	}
}

// staticTarget returns the register an operand names as a def target, when
// that can be determined without running the program. An accessor or an
// indirect pointer makes the written register unknowable statically.
func staticTarget(op hir.Operand) (int, bool) {
	if op.Kind == hir.Direct && op.Index == nil {
		return int(op.Value), true
	}
	return 0, false
}

// dynamicTarget reports whether a write through op lands at a register that
// cannot be named statically.
func dynamicTarget(op hir.Operand) bool {
	switch op.Kind {
	case hir.Direct:
		return op.Index != nil
	case hir.Indirect:
		return true
	default:
		return false
	}
}

func defOf(instr hir.Instruction) RegSet {
	switch instr.Opcode {
	case "LOAD", "ADD", "SUB", "MUL", "DIV", "MOD":
		return RegSet{0: true}
	case "STORE", "READ":
		if len(instr.Operands) != 1 {
			return RegSet{}
		}
		if reg, ok := staticTarget(instr.Operands[0]); ok {
			return RegSet{reg: true}
		}
		return RegSet{}
	default:
		return RegSet{}
	}
}

func useOf(instr hir.Instruction) RegSet {
	var op hir.Operand
	if len(instr.Operands) == 1 {
		op = instr.Operands[0]
	}
	switch instr.Opcode {
	case "LOAD", "WRITE":
		return addressReadRegisters(op)
	case "ADD", "SUB", "MUL", "DIV", "MOD":
		return union(RegSet{0: true}, addressReadRegisters(op))
	case "STORE":
		return union(RegSet{0: true}, addressWriteRegisters(op))
	case "READ":
		return addressWriteRegisters(op)
	case "JGTZ", "JZERO", "JNEG":
		return RegSet{0: true}
	default:
		return RegSet{}
	}
}
