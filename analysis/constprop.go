package analysis

import "github.com/hadronomy/ram/hir"

// ConstVal is the accumulator lattice value: either a known 64-bit value or
// top (unknown — values differed at some join, or were never constant).
type ConstVal struct {
	Known bool
	Value int64
}

func meet(a, b ConstVal) ConstVal {
	if !a.Known || !b.Known {
		return ConstVal{}
	}
	if a.Value != b.Value {
		return ConstVal{}
	}
	return a
}

// ConstantPropagation propagates known constant accumulator values forward
// along the CFG to a fixed point, meeting to top at joins where values
// differ. Only reachable instructions are considered.
type ConstantPropagation struct{}

func (p *ConstantPropagation) Tag() Tag { return TagConstantPropagation }
func (p *ConstantPropagation) DependsOn() []Tag {
	return []Tag{TagControlFlowGraph, TagReachability}
}
func (p *ConstantPropagation) Critical() bool { return false }

// ConstPropResult maps each instruction to the accumulator's value on entry.
type ConstPropResult map[hir.InstrId]ConstVal

func (p *ConstantPropagation) Run(ctx *Context, program *hir.Program) (any, error) {
	cfgOut, _ := ctx.Output(TagControlFlowGraph)
	g, _ := cfgOut.(*CFG)
	reachableOut, _ := ctx.Output(TagReachability)
	reachable, _ := reachableOut.(ReachableSet)

	result := make(ConstPropResult, len(program.Instructions))
	if g == nil || len(program.Instructions) == 0 {
		return result, nil
	}

	succs := instrSuccessors(g, program)
	preds := predecessors(succs, program)
	// The VM's register bank starts zeroed, so the accumulator is known to
	// be 0 on entry to instruction 0.
	result[0] = ConstVal{Known: true, Value: 0}

	changed := true
	for changed {
		changed = false
		for _, instr := range program.Instructions {
			if reachable != nil && !reachable[instr.ID] {
				continue
			}
			entry, ok := result[instr.ID]
			if !ok {
				entry = joinPreds(result, preds[instr.ID])
				result[instr.ID] = entry
			}
			out := transfer(instr, entry)
			for _, succ := range succs[instr.ID] {
				merged := out
				if prev, ok := result[succ]; ok {
					merged = meet(prev, out)
				}
				if prev, ok := result[succ]; !ok || prev != merged {
					result[succ] = merged
					changed = true
				}
			}
		}
	}
	return result, nil
}

func predecessors(succs map[hir.InstrId][]hir.InstrId, program *hir.Program) map[hir.InstrId][]hir.InstrId {
	preds := make(map[hir.InstrId][]hir.InstrId, len(program.Instructions))
	for id, list := range succs {
		for _, s := range list {
			preds[s] = append(preds[s], id)
		}
	}
	return preds
}

func joinPreds(result ConstPropResult, preds []hir.InstrId) ConstVal {
	var acc ConstVal
	first := true
	for _, p := range preds {
		v, ok := result[p]
		if !ok {
			continue
		}
		if first {
			acc = v
			first = false
			continue
		}
		acc = meet(acc, v)
	}
	if first {
		return ConstVal{} // no predecessor computed yet
	}
	return acc
}

func transfer(instr hir.Instruction, in ConstVal) ConstVal {
	var op hir.Operand
	if len(instr.Operands) == 1 {
		op = instr.Operands[0]
	}
	switch instr.Opcode {
	case "LOAD":
		if op.Kind == hir.Immediate {
			return ConstVal{Known: true, Value: op.Value}
		}
		return ConstVal{}
	case "ADD", "SUB", "MUL":
		if !in.Known || op.Kind != hir.Immediate {
			return ConstVal{}
		}
		switch instr.Opcode {
		case "ADD":
			return ConstVal{Known: true, Value: in.Value + op.Value}
		case "SUB":
			return ConstVal{Known: true, Value: in.Value - op.Value}
		default:
			return ConstVal{Known: true, Value: in.Value * op.Value}
		}
	case "DIV":
		if !in.Known || op.Kind != hir.Immediate || op.Value == 0 {
			return ConstVal{}
		}
		return ConstVal{Known: true, Value: in.Value / op.Value}
	case "MOD":
		if !in.Known || op.Kind != hir.Immediate || op.Value == 0 {
			return ConstVal{}
		}
		return ConstVal{Known: true, Value: in.Value % op.Value}
	case "READ":
		if readMayHitAccumulator(op) {
			return ConstVal{}
		}
		return in
	default:
		// STORE, WRITE, JUMP*, HALT, UNKNOWN never change the accumulator.
		return in
	}
}

// readMayHitAccumulator reports whether a READ's target might be register 0,
// which would overwrite the accumulator with an input value unknown at
// compile time. A dynamic (accessor or indirect) target is assumed to be
// able to reach register 0.
func readMayHitAccumulator(op hir.Operand) bool {
	switch op.Kind {
	case hir.Direct:
		if op.Index != nil {
			return true
		}
		return op.Value == 0
	case hir.Indirect:
		return true
	default:
		return false
	}
}
