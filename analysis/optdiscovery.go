package analysis

import (
	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
)

// OptimizationDiscovery never rewrites code; it only emits info diagnostics
// describing opportunities a later optimizer could act on: dead code,
// constant-foldable arithmetic, jump-to-next, and redundant consecutive
// stores.
type OptimizationDiscovery struct{}

func (p *OptimizationDiscovery) Tag() Tag { return TagOptimizationDiscovery }
func (p *OptimizationDiscovery) DependsOn() []Tag {
	return []Tag{TagControlFlowGraph, TagReachability, TagConstantPropagation}
}
func (p *OptimizationDiscovery) Critical() bool { return false }

func (p *OptimizationDiscovery) Run(ctx *Context, program *hir.Program) (any, error) {
	cfgOut, _ := ctx.Output(TagControlFlowGraph)
	g, _ := cfgOut.(*CFG)
	reachableOut, _ := ctx.Output(TagReachability)
	reachable, _ := reachableOut.(ReachableSet)
	constOut, _ := ctx.Output(TagConstantPropagation)
	consts, _ := constOut.(ConstPropResult)

	for _, instr := range program.Instructions {
		if reachable != nil && !reachable[instr.ID] {
			ctx.Diagnostics.Add(diag.New(diag.Info, diag.CodeDeadCode,
				"instruction is unreachable dead code", instr.Span))
			continue
		}
		entry := consts[instr.ID]
		p.checkConstantFoldable(ctx, instr, entry)
	}

	if g != nil {
		p.checkJumpToNext(ctx, program, g)
		p.checkRedundantStore(ctx, program, g, consts)
	}
	return nil, nil
}

func (p *OptimizationDiscovery) checkConstantFoldable(ctx *Context, instr hir.Instruction, entry ConstVal) {
	switch instr.Opcode {
	case "ADD", "SUB", "MUL", "DIV", "MOD":
	default:
		return
	}
	if !entry.Known || len(instr.Operands) != 1 || instr.Operands[0].Kind != hir.Immediate {
		return
	}
	ctx.Diagnostics.Add(diag.New(diag.Info, diag.CodeConstantFoldable,
		"operand and accumulator are both constant; this can be folded", instr.Span))
}

func (p *OptimizationDiscovery) checkJumpToNext(ctx *Context, program *hir.Program, g *CFG) {
	for _, b := range g.Blocks {
		if b.Start >= b.End {
			continue
		}
		last, ok := program.At(b.End - 1)
		if !ok {
			continue
		}
		switch last.Opcode {
		case "JGTZ", "JZERO", "JNEG":
		default:
			continue
		}
		if len(last.Operands) != 1 || last.Operands[0].Kind != hir.LabelRef {
			continue
		}
		if last.Operands[0].Target == b.End {
			ctx.Diagnostics.Add(diag.New(diag.Info, diag.CodeJumpToNext,
				"conditional jump's taken branch is the fall-through instruction", last.Span))
		}
	}
}

func (p *OptimizationDiscovery) checkRedundantStore(ctx *Context, program *hir.Program, g *CFG, consts ConstPropResult) {
	for _, b := range g.Blocks {
		known := make(map[int]ConstVal)
		for id := b.Start; id < b.End; id++ {
			instr, ok := program.At(id)
			if !ok {
				continue
			}
			if instr.Opcode == "STORE" && len(instr.Operands) == 1 {
				if reg, ok := staticTarget(instr.Operands[0]); ok {
					entry := consts[id]
					if entry.Known {
						if prev, exists := known[reg]; exists && prev.Known && prev.Value == entry.Value {
							ctx.Diagnostics.Add(diag.New(diag.Info, diag.CodeRedundantStore,
								"storing a value the target already holds", instr.Span))
						}
						known[reg] = entry
					} else {
						delete(known, reg)
					}
					continue
				}
			}
			// Anything else that writes a register invalidates what we
			// believed it held: a statically-named target invalidates that
			// register, a dynamic one (accessor, indirect) invalidates all.
			switch instr.Opcode {
			case "STORE", "READ":
				if len(instr.Operands) != 1 {
					continue
				}
				if reg, ok := staticTarget(instr.Operands[0]); ok {
					delete(known, reg)
				} else if dynamicTarget(instr.Operands[0]) {
					known = make(map[int]ConstVal)
				}
			case "LOAD", "ADD", "SUB", "MUL", "DIV", "MOD":
				delete(known, 0)
			}
		}
	}
}
