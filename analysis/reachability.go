package analysis

import (
	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
)

// Reachability runs a DFS from the entry block over the CFG, marking every
// instruction reached. Instructions in unreached blocks get a warning.
type Reachability struct{}

func (p *Reachability) Tag() Tag         { return TagReachability }
func (p *Reachability) DependsOn() []Tag { return []Tag{TagControlFlowGraph} }
func (p *Reachability) Critical() bool   { return false }

// ReachableSet is a bitset over InstrId.
type ReachableSet map[hir.InstrId]bool

func (p *Reachability) Run(ctx *Context, program *hir.Program) (any, error) {
	cfgOut, _ := ctx.Output(TagControlFlowGraph)
	g, _ := cfgOut.(*CFG)
	if g == nil || len(g.Blocks) == 0 {
		return ReachableSet{}, nil
	}

	reachedBlocks := make(map[int]bool, len(g.Blocks))
	var visit func(i int)
	visit = func(i int) {
		if reachedBlocks[i] {
			return
		}
		reachedBlocks[i] = true
		for _, e := range g.Blocks[i].Successors {
			if bi, ok := g.BlockOf(e.Target); ok {
				visit(bi)
			}
		}
	}
	visit(0)

	reached := make(ReachableSet, len(program.Instructions))
	for bi, b := range g.Blocks {
		if !reachedBlocks[bi] {
			continue
		}
		for id := b.Start; id < b.End; id++ {
			reached[id] = true
		}
	}

	for _, instr := range program.Instructions {
		if !reached[instr.ID] {
			ctx.Diagnostics.Add(diag.New(diag.Warning, diag.CodeUnreachable,
				"unreachable instruction", instr.Span))
		}
	}
	return reached, nil
}
