package analysis

import (
	"fmt"
	"sort"

	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
)

// EdgeKind classifies a CFG successor edge.
type EdgeKind int

const (
	Fallthrough EdgeKind = iota
	Jump
	JumpTrue
	JumpFalse
)

func (k EdgeKind) String() string {
	switch k {
	case Jump:
		return "jump"
	case JumpTrue:
		return "jump-true"
	case JumpFalse:
		return "jump-false"
	default:
		return "fallthrough"
	}
}

// Edge is one CFG successor edge.
type Edge struct {
	Kind   EdgeKind
	Target hir.InstrId
}

// Block is a maximal straight-line run of instructions with a single entry
// and a single terminator.
type Block struct {
	ID         int
	Start, End hir.InstrId // [Start, End)
	Successors []Edge
}

// CFG is the control-flow graph of one lowered program: every InstrId
// belongs to exactly one Block.
type CFG struct {
	Blocks       []Block
	blockOfInstr map[hir.InstrId]int
}

// BlockOf returns the index of the block containing id.
func (g *CFG) BlockOf(id hir.InstrId) (int, bool) {
	b, ok := g.blockOfInstr[id]
	return b, ok
}

// ControlFlowGraph splits a program into basic blocks and computes successor
// edges.
type ControlFlowGraph struct{}

func (p *ControlFlowGraph) Tag() Tag         { return TagControlFlowGraph }
func (p *ControlFlowGraph) DependsOn() []Tag { return []Tag{TagInstructionValidation} }
func (p *ControlFlowGraph) Critical() bool   { return false }

func (p *ControlFlowGraph) Run(ctx *Context, program *hir.Program) (any, error) {
	n := len(program.Instructions)
	if n == 0 {
		return &CFG{blockOfInstr: map[hir.InstrId]int{}}, nil
	}

	boundary := map[hir.InstrId]bool{0: true}
	for _, instr := range program.Instructions {
		switch instr.Opcode {
		case "JUMP", "JGTZ", "JZERO", "JNEG":
			if len(instr.Operands) == 1 && instr.Operands[0].Kind == hir.LabelRef {
				t := instr.Operands[0].Target
				if int(t) >= 0 && int(t) < n {
					boundary[t] = true
				}
			}
			if int(instr.ID)+1 < n {
				boundary[instr.ID+1] = true
			}
		case "HALT":
			if int(instr.ID)+1 < n {
				boundary[instr.ID+1] = true
			}
		}
	}

	starts := make([]hir.InstrId, 0, len(boundary))
	for id := range boundary {
		starts = append(starts, id)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	g := &CFG{blockOfInstr: make(map[hir.InstrId]int, n)}
	for i, start := range starts {
		end := hir.InstrId(n)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		block := Block{ID: i, Start: start, End: end}
		for id := start; id < end; id++ {
			g.blockOfInstr[id] = i
		}
		g.Blocks = append(g.Blocks, block)
	}

	for i := range g.Blocks {
		p.terminate(ctx, program, &g.Blocks[i], n)
	}
	return g, nil
}

func (p *ControlFlowGraph) terminate(ctx *Context, program *hir.Program, b *Block, n int) {
	last := b.End - 1
	instr, ok := program.At(last)
	if !ok {
		return
	}
	checkTarget := func(t hir.InstrId) bool {
		if int(t) < 0 {
			// Unresolved-label placeholder; lowering already reported E020.
			return false
		}
		if int(t) >= n {
			ctx.Diagnostics.Add(diag.New(diag.Error, diag.CodeJumpOutOfRange,
				fmt.Sprintf("jump target %d is out of range", t), instr.Span))
			return false
		}
		return true
	}
	switch instr.Opcode {
	case "JUMP":
		if len(instr.Operands) == 1 && instr.Operands[0].Kind == hir.LabelRef {
			t := instr.Operands[0].Target
			if checkTarget(t) {
				b.Successors = append(b.Successors, Edge{Kind: Jump, Target: t})
			}
		}
	case "JGTZ", "JZERO", "JNEG":
		if len(instr.Operands) == 1 && instr.Operands[0].Kind == hir.LabelRef {
			t := instr.Operands[0].Target
			if checkTarget(t) {
				b.Successors = append(b.Successors, Edge{Kind: JumpTrue, Target: t})
			}
		}
		if int(last)+1 < n {
			b.Successors = append(b.Successors, Edge{Kind: JumpFalse, Target: last + 1})
		}
	case "HALT":
		// no successors
	default:
		if int(last)+1 < n {
			b.Successors = append(b.Successors, Edge{Kind: Fallthrough, Target: last + 1})
		}
	}
}

// instrSuccessors returns, for every instruction, the set of instruction ids
// control may flow to next: the next instruction within a block, or the
// owning block's terminator edges at the block's last instruction.
func instrSuccessors(g *CFG, program *hir.Program) map[hir.InstrId][]hir.InstrId {
	out := make(map[hir.InstrId][]hir.InstrId, len(program.Instructions))
	for _, b := range g.Blocks {
		for id := b.Start; id < b.End-1; id++ {
			out[id] = []hir.InstrId{id + 1}
		}
		if b.Start < b.End {
			last := b.End - 1
			for _, e := range b.Successors {
				out[last] = append(out[last], e.Target)
			}
		}
	}
	return out
}
