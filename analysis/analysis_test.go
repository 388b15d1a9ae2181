package analysis

import (
	"testing"

	"github.com/hadronomy/ram/hir"
)

func imm(v int64) hir.Operand    { return hir.Operand{Kind: hir.Immediate, Value: v} }
func direct(v int64) hir.Operand { return hir.Operand{Kind: hir.Direct, Value: v} }
func label(id hir.InstrId) hir.Operand {
	return hir.Operand{Kind: hir.LabelRef, Target: id}
}

func instr(id int, opcode string, ops ...hir.Operand) hir.Instruction {
	return hir.Instruction{ID: hir.InstrId(id), Opcode: opcode, Operands: ops}
}

func runAll(t *testing.T, program *hir.Program) *Context {
	t.Helper()
	pipeline, err := NewPipeline(BuiltinPasses())
	if err != nil {
		t.Fatal(err)
	}
	return pipeline.Run(program)
}

func TestPipelineSchedulesByDependency(t *testing.T) {
	pipeline, err := NewPipeline(BuiltinPasses())
	if err != nil {
		t.Fatal(err)
	}
	pos := map[Tag]int{}
	for i, p := range pipeline.passes {
		pos[p.Tag()] = i
	}
	if pos[TagControlFlowGraph] >= pos[TagDataFlow] {
		t.Error("control-flow-graph must schedule before data-flow")
	}
	if pos[TagConstantPropagation] >= pos[TagOptimizationDiscovery] {
		t.Error("constant-propagation must schedule before optimization-discovery")
	}
}

func TestPipelineRejectsUnregisteredDependency(t *testing.T) {
	_, err := NewPipeline([]Pass{&DataFlow{}})
	if err == nil {
		t.Fatal("expected an error for a missing dependency")
	}
}

func TestCFGStraightLine(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(1)),
		instr(1, "ADD", imm(2)),
		instr(2, "HALT"),
	}}
	ctx := runAll(t, program)
	out, ok := ctx.Output(TagControlFlowGraph)
	if !ok {
		t.Fatal("expected a CFG output")
	}
	cfg := out.(*CFG)
	if len(cfg.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(cfg.Blocks))
	}
}

func TestCFGSplitsOnJump(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(1)),
		instr(1, "JZERO", label(3)),
		instr(2, "ADD", imm(1)),
		instr(3, "HALT"),
	}}
	ctx := runAll(t, program)
	cfg := mustCFG(t, ctx)
	if len(cfg.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(cfg.Blocks))
	}
	b, _ := cfg.BlockOf(1)
	block := cfg.Blocks[b]
	if len(block.Successors) != 2 {
		t.Fatalf("got %d successor edges from the conditional jump block, want 2", len(block.Successors))
	}
}

func mustCFG(t *testing.T, ctx *Context) *CFG {
	t.Helper()
	out, ok := ctx.Output(TagControlFlowGraph)
	if !ok {
		t.Fatal("expected a CFG output")
	}
	return out.(*CFG)
}

func TestReachabilityFlagsDeadCode(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "JUMP", label(2)),
		instr(1, "ADD", imm(1)), // unreachable
		instr(2, "HALT"),
	}}
	ctx := runAll(t, program)
	var sawUnreachable bool
	for _, d := range ctx.Diagnostics.All() {
		if d.Code == "W001-unreachable" {
			sawUnreachable = true
		}
	}
	if !sawUnreachable {
		t.Error("expected a W001-unreachable diagnostic for instruction 1")
	}
}

func TestDataFlowLiveness(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "STORE", direct(1)), // def: reg 1
		instr(1, "LOAD", direct(1)),  // use: reg 1
		instr(2, "HALT"),
	}}
	ctx := runAll(t, program)
	out, ok := ctx.Output(TagDataFlow)
	if !ok {
		t.Fatal("expected a DataFlow output")
	}
	df := out.(*DataFlowResult)
	if !df.LiveOut[0][1] {
		t.Error("register 1 should be live-out of instruction 0 (used by instruction 1)")
	}
}

func indirect(v int64) hir.Operand { return hir.Operand{Kind: hir.Indirect, Value: v} }

func TestDataFlowIndirectStoreUsesPointerRegister(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(1)),
		instr(1, "STORE", indirect(5)), // reads reg 5 to find the address
		instr(2, "HALT"),
	}}
	ctx := runAll(t, program)
	out, _ := ctx.Output(TagDataFlow)
	df := out.(*DataFlowResult)
	if !df.Use[1][5] {
		t.Error("STORE *5 must use register 5 (the pointer)")
	}
	if df.Def[1][5] {
		t.Error("STORE *5 does not define register 5; its target is unknown statically")
	}
}

func TestConstantPropagationTracksAccumulator(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(5)),
		instr(1, "ADD", imm(3)),
		instr(2, "HALT"),
	}}
	ctx := runAll(t, program)
	out, ok := ctx.Output(TagConstantPropagation)
	if !ok {
		t.Fatal("expected a ConstantPropagation output")
	}
	cp := out.(ConstPropResult)
	if v := cp[2]; !v.Known || v.Value != 8 {
		t.Fatalf("got %+v at instruction 2, want known 8", v)
	}
}

func TestOptimizationDiscoveryFoldableConstant(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(5)),
		instr(1, "ADD", imm(3)),
		instr(2, "HALT"),
	}}
	ctx := runAll(t, program)
	var sawFoldable bool
	for _, d := range ctx.Diagnostics.All() {
		if d.Code == "I002-constant-foldable" {
			sawFoldable = true
		}
	}
	if !sawFoldable {
		t.Error("expected an I002-constant-foldable diagnostic for the ADD of two known constants")
	}
}

func countCode(ctx *Context, code string) int {
	n := 0
	for _, d := range ctx.Diagnostics.All() {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestOptimizationDiscoveryRedundantStore(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(1)),
		instr(1, "STORE", direct(5)),
		instr(2, "STORE", direct(5)), // register 5 already holds 1
		instr(3, "HALT"),
	}}
	ctx := runAll(t, program)
	if countCode(ctx, "I004-redundant-store") != 1 {
		t.Error("expected exactly one I004-redundant-store for the repeated STORE 5")
	}
}

func TestRedundantStoreInvalidatedByInterveningRead(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "LOAD", imm(1)),
		instr(1, "STORE", direct(5)),
		instr(2, "READ", direct(5)), // clobbers register 5 with input
		instr(3, "STORE", direct(5)),
		instr(4, "HALT"),
	}}
	ctx := runAll(t, program)
	if countCode(ctx, "I004-redundant-store") != 0 {
		t.Error("a READ into the register makes the second STORE meaningful, not redundant")
	}
}

func TestInstructionValidationRejectsImmediateStoreTarget(t *testing.T) {
	program := &hir.Program{Instructions: []hir.Instruction{
		instr(0, "STORE", imm(1)),
	}}
	ctx := runAll(t, program)
	var sawImmediateTarget bool
	for _, d := range ctx.Diagnostics.All() {
		if d.Code == "E040-immediate-target" {
			sawImmediateTarget = true
		}
	}
	if !sawImmediateTarget {
		t.Error("expected an E040-immediate-target diagnostic for STORE =1")
	}
}
