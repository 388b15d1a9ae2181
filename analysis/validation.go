package analysis

import (
	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
)

// InstructionValidation enforces the per-opcode operand shape table. It
// declares no dependencies and is not critical: a shape violation is
// reported but later passes still run against the (partially invalid) HIR.
type InstructionValidation struct{}

func (p *InstructionValidation) Tag() Tag         { return TagInstructionValidation }
func (p *InstructionValidation) DependsOn() []Tag { return nil }
func (p *InstructionValidation) Critical() bool   { return false }

// ValidationResult reports whether every instruction satisfied its shape.
type ValidationResult struct {
	Valid bool
}

var (
	valueKinds = map[hir.OperandKind]bool{hir.Immediate: true, hir.Direct: true, hir.Indirect: true}
	refKinds   = map[hir.OperandKind]bool{hir.Direct: true, hir.Indirect: true}
)

func (p *InstructionValidation) Run(ctx *Context, program *hir.Program) (any, error) {
	valid := true
	for _, instr := range program.Instructions {
		if !p.checkShape(ctx, instr) {
			valid = false
		}
	}
	return ValidationResult{Valid: valid}, nil
}

func (p *InstructionValidation) checkShape(ctx *Context, instr hir.Instruction) bool {
	switch instr.Opcode {
	case "LOAD", "ADD", "SUB", "MUL", "DIV", "MOD":
		return p.requireOne(ctx, instr, valueKinds, diag.CodeBadOperandShape,
			"expects one immediate, direct or indirect operand")
	case "STORE", "READ":
		if len(instr.Operands) == 1 && instr.Operands[0].Kind == hir.Immediate {
			ctx.Diagnostics.Add(diag.New(diag.Error, diag.CodeImmediateTarget,
				instr.Opcode+" cannot target an immediate operand", instr.Operands[0].Span))
			return false
		}
		return p.requireOne(ctx, instr, refKinds, diag.CodeBadOperandShape,
			"expects one direct or indirect operand")
	case "WRITE":
		return p.requireOne(ctx, instr, valueKinds, diag.CodeBadOperandShape,
			"expects one immediate, direct or indirect operand")
	case "JUMP", "JGTZ", "JZERO", "JNEG":
		if len(instr.Operands) != 1 || instr.Operands[0].Kind != hir.LabelRef {
			ctx.Diagnostics.Add(diag.New(diag.Error, diag.CodeBadOperandShape,
				instr.Opcode+" expects one label operand", instr.Span))
			return false
		}
		return true
	case "HALT":
		if len(instr.Operands) != 0 {
			ctx.Diagnostics.Add(diag.New(diag.Error, diag.CodeBadOperandShape,
				"HALT takes no operand", instr.Operands[0].Span))
			return false
		}
		return true
	default:
		// UNKNOWN opcodes already produced E030 during lowering.
		return true
	}
}

func (p *InstructionValidation) requireOne(ctx *Context, instr hir.Instruction, allowed map[hir.OperandKind]bool, code, help string) bool {
	if len(instr.Operands) != 1 {
		ctx.Diagnostics.Add(diag.New(diag.Error, code, instr.Opcode+" "+help, instr.Span))
		return false
	}
	op := instr.Operands[0]
	if !allowed[op.Kind] {
		ctx.Diagnostics.Add(diag.New(diag.Error, code, instr.Opcode+" "+help, op.Span))
		return false
	}
	return true
}
