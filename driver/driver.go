// Package driver orchestrates the compile-and-execute pipeline end to end:
// source text in, accumulated diagnostics and (for run) executed VM state
// out.
package driver

import (
	"github.com/sirupsen/logrus"

	"github.com/hadronomy/ram/analysis"
	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
	"github.com/hadronomy/ram/item"
	"github.com/hadronomy/ram/source"
	"github.com/hadronomy/ram/syntax"
	"github.com/hadronomy/ram/vm"
)

// Log is the package-level logger, used instead of threading a logger
// through every call. Callers may swap its output or level; it defaults to
// logrus's standard settings.
var Log = logrus.New()

// CompileResult bundles everything produced by the static side of the
// pipeline, whether or not it contains errors.
type CompileResult struct {
	Tree        *syntax.Tree
	Labels      *item.Table
	Program     *hir.Program
	Diagnostics diag.Bag
}

// Compile runs the full front end over file — lexing, parsing, label
// resolution, HIR lowering and the analysis pipeline — and returns the
// lowered program plus every diagnostic accumulated along the way.
func Compile(db *source.Database, file source.FileID) CompileResult {
	var result CompileResult

	tree, parseDiags := syntax.Parse(file, db)
	result.Tree = tree
	result.Diagnostics.Merge(parseDiags)

	prog := syntax.NewProgram(tree)

	labels, itemDiags := item.Build(prog)
	result.Labels = labels
	result.Diagnostics.Merge(itemDiags)

	lowered, hirDiags := hir.Lower(prog, labels)
	result.Program = lowered
	result.Diagnostics.Merge(hirDiags)

	pipeline, err := analysis.NewPipeline(analysis.BuiltinPasses())
	if err != nil {
		Log.WithError(err).Error("analysis pipeline configuration failed")
		result.Diagnostics.Add(diag.New(diag.Error, diag.CodePassCycle, err.Error(), source.Span{}))
		return result
	}
	ctx := pipeline.Run(lowered)
	result.Diagnostics.Merge(ctx.Diagnostics)

	return result
}

// Validate runs the compile pipeline and returns its accumulated
// diagnostics.
func Validate(db *source.Database, file source.FileID) diag.Bag {
	Log.WithField("file", db.Name(file)).Debug("validating")
	return Compile(db, file).Diagnostics
}

// RunResult is the outcome of executing a compiled program.
type RunResult struct {
	Output      []int64
	Diagnostics diag.Bag
	Halted      bool
	Steps       uint64
}

// Run validates source, and if no Error diagnostic remains, constructs the
// VM, seeds its input queue and initial memory, and runs it to completion.
func Run(db *source.Database, file source.FileID, input []int64, memory map[int64]int64) RunResult {
	compiled := Compile(db, file)
	if compiled.Diagnostics.HasErrors() {
		Log.WithField("file", db.Name(file)).Warn("compile errors, skipping execution")
		return RunResult{Diagnostics: compiled.Diagnostics}
	}

	machine, err := vm.New(compiled.Program, vm.Input(input), vm.Memory(memory))
	if err != nil {
		compiled.Diagnostics.Add(diag.New(diag.Error, diag.CodeBadPC, err.Error(), source.Span{}))
		return RunResult{Diagnostics: compiled.Diagnostics}
	}

	runErr := machine.Run()
	diags := compiled.Diagnostics
	if runErr != nil {
		Log.WithError(runErr).Error("runtime fault")
		if fe, ok := runErr.(*vm.FaultError); ok {
			diags.Add(diag.New(diag.Error, fe.Code, fe.Error(), source.Span{}))
		} else {
			diags.Add(diag.New(diag.Error, diag.CodeBadPC, runErr.Error(), source.Span{}))
		}
	}

	return RunResult{
		Output:      machine.Output(),
		Diagnostics: diags,
		Halted:      machine.Halted(),
		Steps:       machine.Steps(),
	}
}
