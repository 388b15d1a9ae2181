// Package analysis implements the pluggable HIR analysis pipeline: a
// registry of passes declaring dependencies by tag, a topological
// scheduler, and a shared context carrying diagnostics and per-pass outputs.
package analysis

import (
	"fmt"

	"github.com/hadronomy/ram/diag"
	"github.com/hadronomy/ram/hir"
	"github.com/hadronomy/ram/source"
)

// Tag identifies a pass and its output type in the context's output map.
type Tag string

const (
	TagInstructionValidation Tag = "instruction-validation"
	TagControlFlowGraph      Tag = "control-flow-graph"
	TagReachability          Tag = "reachability"
	TagDataFlow              Tag = "data-flow"
	TagConstantPropagation   Tag = "constant-propagation"
	TagOptimizationDiscovery Tag = "optimization-discovery"
)

// Pass is a single analysis over HIR. It declares its dependencies by tag,
// runs with read-only access to the HIR and its dependencies' outputs, and
// writes diagnostics into the shared context.
type Pass interface {
	Tag() Tag
	DependsOn() []Tag
	// Critical passes abort the pipeline if they return an error; later
	// passes of a non-critical pass still run even if it errors.
	Critical() bool
	Run(ctx *Context, program *hir.Program) (output any, err error)
}

// Context is shared across every pass run for one program. It is owned and
// mutated only by the Scheduler; passes see it through a read/write handle
// but never share it across programs.
type Context struct {
	Diagnostics diag.Bag
	outputs     map[Tag]any
}

func newContext() *Context {
	return &Context{outputs: make(map[Tag]any)}
}

// Output fetches a previously-run pass's output by tag. Ok is false if the
// tag never ran (it was not a declared dependency, or the pipeline aborted
// before reaching it).
func (c *Context) Output(tag Tag) (any, bool) {
	v, ok := c.outputs[tag]
	return v, ok
}

func (c *Context) setOutput(tag Tag, v any) { c.outputs[tag] = v }

// Pipeline is an ordered, scheduled set of passes ready to run against a
// single HIR program.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds a Pipeline from an unordered set of passes, scheduling
// them via Kahn's algorithm over their declared dependencies. A dependency
// cycle is a fatal configuration error (E100-pass-cycle), not a source-level
// diagnostic — it is returned directly rather than added to a Bag, since no
// program-specific Context exists yet.
func NewPipeline(passes []Pass) (*Pipeline, error) {
	byTag := make(map[Tag]Pass, len(passes))
	for _, p := range passes {
		byTag[p.Tag()] = p
	}

	indegree := make(map[Tag]int, len(passes))
	dependents := make(map[Tag][]Tag, len(passes))
	for _, p := range passes {
		if _, ok := indegree[p.Tag()]; !ok {
			indegree[p.Tag()] = 0
		}
		for _, dep := range p.DependsOn() {
			if _, ok := byTag[dep]; !ok {
				return nil, fmt.Errorf("%s: pass %q depends on unregistered pass %q", diag.CodePassCycle, p.Tag(), dep)
			}
			indegree[p.Tag()]++
			dependents[dep] = append(dependents[dep], p.Tag())
		}
	}

	var queue []Tag
	for _, p := range passes {
		if indegree[p.Tag()] == 0 {
			queue = append(queue, p.Tag())
		}
	}

	var order []Tag
	for len(queue) > 0 {
		tag := queue[0]
		queue = queue[1:]
		order = append(order, tag)
		for _, dep := range dependents[tag] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(passes) {
		return nil, fmt.Errorf("%s: dependency cycle detected among analysis passes", diag.CodePassCycle)
	}

	scheduled := make([]Pass, len(order))
	for i, tag := range order {
		scheduled[i] = byTag[tag]
	}
	return &Pipeline{passes: scheduled}, nil
}

// Run executes every pass in scheduled order against program. A critical
// pass's error aborts the pipeline immediately (its diagnostics up to that
// point are kept); a non-critical pass's error is recorded and the pipeline
// continues. A pass-run failure is reported under its own code, distinct
// from NewPipeline's scheduling-cycle failure, since the two causes are
// unrelated.
func (p *Pipeline) Run(program *hir.Program) *Context {
	ctx := newContext()
	for _, pass := range p.passes {
		out, err := pass.Run(ctx, program)
		if err != nil {
			ctx.Diagnostics.Add(diag.New(diag.Error, diag.CodePassFailure, err.Error(), source.Span{}))
			if pass.Critical() {
				break
			}
			continue
		}
		ctx.setOutput(pass.Tag(), out)
	}
	return ctx
}

// BuiltinPasses returns the six built-in passes, already in a valid
// dependency order for convenience (NewPipeline reschedules them
// regardless, so callers may reorder or subset this slice freely).
func BuiltinPasses() []Pass {
	return []Pass{
		&InstructionValidation{},
		&ControlFlowGraph{},
		&Reachability{},
		&DataFlow{},
		&ConstantPropagation{},
		&OptimizationDiscovery{},
	}
}
