// Package diag implements the diagnostic model shared by every stage of the
// toolchain: a structured error/warning/info record with a message, help
// text, severity, source spans and an ordered collection.
//
// No stage of the pipeline uses panics or Go errors to signal a source-level
// problem; everything goes through a Bag so that the driver can decide, once,
// whether the accumulated severity forbids proceeding.
package diag

import (
	"fmt"
	"io"

	"github.com/hadronomy/ram/source"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Stable diagnostic codes, grouped by category.
const (
	// Syntax (S0xx) — always recoverable.
	CodeUnexpectedToken  = "S001-unexpected-token"
	CodeUnterminatedList = "S002-unterminated-accessor"
	CodeTrailingGarbage  = "S003-trailing-garbage"

	// Resolution (E01x).
	CodeDuplicateLabel = "E010-duplicate-label"
	CodeUnknownLabel   = "E020-unknown-label"

	// Schema (E0xx).
	CodeUnknownInstruction = "E030-unknown-instruction"
	CodeImmediateTarget    = "E040-immediate-target"
	CodeJumpOutOfRange     = "E050-jump-oob"
	CodeBadOperandShape    = "E060-bad-operand-shape"

	// Pipeline (E1xx) — configuration bugs, not source errors.
	CodePassCycle   = "E100-pass-cycle"
	CodePassFailure = "E101-pass-failed"

	// Runtime (R0xx).
	CodeNegativeIndirect = "R010-neg-indirect"
	CodeDivByZero        = "R020-div-zero"
	CodeBadPC            = "R030-bad-pc"

	// Warnings (W0xx).
	CodeUnreachable = "W001-unreachable"

	// Info (I0xx).
	CodeDeadCode          = "I001-dead-code"
	CodeConstantFoldable  = "I002-constant-foldable"
	CodeJumpToNext        = "I003-jump-to-next"
	CodeRedundantStore    = "I004-redundant-store"
)

// Label attaches an optional note to a source span.
type Label struct {
	Span source.Span
	Note string
}

// Diagnostic is a single structured record.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Help     string
	Labels   []Label
}

// Primary returns the diagnostic's first (primary) span, if any.
func (d Diagnostic) Primary() (source.Span, bool) {
	if len(d.Labels) == 0 {
		return source.Span{}, false
	}
	return d.Labels[0].Span, true
}

// New builds a Diagnostic with a single primary span.
func New(sev Severity, code, message string, span source.Span) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  message,
		Labels:   []Label{{Span: span}},
	}
}

// WithHelp attaches help text and returns the (value-receiver) diagnostic.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// WithNote appends a related span with a note.
func (d Diagnostic) WithNote(span source.Span, note string) Diagnostic {
	d.Labels = append(d.Labels, Label{Span: span, Note: note})
	return d
}

// Bag is an ordered collection of diagnostics.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic, preserving insertion order.
func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

// Merge appends all diagnostics from other, in order.
func (b *Bag) Merge(other Bag) {
	b.items = append(b.items, other.items...)
}

// Len reports the number of diagnostics in the bag.
func (b *Bag) Len() int { return len(b.items) }

// Empty reports whether the bag has no diagnostics.
func (b *Bag) Empty() bool { return len(b.items) == 0 }

// All returns the diagnostics in insertion order. The caller must not mutate
// the returned slice.
func (b *Bag) All() []Diagnostic { return b.items }

// Filter returns the diagnostics at or above the given severity.
func (b *Bag) Filter(min Severity) []Diagnostic {
	out := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		if d.Severity >= min {
			out = append(out, d)
		}
	}
	return out
}

// MaxSeverity returns the highest severity present in the bag, or Info for an
// empty bag.
func (b *Bag) MaxSeverity() Severity {
	max := Info
	for _, d := range b.items {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max
}

// HasErrors reports whether the bag contains at least one Error diagnostic.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Render writes every diagnostic in b, in insertion order, in the form:
//
//	<severity>[<code>]: <message>
//	  --> <path>:<line>:<col>
//	  | <source line>
//	  | <caret underline>
//	  = help: <help>
func (b *Bag) Render(w io.Writer, db *source.Database) {
	for _, d := range b.items {
		renderOne(w, d, db)
	}
}

func renderOne(w io.Writer, d Diagnostic, db *source.Database) {
	fmt.Fprintf(w, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)
	if span, ok := d.Primary(); ok {
		line, col := db.LineCol(span.File, span.Start)
		fmt.Fprintf(w, "  --> %s:%d:%d\n", db.Name(span.File), line, col)
		if text, ok := db.LineText(span.File, line); ok {
			fmt.Fprintf(w, "  | %s\n", text)
			fmt.Fprintf(w, "  | %s\n", caretUnderline(text, col, span))
		}
	}
	for _, l := range d.Labels[1:] {
		if l.Note == "" {
			continue
		}
		line, col := db.LineCol(l.Span.File, l.Span.Start)
		fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", db.Name(l.Span.File), line, col, l.Note)
	}
	if d.Help != "" {
		fmt.Fprintf(w, "  = help: %s\n", d.Help)
	}
}

func caretUnderline(line string, col int, span source.Span) string {
	width := span.End - span.Start
	if width <= 0 {
		width = 1
	}
	buf := make([]byte, 0, col+width)
	for i := 0; i < col; i++ { // col is 0-based
		buf = append(buf, ' ')
	}
	for i := 0; i < width; i++ {
		buf = append(buf, '^')
	}
	return string(buf)
}
