package syntax

import (
	"github.com/hadronomy/ram/lex"
	"github.com/hadronomy/ram/source"
)

// Program is the trivia-suppressed, typed view over a parsed Tree's ROOT
// node. It borrows the CST and must not outlive it.
type Program struct{ node *Node }

// NewProgram builds the AST view over a parsed Tree.
func NewProgram(tree *Tree) Program { return Program{tree.Root} }

// Lines returns every line of the program, in source order.
func (p Program) Lines() []Line {
	var out []Line
	for _, n := range p.node.ChildNodes(LINE) {
		out = append(out, Line{n})
	}
	return out
}

// Line is one line of the program: an optional label definition, an
// optional instruction, and (ignored by this view) an optional comment.
type Line struct{ node *Node }

// Label returns the line's label definition, if any.
func (l Line) Label() (Label, bool) {
	n, ok := l.node.FirstChildNode(LABEL_DEF)
	if !ok {
		return Label{}, false
	}
	return Label{n}, true
}

// Instruction returns the line's instruction, if any.
func (l Line) Instruction() (Instruction, bool) {
	n, ok := l.node.FirstChildNode(INSTRUCTION)
	if !ok {
		return Instruction{}, false
	}
	return Instruction{n}, true
}

// Span returns the full source span of the line, trailing newline included.
func (l Line) Span() source.Span { return l.node.Span() }

// Label is a named position preceding an instruction.
type Label struct{ node *Node }

// Name returns the label's identifier text.
func (l Label) Name() string {
	for _, c := range l.node.Children {
		if lf, ok := c.(Leaf); ok && lf.Token.Kind == lex.IDENT {
			return lf.Text
		}
	}
	return ""
}

// Span returns the label definition's full span, including the trailing ':'.
func (l Label) Span() source.Span { return l.node.Span() }

// NameSpan returns just the identifier's span, used to point diagnostics at
// the label name rather than the whole definition.
func (l Label) NameSpan() source.Span {
	for _, c := range l.node.Children {
		if lf, ok := c.(Leaf); ok && lf.Token.Kind == lex.IDENT {
			return lf.Token.Span
		}
	}
	return l.node.Span()
}

// Instruction is an opcode identifier plus an optional operand.
type Instruction struct{ node *Node }

// Opcode returns the instruction's raw (case-preserving) opcode text.
func (i Instruction) Opcode() string {
	for _, c := range i.node.Children {
		if lf, ok := c.(Leaf); ok && lf.Token.Kind == lex.IDENT {
			return lf.Text
		}
	}
	return ""
}

// OpcodeSpan returns the span of the opcode identifier.
func (i Instruction) OpcodeSpan() source.Span {
	for _, c := range i.node.Children {
		if lf, ok := c.(Leaf); ok && lf.Token.Kind == lex.IDENT {
			return lf.Token.Span
		}
	}
	return i.node.Span()
}

// Operand returns the instruction's operand, if any.
func (i Instruction) Operand() (Operand, bool) {
	opNode, ok := i.node.FirstChildNode(OPERAND)
	if !ok {
		return Operand{}, false
	}
	return operandOf(opNode)
}

// Span returns the instruction's full span.
func (i Instruction) Span() source.Span { return i.node.Span() }

func operandOf(wrapper *Node) (Operand, bool) {
	for _, c := range wrapper.Children {
		if cn, ok := c.(*Node); ok {
			switch cn.Kind {
			case IMMEDIATE, INDIRECT, DIRECT, LABEL_REF:
				return Operand{cn}, true
			}
		}
	}
	return Operand{}, false
}

// OperandKind is the closed set of operand shapes.
type OperandKind int

const (
	OpImmediate OperandKind = iota
	OpDirect
	OpIndirect
	OpLabelRef
)

func (k OperandKind) String() string {
	switch k {
	case OpImmediate:
		return "immediate"
	case OpDirect:
		return "direct"
	case OpIndirect:
		return "indirect"
	default:
		return "label_ref"
	}
}

// Operand is a tagged variant over the four operand shapes, modeled as a
// closed set of kinds rather than an interface hierarchy.
type Operand struct{ node *Node }

// Kind reports which of the four shapes this operand is.
func (o Operand) Kind() OperandKind {
	switch o.node.Kind {
	case IMMEDIATE:
		return OpImmediate
	case INDIRECT:
		return OpIndirect
	case LABEL_REF:
		return OpLabelRef
	default:
		return OpDirect
	}
}

// Span returns the operand's full span.
func (o Operand) Span() source.Span { return o.node.Span() }

// Number returns the operand's NUMBER literal (the value for Immediate and
// Indirect, the base register for Direct). Not valid for LabelRef.
func (o Operand) Number() (int64, bool) {
	for _, c := range o.node.Children {
		if lf, ok := c.(Leaf); ok && lf.Token.Kind == lex.NUMBER {
			return lf.Token.Value, true
		}
	}
	return 0, false
}

// LabelName returns the referenced label's name. Only valid for LabelRef.
func (o Operand) LabelName() (string, bool) {
	if o.node.Kind != LABEL_REF {
		return "", false
	}
	for _, c := range o.node.Children {
		if lf, ok := c.(Leaf); ok && lf.Token.Kind == lex.IDENT {
			return lf.Text, true
		}
	}
	return "", false
}

// Accessor returns the array index attached to a Direct operand, if any.
// Only Direct operands may carry one.
func (o Operand) Accessor() (Index, bool) {
	if o.node.Kind != DIRECT {
		return Index{}, false
	}
	accNode, ok := o.node.FirstChildNode(ACCESSOR)
	if !ok {
		return Index{}, false
	}
	idxNode, ok := accNode.FirstChildNode(INDEX)
	if !ok {
		return Index{}, false
	}
	op, ok := operandOf(idxNode)
	if !ok {
		return Index{}, false
	}
	return Index{op}, true
}

// Index is the computed-offset operand inside an accessor: immediate,
// indirect or direct — never a label reference.
type Index struct{ Operand }
