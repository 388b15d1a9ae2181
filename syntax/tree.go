package syntax

import (
	"strings"

	"github.com/hadronomy/ram/lex"
	"github.com/hadronomy/ram/source"
)

// Element is either a *Node or a Leaf. The set is closed: Leaf and *Node are
// the only implementations, dispatched on a type switch rather than a
// method — the CST is a tree walked occasionally, not a hot-path value, so a
// closed interface reads better here than a tagged struct (contrast with
// hir.Operand, which is on the VM's hot path).
type Element interface {
	Span() source.Span
	leaves(out *[]Leaf)
}

// Leaf is a single token attached as a child of a CST node, carrying its own
// source text so the tree can be reconstructed without a back-reference to
// the source database.
type Leaf struct {
	Token lex.Token
	Text  string
}

// Span implements Element.
func (l Leaf) Span() source.Span { return l.Token.Span }

func (l Leaf) leaves(out *[]Leaf) { *out = append(*out, l) }

// Node is a single CST tree node. Children hold back-references resolvable
// only by traversal; the tree has no cycles and the ROOT node exclusively
// owns its descendants.
type Node struct {
	Kind     NodeKind
	Children []Element
	Message  string // set on ERROR nodes: the diagnostic message for this span
}

// Span implements Element: the node's span is the union of its children's
// spans, i.e. from the start of the first leaf to the end of the last.
func (n *Node) Span() source.Span {
	if len(n.Children) == 0 {
		return source.Span{}
	}
	first := n.Children[0].Span()
	last := n.Children[len(n.Children)-1].Span()
	return source.Span{File: first.File, Start: first.Start, End: last.End}
}

func (n *Node) leaves(out *[]Leaf) {
	for _, c := range n.Children {
		c.leaves(out)
	}
}

// Leaves returns every leaf token under n, in order.
func (n *Node) Leaves() []Leaf {
	var out []Leaf
	n.leaves(&out)
	return out
}

// Text reconstructs the exact source text covered by n by concatenating its
// leaves. For a well-formed tree built by Parse, Tree.Root.Text() equals the
// original input.
func (n *Node) Text() string {
	var b strings.Builder
	for _, l := range n.Leaves() {
		b.WriteString(l.Text)
	}
	return b.String()
}

// ChildNodes returns the *Node children of n with the given kind, in order.
func (n *Node) ChildNodes(kind NodeKind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if cn, ok := c.(*Node); ok && cn.Kind == kind {
			out = append(out, cn)
		}
	}
	return out
}

// FirstChildNode returns the first *Node child with the given kind, if any.
func (n *Node) FirstChildNode(kind NodeKind) (*Node, bool) {
	for _, c := range n.Children {
		if cn, ok := c.(*Node); ok && cn.Kind == kind {
			return cn, true
		}
	}
	return nil, false
}

// Tokens returns the Leaf children of n (direct children only, not
// recursive) whose token kind matches.
func (n *Node) Tokens(kind lex.Kind) []Leaf {
	var out []Leaf
	for _, c := range n.Children {
		if l, ok := c.(Leaf); ok && l.Token.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Tree is the result of parsing a single file: its CST root plus the
// diagnostics emitted while building it.
type Tree struct {
	File source.FileID
	Root *Node
}
