package regex

import (
	"fmt"
	"strings"

	"github.com/coregx/nfavm/nfa"
)

// NodeType discriminates parser AST nodes.
type NodeType uint8

const (
	// NodeRange matches one byte in an inclusive range.
	NodeRange NodeType = iota
	// NodeBrackets is a bracket expression; its children are NodeRange
	// or NodeClass, sorted and (for [^...]) complemented at parse time.
	NodeBrackets
	// NodeAtom is a literal (possibly multibyte) rune.
	NodeAtom
	// NodeClass is a named class with negation/frontier modifiers.
	NodeClass
	// NodeCapture wraps one child in a capture group.
	NodeCapture
	// NodeRepeat repeats its single child.
	NodeRepeat
	// NodeBranch is an ordered concatenation.
	NodeBranch
	// NodeAlternation is an ordered list of alternatives.
	NodeAlternation
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case NodeRange:
		return "range"
	case NodeBrackets:
		return "brackets"
	case NodeAtom:
		return "atom"
	case NodeClass:
		return "class"
	case NodeCapture:
		return "capture"
	case NodeRepeat:
		return "repeat"
	case NodeBranch:
		return "branch"
	case NodeAlternation:
		return "alternation"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// EscKind records how an atom arrived in the pattern text.
type EscKind uint8

const (
	// EscNone is a plain character.
	EscNone EscKind = iota
	// EscSubst is a recognized escape whose substitution was applied.
	EscSubst
	// EscRaw is an unrecognized escape passed through literally.
	EscRaw
)

// RangeArg bounds a NodeRange, inclusive on both ends.
type RangeArg struct {
	Min, Max rune
}

// ClassArg configures a NodeClass.
type ClassArg struct {
	CClass   nfa.CClass
	Neg      bool
	Frontier bool
}

// AtomArg carries a NodeAtom's rune and how it was spelled.
type AtomArg struct {
	R   rune
	Esc EscKind
}

// RepeatArg bounds a NodeRepeat. Max < 0 means unbounded.
type RepeatArg struct {
	Min, Max  int
	Reluctant bool
}

// Unbounded reports whether the repetition has no upper bound.
func (r RepeatArg) Unbounded() bool {
	return r.Max < 0
}

// Node is a parser AST node: a type tag, the source span that produced
// it, an owning ordered child list, and type-specific arguments.
type Node struct {
	Type     NodeType
	Text     nfa.Span
	Children []*Node

	Range   RangeArg
	Class   ClassArg
	Atom    AtomArg
	Repeat  RepeatArg
	Capture int
}

func newNode(t NodeType) *Node {
	return &Node{Type: t}
}

func (n *Node) push(child *Node) {
	n.Children = append(n.Children, child)
}

// Sexpr writes an s-expression rendering of the tree, for debug logs.
func (n *Node) Sexpr(b *strings.Builder) {
	if n == nil {
		b.WriteString("()")
		return
	}

	doParens := len(n.Children) > 0 || n.Type == NodeRepeat
	wantSpace := true

	if doParens {
		b.WriteByte('(')
	}

	switch n.Type {
	case NodeRange:
		nfa.DescRange(b, n.Range.Min, n.Range.Max)
	case NodeAtom, NodeClass, NodeBrackets:
		b.WriteByte('\'')
		b.WriteString(n.Text.Text())
		b.WriteByte('\'')
	case NodeRepeat:
		b.WriteByte('{')
		if n.Repeat.Min != 0 {
			fmt.Fprintf(b, "%d", n.Repeat.Min)
		}
		b.WriteByte(',')
		if !n.Repeat.Unbounded() {
			fmt.Fprintf(b, "%d", n.Repeat.Max)
		}
		b.WriteByte('}')
	case NodeCapture:
		fmt.Fprintf(b, "capture %d", n.Capture)
	case NodeBranch:
		wantSpace = false
	case NodeAlternation:
		b.WriteString(n.Text.Text())
	default:
		b.WriteString("<invalid>")
	}

	for _, child := range n.Children {
		if wantSpace {
			b.WriteByte(' ')
		}
		child.Sexpr(b)
		wantSpace = true
	}

	if doParens {
		b.WriteByte(')')
	}
}

// String returns the s-expression rendering of the tree.
func (n *Node) String() string {
	var b strings.Builder
	n.Sexpr(&b)
	return b.String()
}
