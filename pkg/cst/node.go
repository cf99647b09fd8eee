// Package cst implements Crisp's lossless concrete syntax tree and the
// hand-written recursive-descent parser that produces it (spec.md §3, §4.3).
package cst

import (
	"github.com/crisp-lang/crisp/pkg/source"
	"github.com/crisp-lang/crisp/pkg/token"
)

// Kind is the closed set of CST node variants (spec.md §3).
type Kind int

const (
	Program Kind = iota
	TreeDef
	Select
	Seq
	Parallel
	Check
	Guard
	If
	Invert
	Repeat
	Timeout
	Cooldown
	While
	Reactive
	ReactiveSelect
	Ref
	Import
	Defdec
	Defmacro
	DefdecCall // (name arg* body-node), resolved against the defdec table
	MacroCall  // (name arg*) in expression position, resolved against the defmacro table
	ParamList  // the (params…) list inside defdec/defmacro
	Call       // (.member arg*) in node position, or in expression position
	MemberAccessExpr // bare .member in expression position (and node position: zero-arg call)
	BlackboardAccessExpr
	IntLit
	FloatLit
	BoolLit
	StringLit
	NullLit
	EnumLit
	BinaryExpr
	UnaryExpr
	LogicExpr
	BodyPlaceholder
	KeywordArg // :all, :n, :blackboard — a policy/option marker
	Identifier // a bare identifier appearing as e.g. a tree/defdec/param name
	Missing    // CstMissing: a fabricated zero-width placeholder of an expected kind
	ErrorNode  // CstError: a run of tokens the parser couldn't align, wrapped up
)

// Node is a single CST node. Crisp models the "tagged variant over the
// grammar" as one struct carrying a Kind discriminator plus small auxiliary
// fields, rather than one Go type per grammar production — the concrete
// syntax tree is otherwise structurally identical regardless of which
// approach is used, and a single type keeps node-id bookkeeping, span
// unioning, and the parser's error-recovery paths (which must produce
// Missing/ErrorNode nodes generically) in one place.
//
// Invariant (spec.md §3): two Nodes have equal ID iff they are the same
// Node pointer; Span is the union of every child's Span (or the bounding
// token's span, for leaves).
type Node struct {
	ID       uint32
	Kind     Kind
	Span     source.Span
	Tok      *token.Token // non-nil for leaf/terminal-bearing nodes
	Children []*Node

	// Text carries small per-kind auxiliary data that isn't itself a child
	// node: the operator for BinaryExpr/UnaryExpr/LogicExpr ("==" for an
	// equality token), the head name for Call/DefdecCall/MacroCall, the
	// expected kind name for Missing. Keyword-headed node-position forms
	// and Parallel leave it empty; Parallel's policy is a KeywordArg child.
	Text string
}

// NewLeaf builds a leaf CST node wrapping a single token.
func NewLeaf(kind Kind, tok *token.Token) *Node {
	return &Node{Kind: kind, Span: tok.Span, Tok: tok, Text: tok.Text}
}

// NewMissing builds a CstMissing placeholder for an expected token kind,
// zero-width at the given offset (spec.md §4.3 error recovery).
func NewMissing(expected string, at uint32) *Node {
	return &Node{Kind: Missing, Span: source.NewSpan(at, at), Text: expected}
}

// AddChild appends a child and extends this node's span to cover it.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
	n.Span = n.Span.Union(child.Span)
}

// Walk visits n and every descendant, depth-first, pre-order. fn returning
// false skips n's children (but Walk still continues with n's siblings via
// the caller's own loop).
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// FindDeepestNode returns the innermost node whose span contains offset
// (spec.md §4.1).
func FindDeepestNode(root *Node, offset uint32) *Node {
	if root == nil || !spanContainsOrTouchesEnd(root.Span, offset) {
		return nil
	}
	best := root
	for _, c := range root.Children {
		if found := FindDeepestNode(c, offset); found != nil {
			best = found
		}
	}
	return best
}

// FindTokenAt returns the innermost leaf token whose span contains offset.
func FindTokenAt(root *Node, offset uint32) *token.Token {
	n := FindDeepestNode(root, offset)
	for n != nil {
		if n.Tok != nil {
			return n.Tok
		}
		var next *Node
		for _, c := range n.Children {
			if spanContainsOrTouchesEnd(c.Span, offset) {
				next = c
				break
			}
		}
		n = next
	}
	return nil
}

// spanContainsOrTouchesEnd matches span.start <= offset < span.end, with a
// one-past-the-end allowance so offsets exactly at EOF still resolve within
// an empty trailing span (e.g. the Program node covering a zero-length
// file).
func spanContainsOrTouchesEnd(s source.Span, offset uint32) bool {
	if s.Length == 0 {
		return offset == s.Start
	}
	return s.Contains(offset)
}

// AssignNodeIDs performs the single depth-first, document-order walk that
// assigns node ids after parsing completes (spec.md §4.3): 0 at the program,
// monotonically increasing among siblings in source order.
func AssignNodeIDs(root *Node) {
	var next uint32
	root.Walk(func(n *Node) bool {
		n.ID = next
		next++
		return true
	})
}
