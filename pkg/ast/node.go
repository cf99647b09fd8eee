// Package ast implements Crisp's AST lowerer and defdec/defmacro expansion
// (spec.md §4.4): CST → AST translation, literal decoding, and template
// expansion, run before semantic analysis.
package ast

import (
	"strings"

	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/source"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Kind is the closed set of AST node variants (spec.md §3): a simplified
// tagged variant over the same grammar as the CST, with no tokens and no
// parentheses.
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
	ActionCall // node-position (.member args)
	Literal
	MemberAccess
	BlackboardAccess
	BinaryExpr
	UnaryExpr
	LogicExpr
	CallExpr       // expression-position (.member args)
	DefdecCall     // pre-expansion only; gone from a tree after Expand succeeds
	MacroCall      // pre-expansion only; gone from an expression after Expand succeeds
	ParamRef       // a bare identifier inside a defdec/defmacro body, pre-expansion
	BodyPlaceholder // <body>, pre-expansion
)

// MemberPath is an ordered, non-empty sequence of segment strings
// (spec.md §3).
type MemberPath []string

func (p MemberPath) String() string { return strings.Join(p, ".") }

// ParallelPolicyKind is Parallel's closed policy set (spec.md §4.4).
type ParallelPolicyKind int

const (
	PolicyAny ParallelPolicyKind = iota
	PolicyAll
	PolicyN
)

type ParallelPolicy struct {
	Kind ParallelPolicyKind
	N    int
}

// Node is a single AST node. Unlike the CST, there is no token and no
// parenthesis bookkeeping; CstOrigin is the sole link back to source
// position, span, and node id (spec.md §3: "a back-reference to its
// originating CST node, which gives it a span and a node id").
//
// After defdec/defmacro expansion, every cloned node's CstOrigin is the
// *call site's* CST node (spec.md §4.4), not the definition's — so a single
// CstOrigin can be shared by many distinct *Node values. Go pointer
// identity of the *Node itself (not CstOrigin) is what the semantic model
// and IR lowerer use to key per-node side tables.
type Node struct {
	Kind      Kind
	CstOrigin *cst.Node
	Children  []*Node

	// TreeDef / Ref / DefdecCall / MacroCall / Defdec / Defmacro name;
	// ParamRef's referenced parameter name.
	Name string

	// TreeDef only.
	BlackboardType string

	// Literal only.
	LiteralType types.CrispType
	IntVal      int64
	FloatVal    float64
	BoolVal     bool
	StringVal   string
	EnumType    string
	EnumMember  string

	// MemberAccess / BlackboardAccess / ActionCall / CallExpr.
	Path MemberPath
	Args []*Node

	// BinaryExpr / UnaryExpr / LogicExpr.
	Op string

	// Parallel only.
	Policy ParallelPolicy

	// Repeat only.
	Count int

	// Import only.
	ImportPath string

	// Defdec / Defmacro only: the declared parameter names, in order.
	Params []string
}

// ID returns the stable node id this AST node reports to diagnostics and
// external consumers (spec.md §3): the originating CST node's id.
func (n *Node) ID() uint32 {
	if n.CstOrigin == nil {
		return 0
	}
	return n.CstOrigin.ID
}

// Span returns the originating CST node's span.
func (n *Node) Span() source.Span {
	if n.CstOrigin == nil {
		return source.Span{}
	}
	return n.CstOrigin.Span
}

// Walk visits n and every descendant, depth-first, pre-order, following
// both Children and Args (a call's arguments are as much a part of the
// tree as any composite's children).
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
	for _, a := range n.Args {
		a.Walk(fn)
	}
}

// IsExpr reports whether n belongs to the AST expression subset (spec.md
// §3: "literal, member-access, blackboard-access, binary-expr, unary-expr,
// logic-expr, call-expr"), plus a pre-expansion ParamRef.
func (n *Node) IsExpr() bool {
	switch n.Kind {
	case Literal, MemberAccess, BlackboardAccess, BinaryExpr, UnaryExpr, LogicExpr, CallExpr, ParamRef:
		return true
	default:
		return false
	}
}

func splitPath(text string) MemberPath {
	// text is either ".Foo.Bar" or "$.Foo.Bar"; strip any leading sigil then
	// split on '.', discarding the empty leading segment.
	i := strings.IndexByte(text, '.')
	if i < 0 {
		return nil
	}
	parts := strings.Split(text[i+1:], ".")
	return MemberPath(parts)
}

func splitEnum(text string) (typeName, member string) {
	body := strings.TrimPrefix(text, "::")
	if i := strings.IndexByte(body, '.'); i >= 0 {
		return body[:i], body[i+1:]
	}
	return body, ""
}
