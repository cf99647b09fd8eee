// Package ir implements Crisp's IR lowerer (C8, spec.md §4.6): AST → IR,
// preserving node ids and making every implicit numeric coercion explicit as
// a Convert node so the interpreter never has to re-derive one.
package ir

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Kind is IR's closed node variant set (spec.md §4.4's "IR node" entry):
// structural node kinds followed by expression kinds.
type Kind int

const (
	Tree Kind = iota
	Selector
	Sequence
	Parallel
	Condition
	Action
	Guard
	If
	Invert
	Repeat
	Timeout
	Cooldown
	While
	Reactive
	ReactiveSelect
	TreeRef

	Literal
	MemberLoad
	BlackboardLoad
	BinaryOp
	UnaryOp
	LogicOp
	Call
	Convert
)

// Node is a single IR node. Like ast.Node, it's a simplified tagged variant
// over a closed Kind set rather than one Go type per kind — structural
// fields and expression fields share one struct, each Kind using only the
// subset its grammar needs.
type Node struct {
	Kind  Kind
	AstID uint32 // originating AST node's id (spec.md §4.4: "every IR node also carries the originating node id")

	// Tree/Selector/Sequence/Parallel/ReactiveSelect: composite children.
	Children []*Node

	// Guard/If/While/Reactive/Condition: the boolean expression.
	Cond *Node

	// If only: the then branch and the optional else branch.
	Then, Else *Node

	// Guard/While/Reactive: the guarded/looped/reactive body.
	// Invert/Repeat: the wrapped body.
	// Timeout/Cooldown: the wrapped body.
	Body *Node

	Policy  ast.ParallelPolicy // Parallel only
	Count   int                // Repeat only: the grammar requires a literal here, so it's a plain constant
	Seconds *Node              // Timeout/Cooldown only: a full expression, re-evaluated once per tick

	TreeName string // TreeRef only

	// Action/Call: the resolved method symbol and its expression arguments.
	Method context.Member
	Args   []*Node

	// Literal only.
	LiteralType types.CrispType
	IntVal      int64
	FloatVal    float64
	BoolVal     bool
	StringVal   string

	// MemberLoad/BlackboardLoad.
	Path ast.MemberPath

	// BinaryOp/UnaryOp/LogicOp.
	Op       string
	Operands []*Node

	// Convert only.
	Operand    *Node
	TargetType types.CrispType
}
