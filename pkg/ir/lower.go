package ir

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/sema"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Lower runs C8 over one tree body (spec.md §4.6), using model's resolved
// symbols and inferred types — both populated by sema.Analyze — to pick the
// IR shape and to insert Convert nodes at every Int-to-Float coercion site.
func Lower(body *ast.Node, model *sema.Model) *Node {
	l := &lowerer{model: model}
	return l.lowerNode(body)
}

// LowerTree lowers an entire ast.TreeDef into one IR Tree node, preserving
// the tree's own AST node id. Each body statement becomes a direct child of
// the Tree node; the interpreter ticks them in order and returns the last
// one's status.
func LowerTree(tree *ast.Node, model *sema.Model) *Node {
	l := &lowerer{model: model}
	out := &Node{Kind: Tree, AstID: tree.ID(), TreeName: tree.Name}
	for _, b := range tree.Children {
		out.Children = append(out.Children, l.lowerNode(b))
	}
	return out
}

type lowerer struct {
	model *sema.Model
}

func (l *lowerer) lowerNode(n *ast.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.Select:
		return &Node{Kind: Selector, AstID: n.ID(), Children: l.lowerNodes(n.Children)}
	case ast.Seq:
		return &Node{Kind: Sequence, AstID: n.ID(), Children: l.lowerNodes(n.Children)}
	case ast.ReactiveSelect:
		return &Node{Kind: ReactiveSelect, AstID: n.ID(), Children: l.lowerNodes(n.Children)}
	case ast.Parallel:
		return &Node{Kind: Parallel, AstID: n.ID(), Policy: n.Policy, Children: l.lowerNodes(n.Children)}

	case ast.Check:
		return &Node{Kind: Condition, AstID: n.ID(), Cond: l.lowerExpr(n.Children[0])}

	case ast.Guard:
		return &Node{Kind: Guard, AstID: n.ID(), Cond: l.lowerExpr(n.Children[0]), Body: l.lowerNode(n.Children[1])}
	case ast.While:
		return &Node{Kind: While, AstID: n.ID(), Cond: l.lowerExpr(n.Children[0]), Body: l.lowerNode(n.Children[1])}
	case ast.Reactive:
		return &Node{Kind: Reactive, AstID: n.ID(), Cond: l.lowerExpr(n.Children[0]), Body: l.lowerNode(n.Children[1])}

	case ast.If:
		out := &Node{Kind: If, AstID: n.ID(), Cond: l.lowerExpr(n.Children[0]), Then: l.lowerNode(n.Children[1])}
		if len(n.Children) > 2 {
			out.Else = l.lowerNode(n.Children[2])
		}
		return out

	case ast.Invert:
		return &Node{Kind: Invert, AstID: n.ID(), Body: l.lowerNode(n.Children[0])}
	case ast.Repeat:
		return &Node{Kind: Repeat, AstID: n.ID(), Count: n.Count, Body: l.lowerNode(n.Children[0])}

	case ast.Timeout:
		return &Node{Kind: Timeout, AstID: n.ID(), Seconds: l.lowerExpr(n.Children[0]), Body: l.lowerNode(n.Children[1])}
	case ast.Cooldown:
		return &Node{Kind: Cooldown, AstID: n.ID(), Seconds: l.lowerExpr(n.Children[0]), Body: l.lowerNode(n.Children[1])}

	case ast.ActionCall:
		return &Node{Kind: Action, AstID: n.ID(), Method: l.symbolOf(n), Args: l.lowerArgs(n, n.Args)}

	case ast.Ref:
		return &Node{Kind: TreeRef, AstID: n.ID(), TreeName: n.Name}

	default: // Import, or a recovered error/missing node: a ref to the placeholder name "<error>", which fails with a runtime error if ticked
		return &Node{Kind: TreeRef, AstID: n.ID(), TreeName: "<error>"}
	}
}

func (l *lowerer) lowerNodes(ns []*ast.Node) []*Node {
	out := make([]*Node, 0, len(ns))
	for _, n := range ns {
		out = append(out, l.lowerNode(n))
	}
	return out
}

func (l *lowerer) symbolOf(n *ast.Node) context.Member {
	if sym, ok := l.model.Symbol(n); ok {
		return sym.Member
	}
	return context.Member{}
}

// resolvedPathOf returns a member/blackboard access's path rewritten to the
// exact Go member name each segment resolved to, so the interpreter can walk
// it by direct name lookup instead of re-running candidate matching against
// live values at tick time. Falls back to the source path verbatim if
// resolution never reached this node (already reported upstream).
func (l *lowerer) resolvedPathOf(n *ast.Node) ast.MemberPath {
	if sym, ok := l.model.Symbol(n); ok && len(sym.ResolvedPath) > 0 {
		return sym.ResolvedPath
	}
	return n.Path
}

// lowerArgs lowers a call's argument expressions, wrapping any argument
// inferred as Int against a Float-declared parameter in an explicit Convert
// (spec.md §4.6's "implicit numeric coercion").
func (l *lowerer) lowerArgs(call *ast.Node, args []*ast.Node) []*Node {
	sym, _ := l.model.Symbol(call)
	out := make([]*Node, 0, len(args))
	for i, a := range args {
		lowered := l.lowerExpr(a)
		if i < len(sym.Member.ParamTypes) && sym.Member.ParamTypes[i].IsFloat() && l.model.Type(a).IsInt() {
			lowered = &Node{Kind: Convert, AstID: a.ID(), Operand: lowered, TargetType: types.Float}
		}
		out = append(out, lowered)
	}
	return out
}

func (l *lowerer) lowerExpr(n *ast.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ast.Literal:
		return &Node{
			Kind: Literal, AstID: n.ID(), LiteralType: n.LiteralType,
			IntVal: n.IntVal, FloatVal: n.FloatVal, BoolVal: n.BoolVal, StringVal: n.StringVal,
		}

	case ast.MemberAccess:
		return &Node{Kind: MemberLoad, AstID: n.ID(), Path: l.resolvedPathOf(n)}
	case ast.BlackboardAccess:
		return &Node{Kind: BlackboardLoad, AstID: n.ID(), Path: l.resolvedPathOf(n)}

	case ast.BinaryExpr:
		return l.lowerBinary(n)
	case ast.UnaryExpr:
		return &Node{Kind: UnaryOp, AstID: n.ID(), Op: n.Op, Operands: []*Node{l.lowerExpr(n.Children[0])}}
	case ast.LogicExpr:
		return &Node{Kind: LogicOp, AstID: n.ID(), Op: n.Op, Operands: l.lowerExprs(n.Children)}

	case ast.CallExpr:
		return &Node{Kind: Call, AstID: n.ID(), Method: l.symbolOf(n), Args: l.lowerArgs(n, n.Args)}

	default: // ParamRef or another leftover pre-expansion node: already errored upstream
		return &Node{Kind: Literal, AstID: n.ID(), LiteralType: types.Error}
	}
}

// lowerBinary lowers a binary expression, inserting Convert around whichever
// operand is Int when its sibling is Float (spec.md §4.6).
func (l *lowerer) lowerBinary(n *ast.Node) *Node {
	lhsT, rhsT := l.model.Type(n.Children[0]), l.model.Type(n.Children[1])
	lhs, rhs := l.lowerExpr(n.Children[0]), l.lowerExpr(n.Children[1])
	mixed := lhsT.IsNumeric() && rhsT.IsNumeric() && (lhsT.IsFloat() != rhsT.IsFloat())
	if mixed {
		if lhsT.IsInt() {
			lhs = &Node{Kind: Convert, AstID: n.Children[0].ID(), Operand: lhs, TargetType: types.Float}
		}
		if rhsT.IsInt() {
			rhs = &Node{Kind: Convert, AstID: n.Children[1].ID(), Operand: rhs, TargetType: types.Float}
		}
	}
	return &Node{Kind: BinaryOp, AstID: n.ID(), Op: n.Op, Operands: []*Node{lhs, rhs}}
}

func (l *lowerer) lowerExprs(ns []*ast.Node) []*Node {
	out := make([]*Node, 0, len(ns))
	for _, n := range ns {
		out = append(out, l.lowerExpr(n))
	}
	return out
}
