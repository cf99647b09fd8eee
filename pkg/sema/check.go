package sema

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Check runs C7, top-down type checking, over every tree in prog. It must
// run after Resolve and Infer, reading both model maps they populated.
func Check(prog *ast.Node, model *Model, bag *diag.Bag) {
	c := &checker{model: model, diag: bag}
	for _, t := range prog.Children {
		if t.Kind != ast.TreeDef {
			continue
		}
		for _, body := range t.Children {
			c.checkNode(body)
			body.Walk(c.checkNullSafety)
		}
	}
}

type checker struct {
	model *Model
	diag  *diag.Bag
}

func (c *checker) checkNode(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.ActionCall:
		c.requireBtResult(n)
		c.checkArgs(n)

	case ast.Select:
		c.checkReachability(n.Children, true)
	case ast.Seq:
		c.checkReachability(n.Children, false)
	case ast.ReactiveSelect:
		c.checkReachability(n.Children, true)
	case ast.Parallel:
		for _, ch := range n.Children {
			c.checkNode(ch)
		}

	case ast.Check:
		c.requireBool(n.Children[0])
		c.checkNullCheckRedundant(n.Children[0])

	case ast.Guard:
		c.requireBool(n.Children[0])
		c.checkNullCheckRedundant(n.Children[0])
		c.checkNode(n.Children[1])
	case ast.While:
		c.requireBool(n.Children[0])
		c.checkNullCheckRedundant(n.Children[0])
		c.checkNode(n.Children[1])
	case ast.Reactive:
		c.requireBool(n.Children[0])
		c.checkNullCheckRedundant(n.Children[0])
		c.checkNode(n.Children[1])

	case ast.If:
		c.requireBool(n.Children[0])
		c.checkNullCheckRedundant(n.Children[0])
		c.checkNode(n.Children[1])
		if len(n.Children) > 2 {
			c.checkNode(n.Children[2])
		} else {
			c.diag.Add("if-without-else", n.Span())
		}

	case ast.Invert, ast.Repeat:
		c.checkNode(n.Children[0])

	case ast.Timeout, ast.Cooldown:
		c.checkNode(n.Children[1])

	default: // Ref, Import, or a recovered error/missing node
	}
}

// checkNullSafety implements the "Nullable" half of spec.md §4.9: it reports
// dereference-possibly-null wherever a resolved path navigated through an
// Annotated-nullable segment, and compare-null-always-true/false wherever an
// equality test compares a never-null member against the null literal. It is
// walked over every node and argument in a tree (ast.Node.Walk), independent
// of checkNode's structural recursion, since any MemberPath-bearing
// expression can carry a nullability fact regardless of its position.
func (c *checker) checkNullSafety(n *ast.Node) bool {
	if n == nil {
		return true
	}
	switch n.Kind {
	case ast.MemberAccess, ast.BlackboardAccess, ast.ActionCall, ast.CallExpr:
		if sym, ok := c.model.Symbol(n); ok && sym.NullableDeref != "" {
			c.diag.Add("dereference-possibly-null", n.Span(), sym.NullableDeref)
		}
	case ast.BinaryExpr:
		c.checkNullComparison(n)
	}
	return true
}

// checkNullComparison reports compare-null-always-true/false when a `==`/`!=`
// comparison pits the null literal against a member the descriptor declares
// NotAnnotated (i.e. the host guarantees it is never null), so one branch of
// the comparison is statically dead.
func (c *checker) checkNullComparison(n *ast.Node) {
	operand, op, ok := nullComparisonOperand(n)
	if !ok {
		return
	}
	sym, ok := c.model.Symbol(operand)
	if !ok || sym.Member.Nullable != context.NotAnnotated {
		return
	}
	if op == "==" {
		c.diag.Add("compare-null-always-false", n.Span())
	} else {
		c.diag.Add("compare-null-always-true", n.Span())
	}
}

// checkNullCheckRedundant reports null-check-unnecessary when a node's own
// boolean condition (not merely some nested subexpression) is itself a null
// comparison against a NotAnnotated member: the guard/check/if/while/reactive
// it gates can never actually branch on nullness.
func (c *checker) checkNullCheckRedundant(cond *ast.Node) {
	operand, _, ok := nullComparisonOperand(cond)
	if !ok {
		return
	}
	sym, ok := c.model.Symbol(operand)
	if !ok || sym.Member.Nullable != context.NotAnnotated {
		return
	}
	c.diag.Add("null-check-unnecessary", cond.Span(), operand.Path.String())
}

// nullComparisonOperand reports whether n is an `expr == null` / `expr !=
// null` comparison (in either operand order), returning the non-null operand
// and the comparison operator.
func nullComparisonOperand(n *ast.Node) (operand *ast.Node, op string, ok bool) {
	if n.Kind != ast.BinaryExpr || (n.Op != "==" && n.Op != "!=") {
		return nil, "", false
	}
	l, r := n.Children[0], n.Children[1]
	if isNullLiteral(l) {
		return r, n.Op, true
	}
	if isNullLiteral(r) {
		return l, n.Op, true
	}
	return nil, "", false
}

func isNullLiteral(n *ast.Node) bool {
	return n.Kind == ast.Literal && n.LiteralType.IsNull()
}

func (c *checker) requireBool(expr *ast.Node) {
	t := c.model.Type(expr)
	if t.IsError() || t.IsUnknown() {
		return
	}
	if !t.IsBool() {
		c.diag.Add("bool-required", expr.Span(), t.String())
	}
}

// requireBtResult enforces spec.md §4.5: an action call (node position)
// must resolve to a method returning BtStatus or BtNode.
func (c *checker) requireBtResult(call *ast.Node) {
	sym, ok := c.model.Symbol(call)
	if !ok {
		return // unresolved: member-not-found already reported by Resolve
	}
	if !sym.Member.DeclaredType.IsBtResult() {
		c.diag.Add("btstatus-required", call.Span(), call.Path.String())
	}
}

// checkArgs enforces assignability of each resolved call's arguments to its
// matching parameter's declared type.
func (c *checker) checkArgs(call *ast.Node) {
	sym, ok := c.model.Symbol(call)
	if !ok {
		return
	}
	for i, arg := range call.Args {
		if i >= len(sym.Member.ParamTypes) {
			return // arity mismatch already reported by Resolve
		}
		argType := c.model.Type(arg)
		if argType.IsError() || argType.IsUnknown() {
			continue
		}
		want := sym.Member.ParamTypes[i]
		if !argType.AssignableTo(want) {
			c.diag.Add("argument-type-mismatch", arg.Span(), i+1, call.Path.String(), want.String(), argType.String())
		}
	}
}

// checkReachability implements spec.md §4.5's reachability analysis: once a
// statically-true `check` (in a selector) or statically-false `check` (in a
// sequence) is found among children, the sibling right after it is reported
// unreachable and scanning stops; siblings after that one are neither
// reported nor checked.
func (c *checker) checkReachability(children []*ast.Node, selector bool) {
	for i, child := range children {
		c.checkNode(child)
		if isStaticTerminator(child, selector) {
			if i+1 < len(children) {
				c.diag.Add("unreachable-node", children[i+1].Span(), formName(selector))
			}
			return
		}
	}
}

func formName(selector bool) string {
	if selector {
		return "selector"
	}
	return "sequence"
}

// isStaticTerminator reports whether child is a `check` of a boolean
// literal whose value statically ends the enclosing selector (check true)
// or sequence (check false).
func isStaticTerminator(child *ast.Node, selector bool) bool {
	if child.Kind != ast.Check {
		return false
	}
	lit := child.Children[0]
	if lit.Kind != ast.Literal || !lit.LiteralType.Equal(types.Bool) {
		return false
	}
	if selector {
		return lit.BoolVal
	}
	return !lit.BoolVal
}
