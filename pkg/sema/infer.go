package sema

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Infer runs C6, bottom-up type inference, over every expression reachable
// from prog's trees, per spec.md §4.5's rule table. It must run after
// Resolve, since member-access and call typing reads the symbols Resolve
// recorded in model.
func Infer(prog *ast.Node, model *Model, bag *diag.Bag) {
	inf := &inferer{model: model, diag: bag}
	for _, c := range prog.Children {
		if c.Kind != ast.TreeDef {
			continue
		}
		for _, body := range c.Children {
			inf.visitNode(body)
		}
	}
}

type inferer struct {
	model *Model
	diag  *diag.Bag
}

// visitNode walks node-position subtrees purely to reach their expression
// slots; inference itself only produces types for expressions.
func (inf *inferer) visitNode(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.ActionCall:
		for _, a := range n.Args {
			inf.visitExpr(a)
		}
	case ast.Select, ast.Seq, ast.ReactiveSelect, ast.Parallel:
		for _, c := range n.Children {
			inf.visitNode(c)
		}
	case ast.Check:
		inf.visitExpr(n.Children[0])
	case ast.Guard, ast.While, ast.Reactive:
		inf.visitExpr(n.Children[0])
		inf.visitNode(n.Children[1])
	case ast.If:
		inf.visitExpr(n.Children[0])
		inf.visitNode(n.Children[1])
		if len(n.Children) > 2 {
			inf.visitNode(n.Children[2])
		}
	case ast.Invert, ast.Repeat:
		inf.visitNode(n.Children[0])
	case ast.Timeout, ast.Cooldown:
		inf.visitExpr(n.Children[0])
		inf.visitNode(n.Children[1])
	default:
	}
}

// visitExpr infers n's type bottom-up (visiting subexpressions first) and
// records it in the model, per spec.md §4.5's rule table.
func (inf *inferer) visitExpr(n *ast.Node) types.CrispType {
	if n == nil {
		return types.Unknown
	}
	var t types.CrispType
	switch n.Kind {
	case ast.Literal:
		t = inf.literalType(n)

	case ast.MemberAccess, ast.BlackboardAccess:
		if sym, ok := inf.model.Symbol(n); ok {
			t = sym.Member.DeclaredType
		} else {
			t = types.Error
		}

	case ast.CallExpr:
		for _, a := range n.Args {
			inf.visitExpr(a)
		}
		if sym, ok := inf.model.Symbol(n); ok {
			t = sym.Member.DeclaredType
		} else {
			t = types.Error
		}

	case ast.BinaryExpr:
		t = inf.binaryType(n)

	case ast.UnaryExpr:
		t = inf.unaryType(n)

	case ast.LogicExpr:
		t = types.Bool
		for _, c := range n.Children {
			if inf.visitExpr(c).IsError() {
				t = types.Error
			}
		}

	default: // ParamRef or another leftover pre-expansion node
		t = types.Error
	}
	inf.model.SetType(n, t)
	return t
}

func (inf *inferer) literalType(n *ast.Node) types.CrispType {
	if n.EnumType != "" {
		return types.Unknown // enum literal: concrete type deferred (spec.md §4.5)
	}
	return n.LiteralType
}

var comparisonOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}
var equalityOps = map[string]bool{"==": true, "!=": true}
var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}

func (inf *inferer) binaryType(n *ast.Node) types.CrispType {
	l := inf.visitExpr(n.Children[0])
	r := inf.visitExpr(n.Children[1])
	cascaded := l.IsError() || r.IsError()

	switch {
	case equalityOps[n.Op]:
		return types.Bool

	case arithmeticOps[n.Op]:
		if cascaded {
			return types.Error
		}
		if !l.IsNumeric() || !r.IsNumeric() {
			inf.diag.Add("invalid-arithmetic", n.Span(), n.Op, l.String(), r.String())
			return types.Error
		}
		if l.IsFloat() || r.IsFloat() {
			return types.Float
		}
		return types.Int

	case comparisonOps[n.Op]:
		if cascaded {
			return types.Error
		}
		if l.IsNumeric() && r.IsNumeric() {
			return types.Bool
		}
		if l.Equal(r) {
			return types.Bool
		}
		inf.diag.Add("cannot-compare", n.Span(), l.String(), r.String())
		return types.Error

	default:
		if cascaded {
			return types.Error
		}
		inf.diag.Add("internal-error", n.Span(), "unknown binary operator "+n.Op)
		return types.Error
	}
}

func (inf *inferer) unaryType(n *ast.Node) types.CrispType {
	operand := inf.visitExpr(n.Children[0])
	if n.Op == "not" {
		return types.Bool
	}
	return operand // unary '-': operand type (spec.md §4.5)
}
