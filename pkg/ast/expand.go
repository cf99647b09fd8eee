package ast

import (
	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/types"
)

// maxExpansionDepth bounds defdec/defmacro recursion so expansion always
// terminates (spec.md §4.4: "enforce a hard depth bound (>=100)").
const maxExpansionDepth = 100

type defTable map[string]*Node

// expander holds the state Expand threads through one program's worth of
// defdec/defmacro expansion: the definition tables and the "currently
// expanding" guards used to detect recursive templates.
type expander struct {
	defdecs  defTable
	macros   defTable
	diag     *diag.Bag
	expDefs  map[string]bool
	expMacro map[string]bool
}

// Expand runs defdec/defmacro expansion over a lowered program, in place,
// before name resolution (spec.md §4.4). It returns prog for convenience.
func Expand(prog *Node, bag *diag.Bag) *Node {
	e := &expander{
		defdecs:  defTable{},
		macros:   defTable{},
		diag:     bag,
		expDefs:  map[string]bool{},
		expMacro: map[string]bool{},
	}
	for _, c := range prog.Children {
		switch c.Kind {
		case Defdec:
			e.defdecs[c.Name] = c
			e.checkBodyPlaceholder(c)
		case Defmacro:
			e.macros[c.Name] = c
		}
	}
	for _, c := range prog.Children {
		if c.Kind != TreeDef {
			continue
		}
		for i, body := range c.Children {
			c.Children[i] = e.expandNode(body, 0)
		}
	}
	return prog
}

// checkBodyPlaceholder emits missing-body-placeholder / multiple-body
// -placeholder for a defdec definition (spec.md §4.9's defdec diagnostics).
func (e *expander) checkBodyPlaceholder(def *Node) {
	count := 0
	if len(def.Children) > 0 {
		def.Children[0].Walk(func(n *Node) bool {
			if n.Kind == BodyPlaceholder {
				count++
			}
			return true
		})
	}
	switch count {
	case 0:
		e.diag.Add("missing-body-placeholder", def.Span(), def.Name)
	case 1:
	default:
		e.diag.Add("multiple-body-placeholders", def.Span(), def.Name)
	}
}

// expandNode walks a node-position subtree, expanding DefdecCall nodes and
// recursing into each child in the position its own Kind dictates — the
// Children slice mixes expression slots (a Check/Guard/If/Timeout/Cooldown
// condition) and node slots (a composite's children, a decorator's body)
// depending on Kind, so a blind generic walk can't tell them apart.
func (e *expander) expandNode(n *Node, depth int) *Node {
	if n == nil {
		return n
	}
	switch n.Kind {
	case DefdecCall:
		return e.expandDefdecCall(n, depth)

	case Select, Seq, ReactiveSelect, Parallel:
		for i, c := range n.Children {
			n.Children[i] = e.expandNode(c, depth)
		}
		return n

	case Check:
		n.Children[0] = e.expandExpr(n.Children[0], depth)
		return n

	case Guard, While, Reactive:
		n.Children[0] = e.expandExpr(n.Children[0], depth)
		n.Children[1] = e.expandNode(n.Children[1], depth)
		return n

	case If:
		n.Children[0] = e.expandExpr(n.Children[0], depth)
		n.Children[1] = e.expandNode(n.Children[1], depth)
		if len(n.Children) > 2 {
			n.Children[2] = e.expandNode(n.Children[2], depth)
		}
		return n

	case Invert, Repeat:
		n.Children[0] = e.expandNode(n.Children[0], depth)
		return n

	case Timeout, Cooldown:
		n.Children[0] = e.expandExpr(n.Children[0], depth)
		n.Children[1] = e.expandNode(n.Children[1], depth)
		return n

	case ActionCall:
		for i, a := range n.Args {
			n.Args[i] = e.expandExpr(a, depth)
		}
		return n

	default: // Ref, Import, TreeDef, or a recovered error/missing node
		return n
	}
}

// expandExpr walks an expression subtree, expanding MacroCall nodes and
// recursing into every operand/argument.
func (e *expander) expandExpr(n *Node, depth int) *Node {
	if n == nil {
		return n
	}
	switch n.Kind {
	case MacroCall:
		return e.expandMacroCall(n, depth)
	case BinaryExpr, UnaryExpr, LogicExpr:
		for i, c := range n.Children {
			n.Children[i] = e.expandExpr(c, depth)
		}
		return n
	case CallExpr:
		for i, a := range n.Args {
			n.Args[i] = e.expandExpr(a, depth)
		}
		return n
	default: // Literal, MemberAccess, BlackboardAccess, or a leftover ParamRef
		return n
	}
}

func (e *expander) expandDefdecCall(call *Node, depth int) *Node {
	if depth >= maxExpansionDepth {
		e.diag.Add("recursive-defdec", call.Span(), call.Name)
		return errorAction(call)
	}
	def, ok := e.defdecs[call.Name]
	if !ok {
		e.diag.Add("defdec-not-found", call.Span(), call.Name)
		return errorAction(call)
	}
	if e.expDefs[call.Name] {
		e.diag.Add("recursive-defdec", call.Span(), call.Name)
		return errorAction(call)
	}

	if len(call.Args) == 0 {
		e.diag.Add("defdec-param-count-mismatch", call.Span(), call.Name, len(def.Params), 0)
		return errorAction(call)
	}
	bodyArg := e.expandNode(call.Args[len(call.Args)-1], depth)
	paramArgs := call.Args[:len(call.Args)-1]
	if len(paramArgs) != len(def.Params) {
		e.diag.Add("defdec-param-count-mismatch", call.Span(), call.Name, len(def.Params), len(paramArgs))
		return errorAction(call)
	}
	for i, a := range paramArgs {
		paramArgs[i] = e.expandExpr(a, depth)
	}

	bindings := map[string]*Node{}
	for i, p := range def.Params {
		bindings[p] = paramArgs[i]
	}

	e.expDefs[call.Name] = true
	cloned := cloneSubstitute(def.Children[0], call.CstOrigin, bindings, bodyArg)
	expanded := e.expandNode(cloned, depth+1)
	delete(e.expDefs, call.Name)
	return expanded
}

// expandMacroCall expands a defmacro invocation appearing in expression
// position: every declared parameter is substituted by the corresponding
// argument expression, with no <body> slot (a defmacro has no trailing
// body argument, unlike defdec).
func (e *expander) expandMacroCall(call *Node, depth int) *Node {
	if depth >= maxExpansionDepth {
		e.diag.Add("macro-depth-exceeded", call.Span(), call.Name)
		return errorLiteral(call)
	}
	def, ok := e.macros[call.Name]
	if !ok {
		e.diag.Add("macro-not-found", call.Span(), call.Name)
		return errorLiteral(call)
	}
	if e.expMacro[call.Name] {
		e.diag.Add("recursive-macro", call.Span(), call.Name)
		return errorLiteral(call)
	}
	if len(call.Args) != len(def.Params) {
		e.diag.Add("macro-arg-count-mismatch", call.Span(), call.Name, len(def.Params), len(call.Args))
		return errorLiteral(call)
	}

	for i, a := range call.Args {
		call.Args[i] = e.expandExpr(a, depth)
	}
	bindings := map[string]*Node{}
	for i, p := range def.Params {
		bindings[p] = call.Args[i]
	}

	e.expMacro[call.Name] = true
	cloned := cloneSubstitute(def.Children[0], call.CstOrigin, bindings, nil)
	expanded := e.expandExpr(cloned, depth+1)
	delete(e.expMacro, call.Name)
	return expanded
}

func errorAction(call *Node) *Node {
	return &Node{Kind: ActionCall, CstOrigin: call.CstOrigin, Path: MemberPath{"<error>"}}
}

func errorLiteral(call *Node) *Node {
	return &Node{Kind: Literal, CstOrigin: call.CstOrigin, LiteralType: types.Error}
}

// cloneSubstitute deep-clones a defdec/defmacro body, rewriting every
// node's CstOrigin to the call site's CST node (spec.md §4.4: "every
// produced AST node takes the call site's originating CST node as its
// cstOrigin"), replacing BodyPlaceholder with bodyArg (a clone, so repeated
// use of <body> would be independent — though spec.md requires exactly
// one), and replacing each ParamRef by its bound argument.
func cloneSubstitute(n *Node, callOrigin *cst.Node, bindings map[string]*Node, bodyArg *Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case BodyPlaceholder:
		if bodyArg == nil {
			return &Node{Kind: ActionCall, CstOrigin: callOrigin, Path: MemberPath{"<error>"}}
		}
		return cloneSubstitute(bodyArg, callOrigin, bindings, nil)
	case ParamRef:
		if bound, ok := bindings[n.Name]; ok {
			return cloneSubstitute(bound, callOrigin, bindings, nil)
		}
		return &Node{Kind: Literal, CstOrigin: callOrigin, LiteralType: types.Error}
	}

	clone := *n
	clone.CstOrigin = callOrigin
	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			clone.Children[i] = cloneSubstitute(c, callOrigin, bindings, bodyArg)
		}
	}
	if n.Args != nil {
		clone.Args = make([]*Node, len(n.Args))
		for i, a := range n.Args {
			clone.Args[i] = cloneSubstitute(a, callOrigin, bindings, bodyArg)
		}
	}
	return &clone
}
