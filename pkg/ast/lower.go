package ast

import (
	"strconv"
	"strings"

	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Lowerer translates a CST into an AST, pattern-matching each CST variant
// (spec.md §4.4).
type Lowerer struct {
	diag *diag.Bag
}

// Lower translates a CST program into an AST program.
func Lower(root *cst.Node, bag *diag.Bag) *Node {
	l := &Lowerer{diag: bag}
	return l.lowerProgram(root)
}

func (l *Lowerer) lowerProgram(n *cst.Node) *Node {
	out := &Node{Kind: Program, CstOrigin: n}
	for _, c := range n.Children {
		out.Children = append(out.Children, l.lowerTopLevel(c))
	}
	return out
}

func (l *Lowerer) lowerTopLevel(n *cst.Node) *Node {
	switch n.Kind {
	case cst.TreeDef:
		return l.lowerTree(n)
	case cst.Defdec:
		return l.lowerDefTemplate(n, Defdec)
	case cst.Defmacro:
		return l.lowerDefTemplate(n, Defmacro)
	case cst.Ref:
		return l.lowerRef(n)
	case cst.Import:
		return l.lowerImport(n)
	default:
		// Missing/ErrorNode or any other node surviving parse recovery at
		// top level: lower it as a node so downstream phases still have
		// something to walk past without crashing (spec.md §7).
		return l.lowerNode(n)
	}
}

func (l *Lowerer) lowerTree(n *cst.Node) *Node {
	out := &Node{Kind: TreeDef, CstOrigin: n}
	i := 0
	if i < len(n.Children) {
		out.Name = n.Children[i].Text
		i++
	}
	if i+1 < len(n.Children) && n.Children[i].Kind == cst.KeywordArg && n.Children[i].Text == ":blackboard" {
		out.BlackboardType = n.Children[i+1].Text
		i += 2
	}
	for ; i < len(n.Children); i++ {
		out.Children = append(out.Children, l.lowerNode(n.Children[i]))
	}
	return out
}

func (l *Lowerer) lowerRef(n *cst.Node) *Node {
	out := &Node{Kind: Ref, CstOrigin: n}
	if len(n.Children) > 0 {
		out.Name = n.Children[0].Text
	}
	return out
}

func (l *Lowerer) lowerImport(n *cst.Node) *Node {
	out := &Node{Kind: Import, CstOrigin: n}
	if len(n.Children) > 0 {
		out.ImportPath = decodeString(n.Children[0].Text)
	}
	return out
}

func (l *Lowerer) lowerDefTemplate(n *cst.Node, kind Kind) *Node {
	out := &Node{Kind: kind, CstOrigin: n}
	if len(n.Children) > 0 {
		out.Name = n.Children[0].Text
	}
	if len(n.Children) > 1 && n.Children[1].Kind == cst.ParamList {
		for _, p := range n.Children[1].Children {
			if p.Kind == cst.Missing {
				continue
			}
			out.Params = append(out.Params, p.Text)
		}
	}
	if len(n.Children) > 2 {
		// defdec's body is parsed (and lowered) as a node; defmacro's as an
		// expression (spec.md §4.3's shared shape, diverging at the body).
		// Bare <body> and bare parameter-name identifiers inside it are
		// handled generically by lowerNode/lowerExpr's own cst.BodyPlaceholder
		// and cst.Identifier cases either way.
		if kind == Defmacro {
			out.Children = []*Node{l.lowerExpr(n.Children[2])}
		} else {
			out.Children = []*Node{l.lowerNode(n.Children[2])}
		}
	}
	return out
}

// lowerAny lowers a CST node whose position (node vs expression) isn't
// statically known from the caller alone (If branches, Invert/Repeat and
// decorator bodies, composite child lists); lowerNode's own cases already
// route each kind correctly, so this is a thin alias kept for call-site
// clarity.
func (l *Lowerer) lowerAny(n *cst.Node) *Node {
	return l.lowerNode(n)
}

// lowerNode lowers a CST node known to occur in node position (a
// composite, decorator, or action call).
func (l *Lowerer) lowerNode(n *cst.Node) *Node {
	switch n.Kind {
	case cst.Call, cst.MemberAccessExpr:
		return &Node{Kind: ActionCall, CstOrigin: n, Path: splitPath(n.Text), Args: l.lowerExprList(n.Children)}
	case cst.Select:
		return l.lowerChildList(n, Select)
	case cst.Seq:
		return l.lowerChildList(n, Seq)
	case cst.ReactiveSelect:
		return l.lowerChildList(n, ReactiveSelect)
	case cst.Parallel:
		return l.lowerParallel(n)
	case cst.Check:
		return &Node{Kind: Check, CstOrigin: n, Children: []*Node{l.lowerExpr(n.Children[0])}}
	case cst.Guard:
		return &Node{Kind: Guard, CstOrigin: n, Children: l.lowerCondBody(n)}
	case cst.While:
		return &Node{Kind: While, CstOrigin: n, Children: l.lowerCondBody(n)}
	case cst.Reactive:
		return &Node{Kind: Reactive, CstOrigin: n, Children: l.lowerCondBody(n)}
	case cst.If:
		out := &Node{Kind: If, CstOrigin: n}
		out.Children = append(out.Children, l.lowerExpr(n.Children[0]))
		out.Children = append(out.Children, l.lowerAny(n.Children[1]))
		if len(n.Children) > 2 {
			out.Children = append(out.Children, l.lowerAny(n.Children[2]))
		}
		return out
	case cst.Invert:
		return &Node{Kind: Invert, CstOrigin: n, Children: []*Node{l.lowerAny(n.Children[0])}}
	case cst.Repeat:
		count := 0
		if len(n.Children) > 0 {
			count = parseIntLiteral(n.Children[0].Text)
		}
		body := &Node{}
		if len(n.Children) > 1 {
			body = l.lowerAny(n.Children[1])
		}
		return &Node{Kind: Repeat, CstOrigin: n, Count: count, Children: []*Node{body}}
	case cst.Timeout:
		return &Node{Kind: Timeout, CstOrigin: n, Children: l.lowerDurationBody(n)}
	case cst.Cooldown:
		return &Node{Kind: Cooldown, CstOrigin: n, Children: l.lowerDurationBody(n)}
	case cst.Ref:
		return l.lowerRef(n)
	case cst.Import:
		return l.lowerImport(n)
	case cst.DefdecCall:
		return l.lowerDefdecCall(n)
	case cst.Missing:
		return &Node{Kind: ActionCall, CstOrigin: n, Path: MemberPath{"<missing>"}}
	default:
		return l.lowerExpr(n) // ErrorNode or any expr-shaped survivor in node position
	}
}

// lowerDefdecCall lowers `(name arg* child-node)` (spec.md §4.3): every
// argument except the last is an expression; the last is a node.
func (l *Lowerer) lowerDefdecCall(n *cst.Node) *Node {
	out := &Node{Kind: DefdecCall, CstOrigin: n, Name: n.Text}
	for i, c := range n.Children {
		if i == len(n.Children)-1 {
			out.Args = append(out.Args, l.lowerNode(c))
		} else {
			out.Args = append(out.Args, l.lowerExpr(c))
		}
	}
	return out
}

func (l *Lowerer) lowerChildList(n *cst.Node, kind Kind) *Node {
	out := &Node{Kind: kind, CstOrigin: n}
	for _, c := range n.Children {
		out.Children = append(out.Children, l.lowerAny(c))
	}
	return out
}

func (l *Lowerer) lowerCondBody(n *cst.Node) []*Node {
	cond := &Node{Kind: Literal, LiteralType: types.Error}
	if len(n.Children) > 0 {
		cond = l.lowerExpr(n.Children[0])
	}
	body := &Node{}
	if len(n.Children) > 1 {
		body = l.lowerAny(n.Children[1])
	}
	return []*Node{cond, body}
}

func (l *Lowerer) lowerDurationBody(n *cst.Node) []*Node {
	dur := &Node{Kind: Literal, LiteralType: types.Error}
	if len(n.Children) > 0 {
		dur = l.lowerExpr(n.Children[0])
	}
	body := &Node{}
	if len(n.Children) > 1 {
		body = l.lowerAny(n.Children[1])
	}
	return []*Node{dur, body}
}

func (l *Lowerer) lowerParallel(n *cst.Node) *Node {
	out := &Node{Kind: Parallel, CstOrigin: n}
	i := 0
	if i < len(n.Children) && n.Children[i].Kind == cst.KeywordArg {
		switch n.Children[i].Text {
		case ":any":
			out.Policy = ParallelPolicy{Kind: PolicyAny}
			i++
		case ":all":
			out.Policy = ParallelPolicy{Kind: PolicyAll}
			i++
		case ":n":
			n2 := 0
			if i+1 < len(n.Children) {
				n2 = parseIntLiteral(n.Children[i+1].Text)
			}
			out.Policy = ParallelPolicy{Kind: PolicyN, N: n2}
			i += 2
		}
	}
	for ; i < len(n.Children); i++ {
		out.Children = append(out.Children, l.lowerAny(n.Children[i]))
	}
	return out
}

func (l *Lowerer) lowerExprList(cs []*cst.Node) []*Node {
	out := make([]*Node, 0, len(cs))
	for _, c := range cs {
		out = append(out, l.lowerExpr(c))
	}
	return out
}

// lowerExpr lowers a CST node known to occur in expression position.
func (l *Lowerer) lowerExpr(n *cst.Node) *Node {
	switch n.Kind {
	case cst.IntLit:
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Int, IntVal: int64(parseIntLiteral(n.Text))}
	case cst.FloatLit:
		f, _ := strconv.ParseFloat(n.Text, 64)
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Float, FloatVal: f}
	case cst.BoolLit:
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Bool, BoolVal: n.Text == "true"}
	case cst.StringLit:
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.String, StringVal: decodeString(n.Text)}
	case cst.NullLit:
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Null}
	case cst.EnumLit:
		typeName, member := splitEnum(n.Text)
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Unknown, EnumType: typeName, EnumMember: member}
	case cst.MemberAccessExpr:
		return &Node{Kind: MemberAccess, CstOrigin: n, Path: splitPath(n.Text)}
	case cst.BlackboardAccessExpr:
		return &Node{Kind: BlackboardAccess, CstOrigin: n, Path: splitPath(n.Text)}
	case cst.BinaryExpr:
		return &Node{Kind: BinaryExpr, CstOrigin: n, Op: n.Text, Children: l.lowerExprList(n.Children)}
	case cst.UnaryExpr:
		return &Node{Kind: UnaryExpr, CstOrigin: n, Op: n.Text, Children: l.lowerExprList(n.Children)}
	case cst.LogicExpr:
		return &Node{Kind: LogicExpr, CstOrigin: n, Op: n.Text, Children: l.lowerExprList(n.Children)}
	case cst.Call:
		return &Node{Kind: CallExpr, CstOrigin: n, Path: splitPath(n.Text), Args: l.lowerExprList(n.Children)}
	case cst.MacroCall:
		return &Node{Kind: MacroCall, CstOrigin: n, Name: n.Text, Args: l.lowerExprList(n.Children)}
	case cst.Identifier:
		return &Node{Kind: ParamRef, CstOrigin: n, Name: n.Text}
	case cst.BodyPlaceholder:
		return &Node{Kind: BodyPlaceholder, CstOrigin: n}
	case cst.Missing:
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Error}
	default: // ErrorNode
		return &Node{Kind: Literal, CstOrigin: n, LiteralType: types.Error}
	}
}

func parseIntLiteral(text string) int {
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return v
}

func decodeString(text string) string {
	// text is the raw source span including quotes, e.g. `"a\nb"`.
	body := text
	body = strings.TrimPrefix(body, `"`)
	body = strings.TrimSuffix(body, `"`)
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte('\\')
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}
