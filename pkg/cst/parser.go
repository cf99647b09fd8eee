package cst

import (
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/source"
	"github.com/crisp-lang/crisp/pkg/token"
)

// Parser is a hand-written recursive-descent parser over two contexts, node
// position and expression position (spec.md §4.3). Parsing always
// terminates, always consumes every token, and always produces a complete
// CST — malformed input degrades to Missing/ErrorNode nodes rather than
// failing outright (spec.md §8 "Parser totality").
type Parser struct {
	toks []token.Token
	pos  int
	diag *diag.Bag
}

// Parse parses a complete program: zero or more top-level node-position
// forms, terminated by EndOfFile.
func Parse(toks []token.Token, bag *diag.Bag) *Node {
	p := &Parser{toks: toks, diag: bag}
	start := p.startOffset()
	program := &Node{Kind: Program}
	for !p.atEOF() {
		program.AddChild(p.parseNodePosition())
	}
	program.Span = source.NewSpan(start, p.curOffset())
	AssignNodeIDs(program)
	return program
}

func (p *Parser) atEOF() bool {
	return p.cur().Kind == token.EndOfFile
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) curOffset() uint32 {
	return p.cur().Span.Start
}

func (p *Parser) startOffset() uint32 {
	return p.curOffset()
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// advanceAsError consumes exactly one token into a fabricated ErrorNode, to
// guarantee forward progress when no production matched.
func (p *Parser) advanceAsError() *Node {
	t := p.advance()
	p.diag.Add("unexpected-token", t.Span, t.Text, "a node or expression")
	return &Node{Kind: ErrorNode, Span: t.Span, Tok: &t, Text: t.Text}
}

// expect consumes the current token if it matches kind; otherwise it emits a
// diagnostic and fabricates a zero-width Missing node so the parent
// production still gets a typed slot (spec.md §4.3 error recovery).
func (p *Parser) expect(kind token.Kind, expectedDesc string) *Node {
	t := p.cur()
	if t.Kind == kind {
		p.advance()
		return NewLeaf(leafKindFor(kind), &t)
	}
	p.diag.Add("unexpected-token", t.Span, t.Text, expectedDesc)
	return NewMissing(expectedDesc, t.Span.Start)
}

func leafKindFor(k token.Kind) Kind {
	switch k {
	case token.IntLiteral:
		return IntLit
	case token.FloatLiteral:
		return FloatLit
	case token.StringLiteral:
		return StringLit
	case token.BoolTrue, token.BoolFalse:
		return BoolLit
	case token.NullLiteral:
		return NullLit
	case token.EnumLiteral:
		return EnumLit
	case token.MemberAccess:
		return MemberAccessExpr
	case token.BlackboardAccess:
		return BlackboardAccessExpr
	case token.BodyPlaceholder:
		return BodyPlaceholder
	case token.Identifier:
		return Identifier
	case token.KeywordArg:
		return KeywordArg
	default:
		return Identifier
	}
}

// skipToBalance consumes tokens up to, but not including, the first ')' that
// closes a level opened before the call (or up to EOF), used when the parser
// can't align at an expression slot (spec.md §4.3). A caller that has
// already consumed the form's '(' closes the form itself with closeParen.
func (p *Parser) skipToBalance(start uint32) *Node {
	depth := 0
	for {
		t := p.cur()
		if t.Kind == token.EndOfFile {
			break
		}
		if t.Kind == token.LeftParen {
			depth++
			p.advance()
			continue
		}
		if t.Kind == token.RightParen {
			if depth == 0 {
				break
			}
			depth--
			p.advance()
			continue
		}
		p.advance()
	}
	p.diag.Add("parse-error", source.NewSpan(start, p.curOffset()), "could not parse expression")
	return &Node{Kind: ErrorNode, Span: source.NewSpan(start, p.curOffset())}
}

// --- Node position -------------------------------------------------------

func (p *Parser) parseNodePosition() *Node {
	t := p.cur()

	switch t.Kind {
	case token.MemberAccess:
		p.advance()
		return &Node{Kind: Call, Span: t.Span, Tok: &t, Text: t.Text}

	case token.LeftParen:
		return p.parseParenNodeForm()

	case token.BodyPlaceholder:
		// <body> may appear bare in a body-position slot inside a defdec
		// definition (spec.md §4.3's defdec shape), not just wrapped in
		// parens.
		p.advance()
		return NewLeaf(BodyPlaceholder, &t)

	default:
		return p.advanceAsError()
	}
}

// parseParenNodeForm parses `( head ... )` in node position, dispatching on
// head's kind/text.
func (p *Parser) parseParenNodeForm() *Node {
	start := p.curOffset()
	p.advance() // '('

	head := p.cur()
	switch {
	case head.Kind == token.MemberAccess:
		p.advance()
		n := &Node{Kind: Call, Text: head.Text}
		for !p.atRightParenOrEOF() {
			n.AddChild(p.parseExpr())
		}
		p.closeParen(start, n)
		return n

	case head.Kind == token.Identifier && token.NodeKeywords[head.Text]:
		p.advance()
		return p.parseKeywordForm(start, head.Text)

	case head.Kind == token.Identifier:
		// A defdec-call candidate: (name arg* body-node). Resolved against
		// the defdec table during AST lowering (spec.md §4.4).
		p.advance()
		n := &Node{Kind: DefdecCall, Text: head.Text}
		for !p.atRightParenOrEOF() {
			n.AddChild(p.parseArgOrBody())
		}
		p.closeParen(start, n)
		return n

	default:
		n := p.skipToBalance(start)
		p.closeParen(start, n)
		return n
	}
}

// parseArgOrBody parses one element of a defdec-call's argument list: a
// structural node keyword dispatches as a full node-position form (the
// common case for the trailing body slot); anything else is an expression
// (the common case for leading parameter arguments).
func (p *Parser) parseArgOrBody() *Node {
	t := p.cur()
	if t.Kind == token.BodyPlaceholder {
		// <body> is only ever meaningful as the trailing body-node
		// argument; it can appear bare, unparenthesized.
		return p.parseNodePosition()
	}
	if t.Kind == token.LeftParen {
		next := p.peekPastParen()
		if next.Kind == token.Identifier && token.NodeKeywords[next.Text] {
			return p.parseNodePosition()
		}
	}
	return p.parseExpr()
}

// peekPastParen returns the token immediately after a LeftParen at p.pos.
func (p *Parser) peekPastParen() token.Token {
	if p.pos+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+1]
}

func (p *Parser) atRightParenOrEOF() bool {
	k := p.cur().Kind
	return k == token.RightParen || k == token.EndOfFile
}

// closeParen consumes a trailing ')', or fabricates a CstMissing placeholder
// and reports unmatched-open-paren if EOF was reached first.
func (p *Parser) closeParen(start uint32, n *Node) {
	t := p.cur()
	if t.Kind == token.RightParen {
		p.advance()
		n.Span = source.NewSpan(start, t.Span.End())
		return
	}
	p.diag.Add("unmatched-open-paren", source.NewSpan(start, start+1))
	n.Span = source.NewSpan(start, p.curOffset())
	n.AddChild(NewMissing("')'", p.curOffset()))
}

func (p *Parser) parseKeywordForm(start uint32, kw string) *Node {
	switch kw {
	case "tree":
		return p.parseTree(start)
	case "select":
		return p.parseChildList(start, Select)
	case "seq":
		return p.parseChildList(start, Seq)
	case "reactive-select":
		return p.parseChildList(start, ReactiveSelect)
	case "parallel":
		return p.parseParallel(start)
	case "check":
		return p.parseUnaryExprForm(start, Check)
	case "guard":
		return p.parseCondBodyForm(start, Guard)
	case "if":
		return p.parseIf(start)
	case "invert":
		return p.parseUnaryBodyForm(start, Invert)
	case "repeat":
		return p.parseCountBodyForm(start, Repeat)
	case "timeout":
		return p.parseDurationBodyForm(start, Timeout)
	case "cooldown":
		return p.parseDurationBodyForm(start, Cooldown)
	case "while":
		return p.parseCondBodyForm(start, While)
	case "reactive":
		return p.parseCondBodyForm(start, Reactive)
	case "ref":
		return p.parseRef(start)
	case "import":
		return p.parseImport(start)
	case "defdec":
		return p.parseDefTemplate(start, Defdec)
	case "defmacro":
		return p.parseDefTemplate(start, Defmacro)
	default:
		n := p.skipToBalance(start)
		p.closeParen(start, n)
		return n
	}
}

func (p *Parser) parseTree(start uint32) *Node {
	n := &Node{Kind: TreeDef}
	n.AddChild(p.expect(token.Identifier, "tree name"))
	if p.cur().Kind == token.KeywordArg && p.cur().Text == ":blackboard" {
		t := p.advance()
		kwNode := NewLeaf(KeywordArg, &t)
		n.AddChild(kwNode)
		n.AddChild(p.expect(token.Identifier, "blackboard type name"))
	}
	for !p.atRightParenOrEOF() {
		n.AddChild(p.parseNodePosition())
	}
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseChildList(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	for !p.atRightParenOrEOF() {
		n.AddChild(p.parseNodePosition())
	}
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseParallel(start uint32) *Node {
	n := &Node{Kind: Parallel}
	t := p.cur()
	if t.Kind == token.KeywordArg && (t.Text == ":any" || t.Text == ":all" || t.Text == ":n") {
		p.advance()
		n.AddChild(NewLeaf(KeywordArg, &t))
		if t.Text == ":n" {
			n.AddChild(p.expect(token.IntLiteral, "integer N"))
		}
	} else {
		p.diag.Add("unexpected-token", t.Span, t.Text, "a parallel policy (:any, :all, or :n)")
		n.AddChild(NewMissing(":any|:all|:n", t.Span.Start))
	}
	for !p.atRightParenOrEOF() {
		n.AddChild(p.parseNodePosition())
	}
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseUnaryExprForm(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.AddChild(p.parseExpr())
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseUnaryBodyForm(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.AddChild(p.parseNodePosition())
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseCondBodyForm(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.AddChild(p.parseExpr())
	n.AddChild(p.parseNodePosition())
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseCountBodyForm(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.AddChild(p.expect(token.IntLiteral, "integer literal"))
	n.AddChild(p.parseNodePosition())
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseDurationBodyForm(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.AddChild(p.parseExpr())
	n.AddChild(p.parseNodePosition())
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseIf(start uint32) *Node {
	n := &Node{Kind: If}
	n.AddChild(p.parseExpr())
	n.AddChild(p.parseNodePosition())
	if !p.atRightParenOrEOF() {
		n.AddChild(p.parseNodePosition())
	}
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseRef(start uint32) *Node {
	n := &Node{Kind: Ref}
	n.AddChild(p.expect(token.Identifier, "tree name"))
	p.closeParen(start, n)
	return n
}

func (p *Parser) parseImport(start uint32) *Node {
	n := &Node{Kind: Import}
	n.AddChild(p.expect(token.StringLiteral, "import path string"))
	p.closeParen(start, n)
	return n
}

// parseDefTemplate parses `(kw Name (params…) body)`, shared by defdec and
// defmacro (spec.md §4.3).
func (p *Parser) parseDefTemplate(start uint32, kind Kind) *Node {
	n := &Node{Kind: kind}
	n.AddChild(p.expect(token.Identifier, "name"))

	paramsStart := p.curOffset()
	params := &Node{Kind: ParamList}
	if p.cur().Kind == token.LeftParen {
		p.advance()
		for !p.atRightParenOrEOF() {
			params.AddChild(p.expect(token.Identifier, "parameter name"))
		}
		p.closeParen(paramsStart, params)
	} else {
		p.diag.Add("unexpected-token", p.cur().Span, p.cur().Text, "'(' params ')'")
	}
	n.AddChild(params)

	// defdec's body is a node (a decorator/composite template); defmacro's
	// is an expression template, since a macro call only ever occurs in
	// expression position.
	if kind == Defmacro {
		n.AddChild(p.parseExpr())
	} else {
		n.AddChild(p.parseNodePosition())
	}
	p.closeParen(start, n)
	return n
}

// --- Expression position --------------------------------------------------

func (p *Parser) parseExpr() *Node {
	t := p.cur()

	switch t.Kind {
	case token.IntLiteral, token.FloatLiteral, token.StringLiteral,
		token.BoolTrue, token.BoolFalse, token.NullLiteral, token.EnumLiteral:
		p.advance()
		return NewLeaf(leafKindFor(t.Kind), &t)

	case token.MemberAccess:
		p.advance()
		return NewLeaf(MemberAccessExpr, &t)

	case token.BlackboardAccess:
		p.advance()
		return NewLeaf(BlackboardAccessExpr, &t)

	case token.Identifier:
		// A bare identifier in expression position: a defdec parameter
		// reference, substituted away before semantic analysis. The
		// resolver treats any identifier surviving to that phase as
		// unresolved.
		p.advance()
		return NewLeaf(Identifier, &t)

	case token.LeftParen:
		return p.parseParenExprForm()

	default:
		start := p.curOffset()
		p.diag.Add("unexpected-token", t.Span, t.Text, "an expression")
		return p.skipToBalance(start)
	}
}

var binaryOps = map[token.Kind]string{
	token.Plus: "+", token.Minus: "-", token.Star: "*", token.Slash: "/", token.Percent: "%",
	token.LessThan: "<", token.GreaterThan: ">", token.LessEqual: "<=", token.GreaterEqual: ">=",
	token.Equal: "==", token.NotEqual: "!=",
}

func (p *Parser) parseParenExprForm() *Node {
	start := p.curOffset()
	p.advance() // '('

	head := p.cur()

	if head.Kind == token.MemberAccess {
		p.advance()
		n := &Node{Kind: Call, Text: head.Text}
		for !p.atRightParenOrEOF() {
			n.AddChild(p.parseExpr())
		}
		p.closeParen(start, n)
		return n
	}

	if head.Kind == token.Identifier && (head.Text == "and" || head.Text == "or") {
		p.advance()
		n := &Node{Kind: LogicExpr, Text: head.Text}
		for !p.atRightParenOrEOF() {
			n.AddChild(p.parseExpr())
		}
		p.closeParen(start, n)
		return n
	}

	if head.Kind == token.Identifier && head.Text == "not" {
		p.advance()
		n := &Node{Kind: UnaryExpr, Text: "not"}
		n.AddChild(p.parseExpr())
		p.closeParen(start, n)
		return n
	}

	if opText, ok := binaryOps[head.Kind]; ok {
		p.advance()
		first := p.parseExpr()
		if p.atRightParenOrEOF() {
			// One operand: unary form (only meaningful for '-', but
			// tolerated generically and caught by semantic analysis
			// otherwise).
			n := &Node{Kind: UnaryExpr, Text: opText}
			n.AddChild(first)
			p.closeParen(start, n)
			return n
		}
		second := p.parseExpr()
		n := &Node{Kind: BinaryExpr, Text: opText}
		n.AddChild(first)
		n.AddChild(second)
		p.closeParen(start, n)
		return n
	}

	if head.Kind == token.Identifier {
		// A defmacro-call candidate: (name arg*), resolved against the
		// defmacro table during AST lowering.
		p.advance()
		n := &Node{Kind: MacroCall, Text: head.Text}
		for !p.atRightParenOrEOF() {
			n.AddChild(p.parseExpr())
		}
		p.closeParen(start, n)
		return n
	}

	n := p.skipToBalance(start)
	p.closeParen(start, n)
	return n
}
