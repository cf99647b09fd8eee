// Package format implements Crisp's formatter (C9, spec.md §4.7): CST ->
// canonical source text, operating on the lossless CST directly so
// comments and layout decisions never have to be reconstructed from a
// separate line-number map the way a plain-AST formatter would need to.
package format

import (
	"strings"

	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/token"
)

// Options is spec.md §4.7's enumerated option set.
type Options struct {
	IndentSize                  int // >= 1
	MaxLineWidth                int // >= 20
	AlignCloseParen             bool
	InsertBlankLineBetweenTrees bool
}

// DefaultOptions matches the reference formatter's defaults.
func DefaultOptions() Options {
	return Options{IndentSize: 2, MaxLineWidth: 80, AlignCloseParen: false, InsertBlankLineBetweenTrees: true}
}

// Format renders a parsed Program node back to source text under opts.
func Format(root *cst.Node, opts Options) string {
	f := &formatter{opts: opts}
	return f.formatProgram(root)
}

type formatter struct {
	opts Options
}

func (f *formatter) formatProgram(root *cst.Node) string {
	var sb strings.Builder
	for i, c := range root.Children {
		f.emitLeadingComments(&sb, c, 0)
		sb.WriteString(f.render(c, 0))
		sb.WriteString("\n")
		if i < len(root.Children)-1 && f.opts.InsertBlankLineBetweenTrees {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// render returns n's formatted text at the given indent depth. The first
// line of the result carries no leading indent (the caller positions it);
// any continuation lines it contains are indented to match.
func (f *formatter) render(n *cst.Node, indent int) string {
	if n.Kind == cst.Missing {
		return "<missing " + n.Text + ">"
	}
	if n.Tok != nil {
		return n.Text
	}

	flat := f.flatten(n)
	if !hasComment(n) && indent*f.opts.IndentSize+len(flat) <= f.opts.MaxLineWidth {
		return flat
	}
	return f.renderMultiline(n, indent)
}

// flatten reconstructs n's canonical single-line text, ignoring comments
// entirely — used both as the flat candidate and to measure its width.
func (f *formatter) flatten(n *cst.Node) string {
	if n.Kind == cst.Missing {
		return "<missing " + n.Text + ">"
	}
	if n.Tok != nil {
		return n.Text
	}
	kw := keywordOf(n)
	if n.Kind == cst.Call && len(n.Children) == 0 {
		return kw // a parenthesized zero-arg call canonicalizes to bare ".Member"
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, f.flatten(c))
	}
	if kw == "" {
		return "(" + strings.Join(parts, " ") + ")"
	}
	if len(parts) == 0 {
		return "(" + kw + ")"
	}
	return "(" + kw + " " + strings.Join(parts, " ") + ")"
}

func (f *formatter) renderMultiline(n *cst.Node, indent int) string {
	kw := keywordOf(n)
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(kw)

	children := n.Children
	if n.Kind == cst.TreeDef && len(children) > 0 && children[0].Kind == cst.Identifier && !hasComment(children[0]) {
		// The tree's name stays on the head line.
		sb.WriteString(" ")
		sb.WriteString(children[0].Text)
		children = children[1:]
	}

	childIndent := indent + 1
	for _, c := range children {
		sb.WriteString("\n")
		f.emitLeadingComments(&sb, c, childIndent)
		sb.WriteString(indentStr(childIndent, f.opts.IndentSize))
		sb.WriteString(f.render(c, childIndent))
		emitTrailingComment(&sb, lastToken(c))
	}

	if f.opts.AlignCloseParen {
		sb.WriteString("\n")
		sb.WriteString(indentStr(indent, f.opts.IndentSize))
		sb.WriteString(")")
	} else {
		sb.WriteString(")")
	}
	return sb.String()
}

// emitLeadingComments writes every standalone Comment trivia attached to
// n's own leading edge as its own indented line (spec.md §4.7: "Comments
// attached as leading trivia of a CST node are re-emitted as own-lines at
// the node's indent").
func (f *formatter) emitLeadingComments(sb *strings.Builder, n *cst.Node, indent int) {
	tok := firstToken(n)
	if tok == nil {
		return
	}
	for _, tr := range tok.LeadingTrivia {
		if tr.Kind == token.Comment {
			sb.WriteString(indentStr(indent, f.opts.IndentSize))
			sb.WriteString(strings.TrimRight(tr.Text, " \t"))
			sb.WriteString("\n")
		}
	}
}

// emitTrailingComment appends a comment that followed tok on the same
// source line (spec.md §4.7: "trailing comments follow the token that
// owned them").
func emitTrailingComment(sb *strings.Builder, tok *token.Token) {
	if tok == nil {
		return
	}
	for _, tr := range tok.TrailingTrivia {
		if tr.Kind == token.Comment {
			sb.WriteString(" ")
			sb.WriteString(strings.TrimRight(tr.Text, " \t"))
		}
	}
}

// hasComment reports whether any token reachable from n carries Comment
// trivia, leading or trailing — such a subtree can never be safely
// rendered flat, since the flat form has nowhere to put the comment.
func hasComment(n *cst.Node) bool {
	found := false
	n.Walk(func(c *cst.Node) bool {
		if found || c.Tok == nil {
			return !found
		}
		for _, tr := range c.Tok.LeadingTrivia {
			if tr.Kind == token.Comment {
				found = true
			}
		}
		for _, tr := range c.Tok.TrailingTrivia {
			if tr.Kind == token.Comment {
				found = true
			}
		}
		return !found
	})
	return found
}

func firstToken(n *cst.Node) *token.Token {
	if n == nil {
		return nil
	}
	if n.Tok != nil {
		return n.Tok
	}
	for _, c := range n.Children {
		if t := firstToken(c); t != nil {
			return t
		}
	}
	return nil
}

func lastToken(n *cst.Node) *token.Token {
	if n == nil {
		return nil
	}
	if n.Tok != nil {
		return n.Tok
	}
	for i := len(n.Children) - 1; i >= 0; i-- {
		if t := lastToken(n.Children[i]); t != nil {
			return t
		}
	}
	return nil
}

func indentStr(depth, size int) string {
	return strings.Repeat(" ", depth*size)
}

// keywordOf returns the textual head of a composite node: the grammar
// keyword for structural forms, or the node's own Text for forms that carry
// their head inline (Call, DefdecCall, MacroCall, BinaryExpr, UnaryExpr,
// LogicExpr — spec.md §3's "the operator token's text ... the keyword for
// Keyword-headed node-position forms").
func keywordOf(n *cst.Node) string {
	switch n.Kind {
	case cst.TreeDef:
		return "tree"
	case cst.Select:
		return "select"
	case cst.Seq:
		return "seq"
	case cst.Parallel:
		return "parallel"
	case cst.Check:
		return "check"
	case cst.Guard:
		return "guard"
	case cst.If:
		return "if"
	case cst.Invert:
		return "invert"
	case cst.Repeat:
		return "repeat"
	case cst.Timeout:
		return "timeout"
	case cst.Cooldown:
		return "cooldown"
	case cst.While:
		return "while"
	case cst.Reactive:
		return "reactive"
	case cst.ReactiveSelect:
		return "reactive-select"
	case cst.Ref:
		return "ref"
	case cst.Import:
		return "import"
	case cst.Defdec:
		return "defdec"
	case cst.Defmacro:
		return "defmacro"
	case cst.Call, cst.DefdecCall, cst.MacroCall, cst.BinaryExpr, cst.UnaryExpr, cst.LogicExpr:
		return n.Text
	default: // ParamList, ErrorNode (no Tok), or anything else: bare parens
		return ""
	}
}
