// Package token defines Crisp's lexical tokens and trivia (§3, §4.2).
package token

import "github.com/crisp-lang/crisp/pkg/source"

// Kind is the closed set of token kinds (spec.md §3).
type Kind int

const (
	LeftParen Kind = iota
	RightParen
	IntLiteral
	FloatLiteral
	StringLiteral
	BoolTrue
	BoolFalse
	NullLiteral
	Identifier
	MemberAccess
	EnumLiteral
	Keyword
	KeywordArg
	Plus
	Minus
	Star
	Slash
	Percent
	LessThan
	GreaterThan
	LessEqual
	GreaterEqual
	Equal
	NotEqual
	BlackboardAccess
	BodyPlaceholder
	EndOfFile
	Error
)

var kindNames = map[Kind]string{
	LeftParen:        "LeftParen",
	RightParen:       "RightParen",
	IntLiteral:       "IntLiteral",
	FloatLiteral:     "FloatLiteral",
	StringLiteral:    "StringLiteral",
	BoolTrue:         "BoolTrue",
	BoolFalse:        "BoolFalse",
	NullLiteral:      "NullLiteral",
	Identifier:       "Identifier",
	MemberAccess:     "MemberAccess",
	EnumLiteral:      "EnumLiteral",
	Keyword:          "Keyword",
	KeywordArg:       "KeywordArg",
	Plus:             "Plus",
	Minus:            "Minus",
	Star:             "Star",
	Slash:            "Slash",
	Percent:          "Percent",
	LessThan:         "LessThan",
	GreaterThan:      "GreaterThan",
	LessEqual:        "LessEqual",
	GreaterEqual:     "GreaterEqual",
	Equal:            "Equal",
	NotEqual:         "NotEqual",
	BlackboardAccess: "BlackboardAccess",
	BodyPlaceholder:  "BodyPlaceholder",
	EndOfFile:        "EndOfFile",
	Error:            "Error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// TriviaKind is the closed set of trivia kinds.
type TriviaKind int

const (
	Whitespace TriviaKind = iota
	Newline
	Comment
)

// Trivia is a run of source bytes with no semantic value.
type Trivia struct {
	Kind TriviaKind
	Text string
	Span source.Span
}

// Token is a lexical token with its attached leading/trailing trivia.
//
// Invariant: Text equals the source bytes of Span, and concatenating every
// token's LeadingTrivia + Text + TrailingTrivia in emission order reproduces
// the source exactly (spec.md §8, "Lossless tokenization").
type Token struct {
	Kind           Kind
	Text           string
	Span           source.Span
	LeadingTrivia  []Trivia
	TrailingTrivia []Trivia
}

// Reserved node-position keywords (spec.md §6.1).
var NodeKeywords = map[string]bool{
	"tree": true, "select": true, "seq": true, "parallel": true,
	"check": true, "guard": true, "if": true, "invert": true,
	"repeat": true, "timeout": true, "cooldown": true, "while": true,
	"reactive": true, "reactive-select": true, "ref": true, "import": true,
	"defdec": true, "defmacro": true,
}

// Reserved expression-position keywords (spec.md §6.1).
var ExprKeywords = map[string]bool{
	"and": true, "or": true, "not": true,
	"true": true, "false": true, "null": true,
}
