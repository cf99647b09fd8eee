package token

import (
	"strings"

	"github.com/crisp-lang/crisp/pkg/source"
)

// Lexer is a hand-written single-pass scanner (spec.md §4.2). It is not
// reused across sources; construct one per Tokenize call.
type Lexer struct {
	src  []byte
	pos  int
	toks []Token
}

// Tokenize scans src into a complete token stream, always terminated by a
// single EndOfFile token (spec.md §4.2, §8 "Parser totality" depends on this
// always succeeding).
func Tokenize(src []byte) []Token {
	l := &Lexer{src: src}
	l.run()
	return l.toks
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '-'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) run() {
	leading := l.scanLeadingTrivia()
	for {
		if l.pos >= len(l.src) {
			l.toks = append(l.toks, Token{
				Kind:          EndOfFile,
				Text:          "",
				Span:          source.NewSpan(uint32(l.pos), uint32(l.pos)),
				LeadingTrivia: leading,
			})
			return
		}

		start := l.pos
		kind, text := l.scanToken()
		tok := Token{
			Kind:          kind,
			Text:          text,
			Span:          source.NewSpan(uint32(start), uint32(l.pos)),
			LeadingTrivia: leading,
		}
		tok.TrailingTrivia = l.scanTrailingTrivia()
		l.toks = append(l.toks, tok)

		leading = l.scanLeadingTrivia()
	}
}

// scanLeadingTrivia consumes whitespace, newlines, and line comments up to
// the next significant (non-trivia) character.
func (l *Lexer) scanLeadingTrivia() []Trivia {
	var trivia []Trivia
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		switch {
		case b == ' ' || b == '\t':
			start := l.pos
			for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
				l.pos++
			}
			trivia = append(trivia, l.mkTrivia(Whitespace, start))
		case b == '\n':
			start := l.pos
			l.pos++
			trivia = append(trivia, l.mkTrivia(Newline, start))
		case b == '\r':
			start := l.pos
			l.pos++
			if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.pos++
			}
			trivia = append(trivia, l.mkTrivia(Newline, start))
		case b == ';':
			start := l.pos
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
			trivia = append(trivia, l.mkTrivia(Comment, start))
		default:
			return trivia
		}
	}
	return trivia
}

// scanTrailingTrivia consumes whitespace and comments up to and including
// the next newline.
func (l *Lexer) scanTrailingTrivia() []Trivia {
	var trivia []Trivia
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		switch {
		case b == ' ' || b == '\t':
			start := l.pos
			for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
				l.pos++
			}
			trivia = append(trivia, l.mkTrivia(Whitespace, start))
		case b == ';':
			start := l.pos
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
			trivia = append(trivia, l.mkTrivia(Comment, start))
		case b == '\n':
			start := l.pos
			l.pos++
			trivia = append(trivia, l.mkTrivia(Newline, start))
			return trivia
		case b == '\r':
			start := l.pos
			l.pos++
			if l.pos < len(l.src) && l.src[l.pos] == '\n' {
				l.pos++
			}
			trivia = append(trivia, l.mkTrivia(Newline, start))
			return trivia
		default:
			return trivia
		}
	}
	return trivia
}

func (l *Lexer) mkTrivia(kind TriviaKind, start int) Trivia {
	return Trivia{
		Kind: kind,
		Text: string(l.src[start:l.pos]),
		Span: source.NewSpan(uint32(start), uint32(l.pos)),
	}
}

// precededByOpenParen reports whether the most recently emitted non-trivia
// token is a LeftParen with nothing but trivia between it and pos.
func (l *Lexer) precededByOpenParen() bool {
	if len(l.toks) == 0 {
		return false
	}
	return l.toks[len(l.toks)-1].Kind == LeftParen
}

// scanToken scans exactly one significant token body starting at l.pos.
func (l *Lexer) scanToken() (Kind, string) {
	start := l.pos
	b := l.peek()

	switch b {
	case '(':
		l.pos++
		return LeftParen, "("
	case ')':
		l.pos++
		return RightParen, ")"
	case '"':
		return l.scanString(start)
	case '.':
		if isIdentStart(l.peekAt(1)) {
			return l.scanMemberAccess(start)
		}
		if isDigit(l.peekAt(1)) {
			// A leading '.' followed by a digit with no integer part isn't
			// part of this grammar's numeric literal (which requires digits
			// before the '.'); treat as an error token of just the dot so
			// parsing can resync.
			l.pos++
			return Error, "."
		}
		l.pos++
		return Error, "."
	case '$':
		return l.scanBlackboardAccess(start)
	case ':':
		if l.peekAt(1) == ':' {
			return l.scanEnumLiteral(start)
		}
		return l.scanKeywordArg(start)
	case '<':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return LessEqual, "<="
		}
		if strings.HasPrefix(string(l.src[l.pos:]), "<body>") {
			l.pos += len("<body>")
			return BodyPlaceholder, "<body>"
		}
		l.pos++
		return LessThan, "<"
	case '>':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return GreaterEqual, ">="
		}
		l.pos++
		return GreaterThan, ">"
	case '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return NotEqual, "!="
		}
		l.pos++
		return Error, "!"
	case '=':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return Equal, "=="
		}
		l.pos++
		return Equal, "="
	case '+':
		l.pos++
		return Plus, "+"
	case '*':
		l.pos++
		return Star, "*"
	case '/':
		l.pos++
		return Slash, "/"
	case '%':
		l.pos++
		return Percent, "%"
	case '-':
		return l.scanMinus(start)
	}

	if isDigit(b) {
		return l.scanNumber(start)
	}
	if isIdentStart(b) {
		return l.scanIdentifier(start)
	}

	return l.scanErrorRun(start)
}

func (l *Lexer) scanString(start int) (Kind, string) {
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		if b == '\\' {
			l.pos++
			if l.pos < len(l.src) {
				l.pos++
			}
			continue
		}
		if b == '"' {
			l.pos++
			return StringLiteral, string(l.src[start:l.pos])
		}
		l.pos++
	}
	// Unterminated: still one token, span ends at EOF.
	return StringLiteral, string(l.src[start:l.pos])
}

func (l *Lexer) scanMemberAccess(start int) (Kind, string) {
	l.pos++ // '.'
	l.pos++ // first ident-start char already validated by caller
	for l.pos < len(l.src) {
		if l.src[l.pos] == '.' && isIdentStart(l.peekAt(1)) {
			l.pos++
			l.pos++
			continue
		}
		if isIdentCont(l.src[l.pos]) {
			l.pos++
			continue
		}
		break
	}
	return MemberAccess, string(l.src[start:l.pos])
}

func (l *Lexer) scanBlackboardAccess(start int) (Kind, string) {
	l.pos++ // '$'
	if l.peek() != '.' || !isIdentStart(l.peekAt(1)) {
		// '$' with no member-access tail: error token of just the '$'.
		return Error, string(l.src[start:l.pos])
	}
	l.pos++ // '.'
	l.pos++ // ident-start
	for l.pos < len(l.src) {
		if l.src[l.pos] == '.' && isIdentStart(l.peekAt(1)) {
			l.pos++
			l.pos++
			continue
		}
		if isIdentCont(l.src[l.pos]) {
			l.pos++
			continue
		}
		break
	}
	return BlackboardAccess, string(l.src[start:l.pos])
}

func (l *Lexer) scanEnumLiteral(start int) (Kind, string) {
	l.pos += 2 // '::'
	if !isIdentStart(l.peek()) {
		return Error, string(l.src[start:l.pos])
	}
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	if l.peek() == '.' && isIdentStart(l.peekAt(1)) {
		l.pos++
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
	}
	return EnumLiteral, string(l.src[start:l.pos])
}

func (l *Lexer) scanKeywordArg(start int) (Kind, string) {
	l.pos++ // ':'
	if !isIdentStart(l.peek()) {
		return Error, string(l.src[start:l.pos])
	}
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	return KeywordArg, string(l.src[start:l.pos])
}

// scanMinus implements §4.2's context-sensitive minus rule: '-' is an
// operator when it immediately follows '(' (ignoring whitespace/newlines)
// and also when not followed by a digit. Otherwise it binds to the digits
// that follow as a negative numeric literal.
func (l *Lexer) scanMinus(start int) (Kind, string) {
	if l.precededByOpenParen() {
		l.pos++
		return Minus, "-"
	}
	if !isDigit(l.peekAt(1)) {
		l.pos++
		return Minus, "-"
	}
	return l.scanNumber(start)
}

func (l *Lexer) scanNumber(start int) (Kind, string) {
	if l.peek() == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if isFloat {
		return FloatLiteral, string(l.src[start:l.pos])
	}
	return IntLiteral, string(l.src[start:l.pos])
}

func (l *Lexer) scanIdentifier(start int) (Kind, string) {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	switch text {
	case "true":
		return BoolTrue, text
	case "false":
		return BoolFalse, text
	case "null":
		return NullLiteral, text
	}
	return Identifier, text
}

// scanErrorRun consumes an unrecognized run up to the next whitespace or
// paren, emitting it as a single Error token; lexing resumes after it.
func (l *Lexer) scanErrorRun(start int) (Kind, string) {
	l.pos++
	for l.pos < len(l.src) {
		b := l.src[l.pos]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '(' || b == ')' {
			break
		}
		l.pos++
	}
	return Error, string(l.src[start:l.pos])
}
