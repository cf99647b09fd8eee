package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// reassemble concatenates every token's leading trivia, text, and trailing
// trivia in emission order — spec.md §8's lossless-tokenization property.
func reassemble(toks []Token) string {
	var b []byte
	for _, t := range toks {
		for _, tr := range t.LeadingTrivia {
			b = append(b, tr.Text...)
		}
		b = append(b, t.Text...)
		for _, tr := range t.TrailingTrivia {
			b = append(b, tr.Text...)
		}
	}
	return string(b)
}

func TestLosslessTokenization(t *testing.T) {
	sources := []string{
		`(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`,
		"; a leading comment\n(tree T (.Act)) ; trailing\n",
		`(if (.A) (.B) (.C))`,
		"(parallel :n 2 (.A) (.B))\r\n(seq)\r(check true)",
		`"unterminated string`,
		`$.Blackboard.Value ::Enum.Member :kw <body>`,
		`garbled#$%^tokens (ok)`,
	}
	for _, s := range sources {
		toks := Tokenize([]byte(s))
		require.Equal(t, s, reassemble(toks), "source: %q", s)
		require.Equal(t, EndOfFile, toks[len(toks)-1].Kind)
	}
}

func TestMemberAccessSingleToken(t *testing.T) {
	toks := Tokenize([]byte(`.Foo.Bar.Baz`))
	require.Equal(t, MemberAccess, toks[0].Kind)
	require.Equal(t, ".Foo.Bar.Baz", toks[0].Text)
}

func TestMinusOperatorVsNegativeLiteral(t *testing.T) {
	toks := Tokenize([]byte(`(- 1 2)`))
	require.Equal(t, Minus, toks[1].Kind)

	toks = Tokenize([]byte(`-5`))
	require.Equal(t, IntLiteral, toks[0].Kind)
	require.Equal(t, "-5", toks[0].Text)

	toks = Tokenize([]byte(`(foo -5)`))
	require.Equal(t, IntLiteral, toks[2].Kind)
	require.Equal(t, "-5", toks[2].Text)
}

func TestFloatRequiresFractionalDigit(t *testing.T) {
	toks := Tokenize([]byte(`1.5`))
	require.Equal(t, FloatLiteral, toks[0].Kind)

	toks = Tokenize([]byte(`1.Foo`))
	require.Equal(t, IntLiteral, toks[0].Kind)
	require.Equal(t, MemberAccess, toks[1].Kind)
	require.Equal(t, ".Foo", toks[1].Text)
}

func TestTwoCharOperators(t *testing.T) {
	toks := Tokenize([]byte(`<= >= !=`))
	require.Equal(t, LessEqual, toks[0].Kind)
	require.Equal(t, GreaterEqual, toks[1].Kind)
	require.Equal(t, NotEqual, toks[2].Kind)
}

func TestBoolAndNullLiterals(t *testing.T) {
	toks := Tokenize([]byte(`true false null`))
	require.Equal(t, BoolTrue, toks[0].Kind)
	require.Equal(t, BoolFalse, toks[1].Kind)
	require.Equal(t, NullLiteral, toks[2].Kind)
}

func TestStringEscapes(t *testing.T) {
	toks := Tokenize([]byte(`"a\"b\n"`))
	require.Equal(t, StringLiteral, toks[0].Kind)
	require.Equal(t, `"a\"b\n"`, toks[0].Text)
}

func TestEOFLeadingTriviaAttachesToEOF(t *testing.T) {
	toks := Tokenize([]byte("(.A)\n; trailing comment at eof\n"))
	last := toks[len(toks)-1]
	require.Equal(t, EndOfFile, last.Kind)
}
