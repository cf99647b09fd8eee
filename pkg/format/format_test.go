package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/token"
)

func parse(t *testing.T, src string) *cst.Node {
	t.Helper()
	toks := token.Tokenize([]byte(src))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	require.False(t, bag.HasErrors())
	return root
}

func TestFormatFlatFitsOnOneLine(t *testing.T) {
	root := parse(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`)
	out := Format(root, DefaultOptions())
	require.Equal(t, "(tree T (select (seq (check (< .Health 30)) .Flee) .Patrol))\n", out)
}

func TestFormatBareZeroArgCallCanonicalizesAwayParens(t *testing.T) {
	root := parse(t, `(tree T (seq (.Flee) (.Patrol)))`)
	out := Format(root, DefaultOptions())
	require.Equal(t, "(tree T (seq .Flee .Patrol))\n", out)
}

func TestFormatFallsBackToMultilineWhenTooWide(t *testing.T) {
	root := parse(t, `(tree SomeVeryLongTreeName (select (seq (check (< .HealthPoints 30)) (.FleeFromDanger)) (.PatrolTheArea) (.DoSomethingElseEntirely)))`)
	opts := DefaultOptions()
	opts.MaxLineWidth = 40
	out := Format(root, opts)
	require.True(t, strings.Contains(out, "\n  "))
	require.True(t, strings.HasPrefix(out, "(tree SomeVeryLongTreeName\n"))
}

func TestFormatAlignCloseParenPutsItOnItsOwnLine(t *testing.T) {
	root := parse(t, `(tree T (select (.Flee) (.Patrol)))`)
	opts := DefaultOptions()
	opts.MaxLineWidth = 10
	opts.AlignCloseParen = true
	out := Format(root, opts)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Equal(t, ")", strings.TrimSpace(lines[len(lines)-1]))
}

func TestFormatPreservesStandaloneLeadingComment(t *testing.T) {
	src := "(tree T (seq\n  ; retreat first\n  (.Flee)\n  (.Patrol)))"
	root := parse(t, src)
	out := Format(root, DefaultOptions())
	require.True(t, strings.Contains(out, "; retreat first"))
}

func TestFormatInsertsBlankLineBetweenTrees(t *testing.T) {
	root := parse(t, `(tree A (.Flee)) (tree B (.Patrol))`)
	out := Format(root, DefaultOptions())
	require.Equal(t, "(tree A .Flee)\n\n(tree B .Patrol)\n", out)
}

func TestFormatNoBlankLineBetweenTreesWhenDisabled(t *testing.T) {
	root := parse(t, `(tree A (.Flee)) (tree B (.Patrol))`)
	opts := DefaultOptions()
	opts.InsertBlankLineBetweenTrees = false
	out := Format(root, opts)
	require.Equal(t, "(tree A .Flee)\n(tree B .Patrol)\n", out)
}
