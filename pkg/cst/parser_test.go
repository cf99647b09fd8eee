package cst

import (
	"testing"

	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/token"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) (*Node, *diag.Bag) {
	t.Helper()
	toks := token.Tokenize([]byte(src))
	var bag diag.Bag
	root := Parse(toks, &bag)
	require.NotNil(t, root)
	return root, &bag
}

func TestParserTotalityOnMalformedInput(t *testing.T) {
	sources := []string{
		``,
		`(`,
		`(tree T`,
		`(((((`,
		`)))))`,
		`(tree T (select (check true`,
		`garbage !@# tokens`,
		`(tree T (parallel (.A) (.B)))`, // missing policy keyword
	}
	for _, s := range sources {
		root, _ := parse(t, s)
		require.Equal(t, Program, root.Kind)
	}
}

func TestSpanNesting(t *testing.T) {
	root, bag := parse(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`)
	require.False(t, bag.HasErrors())

	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			require.True(t, n.Span.Covers(c.Span), "parent %v should cover child %v", n.Span, c.Span)
			walk(c)
		}
	}
	walk(root)
}

func TestNodeIDInjection(t *testing.T) {
	root, _ := parse(t, `(tree T (select (.A) (.B)))`)

	seen := map[uint32]bool{}
	ids := []uint32{}
	root.Walk(func(n *Node) bool {
		require.False(t, seen[n.ID], "duplicate node id %d", n.ID)
		seen[n.ID] = true
		ids = append(ids, n.ID)
		return true
	})
	require.Equal(t, uint32(0), root.ID)
	for i := 1; i < len(ids); i++ {
		require.Less(t, ids[i-1], ids[i])
	}
}

func TestMinimalTreeShape(t *testing.T) {
	root, bag := parse(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`)
	require.False(t, bag.HasErrors())
	require.Len(t, root.Children, 1)

	tree := root.Children[0]
	require.Equal(t, TreeDef, tree.Kind)
	require.Equal(t, "T", tree.Children[0].Text)

	sel := tree.Children[1]
	require.Equal(t, Select, sel.Kind)
	require.Len(t, sel.Children, 2)

	seq := sel.Children[0]
	require.Equal(t, Seq, seq.Kind)
	check := seq.Children[0]
	require.Equal(t, Check, check.Kind)
	cmp := check.Children[0]
	require.Equal(t, BinaryExpr, cmp.Kind)
	require.Equal(t, "<", cmp.Text)
}

func TestParallelPolicy(t *testing.T) {
	root, bag := parse(t, `(tree T (parallel :n 2 (.A) (.B)))`)
	require.False(t, bag.HasErrors())
	par := root.Children[0].Children[1]
	require.Equal(t, Parallel, par.Kind)
	require.Equal(t, KeywordArg, par.Children[0].Kind)
	require.Equal(t, ":n", par.Children[0].Text)
	require.Equal(t, IntLit, par.Children[1].Kind)
	require.Equal(t, "2", par.Children[1].Text)
}

func TestIfWithAndWithoutElse(t *testing.T) {
	root, bag := parse(t, `(tree T (if (.Cond) (.Then) (.Else)) )`)
	require.False(t, bag.HasErrors())
	ifNode := root.Children[0].Children[1]
	require.Equal(t, If, ifNode.Kind)
	require.Len(t, ifNode.Children, 3)

	root2, _ := parse(t, `(tree T (if (.Cond) (.Then)))`)
	ifNode2 := root2.Children[0].Children[1]
	require.Len(t, ifNode2.Children, 2)
}

func TestDefdecCallShape(t *testing.T) {
	root, bag := parse(t, `(defdec guarded-timeout (s) (guard .IsAlive (timeout s <body>))) (tree T (guarded-timeout 1.0 (.Act)))`)
	require.False(t, bag.HasErrors())
	require.Len(t, root.Children, 2)

	def := root.Children[0]
	require.Equal(t, Defdec, def.Kind)
	require.Equal(t, "guarded-timeout", def.Children[0].Text)
	require.Equal(t, ParamList, def.Children[1].Kind)
	require.Equal(t, "s", def.Children[1].Children[0].Text)

	call := root.Children[1].Children[1]
	require.Equal(t, DefdecCall, call.Kind)
	require.Equal(t, "guarded-timeout", call.Text)
	require.Len(t, call.Children, 2)
	require.Equal(t, FloatLit, call.Children[0].Kind)
	require.Equal(t, Call, call.Children[1].Kind)
}

func TestUnmatchedOpenParenProducesMissing(t *testing.T) {
	root, bag := parse(t, `(tree T (select (.A)`)
	require.True(t, bag.HasErrors())
	foundMissing := false
	root.Walk(func(n *Node) bool {
		if n.Kind == Missing {
			foundMissing = true
		}
		return true
	})
	require.True(t, foundMissing)
}
