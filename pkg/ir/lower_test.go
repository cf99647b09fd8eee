package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/sema"
	"github.com/crisp-lang/crisp/pkg/token"
	"github.com/crisp-lang/crisp/pkg/types"
)

type BtStatus int

const Success BtStatus = 0

type Agent struct {
	Health int
}

func (a *Agent) Flee() BtStatus            { return Success }
func (a *Agent) Heal(amount float64) BtStatus { return Success }

func buildIR(t *testing.T, src string) (*Node, *diag.Bag) {
	t.Helper()
	toks := token.Tokenize([]byte(src))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	prog := ast.Lower(root, &bag)
	prog = ast.Expand(prog, &bag)
	_, rootDesc := context.FromStruct(&Agent{}, nil)
	model := sema.Analyze(prog, rootDesc, nil, &bag)
	require.False(t, bag.HasErrors())
	tree := prog.Children[0]
	return LowerTree(tree, model), &bag
}

func TestLowerSelectorSequence(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Flee)))`)
	require.Equal(t, Tree, irTree.Kind)
	sel := irTree.Children[0]
	require.Equal(t, Selector, sel.Kind)
	seq := sel.Children[0]
	require.Equal(t, Sequence, seq.Kind)
	cond := seq.Children[0]
	require.Equal(t, Condition, cond.Kind)
	require.Equal(t, BinaryOp, cond.Cond.Kind)
	action := seq.Children[1]
	require.Equal(t, Action, action.Kind)
	require.Equal(t, "Flee", action.Method.Name)
}

func TestLowerInsertsConvertForIntArgAgainstFloatParam(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (.Heal 3))`)
	action := irTree.Children[0]
	require.Equal(t, Action, action.Kind)
	require.Len(t, action.Args, 1)
	require.Equal(t, Convert, action.Args[0].Kind)
	require.Equal(t, types.Float, action.Args[0].TargetType)
	require.Equal(t, Literal, action.Args[0].Operand.Kind)
	require.Equal(t, int64(3), action.Args[0].Operand.IntVal)
}

func TestLowerInsertsConvertForMixedArithmeticOperand(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (check (< (+ .Health 1.5) 10)))`)
	cond := irTree.Children[0]
	cmp := cond.Cond
	require.Equal(t, BinaryOp, cmp.Kind)
	add := cmp.Operands[0]
	require.Equal(t, BinaryOp, add.Kind)
	// .Health is Int, 1.5 is Float -> the Health operand gets wrapped in Convert.
	require.Equal(t, Convert, add.Operands[0].Kind)
	require.Equal(t, MemberLoad, add.Operands[0].Operand.Kind)
	require.Equal(t, Literal, add.Operands[1].Kind)
}

func TestLowerRepeatAndTimeoutPreserveCountAndSeconds(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (timeout 5 (repeat 3 (.Flee))))`)
	timeout := irTree.Children[0]
	require.Equal(t, Timeout, timeout.Kind)
	require.Equal(t, Literal, timeout.Seconds.Kind)
	require.Equal(t, int64(5), timeout.Seconds.IntVal)
	repeat := timeout.Body
	require.Equal(t, Repeat, repeat.Kind)
	require.Equal(t, 3, repeat.Count)
}

func TestLowerParallelPreservesPolicy(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (parallel :n 1 (.Flee) (.Flee)))`)
	par := irTree.Children[0]
	require.Equal(t, Parallel, par.Kind)
	require.Equal(t, ast.PolicyN, par.Policy.Kind)
	require.Equal(t, 1, par.Policy.N)
}

func TestLowerTimeoutDurationCanBeAnExpression(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (timeout (+ 2 3) (.Flee)))`)
	timeout := irTree.Children[0]
	require.Equal(t, Timeout, timeout.Kind)
	require.Equal(t, BinaryOp, timeout.Seconds.Kind)
	require.Equal(t, "+", timeout.Seconds.Op)
}

func TestLowerPreservesAstNodeID(t *testing.T) {
	irTree, _ := buildIR(t, `(tree T (.Flee))`)
	action := irTree.Children[0]
	require.NotZero(t, action.AstID)
}
