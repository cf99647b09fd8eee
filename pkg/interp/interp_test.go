package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/interp"
	"github.com/crisp-lang/crisp/pkg/ir"
	"github.com/crisp-lang/crisp/pkg/sema"
	"github.com/crisp-lang/crisp/pkg/token"
)

// BtStatus is named to match context/reflect.go's Go-type-name convention
// for mapping a host status enum onto types.BtStatus.
type BtStatus int

const (
	Success BtStatus = iota
	Failure
	Running
)

type Squad struct {
	Morale int
}

type Agent struct {
	Health  int
	Ammo    int
	Squad   Squad
	digTick int
}

func (a *Agent) Flee() BtStatus   { return Success }
func (a *Agent) Patrol() BtStatus { return Failure }

func (a *Agent) Heal(amount float64) BtStatus {
	a.Health += int(amount)
	return Success
}

// Dig runs Running for its first two ticks, then Success.
func (a *Agent) Dig() BtStatus {
	a.digTick++
	if a.digTick < 3 {
		return Running
	}
	return Success
}

func buildTree(t *testing.T, src string, agent *Agent) *ir.Node {
	t.Helper()
	toks := token.Tokenize([]byte(src))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	prog := ast.Lower(root, &bag)
	prog = ast.Expand(prog, &bag)
	reg, rootDesc := context.FromStruct(agent, nil)
	lookup := func(name string) (context.Descriptor, bool) { return reg.Lookup(name) }
	model := sema.Analyze(prog, rootDesc, lookup, &bag)
	require.False(t, bag.HasErrors(), "%v", bag.All())
	return ir.LowerTree(prog.Children[0], model)
}

func TestTickSelectorReturnsFirstNonFailure(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (select (.Patrol) (.Flee)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
}

func TestTickSequenceStopsAtFirstNonSuccess(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (seq (.Flee) (.Patrol) (.Flee)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Failure, s)
}

func TestTickConditionEvaluatesMemberAccess(t *testing.T) {
	agent := &Agent{Health: 10}
	tree := buildTree(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)

	agent2 := &Agent{Health: 90}
	tree2 := buildTree(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`, agent2)
	it2 := interp.NewInterpreter(agent2, nil, nil)
	s2, err := it2.Tick(tree2, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Failure, s2)
}

func TestTickRepeatRunsNTimes(t *testing.T) {
	agent := &Agent{Health: 0}
	tree := buildTree(t, `(tree T (repeat 3 (.Heal 1)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
	require.Equal(t, 3, agent.Health)
}

func TestTickParallelAny(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (parallel :any (.Patrol) (.Flee)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
}

func TestTickParallelAll(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (parallel :all (.Patrol) (.Flee)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Failure, s)
}

func TestTickInvertSwapsSuccessAndFailure(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (invert (.Patrol)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
}

func TestTickTimeoutFailsOnceDurationElapses(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (timeout 1 (.Dig)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)

	s, err := it.Tick(tree, interp.TickContext{DeltaTime: 0.5})
	require.NoError(t, err)
	require.Equal(t, interp.Running, s)

	s, err = it.Tick(tree, interp.TickContext{DeltaTime: 0.6})
	require.NoError(t, err)
	require.Equal(t, interp.Failure, s)
}

func TestTickTimeoutPassesThroughOnChildSuccess(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (timeout 100 (.Dig)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)

	require.Equal(t, interp.Running, mustTick(t, it, tree))
	require.Equal(t, interp.Running, mustTick(t, it, tree))
	require.Equal(t, interp.Success, mustTick(t, it, tree))
}

func TestTickCooldownBlocksUntilTimerElapses(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (cooldown 2 (.Flee)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)

	require.Equal(t, interp.Success, mustTick(t, it, tree)) // first tick: cooldown empty, ticks child, arms for 2s

	s, err := it.Tick(tree, interp.TickContext{DeltaTime: 1})
	require.NoError(t, err)
	require.Equal(t, interp.Failure, s) // still cooling down

	s, err = it.Tick(tree, interp.TickContext{DeltaTime: 1.5})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s) // timer elapsed, ticks child again
}

func TestResetClearsStatefulTables(t *testing.T) {
	agent := &Agent{}
	tree := buildTree(t, `(tree T (timeout 1 (.Dig)))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	require.Equal(t, interp.Running, mustTick(t, it, tree))
	it.Reset()
	s, err := it.Tick(tree, interp.TickContext{DeltaTime: 0.5})
	require.NoError(t, err)
	require.Equal(t, interp.Running, s) // accumulation restarted from zero, not continued
}

func TestCallArgumentCoercesIntLiteralToFloatParam(t *testing.T) {
	agent := &Agent{Health: 0}
	tree := buildTree(t, `(tree T (.Heal 5))`, agent)
	it := interp.NewInterpreter(agent, nil, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
	require.Equal(t, 5, agent.Health)
}

func TestBlackboardAccessReadsSeparateRoot(t *testing.T) {
	toks := token.Tokenize([]byte(`(tree T :blackboard Squad (check (< $.Morale 50)))`))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	prog := ast.Lower(root, &bag)
	prog = ast.Expand(prog, &bag)
	agent := &Agent{}
	reg, rootDesc := context.FromStruct(agent, nil)
	squad := &Squad{Morale: 10}
	reg.Describe(squad, nil)
	lookup := func(name string) (context.Descriptor, bool) { return reg.Lookup(name) }
	model := sema.Analyze(prog, rootDesc, lookup, &bag)
	require.False(t, bag.HasErrors(), "%v", bag.All())

	tree := ir.LowerTree(prog.Children[0], model)
	it := interp.NewInterpreter(agent, squad, nil)
	s, err := it.Tick(tree, interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
}

func TestRefResolvesAgainstTreeRegistry(t *testing.T) {
	toks := token.Tokenize([]byte(`(tree Main (ref Sub)) (tree Sub (.Flee))`))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	prog := ast.Lower(root, &bag)
	prog = ast.Expand(prog, &bag)
	agent := &Agent{}
	_, rootDesc := context.FromStruct(agent, nil)
	model := sema.Analyze(prog, rootDesc, nil, &bag)
	require.False(t, bag.HasErrors(), "%v", bag.All())

	trees := map[string]*ir.Node{}
	for _, c := range prog.Children {
		trees[c.Name] = ir.LowerTree(c, model)
	}
	it := interp.NewInterpreter(agent, nil, trees)
	s, err := it.Tick(trees["Main"], interp.TickContext{})
	require.NoError(t, err)
	require.Equal(t, interp.Success, s)
}

func mustTick(t *testing.T, it *interp.Interpreter, n *ir.Node) interp.BtStatus {
	t.Helper()
	s, err := it.Tick(n, interp.TickContext{DeltaTime: 0.5})
	require.NoError(t, err)
	return s
}
