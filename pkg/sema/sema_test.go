package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/token"
	"github.com/crisp-lang/crisp/pkg/types"
)

// BtStatus stands in for a host's action-result carrier — named exactly
// "BtStatus" so context.FromStruct's reflection maps it onto types.BtStatus.
type BtStatus int

const (
	Success BtStatus = iota
	Failure
	Running
)

type Weapon struct {
	Ammo int
}

type Agent struct {
	Weapon
	Health int
	Target *Agent
}

func (a *Agent) IsAlive() bool               { return a.Health > 0 }
func (a *Agent) Flee() BtStatus              { return Success }
func (a *Agent) Attack(power int) BtStatus   { return Success }
func (a *Agent) Heal(amount float64) BtStatus { return Success }

type Squad struct {
	Morale int
}

func analyze(t *testing.T, src string) (*Model, *diag.Bag, *ast.Node) {
	t.Helper()
	toks := token.Tokenize([]byte(src))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	prog := ast.Lower(root, &bag)
	prog = ast.Expand(prog, &bag)

	reg, rootDesc := context.FromStruct(&Agent{}, nil)
	reg.Describe(&Squad{}, nil)
	lookup := func(name string) (context.Descriptor, bool) { return reg.Lookup(name) }

	model := Analyze(prog, rootDesc, lookup, &bag)
	return model, &bag, prog
}

func TestResolveMemberAccessAndActionCall(t *testing.T) {
	_, bag, prog := analyze(t, `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Attack 3)))`)
	require.False(t, bag.HasErrors())

	tree := prog.Children[0]
	sel := tree.Children[0]
	seq := sel.Children[0]
	flee := seq.Children[1]
	require.Equal(t, ast.ActionCall, flee.Kind)

	attack := sel.Children[1]
	require.Equal(t, ast.ActionCall, attack.Kind)
}

func TestInferArithmeticPromotesToFloat(t *testing.T) {
	model, bag, prog := analyze(t, `(tree T (check (< (+ .Health 1.5) 10)))`)
	require.False(t, bag.HasErrors())

	tree := prog.Children[0]
	check := tree.Children[0]
	cmp := check.Children[0]
	add := cmp.Children[0]
	require.Equal(t, types.Float, model.Type(add))
	require.Equal(t, types.Bool, model.Type(cmp))
}

func TestCheckRequiresBool(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (check .Health))`)
	require.True(t, bag.HasErrors())
	foundBoolRequired := false
	for _, d := range bag.All() {
		if d.ID == "bool-required" {
			foundBoolRequired = true
		}
	}
	require.True(t, foundBoolRequired)
}

func TestActionCallMustReturnBtStatus(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (.IsAlive))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "btstatus-required" {
			found = true
		}
	}
	require.True(t, found)
}

func TestArgumentTypeMismatchReportsDiagnostic(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (.Attack "not-a-number"))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "argument-type-mismatch" {
			found = true
		}
	}
	require.True(t, found)
}

func TestArgumentIntPromotesToFloatParam(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (.Heal 3))`)
	require.False(t, bag.HasErrors())
}

func TestUnresolvedMemberReportsDiagnostic(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (check (< .Nope 1)))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "member-not-found" {
			found = true
		}
	}
	require.True(t, found)
}

func TestIfWithoutElseEmitsInfo(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (if (< .Health 10) (.Flee)))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "if-without-else" {
			found = true
		}
	}
	require.True(t, found)
}

func TestUnreachableSiblingAfterStaticTrueCheckInSelector(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (select (check true) (.Flee)))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "unreachable-node" {
			found = true
		}
	}
	require.True(t, found)
}

func TestBlackboardAccessResolvesAgainstDeclaredType(t *testing.T) {
	model, bag, prog := analyze(t, `(tree T :blackboard Squad (check (< $.Morale 5)))`)
	require.False(t, bag.HasErrors())

	tree := prog.Children[0]
	check := tree.Children[0]
	cmp := check.Children[0]
	bbAccess := cmp.Children[0]
	require.Equal(t, ast.BlackboardAccess, bbAccess.Kind)
	sym, ok := model.Symbol(bbAccess)
	require.True(t, ok)
	require.Equal(t, "Morale", sym.Member.Name)
}

func TestBlackboardAccessWithoutDeclaredTypeReportsDiagnostic(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (check (< $.Morale 5)))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "blackboard-not-configured" {
			found = true
		}
	}
	require.True(t, found)
}

func TestCandidatePrecedencePrefersPascalOverCamel(t *testing.T) {
	model, bag, prog := analyze(t, `(tree T (.is-alive))`)
	_ = bag
	tree := prog.Children[0]
	call := tree.Children[0]
	sym, ok := model.Symbol(call)
	require.True(t, ok)
	require.Equal(t, "IsAlive", sym.Member.Name)
}

// TestCandidatePrecedenceWithBothCasingsPresentWarnsAmbiguous exercises
// spec.md §8's literal property: when a type declares both "IsAlive" and
// "isAlive", ".is-alive" resolves to the PascalCase member (tried first) and
// reports an ambiguous-member-name warning naming the other. A Go-struct
// descriptor can never declare both (Go forbids two methods differing only
// by exported-ness of the same name), so this uses the schema-backed
// descriptor, which places no such restriction on declared method names.
func TestCandidatePrecedenceWithBothCasingsPresentWarnsAmbiguous(t *testing.T) {
	schema := context.Schema{
		Root: "Agent",
		Types: map[string]context.TypeDef{
			"Agent": {
				Name: "Agent",
				Methods: []context.MethodDef{
					{Name: "IsAlive", Returns: "Bool"},
					{Name: "isAlive", Returns: "Bool"},
				},
			},
		},
	}
	rootDesc, lookup, err := context.FromSchema(schema)
	require.NoError(t, err)

	toks := token.Tokenize([]byte(`(tree T (.is-alive))`))
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	prog := ast.Lower(root, &bag)
	prog = ast.Expand(prog, &bag)

	model := Analyze(prog, rootDesc, lookup, &bag)

	tree := prog.Children[0]
	call := tree.Children[0]
	sym, ok := model.Symbol(call)
	require.True(t, ok)
	require.Equal(t, "IsAlive", sym.Member.Name)

	found := false
	for _, d := range bag.All() {
		if d.ID == "ambiguous-member-name" {
			found = true
		}
	}
	require.True(t, found, "%v", bag.All())
}

// TestDereferenceThroughNullableFieldWarns exercises spec.md §4.9's
// dereference-possibly-null: Agent.Target is a pointer field (Annotated
// nullable), so navigating through it to reach .Health must warn.
func TestDereferenceThroughNullableFieldWarns(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (check (< .Target.Health 10)))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "dereference-possibly-null" {
			found = true
		}
	}
	require.True(t, found, "%v", bag.All())
}

// TestCompareNeverNullMemberAgainstNullWarns exercises spec.md §4.9's
// compare-null-always-{true,false}: Agent.Health is a plain int (NotAnnotated
// not-null), so comparing it against the null literal is statically decided
// either way, and (being the check's own condition) also redundant.
func TestCompareNeverNullMemberAgainstNullWarns(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (check (== .Health null)))`)
	foundFalse, foundRedundant := false, false
	for _, d := range bag.All() {
		switch d.ID {
		case "compare-null-always-false":
			foundFalse = true
		case "null-check-unnecessary":
			foundRedundant = true
		}
	}
	require.True(t, foundFalse, "%v", bag.All())
	require.True(t, foundRedundant, "%v", bag.All())
}

func TestCompareNeverNullMemberNotEqualNullWarnsAlwaysTrue(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (check (!= .Health null)))`)
	found := false
	for _, d := range bag.All() {
		if d.ID == "compare-null-always-true" {
			found = true
		}
	}
	require.True(t, found, "%v", bag.All())
}

// TestCompareNullableFieldAgainstNullDoesNotWarn: Target is Annotated
// nullable, so comparing it against null is a legitimate, non-redundant
// null check and must not trigger either nullable diagnostic.
func TestCompareNullableFieldAgainstNullDoesNotWarn(t *testing.T) {
	_, bag, _ := analyze(t, `(tree T (guard (!= .Target null) (.Flee)))`)
	for _, d := range bag.All() {
		require.NotEqual(t, "compare-null-always-true", d.ID)
		require.NotEqual(t, "compare-null-always-false", d.ID)
		require.NotEqual(t, "null-check-unnecessary", d.ID)
	}
}
