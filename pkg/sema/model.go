// Package sema implements Crisp's semantic analysis: name resolution
// (C5), bottom-up type inference (C6), and top-down type checking (C7)
// (spec.md §4.5), sharing one SemanticModel and one diagnostic bag across
// all three phases.
package sema

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/types"
)

// Symbol is the resolved member a MemberPath was matched against.
type Symbol struct {
	Member context.Member
	Path   ast.MemberPath

	// ResolvedPath is Path's source (possibly kebab-case) segments rewritten
	// to the exact member name each one matched (spec.md §4.5's candidate
	// search, collapsed to its winning candidate per segment). The
	// interpreter (pkg/interp) walks this directly by exact name rather than
	// re-running candidate matching against live Go values at tick time.
	ResolvedPath ast.MemberPath

	// NullableDeref names the first non-final path segment whose member is
	// Annotated-nullable — a segment the path navigates *through* on its way
	// to Member, rather than the path's own final result. Empty when no such
	// segment exists. Check's null-safety pass (spec.md §4.9) reads it to
	// report dereference-possibly-null.
	NullableDeref string
}

// Model is the SemanticModel (spec.md §4.5): "a mapping from AST node ->
// resolved member symbol, and from AST expression -> inferred CrispType."
// Keys are Go pointer identity of the *ast.Node, not its CstOrigin id,
// since defdec/defmacro expansion can clone many distinct AST nodes that
// share one CstOrigin.
type Model struct {
	symbols map[*ast.Node]Symbol
	infer   map[*ast.Node]types.CrispType
}

func NewModel() *Model {
	return &Model{symbols: map[*ast.Node]Symbol{}, infer: map[*ast.Node]types.CrispType{}}
}

func (m *Model) SetSymbol(n *ast.Node, s Symbol) { m.symbols[n] = s }

func (m *Model) Symbol(n *ast.Node) (Symbol, bool) {
	s, ok := m.symbols[n]
	return s, ok
}

func (m *Model) SetType(n *ast.Node, t types.CrispType) { m.infer[n] = t }

// Type returns the inferred type for an expression node, or Unknown if
// inference never visited it.
func (m *Model) Type(n *ast.Node) types.CrispType {
	t, ok := m.infer[n]
	if !ok {
		return types.Unknown
	}
	return t
}
