package sema

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/diag"
)

// Analyze runs C5, C6, and C7 in the fixed order spec.md §4.5 requires —
// name resolution, then bottom-up type inference, then top-down type
// checking — sharing one SemanticModel and diagnostic bag across all three.
func Analyze(prog *ast.Node, root context.Descriptor, lookup BlackboardLookup, bag *diag.Bag) *Model {
	model := Resolve(prog, root, lookup, bag)
	Infer(prog, model, bag)
	Check(prog, model, bag)
	return model
}
