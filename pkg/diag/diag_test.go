package diag

import (
	"testing"

	"github.com/crisp-lang/crisp/pkg/source"
	"github.com/stretchr/testify/require"
)

func TestBagHasErrors(t *testing.T) {
	var b Bag
	require.False(t, b.HasErrors())

	b.Add("if-without-else", source.NewSpan(0, 1))
	require.False(t, b.HasErrors())

	b.Add("member-not-found", source.NewSpan(0, 1), "Foo", "Bar")
	require.True(t, b.HasErrors())
	require.Equal(t, 2, b.Len())
}

func TestDiagnosticMessageFormatting(t *testing.T) {
	d := Diagnostic{ID: "member-not-found", Args: []any{"Flee", "Agent"}}
	require.Equal(t, `no member "Flee" on type Agent`, d.Message())
	require.Equal(t, Error, d.Severity())
}

func TestEveryTaxonomyIDHasADescriptor(t *testing.T) {
	ids := []string{
		"parse-error", "unexpected-token", "unterminated-string",
		"unmatched-open-paren", "unexpected-close-paren", "unused-tree",
		"member-not-found", "external-file-not-found", "ambiguous-overload",
		"missing-interface", "enum-type-not-found", "enum-member-not-found",
		"ambiguous-member-name", "type-mismatch", "cannot-compare",
		"invalid-arithmetic", "argument-count-mismatch", "argument-type-mismatch",
		"bool-required", "btstatus-required", "reactive-condition-type",
		"invalid-repeat-count", "invalid-duration", "insufficient-children",
		"unreachable-node", "if-without-else", "recursive-defdec",
		"defdec-not-found", "defdec-param-count-mismatch", "missing-body-placeholder",
		"multiple-body-placeholders", "macro-not-found", "macro-arg-count-mismatch",
		"macro-depth-exceeded", "recursive-macro", "invalid-macro-expansion",
		"type-argument-constraint-violation", "type-argument-count-mismatch",
		"open-generic-used-as-context", "dereference-possibly-null",
		"compare-null-always-true", "compare-null-always-false",
		"null-check-unnecessary", "obsolete-member", "internal-error",
	}
	for _, id := range ids {
		_, ok := Descriptors[id]
		require.True(t, ok, "missing descriptor for %q", id)
	}
}
