package lsp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/query"
)

type Agent struct {
	Health int
}

type BtStatus int

const Success BtStatus = 0

func (a *Agent) Flee() BtStatus { return Success }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg, rootDesc := context.FromStruct(&Agent{}, nil)
	return NewServer(func(id query.FileID) (context.Descriptor, func(string) (context.Descriptor, bool)) {
		return rootDesc, func(name string) (context.Descriptor, bool) { return reg.Lookup(name) }
	})
}

const agentSource = `(tree T (select (seq (check (< .Health 30)) (.Flee)) (.Flee)))`

func setSource(t *testing.T, s *Server, id query.FileID, text string) {
	t.Helper()
	_, err := s.handleSetSource(nil, SetSourceParams{FileID: id, Text: text})
	require.NoError(t, err)
}

func TestBuildTreeLayoutLabelsActionAndConditionNodes(t *testing.T) {
	s := newTestServer(t)
	id := query.FileID("agent.crisp")
	setSource(t, s, id, agentSource)

	idx := s.indexes[id]
	trees := s.buildTreeLayout(id, idx)
	require.Len(t, trees, 1)

	root := trees[0]
	require.Equal(t, "tree", root.Type)
	require.Equal(t, "T", root.Label)
	require.Len(t, root.Children, 1)

	sel := root.Children[0]
	require.Equal(t, "select", sel.Type)
	require.Len(t, sel.Children, 2)

	seq := sel.Children[0]
	require.Equal(t, "seq", seq.Type)
	require.Len(t, seq.Children, 2)
	require.Equal(t, "check", seq.Children[0].Type)
	// The condition is a binary comparison, not a bare member reference, so
	// there is no single member path to surface as a label — it falls back
	// to the kind name, same as any node nodeLabel has no special case for.
	require.Equal(t, "check", seq.Children[0].Label)
	require.Equal(t, "action", seq.Children[1].Type)
	require.Equal(t, "Flee", seq.Children[1].Label)

	fallback := sel.Children[1]
	require.Equal(t, "action", fallback.Type)
	require.Equal(t, "Flee", fallback.Label)
}

func TestBuildTreeDiagnosticsAttributesUnknownMemberToANode(t *testing.T) {
	s := newTestServer(t)
	id := query.FileID("agent.crisp")
	setSource(t, s, id, `(tree T (.Unknown))`)

	idx := s.indexes[id]
	_, ok := s.store.TypeCheck(id)
	require.True(t, ok)

	diags := s.buildTreeDiagnostics(id, idx)
	require.NotEmpty(t, diags)
	for _, d := range diags {
		require.NotEqual(t, "", d.Severity)
	}
}

func TestHandleRemoveNodeDeletesTheNodesExactSpan(t *testing.T) {
	s := newTestServer(t)
	id := query.FileID("agent.crisp")
	setSource(t, s, id, agentSource)

	root, _ := s.store.Parse(id)
	require.NotEmpty(t, root.Children)

	edits, err := s.handleRemoveNode(nil, RemoveNodeParams{FileID: id, NodeID: root.ID})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	require.Equal(t, s.indexes[id].RangeOf(root.Span), edits[0].Range)
}

func TestHandleWrapNodeWrapsOriginalSourceText(t *testing.T) {
	s := newTestServer(t)
	id := query.FileID("agent.crisp")
	setSource(t, s, id, `(tree T (.Flee))`)

	root, _ := s.store.Parse(id)

	edits, err := s.handleWrapNode(nil, WrapNodeParams{FileID: id, NodeID: root.ID, Keyword: "invert"})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	require.Contains(t, edits[0].NewText, "(invert ")
}

func TestHandleUnwrapNodeRequiresExactlyOneChild(t *testing.T) {
	s := newTestServer(t)
	id := query.FileID("agent.crisp")
	setSource(t, s, id, `(tree T (.Flee)) (tree U (.Flee))`)

	root, _ := s.store.Parse(id)
	require.Len(t, root.Children, 2, "program must have two top-level tree defs for this to exercise the multi-child case")
	_, err := s.handleUnwrapNode(nil, UnwrapNodeParams{FileID: id, NodeID: root.ID})
	require.Error(t, err)
}
