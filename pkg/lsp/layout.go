package lsp

import (
	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/query"
	"github.com/crisp-lang/crisp/pkg/source"
)

// TreeLayoutParams is the treeLayout notification's payload (spec.md §6.5:
// "one entry per defined tree: root node with id/type/label/origin-span and
// recursive children").
type TreeLayoutParams struct {
	FileID query.FileID `json:"fileId"`
	Trees  []TreeNode   `json:"trees"`
}

// TreeNode is one node of a tree-layout entry.
type TreeNode struct {
	ID       uint32       `json:"id"`
	Type     string       `json:"type"`
	Label    string       `json:"label"`
	Span     source.Range `json:"span"`
	Children []TreeNode   `json:"children,omitempty"`
}

// TreeDiagnosticsParams is the treeDiagnostics notification's payload:
// node ids mapped to severity+message (spec.md §6.5).
type TreeDiagnosticsParams struct {
	FileID      query.FileID     `json:"fileId"`
	Diagnostics []NodeDiagnostic `json:"diagnostics"`
}

// NodeDiagnostic is one diagnostic attributed to a node id.
type NodeDiagnostic struct {
	NodeID   uint32 `json:"nodeId"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (s *Server) buildTreeLayout(id query.FileID, idx *source.Index) []TreeNode {
	prog, _ := s.store.Lower(id)
	if prog == nil {
		return nil
	}
	var trees []TreeNode
	for _, c := range prog.Children {
		if c.Kind != ast.TreeDef {
			continue
		}
		trees = append(trees, treeNodeOf(c, idx))
	}
	return trees
}

func treeNodeOf(n *ast.Node, idx *source.Index) TreeNode {
	out := TreeNode{
		ID:    n.ID(),
		Type:  kindLabel(n.Kind),
		Label: nodeLabel(n),
		Span:  idx.RangeOf(n.Span()),
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, treeNodeOf(c, idx))
	}
	return out
}

// nodeLabel gives a node a short human-facing label: the action/condition's
// member path for leaf behaviors, the tree's declared name for a TreeDef,
// the referenced tree's name for a Ref, and just the kind name otherwise.
func nodeLabel(n *ast.Node) string {
	switch n.Kind {
	case ast.TreeDef, ast.Ref:
		return n.Name
	case ast.ActionCall:
		if len(n.Path) > 0 {
			return n.Path.String()
		}
		return kindLabel(n.Kind)
	case ast.Check, ast.Guard, ast.If, ast.While, ast.Reactive:
		if len(n.Children) > 0 && n.Children[0] != nil && len(n.Children[0].Path) > 0 {
			return n.Children[0].Path.String()
		}
		return kindLabel(n.Kind)
	default:
		return kindLabel(n.Kind)
	}
}

func kindLabel(k ast.Kind) string {
	switch k {
	case ast.TreeDef:
		return "tree"
	case ast.Select:
		return "select"
	case ast.Seq:
		return "seq"
	case ast.Parallel:
		return "parallel"
	case ast.Check:
		return "check"
	case ast.Guard:
		return "guard"
	case ast.If:
		return "if"
	case ast.Invert:
		return "invert"
	case ast.Repeat:
		return "repeat"
	case ast.Timeout:
		return "timeout"
	case ast.Cooldown:
		return "cooldown"
	case ast.While:
		return "while"
	case ast.Reactive:
		return "reactive"
	case ast.ReactiveSelect:
		return "reactive-select"
	case ast.Ref:
		return "ref"
	case ast.ActionCall:
		return "action"
	default:
		return "node"
	}
}

func (s *Server) buildTreeDiagnostics(id query.FileID, idx *source.Index) []NodeDiagnostic {
	root, _ := s.store.Parse(id)
	bag := s.store.AllDiagnostics(id)

	var out []NodeDiagnostic
	if root == nil {
		return out
	}
	for _, d := range bag.All() {
		out = append(out, NodeDiagnostic{
			NodeID:   nodeIDAtSpan(root, d.Span),
			Severity: d.Severity().String(),
			Message:  d.Message(),
		})
	}
	return out
}

func nodeIDAtSpan(root *cst.Node, span source.Span) uint32 {
	n := cst.FindDeepestNode(root, span.Start)
	if n == nil {
		return 0
	}
	return n.ID
}

