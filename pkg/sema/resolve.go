package sema

import (
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/diag"
)

// BlackboardLookup resolves a tree's declared `:blackboard Type` annotation
// to a Descriptor, independent of the context root (spec.md §4.5, §6.4).
type BlackboardLookup func(typeName string) (context.Descriptor, bool)

// Resolver runs C5, name resolution, over a lowered-and-expanded AST.
type Resolver struct {
	root       context.Descriptor
	blackboard BlackboardLookup
	model      *Model
	diag       *diag.Bag
}

// Resolve walks every tree in prog, resolving each member-access expression,
// action call, and call expression's MemberPath against root (and, for
// `$.`-prefixed paths, against the tree's declared blackboard type via
// lookup). It returns the populated SemanticModel; later phases (infer,
// check) append to the same model and diagnostic bag.
func Resolve(prog *ast.Node, root context.Descriptor, lookup BlackboardLookup, bag *diag.Bag) *Model {
	r := &Resolver{root: root, blackboard: lookup, model: NewModel(), diag: bag}
	for _, c := range prog.Children {
		if c.Kind != ast.TreeDef {
			continue
		}
		var bb context.Descriptor
		if c.BlackboardType != "" && lookup != nil {
			if d, ok := lookup(c.BlackboardType); ok {
				bb = d
			} else {
				bag.Add("blackboard-type-not-found", c.Span(), c.BlackboardType)
			}
		}
		for _, body := range c.Children {
			r.walkNode(body, bb)
		}
	}
	return r.model
}

// walkNode recurses over a node-position subtree, resolving expression
// slots and node slots per each Kind's grammar shape — mirroring the
// explicit per-Kind dispatch already used by the AST lowerer and expander.
func (r *Resolver) walkNode(n *ast.Node, bb context.Descriptor) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.ActionCall:
		r.resolvePath(n, n.Path, len(n.Args), true, r.root)
		for _, a := range n.Args {
			r.walkExpr(a, bb)
		}

	case ast.Select, ast.Seq, ast.ReactiveSelect, ast.Parallel:
		for _, c := range n.Children {
			r.walkNode(c, bb)
		}

	case ast.Check:
		r.walkExpr(n.Children[0], bb)

	case ast.Guard, ast.While, ast.Reactive:
		r.walkExpr(n.Children[0], bb)
		r.walkNode(n.Children[1], bb)

	case ast.If:
		r.walkExpr(n.Children[0], bb)
		r.walkNode(n.Children[1], bb)
		if len(n.Children) > 2 {
			r.walkNode(n.Children[2], bb)
		}

	case ast.Invert, ast.Repeat:
		r.walkNode(n.Children[0], bb)

	case ast.Timeout, ast.Cooldown:
		r.walkExpr(n.Children[0], bb)
		r.walkNode(n.Children[1], bb)

	default: // Ref, Import, or a recovered error/missing node
	}
}

// walkExpr recurses over an expression subtree, resolving every
// member-access/blackboard-access/call-expr leaf it finds.
func (r *Resolver) walkExpr(n *ast.Node, bb context.Descriptor) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.MemberAccess:
		r.resolvePath(n, n.Path, 0, false, r.root)

	case ast.BlackboardAccess:
		if bb == nil {
			r.diag.Add("blackboard-not-configured", n.Span(), n.Path.String())
			return
		}
		r.resolvePath(n, n.Path, 0, false, bb)

	case ast.CallExpr:
		r.resolvePath(n, n.Path, len(n.Args), true, r.root)
		for _, a := range n.Args {
			r.walkExpr(a, bb)
		}

	case ast.BinaryExpr, ast.UnaryExpr, ast.LogicExpr:
		for _, c := range n.Children {
			r.walkExpr(c, bb)
		}

	default: // Literal, ParamRef (left over only on an already-errored expansion)
	}
}

// resolvePath implements spec.md §4.5's resolution algorithm: walk
// path's segments from start, requiring every non-final segment to be a
// property/field (continuing navigation through its declared type), and
// the final segment to satisfy isCall's method/arity requirement.
func (r *Resolver) resolvePath(n *ast.Node, path ast.MemberPath, arity int, isCall bool, start context.Descriptor) {
	if len(path) == 0 || start == nil {
		return
	}
	cur := start
	var sym context.Member
	resolved := make(ast.MemberPath, 0, len(path))
	var nullDeref string
	for i, seg := range path {
		last := i == len(path)-1
		matches, altName := candidateMatches(cur.Members(), seg)
		if last && isCall {
			matches = filterByArity(matches, arity)
		}
		if len(matches) == 0 {
			r.diag.Add("member-not-found", n.Span(), seg, cur.TypeName())
			return
		}
		if altName != "" {
			r.diag.Add("ambiguous-member-name", n.Span(), seg, matches[0].Name, altName)
		}
		if len(matches) > 1 {
			r.diag.Add("ambiguous-overload", n.Span(), seg)
		}
		sym = matches[0]
		resolved = append(resolved, sym.Name)

		if !last {
			if sym.Kind == context.Method {
				r.diag.Add("member-not-found", n.Span(), seg, cur.TypeName())
				return
			}
			if nullDeref == "" && sym.Nullable == context.Annotated {
				nullDeref = sym.Name
			}
			next, ok := cur.Navigate(sym.DeclaredType)
			if !ok {
				r.diag.Add("member-not-found", n.Span(), seg, cur.TypeName())
				return
			}
			cur = next
		} else if isCall && sym.Kind != context.Method {
			r.diag.Add("member-not-found", n.Span(), seg, cur.TypeName())
			return
		}
	}

	if sym.Obsolete {
		r.diag.Add("obsolete-member", n.Span(), path.String(), sym.ObsoleteMessage)
	}
	r.model.SetSymbol(n, Symbol{Member: sym, Path: path, ResolvedPath: resolved, NullableDeref: nullDeref})
}

func filterByArity(matches []context.Member, arity int) []context.Member {
	var out []context.Member
	for _, m := range matches {
		if len(m.ParamTypes) == arity {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		// No overload matches this arity; keep the original candidate set so
		// the caller reports a found-but-wrong-shape member rather than a
		// plain not-found, and let type checking flag the arity mismatch.
		return matches
	}
	return out
}

// candidates produces spec.md §4.5's five priority-ordered name transforms
// for a DSL-written (kebab-case) segment.
func candidates(segment string) []string {
	return []string{
		segment,
		strcase.ToCamel(segment),
		strcase.ToLowerCamel(segment),
		"_" + strcase.ToLowerCamel(segment),
		strcase.ToSnake(segment),
	}
}

// candidateMatches scans members for each candidate in priority order,
// stopping at the first candidate with any hit (same-named members matching
// that candidate form the returned overload set). Each candidate is matched
// case-sensitively first — falling back to a case-insensitive scan only when
// no exact-case hit exists for that candidate — so that when a type declares
// both `IsAlive` and `isAlive`, the PascalCase candidate (tried first, per
// spec.md §4.5) binds to `IsAlive` alone rather than to whichever of the two
// case-insensitively-matching members happens to come first in declaration
// order. altName is non-empty when some later, lower-priority candidate also
// matched a *different*-named member (spec.md §4.5's ambiguous-resolution
// warning condition), naming the first such alternate.
func candidateMatches(members []context.Member, segment string) (hit []context.Member, altName string) {
	hitIdx := -1
	for ci, cand := range candidates(segment) {
		cur := exactMatches(members, cand)
		if len(cur) == 0 {
			cur = foldMatches(members, cand)
		}
		if len(cur) == 0 {
			continue
		}
		if hitIdx == -1 {
			hit = cur
			hitIdx = ci
			continue
		}
		if altName == "" && !sameNames(hit, cur) {
			altName = cur[0].Name
		}
	}
	return hit, altName
}

// exactMatches returns every member whose name is byte-for-byte cand.
func exactMatches(members []context.Member, cand string) []context.Member {
	var out []context.Member
	for _, m := range members {
		if m.Name == cand {
			out = append(out, m)
		}
	}
	return out
}

// foldMatches returns every member whose name matches cand up to case, used
// only once exactMatches has already come up empty for a candidate.
func foldMatches(members []context.Member, cand string) []context.Member {
	var out []context.Member
	for _, m := range members {
		if strings.EqualFold(m.Name, cand) {
			out = append(out, m)
		}
	}
	return out
}

// sameNames compares resolved member identity by exact (case-sensitive)
// name, not case-folded equality — two members differing only by case are
// genuinely different names for ambiguous-member-name's purposes.
func sameNames(a, b []context.Member) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return a[0].Name == b[0].Name
}
