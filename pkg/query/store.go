// Package query implements Crisp's Query Store (C12, spec.md §4.10): a
// memoized sourceText → tokens → CST → AST → SemanticModel → IR pipeline,
// keyed by an opaque FileID, invalidated wholesale whenever a file's source
// text changes.
package query

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/crisp-lang/crisp/pkg/ast"
	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/ir"
	"github.com/crisp-lang/crisp/pkg/sema"
	"github.com/crisp-lang/crisp/pkg/token"
)

// FileID is an opaque handle the embedding assigns to one source file (a
// path, an LSP DocumentURI, whatever the host already uses to name files).
type FileID string

// entry holds every cached value derived from one file's current source
// text, plus the diagnostics each phase produced. A zero-value entry means
// nothing has been computed yet for that phase.
type entry struct {
	sourceText string
	hash       uint64

	root       context.Descriptor
	lookup     sema.BlackboardLookup
	haveCtxTy  bool

	toks       []token.Token
	haveToks   bool
	cstRoot    *cst.Node
	parseDiag  diag.Bag
	haveParse  bool
	astProg    *ast.Node
	lowerDiag  diag.Bag
	haveLower  bool
	model      *sema.Model
	resolveDiag diag.Bag
	haveResolve bool
	typeDiag    diag.Bag
	haveCheck   bool
	irTrees     map[string]*ir.Node
	haveIR      bool
}

// Store is the memoization table for every file the embedding has opened.
// All cached values are immutable once produced (spec.md §4.10): a
// re-`SetSourceText` replaces the entire entry rather than mutating fields
// in place, so an in-flight read of the old entry never observes a partial
// update.
type Store struct {
	mu      sync.Mutex
	entries map[FileID]*entry
}

// NewStore returns an empty Query Store.
func NewStore() *Store {
	return &Store{entries: map[FileID]*entry{}}
}

// SetSourceText sets id's source text, invalidating every derived value for
// id. If text hashes identically to the previously-set text, the existing
// entry (and everything already memoized on it) is left untouched — the
// same no-op short-circuit dang's schema cache gets from keying by content
// hash rather than unconditionally recomputing.
func (s *Store) SetSourceText(id FileID, text string) {
	h := xxhash.Sum64String(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[id]; ok && old.hash == h {
		return
	}
	s.entries[id] = &entry{sourceText: text, hash: h}
}

// SetContextType attaches id's context-type descriptor and blackboard
// lookup, invalidating everything downstream of name resolution (tokens and
// the CST survive, since they don't depend on the context type).
func (s *Store) SetContextType(id FileID, root context.Descriptor, lookup sema.BlackboardLookup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	e.root = root
	e.lookup = lookup
	e.haveCtxTy = true
	e.model = nil
	e.resolveDiag = diag.Bag{}
	e.haveResolve = false
	e.typeDiag = diag.Bag{}
	e.haveCheck = false
	e.irTrees = nil
	e.haveIR = false
}

// RemoveFile drops every cached value for id (spec.md §4.10: "Removing a
// file clears every derived value").
func (s *Store) RemoveFile(id FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *Store) entryLocked(id FileID) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// Tokens memoizes id's token stream.
func (s *Store) Tokens(id FileID) []token.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if !e.haveToks {
		e.toks = token.Tokenize([]byte(e.sourceText))
		e.haveToks = true
	}
	return e.toks
}

// Parse memoizes id's CST, and the parse diagnostics it produced.
func (s *Store) Parse(id FileID) (*cst.Node, *diag.Bag) {
	toks := s.Tokens(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if !e.haveParse {
		var bag diag.Bag
		e.cstRoot = cst.Parse(toks, &bag)
		e.parseDiag = bag
		e.haveParse = true
	}
	return e.cstRoot, &e.parseDiag
}

// Lower memoizes id's AST (CST → AST, plus defdec/defmacro expansion,
// spec.md §4.4), and the lowering/expansion diagnostics it produced.
func (s *Store) Lower(id FileID) (*ast.Node, *diag.Bag) {
	root, _ := s.Parse(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if !e.haveLower {
		var bag diag.Bag
		prog := ast.Lower(root, &bag)
		prog = ast.Expand(prog, &bag)
		e.astProg = prog
		e.lowerDiag = bag
		e.haveLower = true
	}
	return e.astProg, &e.lowerDiag
}

// Resolve memoizes id's SemanticModel, having run name resolution over the
// AST against the context type set by SetContextType. Returns (nil, nil,
// false) if SetContextType hasn't been called yet for id.
func (s *Store) Resolve(id FileID) (*sema.Model, *diag.Bag, bool) {
	prog, _ := s.Lower(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if !e.haveCtxTy {
		return nil, nil, false
	}
	if !e.haveResolve {
		var bag diag.Bag
		e.model = sema.Resolve(prog, e.root, e.lookup, &bag)
		e.resolveDiag = bag
		e.haveResolve = true
	}
	return e.model, &e.resolveDiag, true
}

// TypeCheck memoizes id's type-inference and type-checking diagnostics
// (spec.md §4.10: "typeCheck (→diagnostics only)"). Returns false if no
// context type has been set for id.
func (s *Store) TypeCheck(id FileID) (*diag.Bag, bool) {
	prog, _ := s.Lower(id)
	model, _, ok := s.Resolve(id)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if !e.haveCheck {
		var bag diag.Bag
		sema.Infer(prog, model, &bag)
		sema.Check(prog, model, &bag)
		e.typeDiag = bag
		e.haveCheck = true
	}
	return &e.typeDiag, true
}

// EmitIR memoizes id's lowered IR for every tree in the file, keyed by tree
// name — the shape interp.NewInterpreter's trees registry parameter expects
// directly, so a file's whole IR feeds one interpreter instance in one pass
// (spec.md §9's `ref` resolution). Returns false if no context type has
// been set for id.
func (s *Store) EmitIR(id FileID) (map[string]*ir.Node, bool) {
	prog, _ := s.Lower(id)
	model, _, ok := s.Resolve(id)
	if !ok {
		return nil, false
	}
	if _, ok := s.TypeCheck(id); !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entryLocked(id)
	if !e.haveIR {
		trees := make(map[string]*ir.Node)
		for _, c := range prog.Children {
			if c.Kind == ast.TreeDef {
				trees[c.Name] = ir.LowerTree(c, model)
			}
		}
		e.irTrees = trees
		e.haveIR = true
	}
	return e.irTrees, true
}

// AllDiagnostics merges every phase's diagnostics computed so far for id
// into one bag (spec.md §4.10).
func (s *Store) AllDiagnostics(id FileID) *diag.Bag {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()

	var out diag.Bag
	if !ok {
		return &out
	}
	if e.haveParse {
		out.Merge(&e.parseDiag)
	}
	if e.haveLower {
		out.Merge(&e.lowerDiag)
	}
	if e.haveResolve {
		out.Merge(&e.resolveDiag)
	}
	if e.haveCheck {
		out.Merge(&e.typeDiag)
	}
	return &out
}
