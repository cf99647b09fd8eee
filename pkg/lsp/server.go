// Package lsp implements Crisp's language-service protocol surface
// (spec.md §6.5): a small custom JSON-RPC interface over
// github.com/creachadair/jrpc2, deliberately not a full Language Server
// Protocol implementation — the real editor-facing language server is an
// external collaborator (spec.md §1) that is expected to consume this.
package lsp

import (
	"context"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"

	crispcontext "github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/query"
	"github.com/crisp-lang/crisp/pkg/source"
)

// coalesceDelay is how long Server waits after the last SetSource before
// publishing tree-layout/tree-diagnostics for a file (spec.md §6.5:
// "published on every text change after a coalescing delay (≈100 ms)").
const coalesceDelay = 100 * time.Millisecond

// ContextTypeResolver supplies the context-type descriptor (and blackboard
// lookup) a file should be analyzed against. The language service doesn't
// know Crisp's host types itself — it asks the embedding, once per file id,
// the same division of labor context.FromStruct's caller already has with
// sema.Analyze.
type ContextTypeResolver func(id query.FileID) (root crispcontext.Descriptor, lookup func(string) (crispcontext.Descriptor, bool))

// Server holds every open file's source text and the Query Store it
// compiles through, and publishes tree-layout/tree-diagnostics
// notifications on a debounce timer per file.
type Server struct {
	mu        sync.Mutex
	store     *query.Store
	resolver  ContextTypeResolver
	texts     map[query.FileID]string
	indexes   map[query.FileID]*source.Index
	timers    map[query.FileID]*time.Timer
	rpcServer *jrpc2.Server
}

// NewServer constructs a language-service Server. resolver is asked for a
// file's context-type descriptor the first time (and every time after)
// SetSource is called for it.
func NewServer(resolver ContextTypeResolver) *Server {
	return &Server{
		store:    query.NewStore(),
		resolver: resolver,
		texts:    map[query.FileID]string{},
		indexes:  map[query.FileID]*source.Index{},
		timers:   map[query.FileID]*time.Timer{},
	}
}

// Assigner returns the jrpc2.Assigner exposing Server's JSON-RPC surface:
// setSource, removeFile and the five edit requests (spec.md §6.5).
func (s *Server) Assigner() jrpc2.Assigner {
	return handler.Map{
		"setSource":  handler.New(s.handleSetSource),
		"removeFile": handler.New(s.handleRemoveFile),
		"addNode":    handler.New(s.handleAddNode),
		"removeNode": handler.New(s.handleRemoveNode),
		"moveNode":   handler.New(s.handleMoveNode),
		"wrapNode":   handler.New(s.handleWrapNode),
		"unwrapNode": handler.New(s.handleUnwrapNode),
	}
}

// Serve runs a jrpc2.Server over ch (a full-duplex framed channel, e.g.
// channel.Line(stdin, stdout) — the same construction cmd/crisp/lspcmd.go's
// runLSP uses for the real LSP transport) until the channel closes, then
// returns its final error.
func (s *Server) Serve(ch channel.Channel, opts *jrpc2.ServerOptions) error {
	srv := jrpc2.NewServer(s.Assigner(), opts)
	s.mu.Lock()
	s.rpcServer = srv
	s.mu.Unlock()
	srv.Start(ch)
	return srv.Wait()
}

// SetSourceParams is setSource's request payload.
type SetSourceParams struct {
	FileID query.FileID `json:"fileId"`
	Text   string       `json:"text"`
}

func (s *Server) handleSetSource(ctx context.Context, p SetSourceParams) (any, error) {
	s.mu.Lock()
	s.texts[p.FileID] = p.Text
	s.indexes[p.FileID] = source.NewIndex([]byte(p.Text))
	s.mu.Unlock()

	s.store.SetSourceText(p.FileID, p.Text)
	if s.resolver != nil {
		root, lookup := s.resolver(p.FileID)
		if root != nil {
			s.store.SetContextType(p.FileID, root, lookup)
		}
	}

	s.scheduleCoalescedPublish(p.FileID)
	return struct{}{}, nil
}

// RemoveFileParams is removeFile's request payload.
type RemoveFileParams struct {
	FileID query.FileID `json:"fileId"`
}

func (s *Server) handleRemoveFile(ctx context.Context, p RemoveFileParams) (any, error) {
	s.mu.Lock()
	delete(s.texts, p.FileID)
	delete(s.indexes, p.FileID)
	if t, ok := s.timers[p.FileID]; ok {
		t.Stop()
		delete(s.timers, p.FileID)
	}
	s.mu.Unlock()
	s.store.RemoveFile(p.FileID)
	return struct{}{}, nil
}

// scheduleCoalescedPublish (re)arms a per-file debounce timer; repeated
// SetSource calls within coalesceDelay of each other collapse into a single
// publish, same as batching rapid keystrokes before recompiling.
func (s *Server) scheduleCoalescedPublish(id query.FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(coalesceDelay, func() {
		s.publish(id)
	})
}

func (s *Server) publish(id query.FileID) {
	s.mu.Lock()
	srv := s.rpcServer
	idx := s.indexes[id]
	s.mu.Unlock()
	if srv == nil || idx == nil {
		return
	}

	layout := s.buildTreeLayout(id, idx)
	_ = srv.Notify(context.Background(), "treeLayout", TreeLayoutParams{
		FileID: id,
		Trees:  layout,
	})

	diags := s.buildTreeDiagnostics(id, idx)
	_ = srv.Notify(context.Background(), "treeDiagnostics", TreeDiagnosticsParams{
		FileID:      id,
		Diagnostics: diags,
	})
}
