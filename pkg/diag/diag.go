// Package diag implements Crisp's diagnostic bag and descriptor table
// (spec.md §3 "Diagnostic", §4.9, §6.3).
package diag

import (
	"fmt"

	"github.com/crisp-lang/crisp/pkg/source"
)

// Severity is the closed severity set.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Descriptor is a process-wide, read-only table entry keyed by stable string
// ID (spec.md §9 "Global diagnostic descriptors": "an implementation may
// define it as a constant table").
type Descriptor struct {
	ID            string
	Severity      Severity
	MessageFormat string
}

// Diagnostic is one entry in a DiagnosticBag.
type Diagnostic struct {
	ID       string
	Span     source.Span
	FilePath string
	Args     []any
}

// Descriptor looks up this diagnostic's static descriptor.
func (d Diagnostic) Descriptor() Descriptor {
	desc, ok := Descriptors[d.ID]
	if !ok {
		return Descriptor{ID: d.ID, Severity: Error, MessageFormat: d.ID}
	}
	return desc
}

// Severity returns the diagnostic's severity, from its descriptor.
func (d Diagnostic) Severity() Severity {
	return d.Descriptor().Severity
}

// Message formats the descriptor's messageFormat with this diagnostic's
// arguments (spec.md §3: "message = format(messageFormat, args)").
func (d Diagnostic) Message() string {
	return fmt.Sprintf(d.Descriptor().MessageFormat, d.Args...)
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s] (%s)", d.Severity(), d.Message(), d.ID, d.Span)
}

// Bag is an append-only sequence of diagnostics (spec.md §3 "DiagnosticBag").
type Bag struct {
	entries []Diagnostic
}

// Add appends a new diagnostic built from a descriptor ID, span, and
// message-format arguments.
func (b *Bag) Add(id string, span source.Span, args ...any) {
	b.entries = append(b.entries, Diagnostic{ID: id, Span: span, Args: args})
}

// AddWithFile is Add plus an explicit file path (spec.md §3 Diagnostic.filePath).
func (b *Bag) AddWithFile(id string, span source.Span, filePath string, args ...any) {
	b.entries = append(b.entries, Diagnostic{ID: id, Span: span, FilePath: filePath, Args: args})
}

// All returns every diagnostic appended so far, in append order.
func (b *Bag) All() []Diagnostic {
	return b.entries
}

// HasErrors reports whether any entry has Error severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.entries {
		if d.Severity() == Error {
			return true
		}
	}
	return false
}

// Len reports the number of diagnostics appended so far.
func (b *Bag) Len() int {
	return len(b.entries)
}

// Merge appends every diagnostic from other onto b, preserving order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.entries = append(b.entries, other.entries...)
}
