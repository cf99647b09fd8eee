// Package context defines the context-type descriptor contract the host
// embedding Crisp supplies (spec.md §3 "Context type descriptor", §6.2), and
// ships a reflection-based reference implementation over arbitrary Go
// structs.
package context

import "github.com/crisp-lang/crisp/pkg/types"

// MemberKind is the closed set of member kinds a descriptor can report.
type MemberKind int

const (
	Property MemberKind = iota
	Field
	Method
)

// Nullability mirrors spec.md §3(d): a descriptor may or may not be able to
// say whether a member can be null.
type Nullability int

const (
	Oblivious Nullability = iota
	Annotated
	NotAnnotated
)

// Member describes one resolvable member of a context (or nested) type.
type Member struct {
	Name            string
	Kind            MemberKind
	DeclaredType    types.CrispType
	Nullable        Nullability
	ParamTypes      []types.CrispType // populated for Kind == Method
	Obsolete        bool
	ObsoleteMessage string
}

// Descriptor is the opaque, host-supplied view of one type: the context
// type itself, or a type reached by navigating through one of its members
// (spec.md §3: "the compiler treats the descriptor as opaque data").
type Descriptor interface {
	// TypeName returns this type's display name (spec.md §3c).
	TypeName() string

	// Member looks up a single member by its exact declared name (no
	// candidate matching — that's the resolver's job, spec.md §4.5).
	Member(name string) (Member, bool)

	// Members enumerates every member of this type, for the resolver's
	// candidate search.
	Members() []Member

	// Navigate returns the Descriptor for a member's declared type, so the
	// resolver can continue walking a MemberPath's non-final segments
	// (spec.md §4.5). ok is false for primitive/unknown target types that
	// have no further members (Int, String, BtStatus, ...).
	Navigate(t types.CrispType) (Descriptor, bool)

	// IsAssignable implements spec.md §3(e)'s reference-subtype test, for
	// Custom types this descriptor knows about (beyond the structural rules
	// types.CrispType.AssignableTo already covers for primitives).
	IsAssignable(src, tgt types.CrispType) bool
}
