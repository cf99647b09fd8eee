// Package source provides byte-offset source locations and a line/column
// index over Crisp source text.
package source

import "fmt"

// Span is a half-open byte range [Start, Start+Length) into a source text.
type Span struct {
	Start  uint32
	Length uint32
}

// NewSpan builds a Span from start/end byte offsets.
func NewSpan(start, end uint32) Span {
	if end < start {
		end = start
	}
	return Span{Start: start, Length: end - start}
}

// End returns the exclusive end offset of the span.
func (s Span) End() uint32 {
	return s.Start + s.Length
}

// Contains reports whether offset falls within [Start, End).
func (s Span) Contains(offset uint32) bool {
	return offset >= s.Start && offset < s.End()
}

// Covers reports whether s fully contains other (used to check CST span
// nesting: parent.Covers(child)).
func (s Span) Covers(other Span) bool {
	return s.Start <= other.Start && other.End() <= s.End()
}

// Union returns the smallest span covering both s and other. A zero-length
// span at offset 0 is treated as "empty" and ignored by the union when the
// other operand is non-empty, so folding Union over a node's children starts
// cleanly from the first real child.
func (s Span) Union(other Span) Span {
	if s.Length == 0 && s.Start == 0 {
		return other
	}
	if other.Length == 0 && other.Start == 0 {
		return s
	}
	start := s.Start
	if other.Start < start {
		start = other.Start
	}
	end := s.End()
	if other.End() > end {
		end = other.End()
	}
	return NewSpan(start, end)
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End())
}

// Position is a zero-based line/column pair.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is the line/column rendering of a Span.
type Range struct {
	Start Position
	End   Position
}
