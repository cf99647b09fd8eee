package source

import (
	"sort"

	"github.com/pkg/errors"
)

// Index maps a source text's byte offsets to zero-based line/column
// positions, and back. It is built once per file and is immutable
// thereafter, matching the Query Store's "immutable once produced" rule.
type Index struct {
	text       []byte
	lineStarts []uint32 // byte offset of the start of each line; lineStarts[0] == 0
}

// NewIndex scans text for line terminators (\n, \r\n, bare \r — each counts
// as exactly one line break) and precomputes line-start offsets.
func NewIndex(text []byte) *Index {
	idx := &Index{text: text, lineStarts: []uint32{0}}
	i := 0
	for i < len(text) {
		switch text[i] {
		case '\n':
			i++
			idx.lineStarts = append(idx.lineStarts, uint32(i))
		case '\r':
			i++
			if i < len(text) && text[i] == '\n' {
				i++
			}
			idx.lineStarts = append(idx.lineStarts, uint32(i))
		default:
			i++
		}
	}
	return idx
}

// OffsetOf converts a zero-based (line, col) into a byte offset, clamped to
// the source length.
func (idx *Index) OffsetOf(line, col int) (uint32, error) {
	if line < 0 || col < 0 {
		return 0, errors.Errorf("source.OffsetOf: negative line/col (%d,%d)", line, col)
	}
	if line >= len(idx.lineStarts) {
		return uint32(len(idx.text)), nil
	}
	offset := int(idx.lineStarts[line]) + col
	if offset > len(idx.text) {
		offset = len(idx.text)
	}
	return uint32(offset), nil
}

// LineColOf converts a byte offset into a zero-based (line, col) pair via
// binary search over the line-start table.
func (idx *Index) LineColOf(offset uint32) Position {
	n := sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	})
	line := n - 1
	if line < 0 {
		line = 0
	}
	col := int(offset) - int(idx.lineStarts[line])
	return Position{Line: line, Column: col}
}

// RangeOf converts a Span into a start/end Range.
func (idx *Index) RangeOf(span Span) Range {
	return Range{
		Start: idx.LineColOf(span.Start),
		End:   idx.LineColOf(span.End()),
	}
}

// LineCount returns the number of lines the index recognizes.
func (idx *Index) LineCount() int {
	return len(idx.lineStarts)
}
