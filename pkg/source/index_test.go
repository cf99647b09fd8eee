package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexLineColOf(t *testing.T) {
	text := []byte("abc\ndef\r\nghi\rjkl")
	idx := NewIndex(text)

	require.Equal(t, 4, idx.LineCount())

	cases := []struct {
		offset uint32
		want   Position
	}{
		{0, Position{0, 0}},
		{2, Position{0, 2}},
		{4, Position{1, 0}},
		{9, Position{2, 0}},
		{13, Position{3, 0}},
	}
	for _, c := range cases {
		require.Equal(t, c.want, idx.LineColOf(c.offset), "offset %d", c.offset)
	}
}

func TestIndexOffsetOfRoundTrip(t *testing.T) {
	text := []byte("hello\nworld\n")
	idx := NewIndex(text)

	off, err := idx.OffsetOf(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(8), off)

	pos := idx.LineColOf(off)
	require.Equal(t, Position{1, 2}, pos)
}

func TestIndexOffsetOfClampsPastEnd(t *testing.T) {
	idx := NewIndex([]byte("short"))
	off, err := idx.OffsetOf(50, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(len("short")), off)
}

func TestIndexOffsetOfRejectsNegative(t *testing.T) {
	idx := NewIndex([]byte("x"))
	_, err := idx.OffsetOf(-1, 0)
	require.Error(t, err)
}

func TestSpanCoversAndUnion(t *testing.T) {
	parent := NewSpan(0, 10)
	child := NewSpan(2, 5)
	require.True(t, parent.Covers(child))
	require.False(t, child.Covers(parent))

	var acc Span
	acc = acc.Union(NewSpan(3, 5))
	acc = acc.Union(NewSpan(7, 9))
	require.Equal(t, NewSpan(3, 9), acc)
}
