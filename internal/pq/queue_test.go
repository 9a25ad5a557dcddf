package pq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_MinOrder(t *testing.T) {
	h := New(func(a, b int) bool { return a < b }, 4)
	for _, v := range []int{5, 1, 4, 2, 3} {
		h.Push(v)
	}
	require.Equal(t, 5, h.Len())

	var got []int
	for h.Len() > 0 {
		v, ok := h.Pop()
		require.True(t, ok)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)

	_, ok := h.Pop()
	assert.False(t, ok)
	_, ok = h.Top()
	assert.False(t, ok)
}

func TestHeap_ReplaceTop(t *testing.T) {
	h := New(func(a, b int) bool { return a > b }, 0)
	assert.False(t, h.ReplaceTop(1))
	for _, v := range []int{3, 9, 6} {
		h.Push(v)
	}
	top, ok := h.Top()
	require.True(t, ok)
	assert.Equal(t, 9, top)

	require.True(t, h.ReplaceTop(1))
	top, _ = h.Top()
	assert.Equal(t, 6, top)

	drained := h.Drain()
	assert.ElementsMatch(t, []int{1, 3, 6}, drained)
	assert.Equal(t, 0, h.Len())
}
