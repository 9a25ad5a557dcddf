// Package pq provides a generic binary heap ordered by a caller supplied
// less function. It backs both the bounded nearest set (max-heap by distance)
// and the best-first cover-tree traversal (min-heap by lower bound).
package pq

import "container/heap"

// Heap is a priority queue whose top element is the one for which less
// reports true against every other element.
type Heap[T any] struct {
	items items[T]
}

type items[T any] struct {
	data []T
	less func(a, b T) bool
}

func (h items[T]) Len() int           { return len(h.data) }
func (h items[T]) Less(i, j int) bool { return h.less(h.data[i], h.data[j]) }
func (h items[T]) Swap(i, j int)      { h.data[i], h.data[j] = h.data[j], h.data[i] }

func (h *items[T]) Push(x interface{}) {
	h.data = append(h.data, x.(T))
}

func (h *items[T]) Pop() interface{} {
	old := h.data
	n := len(old)
	x := old[n-1]
	var zero T
	old[n-1] = zero
	h.data = old[:n-1]
	return x
}

// New creates an empty heap with the provided ordering and initial capacity.
func New[T any](less func(a, b T) bool, capacity int) *Heap[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Heap[T]{items: items[T]{data: make([]T, 0, capacity), less: less}}
}

// Len returns the number of queued elements.
func (h *Heap[T]) Len() int { return len(h.items.data) }

// Push adds an element.
func (h *Heap[T]) Push(v T) { heap.Push(&h.items, v) }

// Pop removes and returns the top element.
func (h *Heap[T]) Pop() (T, bool) {
	if len(h.items.data) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&h.items).(T), true
}

// Top returns the top element without removing it.
func (h *Heap[T]) Top() (T, bool) {
	if len(h.items.data) == 0 {
		var zero T
		return zero, false
	}
	return h.items.data[0], true
}

// ReplaceTop overwrites the top element and restores heap order. It is the
// evict-then-insert step of a bounded queue done with a single sift.
func (h *Heap[T]) ReplaceTop(v T) bool {
	if len(h.items.data) == 0 {
		return false
	}
	h.items.data[0] = v
	heap.Fix(&h.items, 0)
	return true
}

// Drain hands the backing slice to the caller in heap order and empties the heap.
func (h *Heap[T]) Drain() []T {
	out := h.items.data
	h.items.data = nil
	return out
}
