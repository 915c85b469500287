// Package pqueue provides a generic binary min-heap keyed by a float priority.
package pqueue

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type item[P constraints.Float, V any] struct {
	prio  P
	value V
}

type items[P constraints.Float, V any] []item[P, V]

func (h items[P, V]) Len() int           { return len(h) }
func (h items[P, V]) Less(i, j int) bool { return h[i].prio < h[j].prio }
func (h items[P, V]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *items[P, V]) Push(x any) { *h = append(*h, x.(item[P, V])) }

func (h *items[P, V]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	var zero item[P, V]
	old[n-1] = zero
	*h = old[:n-1]
	return it
}

// Queue pops the lowest priority first. Equal priorities pop in no
// particular order.
type Queue[P constraints.Float, V any] struct {
	h items[P, V]
}

// New creates a queue with room for size items.
func New[P constraints.Float, V any](size int) *Queue[P, V] {
	return &Queue[P, V]{h: make(items[P, V], 0, size)}
}

// Len returns the number of queued items.
func (q *Queue[P, V]) Len() int { return q.h.Len() }

// Empty reports whether the queue has no items.
func (q *Queue[P, V]) Empty() bool { return q.h.Len() == 0 }

// Push adds value with the given priority.
func (q *Queue[P, V]) Push(prio P, value V) {
	heap.Push(&q.h, item[P, V]{prio: prio, value: value})
}

// Pop removes and returns the lowest priority value.
func (q *Queue[P, V]) Pop() (V, P, bool) {
	if q.h.Len() == 0 {
		var zero V
		return zero, 0, false
	}
	it := heap.Pop(&q.h).(item[P, V])
	return it.value, it.prio, true
}

// Peek returns the lowest priority value without removing it.
func (q *Queue[P, V]) Peek() (V, P, bool) {
	if q.h.Len() == 0 {
		var zero V
		return zero, 0, false
	}
	return q.h[0].value, q.h[0].prio, true
}

// Clear drops every item.
func (q *Queue[P, V]) Clear() {
	q.h = q.h[:0]
}
