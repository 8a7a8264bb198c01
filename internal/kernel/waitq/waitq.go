package waitq

import (
	"slices"
	"sort"
)

// Less reports whether a must be placed before b.
type Less[T any] func(a, b T) bool

// Queue is an ordered sequence of handles.
//
// The zero value is an empty queue ready for use.
type Queue[T comparable] struct {
	items []T
}

// New returns an empty queue with room for capacity entries.
func New[T comparable](capacity int) *Queue[T] {
	return &Queue[T]{items: make([]T, 0, capacity)}
}

// Len returns the number of queued entries.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Empty reports whether the queue has no entries.
func (q *Queue[T]) Empty() bool {
	return len(q.items) == 0
}

// PushBack appends v at the tail regardless of ordering.
func (q *Queue[T]) PushBack(v T) {
	q.items = append(q.items, v)
}

// InsertOrdered inserts v before the first entry e for which less(v, e)
// holds. Entries that compare equal to v stay in front of it.
func (q *Queue[T]) InsertOrdered(v T, less Less[T]) {
	i := 0
	for ; i < len(q.items); i++ {
		if less(v, q.items[i]) {
			break
		}
	}
	q.items = slices.Insert(q.items, i, v)
}

// Sort re-orders the queue with a stable sort.
func (q *Queue[T]) Sort(less Less[T]) {
	sort.SliceStable(q.items, func(i, j int) bool {
		return less(q.items[i], q.items[j])
	})
}

// Front returns the head of the queue without removing it.
func (q *Queue[T]) Front() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

// PopFront removes and returns the head of the queue.
func (q *Queue[T]) PopFront() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// Remove deletes the first occurrence of v and reports whether it was found.
func (q *Queue[T]) Remove(v T) bool {
	i := slices.Index(q.items, v)
	if i < 0 {
		return false
	}
	q.items = slices.Delete(q.items, i, i+1)
	return true
}

// Contains reports whether v is queued.
func (q *Queue[T]) Contains(v T) bool {
	return slices.Contains(q.items, v)
}

// Items returns a copy of the entries in queue order.
func (q *Queue[T]) Items() []T {
	return slices.Clone(q.items)
}

// Clear removes every entry.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}
