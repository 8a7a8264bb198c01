// Package waitq implements the ordered queue used for every wait list in the
// kernel: the scheduler's ready queue, semaphore waiters and condition
// variable waiters.
//
// A Queue holds handles (thread IDs or small wait entries), never the objects
// themselves, so membership in a queue says nothing about ownership. Ordering
// is supplied by the caller as a Less function that reports whether a should
// run before b:
//
//	q.InsertOrdered(id, arena.Higher)  // insert after every entry that is not lower
//	q.Sort(arena.Higher)               // stable re-sort after priorities changed
//	next, ok := q.PopFront()
//
// InsertOrdered places a new entry after all existing entries that do not
// rank below it, so equal-priority entries keep arrival order. Sort is stable
// for the same reason.
//
// Queues are not safe for concurrent use. In the kernel they are only touched
// with interrupts masked on the single simulated CPU.
package waitq
