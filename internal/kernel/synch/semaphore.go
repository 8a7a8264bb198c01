package synch

import (
	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/stats"
	"github.com/kolkov/ksynch/internal/kernel/thread"
	"github.com/kolkov/ksynch/internal/kernel/waitq"
)

// Semaphore is a non-negative counter with a priority-ordered wait queue.
//
// Down waits for the value to become positive and then decrements it. Up
// increments it and wakes the highest-priority waiter, if any.
type Semaphore struct {
	sys     *Primitives
	name    string
	value   uint
	waiters waitq.Queue[thread.ID]
	stat    *stats.Counters
}

// NewSemaphore creates a semaphore with the given initial value.
func (p *Primitives) NewSemaphore(name string, value uint) *Semaphore {
	s := &Semaphore{}
	s.Init(p, name, value)
	return s
}

// Init sets the value and empties the wait queue. It allows semaphores to be
// embedded by value.
func (s *Semaphore) Init(p *Primitives, name string, value uint) {
	fault.Assert(s != nil && p != nil, fault.CodeUninitialized, "semaphore init with nil argument")
	stat := privateStats
	if name != "" {
		stat = p.stats.GetOrCreate(stats.KindSemaphore, name)
	}
	s.init(p, name, value, stat)
}

func (s *Semaphore) init(p *Primitives, name string, value uint, stat *stats.Counters) {
	s.sys = p
	s.name = name
	s.value = value
	s.waiters.Clear()
	s.stat = stat
}

func (s *Semaphore) check() {
	fault.Assert(s != nil && s.sys != nil, fault.CodeUninitialized, "semaphore used before Init")
}

// Name returns the semaphore's label.
func (s *Semaphore) Name() string {
	return s.name
}

// Value returns the current counter.
func (s *Semaphore) Value() uint {
	s.check()
	return s.value
}

// Waiters returns the blocked threads in queue order.
func (s *Semaphore) Waiters() []thread.ID {
	s.check()
	return s.waiters.Items()
}

// Down waits for the value to become positive, then decrements it.
//
// It may sleep, so it must not be called from an interrupt handler. It may be
// called with interrupts disabled; if it sleeps the next thread to run
// decides the interrupt level until this one resumes.
func (s *Semaphore) Down() {
	s.check()
	k := s.sys.sched
	ic := k.Interrupts()
	fault.Assert(!ic.Context(), fault.CodeInterruptContext,
		"sema %q: down inside interrupt handler %q", s.name, ic.Handling())

	old := ic.Disable()
	s.stat.Downs.Inc()
	for s.value == 0 {
		cur := k.Current()
		s.waiters.InsertOrdered(cur.ID, k.Threads().Higher)
		s.stat.Blocks.Inc()
		s.stat.ObserveWaiters(s.waiters.Len())
		s.sys.log.Debug("sema block", "sema", s.name, "thread", cur.Name, "priority", cur.Priority)
		k.Block()
	}
	s.value--
	ic.SetLevel(old)
}

// TryDown decrements the value if it is positive and reports whether it did.
// It never sleeps and may be called from an interrupt handler.
func (s *Semaphore) TryDown() bool {
	s.check()
	ic := s.sys.sched.Interrupts()

	old := ic.Disable()
	ok := s.value > 0
	if ok {
		s.value--
		s.stat.Downs.Inc()
	} else {
		s.stat.TryFailures.Inc()
	}
	ic.SetLevel(old)
	return ok
}

// Up increments the value and wakes the highest-priority waiter, then lets
// the scheduler preempt the caller if the woken thread outranks it.
// It may be called from an interrupt handler.
func (s *Semaphore) Up() {
	s.check()
	k := s.sys.sched
	ic := k.Interrupts()

	old := ic.Disable()
	if !s.waiters.Empty() {
		s.waiters.Sort(k.Threads().Higher)
		id, _ := s.waiters.PopFront()
		k.Unblock(id)
		s.stat.Wakeups.Inc()
		s.sys.log.Debug("sema wake", "sema", s.name, "thread", k.Thread(id).Name)
	}
	s.value++
	s.stat.Ups.Inc()
	k.PreemptCheck()
	ic.SetLevel(old)
}
