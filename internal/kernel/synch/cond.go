package synch

import (
	"sort"

	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/stats"
	"github.com/kolkov/ksynch/internal/kernel/thread"
	"github.com/kolkov/ksynch/internal/kernel/waitq"
)

// condWaiter is one pending Wait: a private semaphore the waiter sleeps on
// and the thread that sleeps there.
type condWaiter struct {
	sema   Semaphore
	thread thread.ID
}

// Cond is a Mesa-style condition variable. Signal and the waiter's return
// from Wait are not atomic, so a waiter must re-check its condition in a
// loop.
type Cond struct {
	sys     *Primitives
	name    string
	waiters waitq.Queue[*condWaiter]
	stat    *stats.Counters
}

// NewCond creates a condition variable with no waiters.
func (p *Primitives) NewCond(name string) *Cond {
	c := &Cond{}
	c.Init(p, name)
	return c
}

// Init empties the waiter list.
func (c *Cond) Init(p *Primitives, name string) {
	fault.Assert(c != nil && p != nil, fault.CodeUninitialized, "cond init with nil argument")
	c.sys = p
	c.name = name
	c.waiters.Clear()
	c.stat = p.stats.GetOrCreate(stats.KindCond, name)
}

func (c *Cond) check(l *Lock, op string) {
	fault.Assert(c != nil && c.sys != nil, fault.CodeUninitialized, "cond used before Init")
	fault.Assert(l != nil && l.sys != nil, fault.CodeUninitialized, "cond %q: %s with uninitialized lock", c.name, op)
	ic := c.sys.sched.Interrupts()
	fault.Assert(!ic.Context(), fault.CodeInterruptContext,
		"cond %q: %s inside interrupt handler %q", c.name, op, ic.Handling())
	fault.Assert(l.HeldByCurrentThread(), fault.CodeNotHolder,
		"cond %q: %s without holding lock %q", c.name, op, l.name)
}

// Name returns the condition variable's label.
func (c *Cond) Name() string {
	return c.name
}

// Waiters returns the waiting threads in the order Signal would wake them.
func (c *Cond) Waiters() []thread.ID {
	fault.Assert(c != nil && c.sys != nil, fault.CodeUninitialized, "cond used before Init")
	ws := c.waiters.Items()
	sort.SliceStable(ws, func(i, j int) bool {
		return c.higher(ws[i], ws[j])
	})
	ids := make([]thread.ID, len(ws))
	for i, w := range ws {
		ids[i] = w.thread
	}
	return ids
}

// higher ranks waiters by the current effective priority of the thread
// behind each entry.
func (c *Cond) higher(a, b *condWaiter) bool {
	return c.sys.sched.Threads().Higher(a.thread, b.thread)
}

// Wait atomically releases l and sleeps until signaled, then re-acquires l
// before returning. The caller must hold l.
func (c *Cond) Wait(l *Lock) {
	c.check(l, "wait")

	w := &condWaiter{thread: c.sys.sched.CurrentID()}
	w.sema.init(c.sys, "", 0, privateStats)
	c.waiters.InsertOrdered(w, c.higher)
	c.stat.Waits.Inc()
	c.stat.ObserveWaiters(c.waiters.Len())

	l.Release()
	w.sema.Down()
	l.Acquire()
}

// Signal wakes the highest-priority waiter, if any. The caller must hold l.
func (c *Cond) Signal(l *Lock) {
	c.check(l, "signal")
	c.signal()
}

// Broadcast wakes every waiter, highest priority first. The caller must
// hold l.
func (c *Cond) Broadcast(l *Lock) {
	c.check(l, "broadcast")
	c.stat.Broadcasts.Inc()
	for !c.waiters.Empty() {
		c.signal()
	}
}

func (c *Cond) signal() {
	if c.waiters.Empty() {
		return
	}
	c.waiters.Sort(c.higher)
	w, _ := c.waiters.PopFront()
	c.stat.Signals.Inc()
	c.sys.log.Debug("cond signal", "cond", c.name, "thread", c.sys.sched.Thread(w.thread).Name)
	w.sema.Up()
}
