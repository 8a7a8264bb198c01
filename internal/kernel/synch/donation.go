package synch

import (
	"github.com/kolkov/ksynch/internal/kernel/thread"
)

// donate propagates the priority of waiter, which has just set WaitOnLock,
// along the chain of lock holders. Each hop makes the waiting thread a donor
// of the holder it outranks and refreshes the holder's effective priority.
// The walk ends at a holder that is not waiting, at a holder the waiter
// does not outrank, after maxDepth hops, or on revisiting a thread. A
// revisit means the lock-wait graph has a cycle; the threads involved will
// never run again and the scheduler reports the deadlock.
func (p *Primitives) donate(waiter thread.ID) {
	arena := p.sched.Threads()
	visited := map[thread.ID]bool{waiter: true}

	w := arena.Get(waiter)
	for hop := 0; p.maxDepth == 0 || hop < p.maxDepth; hop++ {
		l, ok := p.locks[w.WaitOnLock]
		if !ok || l.holder == thread.NoThread {
			return
		}
		h := arena.Get(l.holder)
		if visited[h.ID] {
			l.stat.CycleStops.Inc()
			p.log.Warn("donation cycle", "lock", l.name, "waiter", w.Name, "holder", h.Name)
			return
		}
		visited[h.ID] = true

		if w.Priority <= h.Priority {
			return
		}
		h.AddDonor(w.ID)
		prev := h.Priority
		arena.Refresh(h.ID)
		if hop == 0 {
			l.stat.Donations.Inc()
		} else {
			l.stat.ChainHops.Inc()
		}
		p.log.Debug("donate", "lock", l.name, "from", w.Name, "to", h.Name,
			"priority", prev, "effective", h.Priority, "hop", hop)

		w = h
	}
	p.log.Debug("donation depth reached", "waiter", arena.Get(waiter).Name, "depth", p.maxDepth)
}

// inherit makes the threads still queued on l donors of its new holder.
// Release strips them from the previous holder, and without this step they
// would wait behind a holder that may later drop to its base priority.
func (p *Primitives) inherit(l *Lock, holder *thread.Thread) {
	waiting := l.sema.waiters.Items()
	added := 0
	for _, id := range waiting {
		if holder.AddDonor(id) {
			added++
		}
	}
	if added == 0 {
		return
	}
	prev := holder.Priority
	p.sched.Threads().Refresh(holder.ID)
	p.log.Debug("donation inherited", "lock", l.name, "thread", holder.Name,
		"donors", added, "priority", prev, "effective", holder.Priority)
}
