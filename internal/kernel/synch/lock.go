package synch

import (
	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/stats"
	"github.com/kolkov/ksynch/internal/kernel/thread"
)

// Lock is a binary semaphore with an owner. Only the thread that acquired
// it may release it, and it is not recursive.
type Lock struct {
	sys    *Primitives
	id     thread.LockID
	name   string
	holder thread.ID
	sema   Semaphore
	stat   *stats.Counters
}

// NewLock creates an unheld lock.
func (p *Primitives) NewLock(name string) *Lock {
	l := &Lock{}
	l.Init(p, name)
	return l
}

// Init makes l an unheld lock registered with p.
func (l *Lock) Init(p *Primitives, name string) {
	fault.Assert(l != nil && p != nil, fault.CodeUninitialized, "lock init with nil argument")
	l.sys = p
	l.name = name
	l.holder = thread.NoThread
	l.stat = p.stats.GetOrCreate(stats.KindLock, name)
	l.sema.init(p, name, 1, l.stat)
	l.id = p.registerLock(l)
}

func (l *Lock) check() {
	fault.Assert(l != nil && l.sys != nil, fault.CodeUninitialized, "lock used before Init")
}

// Name returns the lock's label.
func (l *Lock) Name() string {
	return l.name
}

// ID returns the handle threads record in WaitOnLock.
func (l *Lock) ID() thread.LockID {
	return l.id
}

// Holder returns the owning thread, or thread.NoThread.
func (l *Lock) Holder() thread.ID {
	l.check()
	return l.holder
}

// Acquire waits until the lock is free and takes it. Under the donation
// policy a caller that outranks the holder lends it its priority for as long
// as the caller waits.
func (l *Lock) Acquire() {
	l.check()
	k := l.sys.sched
	ic := k.Interrupts()
	fault.Assert(!ic.Context(), fault.CodeInterruptContext,
		"lock %q: acquire inside interrupt handler %q", l.name, ic.Handling())
	cur := k.Current()
	fault.Assert(l.holder != cur.ID, fault.CodeRecursiveAcquire,
		"lock %q: %s already holds it", l.name, cur)

	old := ic.Disable()
	if l.sys.policy == config.PolicyDonation && l.holder != thread.NoThread {
		cur.WaitOnLock = l.id
		l.sys.donate(cur.ID)
	}
	l.sema.Down()
	cur.WaitOnLock = thread.NoLock
	l.holder = cur.ID
	if l.sys.policy == config.PolicyDonation {
		l.sys.inherit(l, cur)
	}
	l.stat.Acquires.Inc()
	ic.SetLevel(old)
}

// TryAcquire takes the lock if it is free and reports whether it did. It
// never sleeps and never donates.
func (l *Lock) TryAcquire() bool {
	l.check()
	k := l.sys.sched
	cur := k.Current()
	fault.Assert(l.holder != cur.ID, fault.CodeRecursiveAcquire,
		"lock %q: %s already holds it", l.name, cur)

	old := k.Interrupts().Disable()
	ok := l.sema.TryDown()
	if ok {
		l.holder = cur.ID
		l.stat.Acquires.Inc()
	}
	k.Interrupts().SetLevel(old)
	return ok
}

// Release gives the lock up. The caller gives back every donation it got
// through this lock, and the best waiter, if any, is woken.
func (l *Lock) Release() {
	l.check()
	k := l.sys.sched
	cur := k.Current()
	fault.Assert(l.holder == cur.ID, fault.CodeNotHolder,
		"lock %q: released by %s, held by %s", l.name, cur, l.holderName())

	old := k.Interrupts().Disable()
	if l.sys.policy == config.PolicyDonation {
		if dropped := k.Threads().StripDonors(cur.ID, l.id); len(dropped) > 0 {
			prev := cur.Priority
			k.Threads().Refresh(cur.ID)
			l.sys.log.Debug("donation returned", "lock", l.name, "thread", cur.Name,
				"from", prev, "to", cur.Priority, "donors", len(dropped))
		}
	}
	l.holder = thread.NoThread
	l.stat.Releases.Inc()
	l.sema.Up()
	k.Interrupts().SetLevel(old)
}

// HeldByCurrentThread reports whether the running thread holds l. Asking
// about any other thread would be racy, so there is no such query.
func (l *Lock) HeldByCurrentThread() bool {
	l.check()
	return l.holder != thread.NoThread && l.holder == l.sys.sched.CurrentID()
}

func (l *Lock) holderName() string {
	if l.holder == thread.NoThread {
		return "nobody"
	}
	return l.sys.sched.Thread(l.holder).String()
}
