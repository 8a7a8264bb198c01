package scenario

import (
	"fmt"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/synch"
	"github.com/kolkov/ksynch/internal/kernel/thread"
)

var catalog = []Scenario{
	{
		Name:        "sema-wake-order",
		Description: "a down blocked at zero resumes after an up and takes the unit",
		Policy:      config.PolicyDonation,
		Main:        semaWakeOrder,
		Want: []string{
			"A: down",
			"B: up",
			"B: done",
			"A: resumed, value 0",
			"main: done",
		},
	},
	{
		Name:        "sema-priority",
		Description: "one up wakes the highest-priority waiter regardless of arrival",
		Policy:      config.PolicyDonation,
		Main:        semaPriority,
		Want: []string{
			"p5: down",
			"p10: down",
			"main: up",
			"p10: woke",
			"main: up",
			"p5: woke",
		},
	},
	{
		Name:        "donate-one",
		Description: "a waiter lends its priority to the holder until release",
		Policy:      config.PolicyDonation,
		Thread:      "L",
		Main:        donateOne,
		Want: []string{
			"H: acquiring",
			"L: priority 7",
			"H: got lock",
			"H: done",
			"L: priority 3",
		},
	},
	{
		Name:        "donate-multiple",
		Description: "donations through two locks are returned one lock at a time",
		Policy:      config.PolicyDonation,
		Main:        donateMultiple,
		Want: []string{
			"main: priority 32",
			"main: priority 33",
			"b: got lock",
			"b: done",
			"main: priority 32",
			"a: got lock",
			"a: done",
			"main: priority 31",
		},
	},
	{
		Name:        "donate-nest",
		Description: "a donation crosses the holder's own wait on another lock",
		Policy:      config.PolicyDonation,
		Main:        donateNest,
		Want: []string{
			"main: priority 32",
			"main: priority 33",
			"medium: got a, priority 33",
			"high: got b",
			"medium: done, priority 32",
			"main: priority 31",
		},
	},
	{
		Name:        "donate-chain",
		Description: "a donation climbs a chain of four holders",
		Policy:      config.PolicyDonation,
		Main:        donateChain,
		Want: []string{
			"main: priority 10",
			"main: priority 20",
			"main: priority 30",
			"main: priority 40",
			"t1: got l0, priority 40",
			"t2: got l1, priority 40",
			"t3: got l2, priority 40",
			"t4: got l3, priority 40",
			"t4: done, priority 40",
			"t3: done, priority 30",
			"t2: done, priority 20",
			"t1: done, priority 10",
			"main: priority 0",
		},
	},
	{
		Name:        "donate-lower",
		Description: "lowering the base priority keeps a donation in force",
		Policy:      config.PolicyDonation,
		Main:        donateLower,
		Want: []string{
			"main: priority 41",
			"main: lowering base to 21",
			"main: priority 41",
			"H: got lock",
			"main: priority 21",
		},
	},
	{
		Name:        "donate-sema",
		Description: "a donated holder blocked on a semaphore is woken first",
		Policy:      config.PolicyDonation,
		Main:        donateSema,
		Want: []string{
			"L: got lock",
			"L: downed",
			"H: got lock",
			"H: done",
			"L: done",
			"M: done",
			"main: done",
		},
	},
	{
		Name:        "condvar-priority",
		Description: "each signal wakes the highest-priority waiter",
		Policy:      config.PolicyDonation,
		Main:        condvarPriority,
		Want: []string{
			"main: signaling",
			"w35: woke",
			"main: signaling",
			"w34: woke",
			"main: signaling",
			"w33: woke",
			"main: signaling",
			"w32: woke",
		},
	},
	{
		Name:        "condvar-broadcast",
		Description: "a broadcast wakes every waiter once, highest priority first",
		Policy:      config.PolicyDonation,
		Main:        condvarBroadcast,
		Want: []string{
			"main: broadcast",
			"w35: woke",
			"w34: woke",
			"w33: woke",
			"w32: woke",
			"main: done",
		},
	},
	{
		Name:        "mlfqs-no-donation",
		Description: "without donation the holder keeps its own priority",
		Policy:      config.PolicyMLFQS,
		Main:        mlfqsNoDonation,
		Want: []string{
			"H: acquiring",
			"main: priority 31",
			"H: got lock",
			"main: priority 31",
		},
	},
	{
		Name:        "try-down-interrupt",
		Description: "an interrupt handler polls a semaphore and wakes a thread",
		Policy:      config.PolicyDonation,
		Main:        tryDownInterrupt,
		Want: []string{
			"waiter: down",
			"handler: try true",
			"handler: try false",
			"handler: up",
			"waiter: woke",
			"main: done",
		},
	},
}

func semaWakeOrder(e *Env) {
	s := e.P.NewSemaphore("s", 0)
	e.Spawn("A", thread.PriDefault+1, func() {
		e.Record("A: down")
		s.Down()
		e.Record("A: resumed, value %d", s.Value())
	})
	e.Spawn("B", thread.PriDefault+1, func() {
		e.Record("B: up")
		s.Up()
		e.Record("B: done")
	})
	e.Record("main: done")
}

func semaPriority(e *Env) {
	e.K.SetPriority(thread.PriMin)
	s := e.P.NewSemaphore("s", 0)
	for _, pri := range []int{5, 10} {
		name := fmt.Sprintf("p%d", pri)
		e.Spawn(name, pri, func() {
			e.Record("%s: down", name)
			s.Down()
			e.Record("%s: woke", name)
		})
	}
	for range 2 {
		e.Record("main: up")
		s.Up()
	}
}

func donateOne(e *Env) {
	e.K.SetPriority(3)
	k := e.P.NewLock("K")
	k.Acquire()
	e.Spawn("H", 7, func() {
		e.Record("H: acquiring")
		k.Acquire()
		e.Record("H: got lock")
		k.Release()
		e.Record("H: done")
	})
	e.RecordPriority()
	k.Release()
	e.RecordPriority()
}

func donateMultiple(e *Env) {
	a, b := e.P.NewLock("a"), e.P.NewLock("b")
	a.Acquire()
	b.Acquire()
	for i, l := range []*synch.Lock{a, b} {
		e.Spawn(l.Name(), thread.PriDefault+1+i, func() {
			l.Acquire()
			e.Record("%s: got lock", l.Name())
			l.Release()
			e.Record("%s: done", l.Name())
		})
		e.RecordPriority()
	}
	b.Release()
	e.RecordPriority()
	a.Release()
	e.RecordPriority()
}

func donateNest(e *Env) {
	a, b := e.P.NewLock("a"), e.P.NewLock("b")
	a.Acquire()
	e.Spawn("medium", thread.PriDefault+1, func() {
		b.Acquire()
		a.Acquire()
		e.Record("medium: got a, priority %d", e.K.GetPriority())
		a.Release()
		b.Release()
		e.Record("medium: done, priority %d", e.K.GetPriority())
	})
	e.RecordPriority()
	e.Spawn("high", thread.PriDefault+2, func() {
		b.Acquire()
		e.Record("high: got b")
		b.Release()
	})
	e.RecordPriority()
	a.Release()
	e.RecordPriority()
}

func donateChain(e *Env) {
	const links = 4
	e.K.SetPriority(thread.PriMin)
	locks := make([]*synch.Lock, links+1)
	for i := range locks {
		locks[i] = e.P.NewLock(fmt.Sprintf("l%d", i))
	}
	locks[0].Acquire()
	for i := 1; i <= links; i++ {
		name := fmt.Sprintf("t%d", i)
		e.Spawn(name, 10*i, func() {
			locks[i].Acquire()
			locks[i-1].Acquire()
			e.Record("%s: got l%d, priority %d", name, i-1, e.K.GetPriority())
			locks[i-1].Release()
			locks[i].Release()
			e.Record("%s: done, priority %d", name, e.K.GetPriority())
		})
		e.RecordPriority()
	}
	locks[0].Release()
	e.RecordPriority()
}

func donateLower(e *Env) {
	l := e.P.NewLock("l")
	l.Acquire()
	e.Spawn("H", thread.PriDefault+10, func() {
		l.Acquire()
		e.Record("H: got lock")
		l.Release()
	})
	e.RecordPriority()
	e.Record("main: lowering base to %d", thread.PriDefault-10)
	e.K.SetPriority(thread.PriDefault - 10)
	e.RecordPriority()
	l.Release()
	e.RecordPriority()
}

func donateSema(e *Env) {
	l := e.P.NewLock("l")
	s := e.P.NewSemaphore("s", 0)
	e.Spawn("L", thread.PriDefault+1, func() {
		l.Acquire()
		e.Record("L: got lock")
		s.Down()
		e.Record("L: downed")
		l.Release()
		e.Record("L: done")
	})
	e.Spawn("M", thread.PriDefault+3, func() {
		s.Down()
		e.Record("M: done")
	})
	e.Spawn("H", thread.PriDefault+5, func() {
		l.Acquire()
		e.Record("H: got lock")
		l.Release()
		e.Record("H: done")
	})
	s.Up()
	s.Up()
	e.Record("main: done")
}

// condWaiters starts one thread per priority, each waiting on c under l.
func condWaiters(e *Env, l *synch.Lock, c *synch.Cond, priorities ...int) {
	for _, pri := range priorities {
		name := fmt.Sprintf("w%d", pri)
		e.Spawn(name, pri, func() {
			l.Acquire()
			c.Wait(l)
			e.Record("%s: woke", name)
			l.Release()
		})
	}
}

func condvarPriority(e *Env) {
	l := e.P.NewLock("l")
	c := e.P.NewCond("c")
	condWaiters(e, l, c, 33, 35, 32, 34)
	for range 4 {
		l.Acquire()
		e.Record("main: signaling")
		c.Signal(l)
		l.Release()
	}
}

func condvarBroadcast(e *Env) {
	l := e.P.NewLock("l")
	c := e.P.NewCond("c")
	condWaiters(e, l, c, 33, 35, 32, 34)
	l.Acquire()
	e.Record("main: broadcast")
	c.Broadcast(l)
	l.Release()
	e.Record("main: done")
}

func mlfqsNoDonation(e *Env) {
	l := e.P.NewLock("l")
	l.Acquire()
	e.Spawn("H", thread.PriDefault+10, func() {
		e.Record("H: acquiring")
		l.Acquire()
		e.Record("H: got lock")
		l.Release()
	})
	e.RecordPriority()
	l.Release()
	e.RecordPriority()
}

func tryDownInterrupt(e *Env) {
	dev := e.P.NewSemaphore("dev", 1)
	done := e.P.NewSemaphore("done", 0)
	e.Spawn("waiter", thread.PriDefault+1, func() {
		e.Record("waiter: down")
		done.Down()
		e.Record("waiter: woke")
	})
	e.K.RaiseInterrupt("device", func() {
		e.Record("handler: try %v", dev.TryDown())
		e.Record("handler: try %v", dev.TryDown())
		e.Record("handler: up")
		done.Up()
	})
	e.Record("main: done")
}
