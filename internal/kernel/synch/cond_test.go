package synch

import (
	"fmt"
	"testing"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/thread"
)

// TestCondWaitReleasesLock tests that a waiter does not hold the lock while
// it sleeps and holds it again when Wait returns.
func TestCondWaitReleasesLock(t *testing.T) {
	k, p := newKernel(t, config.Default())
	var events []string

	err := k.Run("main", thread.PriDefault, func() {
		l := p.NewLock("l")
		c := p.NewCond("c")
		k.Create("W", thread.PriDefault+1, func() {
			l.Acquire()
			events = append(events, "W:wait")
			c.Wait(l)
			events = append(events, fmt.Sprintf("W:woke held=%v", l.HeldByCurrentThread()))
			l.Release()
		})
		events = append(events, fmt.Sprintf("main:try=%v", l.TryAcquire()))
		c.Signal(l)
		events = append(events, "main:signaled")
		l.Release()
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	verifyEvents(t, events, "W:wait", "main:try=true", "main:signaled", "W:woke held=true")
}

// TestCondSignalOrder tests that each signal wakes the highest-priority
// waiter, whatever the order they started waiting in.
func TestCondSignalOrder(t *testing.T) {
	tests := []struct {
		name      string
		priority  []int
		broadcast bool
		want      []string
	}{
		{"signal", []int{33, 35, 34}, false, []string{"w35", "w34", "w33"}},
		{"signal ascending", []int{32, 33, 34}, false, []string{"w34", "w33", "w32"}},
		{"broadcast", []int{33, 35, 34}, true, []string{"w35", "w34", "w33"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, p := newKernel(t, config.Default())
			var events []string
			var waiting []thread.ID

			err := k.Run("main", thread.PriDefault, func() {
				l := p.NewLock("l")
				c := p.NewCond("c")
				for _, pri := range tt.priority {
					name := fmt.Sprintf("w%d", pri)
					k.Create(name, pri, func() {
						l.Acquire()
						c.Wait(l)
						events = append(events, name)
						l.Release()
					})
				}
				waiting = c.Waiters()

				if tt.broadcast {
					l.Acquire()
					c.Broadcast(l)
					l.Release()
					return
				}
				for range tt.priority {
					l.Acquire()
					c.Signal(l)
					l.Release()
				}
			})

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			verifyEvents(t, events, tt.want...)
			if len(waiting) != len(tt.priority) {
				t.Errorf("Waiters() before wake = %v", waiting)
			}
		})
	}
}

// TestCondWaitersLeavesQueue tests that reading the waiters ranks them by
// current priority without reordering the queue itself.
func TestCondWaitersLeavesQueue(t *testing.T) {
	k, p := newKernel(t, config.Default())
	names := func(ids []thread.ID) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = k.Thread(id).Name
		}
		return out
	}
	var ranked, queued []string

	err := k.Run("main", thread.PriDefault, func() {
		l, m := p.NewLock("l"), p.NewLock("m")
		c := p.NewCond("c")
		k.Create("w32", 32, func() {
			m.Acquire()
			l.Acquire()
			c.Wait(l)
			l.Release()
			m.Release()
		})
		k.Create("w33", 33, func() {
			l.Acquire()
			c.Wait(l)
			l.Release()
		})
		// Raises w32 above w33 while both wait.
		k.Create("donor", 40, func() {
			m.Acquire()
			m.Release()
		})

		ranked = names(c.Waiters())
		ws := c.waiters.Items()
		ids := make([]thread.ID, len(ws))
		for i, w := range ws {
			ids[i] = w.thread
		}
		queued = names(ids)

		l.Acquire()
		c.Broadcast(l)
		l.Release()
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	verifyEvents(t, ranked, "w32", "w33")
	verifyEvents(t, queued, "w33", "w32")
}

// TestCondSignalEmpty tests that signaling with no waiters is a no-op.
func TestCondSignalEmpty(t *testing.T) {
	k, p := newKernel(t, config.Default())
	err := k.Run("main", thread.PriDefault, func() {
		l := p.NewLock("l")
		c := p.NewCond("c")
		l.Acquire()
		c.Signal(l)
		c.Broadcast(l)
		l.Release()
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	snap := p.Stats().GetOrCreate("cond", "c").Snapshot()
	if snap.Signals != 0 || snap.Broadcasts != 1 {
		t.Errorf("signals=%d broadcasts=%d, want 0 and 1", snap.Signals, snap.Broadcasts)
	}
}

// TestCondMisuse tests the preconditions of the condition variable.
func TestCondMisuse(t *testing.T) {
	tests := []struct {
		name string
		code fault.Code
		run  func(p *Primitives)
	}{
		{"wait without lock", fault.CodeNotHolder, func(p *Primitives) {
			p.NewCond("c").Wait(p.NewLock("l"))
		}},
		{"signal without lock", fault.CodeNotHolder, func(p *Primitives) {
			p.NewCond("c").Signal(p.NewLock("l"))
		}},
		{"broadcast without lock", fault.CodeNotHolder, func(p *Primitives) {
			p.NewCond("c").Broadcast(p.NewLock("l"))
		}},
		{"signal in handler", fault.CodeInterruptContext, func(p *Primitives) {
			c, l := p.NewCond("c"), p.NewLock("l")
			l.Acquire()
			p.Scheduler().RaiseInterrupt("device", func() { c.Signal(l) })
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, p := newKernel(t, config.Default())
			err := k.Run("main", thread.PriDefault, func() { tt.run(p) })
			verifyViolation(t, err, tt.code)
		})
	}
}

// TestCondMLFQS tests a producer and consumer under the non-donation
// policy, re-checking the predicate after every wake.
func TestCondMLFQS(t *testing.T) {
	k, p := newKernel(t, mlfqsConfig())
	var consumed []int

	err := k.Run("producer", thread.PriDefault, func() {
		l := p.NewLock("queue")
		notEmpty := p.NewCond("not-empty")
		var queue []int

		k.Create("consumer", thread.PriDefault, func() {
			for len(consumed) < 3 {
				l.Acquire()
				for len(queue) == 0 {
					notEmpty.Wait(l)
				}
				consumed = append(consumed, queue[0])
				queue = queue[1:]
				l.Release()
			}
		})
		for i := range 3 {
			l.Acquire()
			queue = append(queue, i)
			notEmpty.Signal(l)
			l.Release()
			k.Yield()
		}
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fmt.Sprint(consumed) != "[0 1 2]" {
		t.Errorf("consumed = %v, want [0 1 2]", consumed)
	}
}
