package synch

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/sched"
	"github.com/kolkov/ksynch/internal/kernel/thread"
	"github.com/kolkov/ksynch/internal/logging"
)

// Kernel threads must not call t.Fatal. Tests append to an event log from
// inside the kernel and compare it once Run has returned.

func newKernel(t *testing.T, cfg config.Config) (*sched.Scheduler, *Primitives) {
	t.Helper()
	s := sched.New(cfg, logging.Discard())
	return s, New(s, cfg, nil)
}

func mlfqsConfig() config.Config {
	cfg := config.Default()
	cfg.Policy = config.PolicyMLFQS
	return cfg
}

func verifyEvents(t *testing.T, got []string, want ...string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("events:\n got  %q\n want %q", got, want)
	}
}

func verifyViolation(t *testing.T, err error, code fault.Code) {
	t.Helper()
	var v *fault.Violation
	if !errors.As(err, &v) {
		t.Fatalf("Run() error = %v, want violation %s", err, code)
	}
	if v.Code != code {
		t.Errorf("violation code = %s, want %s (%s)", v.Code, code, v.Message)
	}
}

// TestSemaWakeOrder tests that a down blocked at zero resumes after an up
// and consumes the unit.
func TestSemaWakeOrder(t *testing.T) {
	k, p := newKernel(t, config.Default())
	var events []string

	err := k.Run("main", thread.PriDefault, func() {
		s := p.NewSemaphore("s", 0)
		k.Create("A", thread.PriDefault+1, func() {
			events = append(events, "A:down")
			s.Down()
			events = append(events, fmt.Sprintf("A:resumed value=%d", s.Value()))
		})
		k.Create("B", thread.PriDefault+1, func() {
			events = append(events, "B:up")
			s.Up()
			events = append(events, "B:done")
		})
		events = append(events, "main")
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	verifyEvents(t, events, "A:down", "B:up", "B:done", "A:resumed value=0", "main")
}

// TestSemaPriorityWake tests that up wakes the highest-priority waiter
// regardless of arrival order.
func TestSemaPriorityWake(t *testing.T) {
	tests := []struct {
		name  string
		order []int
	}{
		{"low first", []int{5, 10}},
		{"high first", []int{10, 5}},
		{"three waiters", []int{5, 20, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, p := newKernel(t, config.Default())
			var events []string

			err := k.Run("main", thread.PriMin, func() {
				s := p.NewSemaphore("s", 0)
				for _, pri := range tt.order {
					name := fmt.Sprintf("p%d", pri)
					k.Create(name, pri, func() {
						s.Down()
						events = append(events, name)
					})
				}
				for range tt.order {
					s.Up()
				}
			})

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			want := slices.Clone(tt.order)
			slices.Sort(want)
			slices.Reverse(want)
			var names []string
			for _, pri := range want {
				names = append(names, fmt.Sprintf("p%d", pri))
			}
			verifyEvents(t, events, names...)
		})
	}
}

// TestSemaInitialValue tests that a semaphore at N admits exactly N downs
// before one blocks.
func TestSemaInitialValue(t *testing.T) {
	for _, n := range []uint{0, 1, 3} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			k, p := newKernel(t, config.Default())
			var events []string

			err := k.Run("main", thread.PriDefault, func() {
				s := p.NewSemaphore("s", n)
				k.Create("taker", thread.PriDefault+1, func() {
					for i := range n + 1 {
						events = append(events, fmt.Sprintf("down %d", i))
						s.Down()
					}
					events = append(events, "taker:done")
				})
				events = append(events, fmt.Sprintf("main value=%d", s.Value()))
				s.Up()
			})

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			var want []string
			for i := range n + 1 {
				want = append(want, fmt.Sprintf("down %d", i))
			}
			want = append(want, "main value=0", "taker:done")
			verifyEvents(t, events, want...)
		})
	}
}

// TestSemaTryDown tests the non-blocking down.
func TestSemaTryDown(t *testing.T) {
	k, p := newKernel(t, config.Default())
	var got []bool
	var value uint

	err := k.Run("main", thread.PriDefault, func() {
		s := p.NewSemaphore("s", 2)
		for range 3 {
			got = append(got, s.TryDown())
		}
		value = s.Value()
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(got, []bool{true, true, false}) {
		t.Errorf("TryDown results = %v, want [true true false]", got)
	}
	if value != 0 {
		t.Errorf("value = %d, want 0", value)
	}
	snap := p.Stats().GetOrCreate("semaphore", "s").Snapshot()
	if snap.Downs != 2 || snap.TryFailures != 1 {
		t.Errorf("stats downs=%d tryFailures=%d, want 2 and 1", snap.Downs, snap.TryFailures)
	}
}

// TestSemaInterruptHandler tests TryDown and Up from an interrupt handler:
// the handler never blocks, and a thread it wakes runs once it returns.
func TestSemaInterruptHandler(t *testing.T) {
	k, p := newKernel(t, config.Default())
	var events []string

	err := k.Run("main", thread.PriDefault, func() {
		s := p.NewSemaphore("dev", 1)
		done := p.NewSemaphore("done", 0)
		k.Create("waiter", thread.PriDefault+1, func() {
			done.Down()
			events = append(events, "waiter:woken")
		})
		k.RaiseInterrupt("device", func() {
			events = append(events, fmt.Sprintf("handler try=%v", s.TryDown()))
			events = append(events, fmt.Sprintf("handler try=%v", s.TryDown()))
			done.Up()
			events = append(events, "handler:return")
		})
		events = append(events, "main")
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	verifyEvents(t, events,
		"handler try=true", "handler try=false", "handler:return", "waiter:woken", "main")
}

// TestSemaDownInInterrupt tests that a handler may not block.
func TestSemaDownInInterrupt(t *testing.T) {
	k, p := newKernel(t, config.Default())
	err := k.Run("main", thread.PriDefault, func() {
		s := p.NewSemaphore("s", 1)
		k.RaiseInterrupt("device", s.Down)
	})
	verifyViolation(t, err, fault.CodeInterruptContext)
}

// TestUninitialized tests use of zero-value primitives.
func TestUninitialized(t *testing.T) {
	tests := []struct {
		name string
		use  func(p *Primitives)
	}{
		{"semaphore down", func(*Primitives) { var s Semaphore; s.Down() }},
		{"semaphore up", func(*Primitives) { var s Semaphore; s.Up() }},
		{"nil semaphore", func(*Primitives) { var s *Semaphore; s.TryDown() }},
		{"lock acquire", func(*Primitives) { var l Lock; l.Acquire() }},
		{"nil lock", func(*Primitives) { var l *Lock; l.Release() }},
		{"cond wait", func(p *Primitives) {
			var c Cond
			l := p.NewLock("l")
			l.Acquire()
			c.Wait(l)
		}},
		{"cond with zero lock", func(p *Primitives) {
			c := p.NewCond("c")
			c.Signal(&Lock{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, p := newKernel(t, config.Default())
			err := k.Run("main", thread.PriDefault, func() { tt.use(p) })
			verifyViolation(t, err, fault.CodeUninitialized)
		})
	}
}

// TestEmbeddedInit tests primitives initialized in place.
func TestEmbeddedInit(t *testing.T) {
	k, p := newKernel(t, config.Default())
	var buf struct {
		mu    Lock
		ready Semaphore
		cond  Cond
	}
	var held bool

	err := k.Run("main", thread.PriDefault, func() {
		buf.mu.Init(p, "buf")
		buf.ready.Init(p, "ready", 1)
		buf.cond.Init(p, "cond")
		buf.ready.Down()
		buf.mu.Acquire()
		buf.cond.Broadcast(&buf.mu)
		held = buf.mu.HeldByCurrentThread()
		buf.mu.Release()
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !held {
		t.Error("HeldByCurrentThread() = false after Acquire")
	}
	if got, ok := p.LockByID(buf.mu.ID()); !ok || got != &buf.mu {
		t.Errorf("LockByID(%d) = %p, %v", buf.mu.ID(), got, ok)
	}
}

// TestSemaSelfTest tests the ping-pong self test.
func TestSemaSelfTest(t *testing.T) {
	for _, cfg := range []config.Config{config.Default(), mlfqsConfig()} {
		t.Run(cfg.Policy.String(), func(t *testing.T) {
			k, p := newKernel(t, cfg)
			var out bytes.Buffer

			err := k.Run("main", thread.PriDefault, func() {
				p.SemaSelfTest(&out)
			})

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := out.String(); got != "Testing semaphores...done.\n" {
				t.Errorf("output = %q", got)
			}
			if k.Switches() < 2*selfTestRounds {
				t.Errorf("switches = %d, want at least %d", k.Switches(), 2*selfTestRounds)
			}
		})
	}
}
