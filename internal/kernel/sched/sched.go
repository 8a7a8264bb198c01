package sched

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/intr"
	"github.com/kolkov/ksynch/internal/kernel/thread"
	"github.com/kolkov/ksynch/internal/kernel/waitq"
	"github.com/kolkov/ksynch/internal/logging"
)

var (
	// ErrDeadlock is returned by Run when live threads remain but none can run.
	ErrDeadlock = errors.New("deadlock: no thread is ready")

	// ErrAlreadyRun is returned by a second call to Run.
	ErrAlreadyRun = errors.New("scheduler already run")
)

// Scheduler owns one simulated processor.
type Scheduler struct {
	cfg     config.Config
	base    *slog.Logger
	log     *slog.Logger
	intr    *intr.Controller
	threads *thread.Arena
	ready   *waitq.Queue[thread.ID]

	current thread.ID
	gates   map[thread.ID]chan struct{}
	live    int

	switches uint64
	started  bool
	halted   bool
	done     chan error
}

// New creates a scheduler. A nil logger selects the global one.
func New(cfg config.Config, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logging.GetLogger()
	}
	s := &Scheduler{
		cfg:     cfg,
		base:    log,
		log:     log.With("component", "sched"),
		intr:    intr.New(),
		threads: thread.NewArena(),
		ready:   waitq.New[thread.ID](16),
		gates:   make(map[thread.ID]chan struct{}),
		done:    make(chan error, 1),
	}
	s.intr.SetYieldHook(s.Yield)
	return s
}

// Config returns the configuration the scheduler was built with.
func (s *Scheduler) Config() config.Config {
	return s.cfg
}

// Logger returns the logger the scheduler was built with, without the
// scheduler's own component attribute.
func (s *Scheduler) Logger() *slog.Logger {
	return s.base
}

// Interrupts returns the interrupt controller of the processor.
func (s *Scheduler) Interrupts() *intr.Controller {
	return s.intr
}

// Threads returns the thread arena.
func (s *Scheduler) Threads() *thread.Arena {
	return s.threads
}

// Thread returns the record for id.
func (s *Scheduler) Thread(id thread.ID) *thread.Thread {
	return s.threads.Get(id)
}

// Switches returns the number of context switches performed.
func (s *Scheduler) Switches() uint64 {
	return s.switches
}

// Run creates the initial thread, runs the machine until it stops and
// returns why it stopped.
func (s *Scheduler) Run(name string, priority int, fn func()) error {
	if s.started {
		return ErrAlreadyRun
	}
	if !thread.ValidPriority(priority) {
		return fmt.Errorf("initial thread %q: priority %d outside [%d, %d]",
			name, priority, thread.PriMin, thread.PriMax)
	}
	s.started = true

	t := s.threads.Alloc(name, priority)
	gate := s.spawn(t, fn)
	t.Status = thread.Running
	s.current = t.ID
	s.log.Debug("boot", "thread", t.Name, "priority", t.Priority)
	gate <- struct{}{}

	err := <-s.done
	if err != nil {
		s.log.Info("kernel halted", "reason", err)
	}
	return err
}

// Create starts a new thread. The thread becomes ready and, if it outranks
// the caller, runs before Create returns.
func (s *Scheduler) Create(name string, priority int, fn func()) thread.ID {
	fault.Assert(s.current != thread.NoThread, fault.CodeNoThread,
		"create %q: no running thread", name)

	t := s.threads.Alloc(name, priority)
	t.Status = thread.Blocked
	s.spawn(t, fn)
	s.log.Debug("create", "thread", t.Name, "tid", t.ID, "priority", priority)

	s.Unblock(t.ID)
	s.PreemptCheck()
	return t.ID
}

func (s *Scheduler) spawn(t *thread.Thread, fn func()) chan struct{} {
	gate := make(chan struct{}, 1)
	s.gates[t.ID] = gate
	s.live++
	go s.threadMain(gate, fn)
	return gate
}

func (s *Scheduler) threadMain(gate chan struct{}, fn func()) {
	<-gate
	defer func() {
		if r := recover(); r != nil {
			s.fail(fault.FromPanic(r))
			return
		}
		// Normal return or Exit: the thread's own deferred calls have run.
		s.exit()
	}()

	s.intr.Enable()
	fn()
}

// Current returns the running thread.
func (s *Scheduler) Current() *thread.Thread {
	fault.Assert(s.current != thread.NoThread, fault.CodeNoThread, "no running thread")
	return s.threads.Get(s.current)
}

// CurrentID returns the handle of the running thread.
func (s *Scheduler) CurrentID() thread.ID {
	return s.Current().ID
}

// GetPriority returns the effective priority of the running thread.
func (s *Scheduler) GetPriority() int {
	return s.Current().Priority
}

// SetPriority sets the running thread's base priority, recomputes its
// effective priority from its donors and yields if it no longer has the
// highest priority. Ignored under the MLFQS policy.
func (s *Scheduler) SetPriority(priority int) {
	if s.cfg.Policy == config.PolicyMLFQS {
		return
	}
	fault.Assert(thread.ValidPriority(priority), fault.CodeBadPriority,
		"set priority %d outside [%d, %d]", priority, thread.PriMin, thread.PriMax)

	old := s.intr.Disable()
	cur := s.Current()
	cur.BasePriority = priority
	s.threads.Refresh(cur.ID)
	s.log.Debug("set priority", "thread", cur.Name, "base", priority, "effective", cur.Priority)
	s.PreemptCheck()
	s.intr.SetLevel(old)
}

// Block puts the running thread to sleep until Unblock. Interrupts must be
// off and the caller must not be an interrupt handler.
func (s *Scheduler) Block() {
	fault.Assert(!s.intr.Context(), fault.CodeInterruptContext,
		"block inside interrupt handler %q", s.intr.Handling())
	fault.Assert(s.intr.Level() == intr.Off, fault.CodeInterruptsOn,
		"block with interrupts enabled")

	cur := s.Current()
	cur.Status = thread.Blocked
	s.log.Debug("block", "thread", cur.Name, "priority", cur.Priority)
	s.schedule()
}

// Unblock makes a blocked thread ready. It does not preempt the caller;
// callers follow up with PreemptCheck when appropriate.
func (s *Scheduler) Unblock(id thread.ID) {
	t := s.threads.Get(id)
	fault.Assert(t.Status == thread.Blocked, fault.CodeBadThreadState,
		"unblock %s in state %s", t, t.Status)

	old := s.intr.Disable()
	s.ready.InsertOrdered(id, s.threads.Higher)
	t.Status = thread.Ready
	s.intr.SetLevel(old)
}

// Yield moves the running thread to the ready queue and dispatches the best
// ready thread, which may be the caller again.
func (s *Scheduler) Yield() {
	fault.Assert(!s.intr.Context(), fault.CodeInterruptContext,
		"yield inside interrupt handler %q", s.intr.Handling())

	old := s.intr.Disable()
	cur := s.Current()
	cur.Status = thread.Ready
	s.ready.InsertOrdered(cur.ID, s.threads.Higher)
	s.schedule()
	s.intr.SetLevel(old)
}

// PreemptCheck yields if a ready thread outranks the running thread. From
// an interrupt handler it requests a yield on return instead.
func (s *Scheduler) PreemptCheck() {
	if s.ready.Empty() {
		return
	}
	s.ready.Sort(s.threads.Higher)
	front, _ := s.ready.Front()
	if s.threads.Get(front).Priority <= s.Current().Priority {
		return
	}
	if s.intr.Context() {
		s.intr.YieldOnReturn()
		return
	}
	s.Yield()
}

// RaiseInterrupt signals a simulated device interrupt on the processor.
func (s *Scheduler) RaiseInterrupt(name string, h intr.Handler) {
	s.intr.Raise(name, h)
}

// Ready returns the ready queue in dispatch order.
func (s *Scheduler) Ready() []thread.ID {
	s.ready.Sort(s.threads.Higher)
	return s.ready.Items()
}

// Exit terminates the running thread after running its deferred calls. It
// does not return.
func (s *Scheduler) Exit() {
	fault.Assert(!s.intr.Context(), fault.CodeInterruptContext, "exit inside interrupt handler")
	runtime.Goexit()
}

func (s *Scheduler) exit() {
	fault.Assert(!s.intr.Context(), fault.CodeInterruptContext, "exit inside interrupt handler")

	s.intr.Disable()
	cur := s.Current()
	cur.Status = thread.Dying
	s.live--
	s.log.Debug("exit", "thread", cur.Name, "tid", cur.ID)
	s.schedule()
}

// schedule hands the processor to the best ready thread. The running thread
// has already left the Running state.
func (s *Scheduler) schedule() {
	prev := s.threads.Get(s.current)
	gate := s.gates[prev.ID]

	s.ready.Sort(s.threads.Higher)
	next, ok := s.ready.PopFront()
	if !ok {
		dying := prev.Status == thread.Dying
		if s.live == 0 {
			s.halt(nil)
		} else {
			s.halt(s.deadlock())
		}
		if dying {
			return
		}
		park()
	}

	nt := s.threads.Get(next)
	nt.Status = thread.Running
	s.current = next
	if next == prev.ID {
		return
	}

	s.switches++
	s.log.Debug("switch", "from", prev.Name, "to", nt.Name, "priority", nt.Priority)

	// prev belongs to the next thread once its gate is signalled.
	dying := prev.Status == thread.Dying
	s.gates[next] <- struct{}{}
	if dying {
		return
	}
	<-gate
}

// park blocks a thread goroutine for good. A halted kernel never signals a
// gate again, so threads still blocked at the halt stay parked and none of
// their deferred calls reenter the kernel.
func park() {
	select {}
}

func (s *Scheduler) deadlock() error {
	var blocked []string
	for _, t := range s.threads.All() {
		if t.Status == thread.Blocked {
			blocked = append(blocked, t.String())
		}
	}
	return fmt.Errorf("%w: %d blocked: %s", ErrDeadlock, len(blocked), strings.Join(blocked, ", "))
}

func (s *Scheduler) fail(v *fault.Violation) {
	if v.Thread == "" && s.current != thread.NoThread {
		cur := s.threads.Get(s.current)
		v.Thread = cur.Name
		v.TID = uint32(cur.ID)
	}
	s.log.Error("contract violation", "code", v.Code, "thread", v.Thread, "msg", v.Message)
	s.halt(v)
}

// halt stops the machine and makes Run return err. Gates are never signalled
// again, so every other thread goroutine stays parked where it is.
func (s *Scheduler) halt(err error) {
	if s.halted {
		return
	}
	s.halted = true
	s.done <- err
}
