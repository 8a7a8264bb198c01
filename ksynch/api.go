package ksynch

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/fault"
	"github.com/kolkov/ksynch/internal/kernel/sched"
	"github.com/kolkov/ksynch/internal/kernel/stats"
	"github.com/kolkov/ksynch/internal/kernel/synch"
	"github.com/kolkov/ksynch/internal/kernel/thread"
)

// Primitive and configuration types.
type (
	// Semaphore is a counting semaphore.
	Semaphore = synch.Semaphore

	// Lock is a non-recursive lock with priority donation.
	Lock = synch.Lock

	// Cond is a Mesa-style condition variable.
	Cond = synch.Cond

	// Config selects the lock policy and logging.
	Config = config.Config

	// Policy selects donation or non-donation locks.
	Policy = config.Policy

	// ThreadID identifies a kernel thread.
	ThreadID = thread.ID

	// Violation is the error Run returns after a contract violation.
	Violation = fault.Violation

	// Stats are the counters of one primitive.
	Stats = stats.Snapshot
)

// Lock policies.
const (
	PolicyDonation = config.PolicyDonation
	PolicyMLFQS    = config.PolicyMLFQS
)

// Priority bounds.
const (
	PriMin     = thread.PriMin
	PriDefault = thread.PriDefault
	PriMax     = thread.PriMax
)

var (
	// ErrDeadlock is wrapped by Run when threads remain but none can run.
	ErrDeadlock = sched.ErrDeadlock

	// ErrAlreadyRun is returned by a second Run on the same Kernel.
	ErrAlreadyRun = sched.ErrAlreadyRun
)

// DefaultConfig returns the donation policy with INFO text logging.
func DefaultConfig() Config {
	return config.Default()
}

// ParseOptions parses a "key=value key=value" option list on top of
// DefaultConfig.
func ParseOptions(options string) (Config, error) {
	return config.Parse(options)
}

// Kernel is one simulated processor with its threads and primitives.
//
// All methods except Run and Stats must be called from a thread of this
// kernel.
type Kernel struct {
	sched *sched.Scheduler
	prims *synch.Primitives
	stats *stats.Registry
}

// New creates a kernel. A nil logger selects the package-global one from
// internal/logging.
func New(cfg Config, log *slog.Logger) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ksynch: %w", err)
	}
	s := sched.New(cfg, log)
	reg := stats.NewRegistry()
	return &Kernel{
		sched: s,
		prims: synch.New(s, cfg, reg),
		stats: reg,
	}, nil
}

// Run starts fn as the thread "main" at PriDefault and blocks until the
// kernel stops.
func (k *Kernel) Run(fn func()) error {
	return k.RunThread("main", PriDefault, fn)
}

// RunThread is Run with an explicit name and priority for the first thread.
func (k *Kernel) RunThread(name string, priority int, fn func()) error {
	return k.sched.Run(name, priority, fn)
}

// Spawn starts a thread. If it outranks the caller it runs before Spawn
// returns.
func (k *Kernel) Spawn(name string, priority int, fn func()) ThreadID {
	return k.sched.Create(name, priority, fn)
}

// NewSemaphore creates a semaphore with the given initial value.
func (k *Kernel) NewSemaphore(name string, value uint) *Semaphore {
	return k.prims.NewSemaphore(name, value)
}

// NewLock creates an unheld lock.
func (k *Kernel) NewLock(name string) *Lock {
	return k.prims.NewLock(name)
}

// NewCond creates a condition variable.
func (k *Kernel) NewCond(name string) *Cond {
	return k.prims.NewCond(name)
}

// Yield gives the processor to another ready thread of equal or higher
// priority, if there is one.
func (k *Kernel) Yield() {
	k.sched.Yield()
}

// Exit ends the calling thread.
func (k *Kernel) Exit() {
	k.sched.Exit()
}

// SetPriority sets the calling thread's base priority. It has no effect
// under PolicyMLFQS.
func (k *Kernel) SetPriority(priority int) {
	k.sched.SetPriority(priority)
}

// Priority returns the calling thread's effective priority.
func (k *Kernel) Priority() int {
	return k.sched.GetPriority()
}

// ThreadName returns the calling thread's name.
func (k *Kernel) ThreadName() string {
	return k.sched.Current().Name
}

// Interrupt raises a simulated device interrupt. The handler runs with
// interrupts off as soon as they are enabled; it may Up semaphores and
// TryDown them but must not block.
func (k *Kernel) Interrupt(name string, handler func()) {
	k.sched.RaiseInterrupt(name, handler)
}

// SelfTest runs the semaphore ping-pong test and writes its progress line
// to w.
func (k *Kernel) SelfTest(w io.Writer) {
	k.prims.SemaSelfTest(w)
}

// Stats returns the counters of every named primitive, ordered by kind and
// name.
func (k *Kernel) Stats() []Stats {
	return k.stats.Snapshot()
}

// Switches returns the number of context switches so far.
func (k *Kernel) Switches() uint64 {
	return k.sched.Switches()
}
