package synch

import (
	"log/slog"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/sched"
	"github.com/kolkov/ksynch/internal/kernel/stats"
	"github.com/kolkov/ksynch/internal/kernel/thread"
)

// Primitives is the set of synchronization primitives of one kernel. It
// carries the lock policy and owns the lock table that WaitOnLock handles
// resolve against.
type Primitives struct {
	sched    *sched.Scheduler
	policy   config.Policy
	maxDepth int
	log      *slog.Logger
	stats    *stats.Registry

	locks    map[thread.LockID]*Lock
	nextLock thread.LockID
}

// New creates the primitive set for kernel s. A nil registry gets a fresh
// one.
func New(s *sched.Scheduler, cfg config.Config, reg *stats.Registry) *Primitives {
	if reg == nil {
		reg = stats.NewRegistry()
	}
	return &Primitives{
		sched:    s,
		policy:   cfg.Policy,
		maxDepth: cfg.MaxDonationDepth,
		log:      s.Logger().With("component", "synch"),
		stats:    reg,
		locks:    make(map[thread.LockID]*Lock),
	}
}

// Policy returns the lock policy.
func (p *Primitives) Policy() config.Policy {
	return p.policy
}

// Scheduler returns the kernel the primitives run on.
func (p *Primitives) Scheduler() *sched.Scheduler {
	return p.sched
}

// Stats returns the counter registry.
func (p *Primitives) Stats() *stats.Registry {
	return p.stats
}

// LockByID resolves a WaitOnLock handle.
func (p *Primitives) LockByID(id thread.LockID) (*Lock, bool) {
	l, ok := p.locks[id]
	return l, ok
}

func (p *Primitives) registerLock(l *Lock) thread.LockID {
	p.nextLock++
	p.locks[p.nextLock] = l
	return p.nextLock
}

// privateStats absorbs the counters of condition-variable semaphores, which
// are not reported individually.
var privateStats = &stats.Counters{Kind: stats.KindSemaphore, Name: "private"}
