package stats

import (
	"sort"
	"sync"

	"go.uber.org/atomic"
)

// Kind is the primitive type a counter set belongs to.
type Kind string

// Primitive kinds.
const (
	KindSemaphore Kind = "semaphore"
	KindLock      Kind = "lock"
	KindCond      Kind = "cond"
)

// Counters are the live counters of one primitive.
type Counters struct {
	Kind Kind
	Name string

	// Semaphore operations.
	Downs       atomic.Uint64
	Blocks      atomic.Uint64
	Ups         atomic.Uint64
	Wakeups     atomic.Uint64
	TryFailures atomic.Uint64

	// Lock operations.
	Acquires   atomic.Uint64
	Releases   atomic.Uint64
	Donations  atomic.Uint64
	ChainHops  atomic.Uint64
	CycleStops atomic.Uint64

	// Condition variable operations.
	Waits      atomic.Uint64
	Signals    atomic.Uint64
	Broadcasts atomic.Uint64

	maxWaiters atomic.Int64
}

// ObserveWaiters records a waiter queue length, keeping the maximum.
func (c *Counters) ObserveWaiters(n int) {
	for {
		cur := c.maxWaiters.Load()
		if int64(n) <= cur || c.maxWaiters.CompareAndSwap(cur, int64(n)) {
			return
		}
	}
}

// MaxWaiters returns the longest waiter queue observed.
func (c *Counters) MaxWaiters() int {
	return int(c.maxWaiters.Load())
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Kind        Kind
	Name        string
	Downs       uint64
	Blocks      uint64
	Ups         uint64
	Wakeups     uint64
	TryFailures uint64
	Acquires    uint64
	Releases    uint64
	Donations   uint64
	ChainHops   uint64
	CycleStops  uint64
	Waits       uint64
	Signals     uint64
	Broadcasts  uint64
	MaxWaiters  int
}

// Snapshot copies the counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Kind:        c.Kind,
		Name:        c.Name,
		Downs:       c.Downs.Load(),
		Blocks:      c.Blocks.Load(),
		Ups:         c.Ups.Load(),
		Wakeups:     c.Wakeups.Load(),
		TryFailures: c.TryFailures.Load(),
		Acquires:    c.Acquires.Load(),
		Releases:    c.Releases.Load(),
		Donations:   c.Donations.Load(),
		ChainHops:   c.ChainHops.Load(),
		CycleStops:  c.CycleStops.Load(),
		Waits:       c.Waits.Load(),
		Signals:     c.Signals.Load(),
		Broadcasts:  c.Broadcasts.Load(),
		MaxWaiters:  c.MaxWaiters(),
	}
}

type key struct {
	kind Kind
	name string
}

// Registry maps primitives to their counters.
type Registry struct {
	vars sync.Map // key -> *Counters
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// GetOrCreate returns the counters for a primitive, creating them on first
// use. Primitives sharing kind and name share counters.
func (r *Registry) GetOrCreate(kind Kind, name string) *Counters {
	k := key{kind, name}
	if v, ok := r.vars.Load(k); ok {
		return v.(*Counters)
	}
	v, _ := r.vars.LoadOrStore(k, &Counters{Kind: kind, Name: name})
	return v.(*Counters)
}

// Snapshot returns a copy of every counter set ordered by kind then name.
func (r *Registry) Snapshot() []Snapshot {
	var out []Snapshot
	r.vars.Range(func(_, v any) bool {
		out = append(out, v.(*Counters).Snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Totals sums every counter in the registry. Kind and Name are left empty
// and MaxWaiters is the overall maximum.
func (r *Registry) Totals() Snapshot {
	var t Snapshot
	for _, s := range r.Snapshot() {
		t.Downs += s.Downs
		t.Blocks += s.Blocks
		t.Ups += s.Ups
		t.Wakeups += s.Wakeups
		t.TryFailures += s.TryFailures
		t.Acquires += s.Acquires
		t.Releases += s.Releases
		t.Donations += s.Donations
		t.ChainHops += s.ChainHops
		t.CycleStops += s.CycleStops
		t.Waits += s.Waits
		t.Signals += s.Signals
		t.Broadcasts += s.Broadcasts
		t.MaxWaiters = max(t.MaxWaiters, s.MaxWaiters)
	}
	return t
}

// Reset drops every counter set. Not safe while primitives are running.
func (r *Registry) Reset() {
	r.vars = sync.Map{}
}
