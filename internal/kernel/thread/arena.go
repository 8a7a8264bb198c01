package thread

import (
	"slices"

	"github.com/kolkov/ksynch/internal/kernel/fault"
)

// Arena owns every thread record of one processor.
type Arena struct {
	threads []*Thread
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc creates a thread record in the Ready state.
func (a *Arena) Alloc(name string, priority int) *Thread {
	fault.Assert(ValidPriority(priority), fault.CodeBadPriority,
		"thread %q: priority %d outside [%d, %d]", name, priority, PriMin, PriMax)

	t := &Thread{
		ID:           ID(len(a.threads) + 1),
		Name:         name,
		BasePriority: priority,
		Priority:     priority,
		Status:       Ready,
	}
	a.threads = append(a.threads, t)
	return t
}

// Lookup returns the record for id.
func (a *Arena) Lookup(id ID) (*Thread, bool) {
	if id == NoThread || int(id) > len(a.threads) {
		return nil, false
	}
	return a.threads[id-1], true
}

// Get returns the record for id. An unknown id is a contract violation.
func (a *Arena) Get(id ID) *Thread {
	t, ok := a.Lookup(id)
	fault.Assert(ok, fault.CodeNoThread, "no thread with id %d", id)
	return t
}

// Len returns the number of records ever allocated.
func (a *Arena) Len() int {
	return len(a.threads)
}

// All returns every record in allocation order.
func (a *Arena) All() []*Thread {
	return slices.Clone(a.threads)
}

// Count returns the number of threads in status s.
func (a *Arena) Count(s Status) int {
	n := 0
	for _, t := range a.threads {
		if t.Status == s {
			n++
		}
	}
	return n
}

// Higher is the wait-queue comparator: x runs before y when its effective
// priority is strictly greater.
func (a *Arena) Higher(x, y ID) bool {
	return a.Get(x).Priority > a.Get(y).Priority
}

// Refresh recomputes the effective priority of id from its base priority
// and its donors, and returns the new value.
func (a *Arena) Refresh(id ID) int {
	t := a.Get(id)
	p := t.BasePriority
	for _, d := range t.Donors {
		if dp := a.Get(d).Priority; dp > p {
			p = dp
		}
	}
	t.Priority = p
	return p
}

// StripDonors removes from holder's donor set every donor blocked on lock
// and returns the removed IDs. The effective priority is not recomputed.
func (a *Arena) StripDonors(holder ID, lock LockID) []ID {
	t := a.Get(holder)
	var removed []ID
	t.Donors = slices.DeleteFunc(t.Donors, func(d ID) bool {
		if a.Get(d).WaitOnLock == lock {
			removed = append(removed, d)
			return true
		}
		return false
	})
	return removed
}
