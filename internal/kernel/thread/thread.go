package thread

import (
	"fmt"
	"slices"
)

// ID is a stable handle to a thread record.
type ID uint32

// NoThread is the absent thread handle.
const NoThread ID = 0

// LockID is a stable handle to a lock, used for WaitOnLock.
type LockID uint32

// NoLock is the absent lock handle.
const NoLock LockID = 0

// Priority bounds. Higher numbers run first.
const (
	PriMin     = 0
	PriDefault = 31
	PriMax     = 63
)

// Status is the scheduling state of a thread.
type Status int

const (
	// Ready threads wait in the ready queue.
	Ready Status = iota
	// Running is the one thread holding the processor.
	Running
	// Blocked threads wait on a semaphore.
	Blocked
	// Dying threads have returned from their function.
	Dying
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Dying:
		return "dying"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Thread is the kernel record of one thread.
type Thread struct {
	// ID is the handle of this record in its Arena.
	ID ID

	// Name is a label for logs and reports.
	Name string

	// BasePriority is the priority set at creation or by SetPriority.
	BasePriority int

	// Priority is the effective priority: BasePriority raised by donations.
	//
	// Invariant: Priority == max(BasePriority, Priority of every donor)
	// after each Refresh.
	Priority int

	// Donors are the threads donating priority to this one. Each donor is
	// blocked on a lock this thread holds.
	Donors []ID

	// WaitOnLock is the lock this thread is blocked acquiring, or NoLock.
	WaitOnLock LockID

	// Status is the scheduling state.
	Status Status
}

// String returns "name(tid)".
func (t *Thread) String() string {
	return fmt.Sprintf("%s(%d)", t.Name, t.ID)
}

// AddDonor records id as a donor. It returns false if id already donates.
func (t *Thread) AddDonor(id ID) bool {
	if slices.Contains(t.Donors, id) {
		return false
	}
	t.Donors = append(t.Donors, id)
	return true
}

// HasDonor reports whether id donates to t.
func (t *Thread) HasDonor(id ID) bool {
	return slices.Contains(t.Donors, id)
}

// ValidPriority reports whether p lies in [PriMin, PriMax].
func ValidPriority(p int) bool {
	return p >= PriMin && p <= PriMax
}
