// Package thread implements the thread arena: the table of kernel thread
// records that every other kernel component refers to by handle.
//
// Each Thread carries the state the synchronization layer reasons about:
//   - BasePriority: the priority the thread asked for
//   - Priority: the effective priority, max(BasePriority, donors)
//   - Donors: threads currently donating their priority to this one
//   - WaitOnLock: the lock this thread is blocked acquiring, or NoLock
//   - Status: Ready, Running, Blocked or Dying
//
// Queues, lock holders and WaitOnLock store IDs, never *Thread, so a thread's
// identity is independent of whichever wait list it currently sits on. IDs are
// allocated sequentially from 1 and never reused; ID 0 is NoThread.
//
// The Arena also provides the priority comparator used for every wait queue
// (Higher) and the donation bookkeeping that only needs thread state:
// recomputing an effective priority from the donor set (Refresh) and removing
// the donors that were waiting on a specific lock (StripDonors).
//
// The arena is not safe for concurrent use; it belongs to one simulated
// processor and is only touched by the thread that owns it.
package thread
