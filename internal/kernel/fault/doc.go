// Package fault implements fatal contract violations for kernel code.
//
// Misuse of a kernel primitive (blocking in an interrupt handler, releasing a
// lock the caller does not hold, acquiring a lock twice, using a primitive
// that was never initialized) is a bug in the calling code, not a runtime
// condition. Such violations are never returned as errors. Assert and Fail
// panic with a *Violation instead:
//
//	fault.Assert(!ic.Context(), fault.CodeInterruptContext,
//		"sema %q: down from interrupt context", s.name)
//
// The panic carries a code, a message, the name of the kernel thread that was
// running, and the program counters of the call site. The scheduler recovers
// it at the top of every kernel thread, halts the simulated machine and
// returns the violation from Run, so a test can assert on the exact misuse
// with errors.As.
//
// Report output follows the shape of Go runtime failure reports:
//
//	==================
//	KERNEL PANIC: lock already held by current thread
//	Code: RECURSIVE_ACQUIRE
//	Thread: worker (tid 3)
//	  github.com/kolkov/ksynch/internal/kernel/synch.(*Lock).Acquire()
//	      /src/internal/kernel/synch/lock.go:88
//	==================
package fault
