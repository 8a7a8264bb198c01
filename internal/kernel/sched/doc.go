// Package sched implements the scheduler of the simulated uniprocessor that
// the synchronization primitives run on.
//
// Every kernel thread is a goroutine, but only the goroutine holding the
// processor runs. Each thread owns a gate channel; switching from thread A to
// thread B sends on B's gate and then parks A on its own gate. Handing the
// processor over through channels also gives the Go memory model a
// happens-before edge between consecutive holders, so kernel state needs no
// further synchronization.
//
// The scheduler provides the collaborators the primitives depend on:
//   - Current: identity of the running thread
//   - Block / Unblock: suspend the caller, make a blocked thread ready
//   - PreemptCheck: yield (or request yield-on-return from an interrupt
//     handler) when a ready thread outranks the running one
//   - Interrupts: the interrupt controller of the processor
//
// Selection is strict priority: the ready queue is stable-sorted by effective
// priority at every dispatch, so donations made while a thread waited are
// honoured and equal priorities run round-robin.
//
// Run starts the first thread and returns when the machine stops:
//   - nil once every thread has exited
//   - an error wrapping ErrDeadlock when threads remain but none is ready
//   - the *fault.Violation raised by a thread that broke a contract
//
// A halted machine never signals a gate again. Threads still blocked at the
// halt stay parked for the life of the process, so none of their deferred
// calls reenters the kernel after Run has returned. Exit, by contrast, runs
// the exiting thread's deferred calls before the thread gives up the
// processor.
package sched
