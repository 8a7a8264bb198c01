// Package synch implements the kernel synchronization primitives: a counting
// semaphore, a non-recursive lock with priority donation, and a Mesa-style
// condition variable.
//
// # Layering
//
// Semaphore is the only primitive that blocks and wakes threads. Its check
// and mutate sequences run with interrupts masked, which on a single
// processor makes them atomic. Lock is a Semaphore initialized to 1 plus an
// owner and the donation protocol. Cond queues a private Semaphore per
// waiter and is used together with a Lock the caller holds.
//
//	p := synch.New(kernel, cfg, nil)
//	mu := p.NewLock("buffer")
//	notEmpty := p.NewCond("not-empty")
//
//	mu.Acquire()
//	for len(buf) == 0 {
//		notEmpty.Wait(mu) // Mesa: re-check after waking
//	}
//	item := buf[0]
//	mu.Release()
//
// # Priority
//
// Every wait queue is ordered by effective priority and re-sorted at wake
// time, because a waiter's priority can change while it sleeps. After any
// wake the scheduler's preemption check runs, so a woken thread that
// outranks the waker gets the processor immediately.
//
// Under config.PolicyDonation a thread that blocks on a lock held by a
// lower-priority thread donates its priority to the holder, and the donation
// follows the holder's own WaitOnLock chain. Releasing a lock drops the
// donations made through it. Under config.PolicyMLFQS locks never donate.
//
// # Misuse
//
// Blocking from an interrupt handler, acquiring a lock twice, releasing a
// lock the caller does not hold, and using a primitive before Init are fatal
// contract violations (see package fault). TryDown and TryAcquire returning
// false is the only non-fatal failure.
package synch
