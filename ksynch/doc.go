// Package ksynch provides priority-aware kernel synchronization primitives
// on a simulated single-processor machine.
//
// A Kernel owns one simulated CPU. Kernel threads are ordinary Go functions,
// but only one of them runs at a time and the highest-priority ready thread
// always holds the processor. On that machine the package offers:
//   - a counting [Semaphore] with a priority-ordered wait queue
//   - a non-recursive [Lock] that donates priority to its holder
//   - a Mesa-style [Cond] condition variable
//
// # Quick Start
//
//	k, err := ksynch.New(ksynch.DefaultConfig(), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = k.Run(func() {
//		mu := k.NewLock("counter")
//		done := k.NewSemaphore("done", 0)
//		k.Spawn("worker", ksynch.PriDefault+1, func() {
//			mu.Acquire()
//			// ... critical section ...
//			mu.Release()
//			done.Up()
//		})
//		done.Down()
//	})
//
// Run returns nil once every thread has finished, an error wrapping
// [ErrDeadlock] when threads remain but none can run, or a [*Violation] when
// a thread misused a primitive. Misuse (acquiring a lock twice, releasing a
// lock held by another thread, blocking inside an interrupt handler) is a
// programming error: it halts the whole kernel instead of returning an
// error from the offending call.
//
// # Policies
//
// [PolicyDonation] (the default) lends the priority of a thread blocked on a
// lock to the lock's holder, transitively along chains of held locks.
// [PolicyMLFQS] turns donation off, as a feedback-queue scheduler that
// computes priorities itself would.
//
// # Options
//
// Options may be given as a KSYNCH_OPTIONS style string:
//
//	cfg, err := ksynch.ParseOptions("policy=mlfqs log=debug")
//
// Recognized keys are policy (donation, mlfqs), depth (donation walk bound,
// 0 for unbounded), log (debug, info, warn, error) and format (text, json).
package ksynch
