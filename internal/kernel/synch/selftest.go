package synch

import (
	"fmt"
	"io"

	"github.com/kolkov/ksynch/internal/kernel/thread"
)

// selfTestRounds is the number of ping-pong exchanges in SemaSelfTest.
const selfTestRounds = 10

// SemaSelfTest bounces control between the running thread and a helper
// thread through a pair of semaphores and writes a progress line to w. It
// must run on a kernel thread.
func (p *Primitives) SemaSelfTest(w io.Writer) {
	fmt.Fprint(w, "Testing semaphores...")

	var pair [2]Semaphore
	pair[0].Init(p, "self-test-ping", 0)
	pair[1].Init(p, "self-test-pong", 0)

	p.sched.Create("sema-test", thread.PriDefault, func() {
		for range selfTestRounds {
			pair[0].Down()
			pair[1].Up()
		}
	})
	for range selfTestRounds {
		pair[0].Up()
		pair[1].Down()
	}
	fmt.Fprintln(w, "done.")
}
