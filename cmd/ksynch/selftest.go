// selftest.go implements the 'ksynch selftest' command.
package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/kolkov/ksynch/internal/logging"
	"github.com/kolkov/ksynch/ksynch"
)

// selftestCommand implements the 'ksynch selftest' command.
//
// It boots one kernel with the configured policy and runs the semaphore
// ping-pong test on its main thread. A contract violation prints the kernel
// panic report.
//
// Example:
//
//	ksynch selftest -policy mlfqs
func selftestCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("selftest", stderr)
	kf, err := newKernelFlags(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := kf.setupLogging(stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	log := logging.WithComponent("selftest")
	k, err := ksynch.New(kf.cfg, logging.GetLogger())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	log.Debug("starting", "policy", kf.cfg.Policy)
	err = k.Run(func() {
		k.SelfTest(stdout)
	})

	var v *ksynch.Violation
	switch {
	case errors.As(err, &v):
		fmt.Fprint(stderr, v.Report())
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "Self test failed: %v\n", err)
		return 1
	}
	log.Info("self test passed", "policy", kf.cfg.Policy, "switches", k.Switches())
	return 0
}
