// Package main implements the ksynch CLI tool.
//
// The ksynch tool boots simulated single-processor kernels and exercises
// their synchronization primitives:
//
//  1. selftest runs the semaphore ping-pong self test
//  2. scenarios runs the named donation, semaphore and condition variable
//     scenarios and checks each event log
//  3. version prints or checks the release
//
// Usage:
//
//	ksynch selftest                      # Semaphore self test
//	ksynch scenarios -run '^donate-'     # Donation scenarios only
//	ksynch scenarios -policy mlfqs       # Scenarios for the mlfqs policy
//	ksynch version -check v0.1.0         # Exit 1 if incompatible
//
// Options are read from KSYNCH_OPTIONS first; command flags override them.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a command line and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	command := args[0]

	switch command {
	case "selftest":
		return selftestCommand(args[1:], stdout, stderr)
	case "scenarios":
		return scenariosCommand(args[1:], stdout, stderr)
	case "version", "--version", "-v":
		return versionCommand(args[1:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `ksynch - kernel synchronization on a simulated uniprocessor

USAGE:
    ksynch <command> [flags]

COMMANDS:
    selftest     Run the semaphore self test
    scenarios    Run the named scenarios and check their event logs
    version      Show or check version information
    help         Show this help message

COMMON FLAGS:
    -policy      donation (default) or mlfqs
    -depth       Bound on donation propagation, 0 for unbounded
    -log         debug, info, warn or error
    -format      text or json log output

EXAMPLES:
    # Run every scenario, four kernels at a time
    ksynch scenarios -parallel 4

    # Show the event log of one scenario
    ksynch scenarios -run '^donate-nest$' -v

    # Self test without donation, with kernel tracing
    ksynch selftest -policy mlfqs -log debug

    # Fail unless this build satisfies v0.1
    ksynch version -check v0.1

ENVIRONMENT:
    KSYNCH_OPTIONS    Default options as key=value pairs, e.g.
                      "policy=mlfqs depth=8 log=debug format=json"

`)
}
