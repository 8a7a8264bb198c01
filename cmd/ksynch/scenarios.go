// scenarios.go implements the 'ksynch scenarios' command.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kolkov/ksynch/internal/kernel/scenario"
	"github.com/kolkov/ksynch/internal/logging"
)

// scenariosCommand implements the 'ksynch scenarios' command.
//
// Flow:
//  1. Select scenarios by -run pattern and, if given, -policy
//  2. Run each on its own kernel, at most -parallel at a time
//  3. Print a result table, and the event logs with -v or on failure
//  4. Exit 1 if any scenario failed
//
// Example:
//
//	ksynch scenarios -run condvar -v
func scenariosCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("scenarios", stderr)
	kf, err := newKernelFlags(fs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	pattern := fs.String("run", "", "run only scenarios matching this regular expression")
	parallel := fs.Int("parallel", runtime.GOMAXPROCS(0), "maximum number of kernels running at once")
	verbose := fs.Bool("v", false, "print every event log")
	list := fs.Bool("list", false, "list scenarios and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := kf.setupLogging(stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	policy := ""
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "policy" {
			policy = kf.cfg.Policy.String()
		}
	})

	selected, err := scenario.Select(*pattern, policy)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if *list {
		printScenarioList(stdout, selected)
		return 0
	}

	results, err := runScenarios(context.Background(), selected, kf, *parallel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	failed := printResults(stdout, results, *verbose)
	if failed > 0 {
		return 1
	}
	return 0
}

// runScenarios runs every scenario on its own kernel, at most limit at a
// time, and returns the results in input order.
func runScenarios(ctx context.Context, scs []scenario.Scenario, kf *kernelFlags, limit int) ([]scenario.Result, error) {
	if limit < 1 {
		return nil, fmt.Errorf("-parallel must be at least 1, got %d", limit)
	}
	log := logging.WithComponent("scenarios")
	results := make([]scenario.Result, len(scs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, sc := range scs {
		g.Go(func() error {
			results[i] = scenario.Run(ctx, sc, kf.cfg, logging.GetLogger())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug("scenarios finished", "count", len(scs), "parallel", limit)
	return results, nil
}
