package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kolkov/ksynch/internal/config"
	"github.com/kolkov/ksynch/internal/kernel/sched"
	"github.com/kolkov/ksynch/internal/kernel/stats"
	"github.com/kolkov/ksynch/internal/kernel/synch"
	"github.com/kolkov/ksynch/internal/kernel/thread"
	"github.com/kolkov/ksynch/internal/logging"
)

// Scenario is one named kernel program and its expected event log.
type Scenario struct {
	// Name identifies the scenario on the command line.
	Name string

	// Description is a one-line summary.
	Description string

	// Policy is the lock policy the scenario is written for.
	Policy config.Policy

	// Thread names the initial thread; empty means "main".
	Thread string

	// Main is the body of the initial thread.
	Main func(e *Env)

	// Want is the expected event log.
	Want []string
}

// Env is what a scenario body sees: the kernel, its primitives and the
// event log.
type Env struct {
	K *sched.Scheduler
	P *synch.Primitives

	events []string
}

// Record appends a formatted event to the log.
func (e *Env) Record(format string, args ...any) {
	e.events = append(e.events, fmt.Sprintf(format, args...))
}

// RecordPriority appends "<name>: priority <n>" for the running thread.
func (e *Env) RecordPriority() {
	cur := e.K.Current()
	e.Record("%s: priority %d", cur.Name, cur.Priority)
}

// Spawn creates a thread running fn.
func (e *Env) Spawn(name string, priority int, fn func()) thread.ID {
	return e.K.Create(name, priority, fn)
}

// Result is the outcome of one scenario run.
type Result struct {
	Name     string
	Policy   config.Policy
	Events   []string
	Want     []string
	Err      error
	Switches uint64
	Totals   stats.Snapshot
	Elapsed  time.Duration
}

// Passed reports whether the kernel stopped cleanly with the expected log.
func (r Result) Passed() bool {
	return r.Err == nil && slices.Equal(r.Events, r.Want)
}

// Diff describes the first difference between the recorded and expected
// logs, or returns "" when they match.
func (r Result) Diff() string {
	n := max(len(r.Events), len(r.Want))
	for i := range n {
		var got, want string
		if i < len(r.Events) {
			got = r.Events[i]
		}
		if i < len(r.Want) {
			want = r.Want[i]
		}
		if got != want {
			return fmt.Sprintf("event %d: got %q, want %q", i, got, want)
		}
	}
	return ""
}

// Run boots a kernel for sc and runs it to completion. The scenario's own
// policy replaces cfg.Policy. A cancelled ctx prevents the kernel from
// starting; a kernel that has started always runs to its end.
func Run(ctx context.Context, sc Scenario, cfg config.Config, log *slog.Logger) Result {
	if log == nil {
		log = logging.GetLogger()
	}
	cfg.Policy = sc.Policy
	res := Result{Name: sc.Name, Policy: sc.Policy, Want: sc.Want}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("scenario %s: %w", sc.Name, err)
		return res
	}

	klog := log.With("scenario", sc.Name)
	k := sched.New(cfg, klog)
	reg := stats.NewRegistry()
	env := &Env{K: k, P: synch.New(k, cfg, reg)}

	name := sc.Thread
	if name == "" {
		name = "main"
	}
	start := time.Now()
	err := k.Run(name, thread.PriDefault, func() { sc.Main(env) })
	res.Elapsed = time.Since(start)
	res.Events = env.events
	res.Switches = k.Switches()
	res.Totals = reg.Totals()
	if err != nil {
		res.Err = fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	if res.Passed() {
		klog.Debug("scenario passed", "events", len(res.Events), "switches", res.Switches)
	} else {
		klog.Warn("scenario failed", "err", res.Err, "diff", res.Diff())
	}
	return res
}

// All returns every scenario in catalog order.
func All() []Scenario {
	return slices.Clone(catalog)
}

// Lookup finds a scenario by exact name.
func Lookup(name string) (Scenario, bool) {
	i := slices.IndexFunc(catalog, func(sc Scenario) bool { return sc.Name == name })
	if i < 0 {
		return Scenario{}, false
	}
	return catalog[i], true
}

// Names returns every scenario name in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, sc := range catalog {
		names[i] = sc.Name
	}
	return names
}

// Select returns the scenarios whose name matches the regular expression
// pattern, restricted to policy unless policy is empty. An empty pattern
// matches everything.
func Select(pattern, policy string) ([]Scenario, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad scenario pattern %q: %w", pattern, err)
	}
	var want config.Policy
	if policy != "" {
		if want, err = config.ParsePolicy(policy); err != nil {
			return nil, err
		}
	}

	var out []Scenario
	for _, sc := range catalog {
		if !re.MatchString(sc.Name) {
			continue
		}
		if policy != "" && sc.Policy != want {
			continue
		}
		out = append(out, sc)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario matches %q (have %s)", pattern, strings.Join(Names(), ", "))
	}
	return out, nil
}
