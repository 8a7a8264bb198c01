// Package scenario holds the named kernel scenarios used by the CLI and the
// tests to demonstrate and check the synchronization layer end to end.
//
// Each scenario boots a fresh kernel, runs a main thread that creates and
// coordinates other threads, and records an ordered event log. A scenario
// passes when the kernel stops cleanly and its log equals the expected log
// exactly. Because the simulated processor is deterministic, every
// scenario produces the same log on every run.
//
// Scenarios are independent and share nothing, so a caller may run several
// at once:
//
//	scs, _ := scenario.Select("^donate-", "")
//	for _, sc := range scs {
//		res := scenario.Run(ctx, sc, cfg, log)
//		fmt.Println(res.Name, res.Passed())
//	}
package scenario
