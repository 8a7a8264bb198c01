// Package stats keeps shadow counters for synchronization primitives.
//
// Every named primitive gets a Counters record in a Registry, created on
// first use and keyed by kind and name. The primitives bump the counters as
// they run (downs, blocks, wakeups, donations, ...) and the CLI reads
// consistent Snapshots afterwards, possibly from another goroutine while
// other kernels are still running, which is why the fields are atomics.
//
// Example:
//
//	reg := stats.NewRegistry()
//	c := reg.GetOrCreate(stats.KindLock, "filesys")
//	c.Donations.Inc()
//	for _, s := range reg.Snapshot() {
//		fmt.Println(s.Kind, s.Name, s.Donations)
//	}
package stats
