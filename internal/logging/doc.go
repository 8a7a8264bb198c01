// Package logging provides the structured logger shared by the kernel
// packages and the CLI.
//
// It wraps log/slog with a process-wide logger that is initialized once from
// a Config and retrieved with GetLogger. WithComponent attaches the subsystem
// field the kernel logs by:
//
//	log := logging.WithComponent("sched")
//	log.Debug("dispatch", "thread", t.Name, "priority", t.Priority)
//
// Kernels can also be given their own *slog.Logger; the global one is only the
// default.
package logging
