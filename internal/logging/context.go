package logging

import (
	"log/slog"
)

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("sched")
//	log.Info("kernel halted", "reason", err)
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}
