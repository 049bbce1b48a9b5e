package logging

import (
	"log/slog"
)

// WithLock creates a logger with lock context.
// Locks resolve one of these per log call so reconfiguration takes effect.
//
// Example:
//
//	log := logging.WithLock("sessions")
//	log.Warn("acquisition timed out", "mode", "read")
func WithLock(lockName string) *slog.Logger {
	return GetLogger().With("lock", lockName)
}

// WithHandle creates a logger with both lock and handle context.
//
// Example:
//
//	log := logging.WithHandle("sessions", 42)
//	log.Debug("released", "held_for", d)
func WithHandle(lockName string, handleID uint64) *slog.Logger {
	return GetLogger().With("lock", lockName, "handle", handleID)
}

// WithContainer creates a logger with container context.
//
// Example:
//
//	log := logging.WithContainer("map", "sessions")
//	log.Debug("cleared", "removed", n)
func WithContainer(kind, name string) *slog.Logger {
	return GetLogger().With("container", kind, "name", name)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("benchmark")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
