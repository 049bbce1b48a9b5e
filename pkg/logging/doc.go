// Package logging provides the process-wide structured logger used by the
// lock and container packages.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. Locks and
// containers obtain their loggers through this package rather than
// constructing their own slog.Logger values, so that log level and output
// destination are controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level text logs to stderr.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("factory created", "kind", kind)
//
// If GetLogger is called before Init, a default logger is created lazily
// (via sync.Once).
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithLock(name)           // adds lock field
//	log := logging.WithHandle(name, id)     // adds lock and handle fields
//	log := logging.WithContainer("map", n)  // adds container and name fields
package logging
