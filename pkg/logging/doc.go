// Package logging provides a process-wide structured logger for pagedb.
//
// The package wraps [log/slog] and exposes a single global logger instance
// that is initialized once and then retrieved via GetLogger. The pager, the
// B-tree and the database layer all log through this package so that level
// and destination are controlled from the command line in one place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, OutputPath: "pagedb.log"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes WARN-level logs to stderr. Stdout belongs to the REPL,
// so the logger never writes there unless a caller passes os.Stdout explicitly.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("table opened", "path", path)
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily (via sync.Once) so that packages that log during init are safe.
//
// # Context helpers
//
//	log := logging.WithPage(pageNum)       // adds page field
//	log := logging.WithComponent("pager")  // adds component field
//	log := logging.WithKey(key)            // adds key field
package logging
