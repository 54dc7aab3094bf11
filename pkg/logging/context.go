package logging

import (
	"log/slog"

	"pagedb/pkg/primitives"
)

// WithTable creates a logger with table context (the database file path).
//
// Example:
//
//	log := logging.WithTable("users.db")
//	log.Info("table opened", "pages", n)
func WithTable(path string) *slog.Logger {
	return GetLogger().With("table", path)
}

// WithPage creates a logger with page context.
// Useful for pager and node operations.
//
// Example:
//
//	log := logging.WithPage(pageNum)
//	log.Debug("page loaded", "from_disk", true)
func WithPage(pageNum primitives.PageNumber) *slog.Logger {
	return GetLogger().With("page", uint32(pageNum))
}

// WithKey creates a logger with key context.
func WithKey(key primitives.Key) *slog.Logger {
	return GetLogger().With("key", uint32(key))
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("btree")
//	log.Info("root split", "left", left, "right", right)
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("flush failed", "page", n)
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
