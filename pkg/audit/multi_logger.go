package audit

import (
	"context"
)

// MultiLogger fans one entry out to several loggers. Used to keep the
// database trail and the NDJSON shipping file in step.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to every given destination.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log writes the entry to all loggers. A failing destination does not stop
// the others; the first error is returned.
func (m *MultiLogger) Log(ctx context.Context, entry *Entry) error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Log(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes all underlying loggers, returning the first error.
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
