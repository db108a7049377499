package audit

import (
	"context"
	"errors"

	"github.com/govdesk/govdesk/pkg/observability"
)

var (
	errMissingTable  = errors.New("audit entry missing table name")
	errUnknownAction = errors.New("audit entry has unknown action")
)

// Logger persists audit entries. Implementations may fail; callers that
// must never propagate audit failures wrap a Logger in a Sink.
type Logger interface {
	// Log persists one entry. The entry's ID is set on success where the
	// backend assigns one.
	Log(ctx context.Context, entry *Entry) error

	// Close releases any resources held by the logger.
	Close() error
}

// NopLogger discards every entry. Used when auditing is disabled and in
// tests that don't care about the trail.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, entry *Entry) error { return nil }
func (NopLogger) Close() error                                { return nil }

// Sink is the best-effort boundary around a Logger. Record never fails:
// any error from the underlying logger is reported to the operational log
// and the dropped-writes counter, then swallowed. Losing an audit row is
// preferable to failing the business write that produced it.
type Sink struct {
	logger  Logger
	log     *observability.Logger
	metrics *observability.Metrics
}

// NewSink wraps logger. log and metrics may be nil.
func NewSink(logger Logger, log *observability.Logger, metrics *observability.Metrics) *Sink {
	if log == nil {
		log = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Sink{logger: logger, log: log, metrics: metrics}
}

// NewNopSink returns a sink that discards everything. Convenient for
// tests.
func NewNopSink() *Sink {
	return NewSink(NopLogger{}, nil, nil)
}

// Record logs the entry, swallowing any failure.
func (s *Sink) Record(ctx context.Context, entry Entry) {
	if err := s.logger.Log(ctx, &entry); err != nil {
		s.log.WithError(err).WithFields(map[string]interface{}{
			"table":     entry.TableName,
			"record_id": entry.RecordID,
			"action":    string(entry.Action),
		}).Error("audit write dropped")
		if s.metrics != nil {
			s.metrics.AuditDroppedTotal.Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.AuditEntriesTotal.WithLabelValues(entry.TableName, string(entry.Action)).Inc()
	}
}
