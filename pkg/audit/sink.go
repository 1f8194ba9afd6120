package audit

import (
	"context"

	"github.com/bulletinhq/bulletin/pkg/observability"
)

// Sink receives audit events. Implementations may block briefly on I/O
// but must tolerate being called concurrently.
type Sink interface {
	// Record persists one event
	Record(ctx context.Context, event *Event) error

	// Close flushes and releases resources
	Close() error
}

// NopSink discards every event
type NopSink struct{}

func (NopSink) Record(ctx context.Context, event *Event) error { return nil }
func (NopSink) Close() error                                   { return nil }

// Emit records an event, swallowing any sink failure. The failure is
// logged through the request-scoped logger; it never changes the
// authorization outcome.
func Emit(ctx context.Context, sink Sink, event *Event) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, event); err != nil {
		observability.FromContext(ctx).
			WithError(err).
			WithField("outcome", string(event.Outcome)).
			Warn("audit sink failed; event dropped")
	}
}

// LoggerSink writes events as structured log lines
type LoggerSink struct {
	logger *observability.Logger
}

// NewLoggerSink creates a sink over the given structured logger
func NewLoggerSink(logger *observability.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Record implements Sink
func (s *LoggerSink) Record(ctx context.Context, event *Event) error {
	entry := s.logger.WithFields(map[string]interface{}{
		"audit":          true,
		"actor_id":       event.ActorID,
		"actor_role":     event.ActorRole,
		"permission":     event.Permission,
		"outcome":        string(event.Outcome),
		"correlation_id": event.CorrelationID,
	})
	if event.Outcome == OutcomeRoleChanged {
		entry = entry.WithFields(map[string]interface{}{
			"target_user_id": event.TargetUserID,
			"previous_role":  event.PreviousRole,
			"new_role":       event.NewRole,
		})
	}

	switch event.Outcome {
	case OutcomeConfigFault:
		entry.Error("authorization configuration fault")
	case OutcomeDenied:
		entry.Warn("authorization denied")
	default:
		entry.Info("role changed")
	}
	return nil
}

// Close implements Sink
func (s *LoggerSink) Close() error { return nil }
