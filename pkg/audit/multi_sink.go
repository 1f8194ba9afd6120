package audit

import (
	"context"
)

// MultiSink fans events out to several sinks. Recording continues past
// individual failures; the first error is returned so the caller's Emit
// can log it.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink writing to all the given destinations
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Record implements Sink
func (m *MultiSink) Record(ctx context.Context, event *Event) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink, returning the first error
func (m *MultiSink) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
