package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/authz"
	"github.com/bulletinhq/bulletin/pkg/observability"
)

type slowSink struct {
	mu     sync.Mutex
	delay  time.Duration
	events []*Event
	closed bool
}

func (s *slowSink) Record(ctx context.Context, event *Event) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *slowSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *slowSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func testDenial() *Event {
	actor := auth.IdentityClaim{ID: "u-1", Role: authz.RoleViewer}
	return Denial(actor, authz.Permission{Resource: authz.ResourcePosts, Action: authz.ActionCreate}, "")
}

func TestAsyncSink_RecordsThroughWorkers(t *testing.T) {
	inner := &slowSink{}
	sink := NewAsyncSink(inner, observability.NewLogger(observability.ErrorLevel, nil), AsyncSinkConfig{})

	for i := 0; i < 10; i++ {
		require.NoError(t, sink.Record(context.Background(), testDenial()))
	}

	require.NoError(t, sink.Close())
	assert.Equal(t, 10, inner.count(), "close must drain the queue")
	assert.True(t, inner.closed)
	assert.Zero(t, sink.Dropped())
}

func TestAsyncSink_DropsWhenFull(t *testing.T) {
	inner := &slowSink{delay: 50 * time.Millisecond}
	sink := NewAsyncSink(inner, observability.NewLogger(observability.ErrorLevel, nil), AsyncSinkConfig{
		Workers:   1,
		QueueSize: 1,
	})

	// Flood faster than the single slow worker can drain.
	for i := 0; i < 20; i++ {
		require.NoError(t, sink.Record(context.Background(), testDenial()))
	}

	require.NoError(t, sink.Close())
	assert.Positive(t, sink.Dropped())
	assert.Equal(t, int64(20), sink.Dropped()+int64(inner.count()))
}

func TestAsyncSink_ClosedRejects(t *testing.T) {
	sink := NewAsyncSink(&slowSink{}, observability.NewLogger(observability.ErrorLevel, nil), AsyncSinkConfig{})
	require.NoError(t, sink.Close())

	assert.Error(t, sink.Record(context.Background(), testDenial()))
	assert.NoError(t, sink.Close(), "double close is a no-op")
}
