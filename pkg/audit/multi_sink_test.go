package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/authz"
)

// recordingSink captures events for assertions
type recordingSink struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (r *recordingSink) Record(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}

func testDenialEvent() *Event {
	return Denial(
		auth.IdentityClaim{ID: "u-1", Role: authz.RoleViewer},
		authz.Permission{Resource: authz.ResourcePosts, Action: authz.ActionDelete},
		"req-1",
	)
}

func TestMultiSink_FansOut(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	multi := NewMultiSink(a, b)

	require.NoError(t, multi.Record(context.Background(), testDenialEvent()))
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestMultiSink_ContinuesPastFailure(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	healthy := &recordingSink{}
	multi := NewMultiSink(failing, healthy)

	err := multi.Record(context.Background(), testDenialEvent())
	assert.EqualError(t, err, "disk full")
	assert.Len(t, healthy.Events(), 1, "healthy sink still receives the event")
}

func TestEmit_SwallowsSinkFailure(t *testing.T) {
	failing := &recordingSink{err: errors.New("broken pipe")}

	// Emit must not panic or propagate; the decision path already
	// completed before any sink was consulted.
	assert.NotPanics(t, func() {
		Emit(context.Background(), failing, testDenialEvent())
		Emit(context.Background(), nil, testDenialEvent())
	})
}

func TestNopSink(t *testing.T) {
	var s NopSink
	assert.NoError(t, s.Record(context.Background(), testDenialEvent()))
	assert.NoError(t, s.Close())
}
