package audit

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bulletinhq/bulletin/pkg/observability"
)

// AsyncSink decouples audit persistence from the request path by
// recording through background workers. Recording stays best-effort:
// when the queue is full the event is dropped and counted rather than
// blocking the caller.
type AsyncSink struct {
	inner   Sink
	logger  *observability.Logger
	workers int
	timeout time.Duration

	queue chan *Event
	wg    sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	dropped int64
}

// AsyncSinkConfig configures the background workers
type AsyncSinkConfig struct {
	Workers   int           // Concurrent writers (default 2)
	QueueSize int           // Buffered events before drops (default 256)
	Timeout   time.Duration // Per-event write deadline (default 5s)
}

// NewAsyncSink wraps inner with a worker-backed queue
func NewAsyncSink(inner Sink, logger *observability.Logger, cfg AsyncSinkConfig) *AsyncSink {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	s := &AsyncSink{
		inner:   inner,
		logger:  logger,
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		queue:   make(chan *Event, cfg.QueueSize),
	}

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Record enqueues the event. A full queue drops the event; the caller
// is never blocked by audit persistence.
func (s *AsyncSink) Record(ctx context.Context, event *Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("audit sink is closed")
	}
	s.mu.Unlock()

	select {
	case s.queue <- event:
		return nil
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.logger.WithField("outcome", string(event.Outcome)).Warn("audit queue full, event dropped")
		return nil
	}
}

// Dropped returns the number of events discarded due to a full queue
func (s *AsyncSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting events, drains the queue, and closes the inner
// sink
func (s *AsyncSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	s.wg.Wait()
	return s.inner.Close()
}

func (s *AsyncSink) worker() {
	defer s.wg.Done()
	defer func() {
		// A panicking inner sink must not take the process down.
		if r := recover(); r != nil {
			s.logger.WithField("panic", fmt.Sprint(r)).
				WithField("stack", string(debug.Stack())).
				Error("audit worker panicked")
		}
	}()

	for event := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.inner.Record(ctx, event); err != nil {
			s.logger.WithError(err).Warn("async audit write failed")
		}
		cancel()
	}
}
