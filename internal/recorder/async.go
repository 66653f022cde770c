package recorder

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/formsense/internal/monitoring"
)

// DefaultQueueSize is the buffered event count of an Async recorder.
const DefaultQueueSize = 64

// Async queues events for a background goroutine. Record never blocks: when
// the queue is full the event is dropped and counted.
type Async struct {
	next  Recorder
	queue chan RepEvent
	logf  func(format string, v ...interface{})

	dropped atomic.Uint64
	failed  atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewAsync wraps next with a queue of size events. Call Run to drain it.
func NewAsync(next Recorder, size int) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Async{
		next:  next,
		queue: make(chan RepEvent, size),
		logf:  monitoring.Component("recorder"),
		done:  make(chan struct{}),
	}
}

// Record implements Recorder.
func (a *Async) Record(_ context.Context, e RepEvent) error {
	select {
	case <-a.done:
		a.dropped.Add(1)
		return nil
	default:
	}
	select {
	case a.queue <- e:
	default:
		a.dropped.Add(1)
	}
	return nil
}

// Run delivers queued events until ctx is cancelled or Close is called,
// then flushes what is left in the queue with ctx.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case e := <-a.queue:
			a.deliver(ctx, e)
		case <-ctx.Done():
			a.flush(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-a.done:
			a.flush(ctx)
			return nil
		}
	}
}

func (a *Async) flush(ctx context.Context) {
	for {
		select {
		case e := <-a.queue:
			a.deliver(ctx, e)
		default:
			return
		}
	}
}

func (a *Async) deliver(ctx context.Context, e RepEvent) {
	if err := a.next.Record(ctx, e); err != nil {
		a.failed.Add(1)
		a.logf("%s rep %d: %v", e.Exercise, e.Count, err)
	}
}

// Close stops Run after the queue drains. Later Records are dropped.
func (a *Async) Close() {
	a.closeOnce.Do(func() { close(a.done) })
}

// Dropped returns the number of events discarded because the queue was full
// or the recorder was closed.
func (a *Async) Dropped() uint64 { return a.dropped.Load() }

// Failed returns the number of events the wrapped recorder rejected.
func (a *Async) Failed() uint64 { return a.failed.Load() }
