package records

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"mad-dla/internal/sims/dla"
)

// Recorder keeps stick events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []dla.StickEvent
}

// Stick implements dla.Sink.
func (r *Recorder) Stick(ev dla.StickEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []dla.StickEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dla.StickEvent(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Tee fans every event out to each non-nil sink in order.
func Tee(sinks ...dla.Sink) dla.Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []dla.Sink

func (t tee) Stick(ev dla.StickEvent) {
	for _, s := range t {
		s.Stick(ev)
	}
}

// AsyncSink moves event delivery off the stepping goroutine. Events are
// queued on a bounded channel; when the queue is full the event is dropped
// and counted rather than blocking Step.
type AsyncSink struct {
	next    dla.Sink
	queue   chan dla.StickEvent
	done    chan struct{}
	dropped atomic.Uint64
	log     *slog.Logger

	closeOnce sync.Once
}

// NewAsyncSink starts a delivery goroutine feeding next. buffer <= 0 selects
// 1024. logger may be nil.
func NewAsyncSink(next dla.Sink, buffer int, logger *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 1024
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &AsyncSink{
		next:  next,
		queue: make(chan dla.StickEvent, buffer),
		done:  make(chan struct{}),
		log:   logger,
	}
	go a.run()
	return a
}

func (a *AsyncSink) run() {
	defer close(a.done)
	for ev := range a.queue {
		a.next.Stick(ev)
	}
}

// Stick implements dla.Sink. It never blocks. Stick must not be called
// after Close.
func (a *AsyncSink) Stick(ev dla.StickEvent) {
	select {
	case a.queue <- ev:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (a *AsyncSink) Dropped() uint64 { return a.dropped.Load() }

// Close stops accepting events and waits until every queued event has been
// delivered.
func (a *AsyncSink) Close() {
	a.closeOnce.Do(func() {
		close(a.queue)
		<-a.done
		if n := a.dropped.Load(); n > 0 {
			a.log.Warn("stick events dropped", "count", n)
		}
	})
}
