package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jwebster45206/town-engine/internal/sim"
)

// Fanout is a sim.Sink that hands events to a buffered queue and delivers
// them to its sinks on a separate goroutine. When the queue is full the
// event is dropped so the engine never waits on a slow consumer.
type Fanout struct {
	queue  chan sim.Event
	sinks  []sim.Sink
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	done    chan struct{}
}

// NewFanout starts delivery to sinks. Call Close to flush and stop.
func NewFanout(buffer int, logger *slog.Logger, sinks ...sim.Sink) *Fanout {
	if buffer <= 0 {
		buffer = 256
	}
	f := &Fanout{
		queue:  make(chan sim.Event, buffer),
		sinks:  sinks,
		logger: logger,
		done:   make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *Fanout) run() {
	defer close(f.done)
	for ev := range f.queue {
		for _, s := range f.sinks {
			s.Publish(ev)
		}
	}
}

// Publish queues ev without blocking.
func (f *Fanout) Publish(ev sim.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- ev:
	default:
		if n := f.dropped.Add(1); n%100 == 1 {
			f.logger.Warn("Event queue full, dropping events", "event_type", ev.Type, "dropped", n)
		}
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (f *Fanout) Dropped() uint64 {
	return f.dropped.Load()
}

// Close stops accepting events and waits until queued events are delivered.
func (f *Fanout) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	<-f.done
}
