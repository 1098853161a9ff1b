package goGrant

import (
	"context"
	"sync"
	"sync/atomic"
)

// eventDispatcher hands events to the sink from one goroutine. Enqueueing never
// waits; an event that does not fit in the queue is counted and passed to onDrop.
type eventDispatcher struct {
	sink    EventSink
	queue   chan Event
	stop    chan struct{}
	stopped chan struct{}
	onDrop  func(Event)

	dropped  atomic.Uint64
	closing  atomic.Bool
	stopOnce sync.Once
}

func newEventDispatcher(cfg EventsConfig, sink EventSink, onDrop func(Event)) *eventDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &eventDispatcher{
		sink:    sink,
		queue:   make(chan Event, max(cfg.BufferSize, 1)),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		onDrop:  onDrop,
	}
	go d.loop()
	return d
}

func (d *eventDispatcher) loop() {
	defer close(d.stopped)

	ctx := context.Background()
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(ctx, ev)
		case <-d.stop:
			for n := len(d.queue); n > 0; n-- {
				d.sink.Emit(ctx, <-d.queue)
			}
			return
		}
	}
}

// Emit enqueues ev without blocking.
func (d *eventDispatcher) Emit(ev Event) {
	if d == nil || d.closing.Load() {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
		if d.onDrop != nil {
			d.onDrop(ev)
		}
	}
}

// Close stops intake and waits until events already queued reach the sink.
func (d *eventDispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.closing.Store(true)
		close(d.stop)
	})
	<-d.stopped
}

func (d *eventDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
