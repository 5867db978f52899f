package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Dispatcher is an in-process Publisher backed by a buffered channel and a
// pool of worker goroutines. Handlers are registered per event name before
// Start. A handler error or panic is logged and the event dropped; the
// handlers own their failure bookkeeping (status fields on the affected
// entities), so nothing is silently lost.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	events  chan Event
	workers int
	wg      sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// depth.
func NewDispatcher(workers, depth int) *Dispatcher {
	if workers <= 0 {
		workers = 2
	}
	if depth <= 0 {
		depth = 64
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		events:   make(chan Event, depth),
		workers:  workers,
	}
}

// Register adds a handler for an event name. Must be called before Start.
func (d *Dispatcher) Register(name string, handler Handler) {
	d.mu.Lock()
	d.handlers[name] = handler
	d.mu.Unlock()
}

// Send enqueues an event for asynchronous delivery. It fails when the queue
// is full rather than blocking the caller.
func (d *Dispatcher) Send(ctx context.Context, event Event) error {
	select {
	case d.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue full, dropping %s", event.Name)
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.worker(ctx)
		}
		log.Printf("[Queue] dispatcher started with %d workers", d.workers)
	})
}

// Stop closes the queue and waits for in-flight events to drain.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.events)
		d.wg.Wait()
		log.Printf("[Queue] dispatcher stopped")
	})
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for event := range d.events {
		d.deliver(ctx, event)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Queue] panic handling %s: %v", event.Name, r)
		}
	}()

	d.mu.RLock()
	handler, ok := d.handlers[event.Name]
	d.mu.RUnlock()
	if !ok {
		log.Printf("[Queue] no handler registered for %s", event.Name)
		return
	}

	if err := handler(ctx, event.Payload); err != nil {
		log.Printf("[Queue] %s failed: %v", event.Name, err)
	}
}

// Decode unmarshals an event payload into out.
func Decode(payload json.RawMessage, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
