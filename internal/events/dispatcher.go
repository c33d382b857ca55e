// Package events fans committed domain events out to in-process subscribers.
package events

import (
	"context"
	"fmt"
	"sync"

	"inventory-planner/internal/core"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope wraps an event with a unique id so subscribers can deduplicate.
type Envelope struct {
	ID    uuid.UUID
	Event core.Event
}

// Handler reacts to one delivered event. A returned error is logged and does
// not stop delivery to other handlers.
type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error { return f(ctx, env) }

// Dispatcher delivers events synchronously to subscribed handlers.
type Dispatcher struct {
	mu       sync.RWMutex
	byType   map[string][]Handler
	wildcard []Handler
	log      *zap.Logger
}

var _ core.EventSink = (*Dispatcher)(nil)

func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{byType: make(map[string][]Handler), log: log.Named("events")}
}

// Subscribe registers h for the given event types, or for every event when
// none are given.
func (d *Dispatcher) Subscribe(h Handler, eventTypes ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(eventTypes) == 0 {
		d.wildcard = append(d.wildcard, h)
		return
	}
	for _, t := range eventTypes {
		d.byType[t] = append(d.byType[t], h)
	}
}

// Publish never fails the caller: handler errors and panics are logged.
func (d *Dispatcher) Publish(ctx context.Context, ev core.Event) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.wildcard)+len(d.byType[ev.EventType()]))
	handlers = append(handlers, d.byType[ev.EventType()]...)
	handlers = append(handlers, d.wildcard...)
	d.mu.RUnlock()

	env := Envelope{ID: uuid.New(), Event: ev}
	for _, h := range handlers {
		if err := d.dispatch(ctx, h, env); err != nil {
			d.log.Error("event handler failed",
				zap.String("event_type", ev.EventType()),
				zap.String("event_id", env.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, h Handler, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, env)
}
