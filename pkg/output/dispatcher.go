package output

import (
	"context"
	"errors"
	"sync"
)

// Hook consumes scan events. Implementations must tolerate concurrent
// calls only if registered with an async dispatcher; the default
// dispatcher serializes delivery.
type Hook interface {
	// OnEvent is called for each matching event.
	OnEvent(ctx context.Context, event Event) error

	// EventTypes returns the event types this hook handles.
	// Nil or empty means all events.
	EventTypes() []EventType

	// Close releases the hook's resources.
	Close(ctx context.Context) error
}

// Dispatcher fans events out to registered hooks. Safe for concurrent
// use; delivery to each hook is serialized under the dispatcher lock.
type Dispatcher struct {
	mu    sync.Mutex
	hooks []Hook
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds a hook. Nil hooks are ignored.
func (d *Dispatcher) Register(h Hook) {
	if h == nil {
		return
	}
	d.mu.Lock()
	d.hooks = append(d.hooks, h)
	d.mu.Unlock()
}

// Dispatch delivers the event to every hook whose EventTypes match.
// Hook errors are collected, not fatal: one failing integration must
// not stop the scan or starve the other hooks.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, h := range d.hooks {
		if !hookWants(h, event.Type()) {
			continue
		}
		if err := h.OnEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all hooks, returning the joined errors.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, h := range d.hooks {
		if err := h.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	d.hooks = nil
	return errors.Join(errs...)
}

func hookWants(h Hook, t EventType) bool {
	types := h.EventTypes()
	if len(types) == 0 {
		return true
	}
	for _, et := range types {
		if et == t {
			return true
		}
	}
	return false
}
