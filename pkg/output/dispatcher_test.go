package output

import (
	"context"
	"errors"
	"testing"
	"time"
)

type recordingHook struct {
	types  []EventType
	events []Event
	err    error
	closed bool
}

func (h *recordingHook) OnEvent(_ context.Context, e Event) error {
	h.events = append(h.events, e)
	return h.err
}

func (h *recordingHook) EventTypes() []EventType { return h.types }

func (h *recordingHook) Close(context.Context) error {
	h.closed = true
	return nil
}

func newTestProbeEvent() *ProbeEvent {
	return &ProbeEvent{
		BaseEvent: BaseEvent{Time: time.Now(), ScanID: "s1"},
		Parameter: "id",
		Action:    "run_sqli",
	}
}

func TestDispatcher_FanOut(t *testing.T) {
	d := NewDispatcher()
	a := &recordingHook{}
	b := &recordingHook{}
	d.Register(a)
	d.Register(b)

	if err := d.Dispatch(context.Background(), newTestProbeEvent()); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("Expected both hooks to receive the event, got %d/%d", len(a.events), len(b.events))
	}
}

func TestDispatcher_TypeFilter(t *testing.T) {
	d := NewDispatcher()
	h := &recordingHook{types: []EventType{EventTypeFinding}}
	d.Register(h)

	d.Dispatch(context.Background(), newTestProbeEvent())
	if len(h.events) != 0 {
		t.Errorf("Hook received unwanted event type: %v", h.events)
	}

	d.Dispatch(context.Background(), &FindingEvent{})
	if len(h.events) != 1 {
		t.Errorf("Hook missed its event type, got %d", len(h.events))
	}
}

func TestDispatcher_HookErrorDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher()
	failing := &recordingHook{err: errors.New("integration down")}
	ok := &recordingHook{}
	d.Register(failing)
	d.Register(ok)

	err := d.Dispatch(context.Background(), newTestProbeEvent())
	if err == nil {
		t.Error("Expected joined hook error")
	}
	if len(ok.events) != 1 {
		t.Error("Second hook starved by first hook's error")
	}
}

func TestDispatcher_Close(t *testing.T) {
	d := NewDispatcher()
	h := &recordingHook{}
	d.Register(h)

	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !h.closed {
		t.Error("Hook not closed")
	}
}
