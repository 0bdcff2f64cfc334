// Package output routes scan events to hooks: structured logging,
// Prometheus metrics, OpenTelemetry traces, and file writers. The
// dispatcher decouples the scan loop from its consumers.
package output

import (
	"time"

	"github.com/parascan/parascan/pkg/finding"
)

// EventType identifies the kind of scan event.
type EventType string

const (
	// EventTypeStart indicates a scan has started.
	EventTypeStart EventType = "start"
	// EventTypeProbe indicates one probe attempt finished.
	EventTypeProbe EventType = "probe"
	// EventTypeFinding indicates a vulnerability was found.
	EventTypeFinding EventType = "finding"
	// EventTypeComplete indicates a scan has completed.
	EventTypeComplete EventType = "complete"
)

// Event is implemented by all scan events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent carries fields shared by all events.
type BaseEvent struct {
	Time   time.Time `json:"time"`
	ScanID string    `json:"scan_id"`
}

// Timestamp returns the event time.
func (b BaseEvent) Timestamp() time.Time { return b.Time }

// StartEvent is emitted when a scan begins.
type StartEvent struct {
	BaseEvent
	Target      string `json:"target"`
	Parameters  int    `json:"parameters"`
	Concurrency int    `json:"concurrency"`
	Epsilon     float64 `json:"epsilon"`
}

// Type implements Event.
func (*StartEvent) Type() EventType { return EventTypeStart }

// ProbeEvent is emitted for every probe attempt, whether or not it
// found anything.
type ProbeEvent struct {
	BaseEvent
	Target    string        `json:"target"`
	Parameter string        `json:"parameter"`
	State     string        `json:"state"`
	Action    string        `json:"action"`
	Found     bool          `json:"found"`
	Error     string        `json:"error,omitempty"`
	Reward    float64       `json:"reward"`
	Latency   time.Duration `json:"latency_ns"`
}

// Type implements Event.
func (*ProbeEvent) Type() EventType { return EventTypeProbe }

// FindingEvent wraps a confirmed finding.
type FindingEvent struct {
	BaseEvent
	Finding finding.Finding `json:"finding"`
}

// Type implements Event.
func (*FindingEvent) Type() EventType { return EventTypeFinding }

// CompleteEvent is emitted when a scan finishes or is cancelled.
type CompleteEvent struct {
	BaseEvent
	Target    string        `json:"target"`
	Probes    int           `json:"probes"`
	Findings  int           `json:"findings"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration_ns"`
	Cancelled bool          `json:"cancelled"`
}

// Type implements Event.
func (*CompleteEvent) Type() EventType { return EventTypeComplete }
