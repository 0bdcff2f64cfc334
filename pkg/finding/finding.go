// Package finding defines the canonical representation of a confirmed
// vulnerability and the sink interface that consumes the finding stream.
//
// Probe packages convert their package-specific results into Finding so
// the orchestration and output layers never import the probes directly.
package finding

import "time"

// Finding is one confirmed vulnerability: a parameter, the probe action
// that confirmed it, and the evidence the probe collected.
type Finding struct {
	ScanID    string    `json:"scan_id,omitempty"`
	Target    string    `json:"target"`
	Parameter string    `json:"parameter"`
	ParamKind string    `json:"param_kind,omitempty"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Payload   string    `json:"payload,omitempty"`
	Evidence  string    `json:"evidence,omitempty"`
	URL       string    `json:"url,omitempty"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink consumes the finding stream during a scan. Implementations must be
// safe for concurrent Emit calls; the orchestrator invokes Emit from
// multiple workers.
type Sink interface {
	// Emit records one finding.
	Emit(f Finding) error

	// Close flushes and releases the sink.
	Close() error
}

// MultiSink fans findings out to several sinks in order.
type MultiSink []Sink

// Emit forwards f to every sink, returning the first error encountered
// after all sinks have been attempted.
func (m MultiSink) Emit(f Finding) error {
	var firstErr error
	for _, s := range m {
		if err := s.Emit(f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink, returning the first error encountered.
func (m MultiSink) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
