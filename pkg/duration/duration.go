// Package duration provides canonical time constants for the entire codebase.
// This is the single source of truth for time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ProbeTimeout)
//
// Do not hardcode time.Duration values like `30 * time.Second` elsewhere;
// reference the appropriate constant from this package instead.
package duration

import "time"

// ============================================================================
// HTTP CLIENT TIMEOUTS
// ============================================================================

const (
	// HTTPProbing is for quick fingerprinting and page fetches (5s)
	HTTPProbing = 5 * time.Second

	// HTTPScanning is the default per-request budget during scans (15s)
	HTTPScanning = 15 * time.Second

	// HTTPFuzzing is for deep payload testing against slow targets (30s)
	HTTPFuzzing = 30 * time.Second
)

// ============================================================================
// OPERATION TIMEOUTS
// ============================================================================

const (
	// ProbeTimeout bounds a single probe invocation, independent of the
	// scan-level deadline.
	ProbeTimeout = 30 * time.Second

	// ScanTimeout bounds an entire scan run.
	ScanTimeout = 15 * time.Minute

	// DialTimeout is for establishing TCP connections.
	DialTimeout = 10 * time.Second

	// TLSHandshakeTimeout is for completing TLS handshakes.
	TLSHandshakeTimeout = 10 * time.Second

	// IdleConnTimeout is how long idle connections stay pooled.
	IdleConnTimeout = 90 * time.Second

	// ShutdownTimeout is for draining exporters and sinks at exit.
	ShutdownTimeout = 5 * time.Second
)
