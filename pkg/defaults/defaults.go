// Package defaults provides canonical default values for the entire codebase.
// This is the single source of truth for runtime configuration defaults.
//
// Usage:
//
//	cfg.Concurrency = defaults.ConcurrencyMedium
//	reward := defaults.RewardFinding
//
// Do not hardcode values like `Concurrency: 10` elsewhere; reference the
// appropriate constant from this package instead.
package defaults

// Version is the current parascan version.
const Version = "0.4.1"

// ToolName identifies the tool in user agents and telemetry.
const ToolName = "parascan"

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================

const (
	// ConcurrencyMinimal is for single-threaded operations (1)
	ConcurrencyMinimal = 1

	// ConcurrencyLow is for gentle scanning of fragile targets (4)
	ConcurrencyLow = 4

	// ConcurrencyMedium is for standard scanning operations (8)
	ConcurrencyMedium = 8

	// ConcurrencyHigh is for aggressive scanning (16)
	ConcurrencyHigh = 16
)

// ============================================================================
// LEARNING PARAMETERS
// ============================================================================
//
// The reward magnitudes and rate constants are tunables. These defaults
// keep estimates in [-0.25, 1.0] and move roughly a tenth of the remaining
// gap per observation.
// ============================================================================

const (
	// LearningRate is the step size toward the observed reward (alpha).
	LearningRate = 0.1

	// Discount is the future-reward discount factor (gamma). The bandit
	// update does not consume it; it is carried for a later sequential
	// formulation.
	Discount = 0.9

	// Epsilon is the exploration probability for action selection.
	Epsilon = 0.1

	// RewardFinding is granted when a probe confirms a vulnerability.
	RewardFinding = 1.0

	// RewardCleanMiss is granted when a probe ran cleanly and found nothing.
	RewardCleanMiss = -0.05

	// RewardProbeError is granted when the probe itself failed (transport
	// error, timeout). Strictly worse than RewardCleanMiss so the policy
	// does not conflate "could not run" with "ran and found nothing".
	RewardProbeError = -0.25

	// FlushEvery is how many policy updates may accumulate before the
	// table is flushed to disk mid-scan.
	FlushEvery = 25
)

// ============================================================================
// RATE LIMITING
// ============================================================================

const (
	// RequestsPerSecond is the default probe request budget.
	RequestsPerSecond = 50

	// RequestBurst allows short bursts above the steady rate.
	RequestBurst = 10
)

// ============================================================================
// HTTP DEFAULTS
// ============================================================================

const (
	// ContentTypeForm is the form-urlencoded content type.
	ContentTypeForm = "application/x-www-form-urlencoded"

	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"

	// UAChrome is a current Chrome user agent for blending with browser traffic.
	UAChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// ============================================================================
// FILE PATHS
// ============================================================================

const (
	// PolicyFile is the default persisted policy location, co-located with
	// the running process. Deleting it resets learning.
	PolicyFile = "policy.json"

	// FindingsFile is the default JSONL findings output path.
	FindingsFile = "findings.jsonl"
)
