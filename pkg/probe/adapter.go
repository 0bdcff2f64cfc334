package probe

import (
	"context"

	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/param"
)

// TestFunc is the shape shared by the vulnerability probers: run one
// check against a parameter and return any findings.
type TestFunc func(ctx context.Context, target string, obs param.Observation) ([]finding.Finding, error)

// Func adapts a TestFunc into a Probe.
type Func struct {
	name string
	fn   TestFunc
}

// NewFunc wraps fn as a named Probe.
func NewFunc(name string, fn TestFunc) Func {
	return Func{name: name, fn: fn}
}

// Name implements Probe.
func (f Func) Name() string { return f.name }

// Run implements Probe. A probe that errors reports Found=false; the
// error and any partial findings are preserved in the outcome.
func (f Func) Run(ctx context.Context, target string, obs param.Observation) Outcome {
	details, err := f.fn(ctx, target, obs)
	return Outcome{
		Found:   err == nil && len(details) > 0,
		Err:     err,
		Details: details,
	}
}
