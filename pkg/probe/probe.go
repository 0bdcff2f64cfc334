// Package probe defines the interface between the decision engine and
// the vulnerability probes, and the registry that binds probe
// implementations to engine actions.
//
// The engine is polymorphic over Probe: any implementation can be
// registered against an action without engine changes.
package probe

import (
	"context"
	"sort"
	"sync"

	"github.com/parascan/parascan/pkg/finding"
	"github.com/parascan/parascan/pkg/param"
	"github.com/parascan/parascan/pkg/policy"
)

// Outcome is the result of one probe invocation. It is consumed by the
// reward evaluator; Details feed the finding sink when Found is true.
type Outcome struct {
	// Found reports whether the probe confirmed a vulnerability.
	Found bool

	// Err is set when the probe itself failed to execute (transport
	// error, timeout). A set Err means Found carries no signal.
	Err error

	// Details describe what was found, one entry per confirmation.
	Details []finding.Finding
}

// Probe runs one vulnerability check against a single parameter of the
// target. Implementations must honor ctx cancellation and must not
// panic on malformed targets.
type Probe interface {
	// Name identifies the probe in logs and findings.
	Name() string

	// Run probes the target's parameter and reports the outcome.
	Run(ctx context.Context, target string, obs param.Observation) Outcome
}

// Registry binds actions to probe implementations.
type Registry struct {
	mu     sync.RWMutex
	probes map[policy.Action]Probe
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[policy.Action]Probe)}
}

// Register binds p to the given action, replacing any prior binding.
// Registering against an action outside the enumeration is ignored.
func (r *Registry) Register(a policy.Action, p Probe) {
	if !a.Valid() || p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[a] = p
}

// Get returns the probe bound to the action, or nil.
func (r *Registry) Get(a policy.Action) Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.probes[a]
}

// Actions returns the actions with a bound probe, in enumeration order.
func (r *Registry) Actions() []policy.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]policy.Action, 0, len(r.probes))
	for a := range r.probes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NoOp is the probe bound to policy.ActionNoOp: it runs nothing and
// finds nothing. Having it in the registry keeps the orchestrator free
// of action special-casing.
type NoOp struct{}

// Name implements Probe.
func (NoOp) Name() string { return "no_op" }

// Run implements Probe.
func (NoOp) Run(ctx context.Context, target string, obs param.Observation) Outcome {
	return Outcome{}
}
