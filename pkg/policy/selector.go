package policy

import (
	"math/rand"
	"sync"
	"time"

	"github.com/parascan/parascan/pkg/defaults"
)

// Selector chooses actions epsilon-greedily over table estimates.
// With probability epsilon it explores uniformly at random; otherwise it
// exploits the highest estimate, breaking ties toward the lowest action
// index so behavior is reproducible under a fixed seed.
type Selector struct {
	epsilon float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector with the given exploration rate and
// RNG seed. Epsilon outside [0,1] falls back to the default, and seed 0
// picks a time-based seed so default runs do not all explore alike.
func NewSelector(epsilon float64, seed int64) *Selector {
	if epsilon < 0 || epsilon > 1 {
		epsilon = defaults.Epsilon
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Selector{
		epsilon: epsilon,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Select returns the action for the given state. It does not mutate the
// table. States with no entries yet read as all-zero estimates, so the
// tie-break picks the first action in enumeration order.
func (sel *Selector) Select(s State, t *Table) Action {
	actions := Actions()

	sel.mu.Lock()
	explore := sel.rng.Float64() < sel.epsilon
	var idx int
	if explore {
		idx = sel.rng.Intn(len(actions))
	}
	sel.mu.Unlock()

	if explore {
		return actions[idx]
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	best := actions[0]
	bestEst := t.estimate(s, best)
	for _, a := range actions[1:] {
		// Strict > keeps the lowest-index action on ties.
		if est := t.estimate(s, a); est > bestEst {
			best, bestEst = a, est
		}
	}
	return best
}
