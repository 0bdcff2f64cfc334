// Package policy implements the adaptive decision engine: a discrete
// state encoding for discovered parameters, an action-value table with
// epsilon-greedy selection, a bandit-style learning update, and JSON
// persistence of the learned estimates.
//
// The engine decides which probe to run against each parameter and
// learns from probe outcomes, so repeated scans converge toward running
// the most productive probes first.
package policy

import "fmt"

// Action is one of the fixed probe choices the engine may select.
// The set is closed: adding a probe type means adding a constant here
// and registering an implementation against it, not changing the
// engine's control flow.
type Action int

const (
	ActionSQLi Action = iota
	ActionXSS
	ActionCSRF
	ActionNoOp
)

// actionNames maps actions to their stable wire names. These appear in
// the persisted policy file; renaming one invalidates saved state.
var actionNames = [...]string{
	ActionSQLi: "run_sqli",
	ActionXSS:  "run_xss",
	ActionCSRF: "run_csrf_check",
	ActionNoOp: "no_op",
}

// Actions returns the fixed action set in enumeration order.
// Selection tie-breaks resolve to the earliest action in this order.
func Actions() []Action {
	return []Action{ActionSQLi, ActionXSS, ActionCSRF, ActionNoOp}
}

// String returns the action's stable wire name.
func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Valid reports whether a is inside the fixed enumeration.
func (a Action) Valid() bool {
	return a >= 0 && int(a) < len(actionNames)
}

// ParseAction maps a wire name back to its Action.
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("policy: unknown action %q", name)
}
