package policy

import (
	"github.com/parascan/parascan/pkg/param"
)

// State is the discrete key a parameter observation maps to. It combines
// the parameter's name bucket with its value kind, e.g. "idlike:numeric".
// States are stable across runs for the same observation; nothing about
// the encoding depends on run-specific randomness.
type State string

// Encode maps an observation to its state. It is a pure, total function:
// every observation gets a state, including empty values, which land in
// the dedicated "empty" kind bucket.
//
// The discretization is deliberately coarse. The table is finite, and
// grouping parameters by name heuristics crossed with value kind lets
// learning transfer to parameters never seen in the same run.
func Encode(obs param.Observation) State {
	kind := obs.Kind
	if kind == "" {
		kind = param.InferKind(obs.Value)
	}
	return State(param.NameBucket(obs.Name) + ":" + string(kind))
}
