package policy

import (
	"errors"
	"testing"
)

func TestRewards_Evaluate(t *testing.T) {
	r := DefaultRewards()

	if got := r.Evaluate(true, nil); got != 1.0 {
		t.Errorf("Finding reward = %v, want 1.0", got)
	}
	if got := r.Evaluate(false, nil); got != -0.05 {
		t.Errorf("Clean miss reward = %v, want -0.05", got)
	}
	if got := r.Evaluate(false, errors.New("timeout")); got != -0.25 {
		t.Errorf("Probe error reward = %v, want -0.25", got)
	}
}

func TestRewards_ErrorTakesPrecedence(t *testing.T) {
	r := DefaultRewards()
	// A probe that errored produced no trustworthy signal even if it
	// reported a find first.
	if got := r.Evaluate(true, errors.New("connection reset")); got != r.ProbeError {
		t.Errorf("Expected %v, got %v", r.ProbeError, got)
	}
}

func TestRewards_ErrorWorseThanCleanMiss(t *testing.T) {
	r := DefaultRewards()
	if r.ProbeError >= r.CleanMiss {
		t.Errorf("Probe error (%v) must score below clean miss (%v)",
			r.ProbeError, r.CleanMiss)
	}
}
