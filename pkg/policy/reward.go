package policy

import "github.com/parascan/parascan/pkg/defaults"

// RewardConfig maps probe outcomes to scalar rewards.
//
// The probe-error penalty is distinct from, and worse than, the
// clean-miss reward: a probe that could not execute carries no evidence
// about the parameter, and conflating the two would let transport
// flakiness masquerade as "nothing there".
type RewardConfig struct {
	Finding    float64 `json:"finding"`
	CleanMiss  float64 `json:"clean_miss"`
	ProbeError float64 `json:"probe_error"`
}

// DefaultRewards returns the standard reward constants.
func DefaultRewards() RewardConfig {
	return RewardConfig{
		Finding:    defaults.RewardFinding,
		CleanMiss:  defaults.RewardCleanMiss,
		ProbeError: defaults.RewardProbeError,
	}
}

// Evaluate converts a probe outcome into its reward. A probe error takes
// precedence: whatever the probe reported before failing, the invocation
// as a whole did not produce a trustworthy signal.
func (c RewardConfig) Evaluate(found bool, probeErr error) float64 {
	switch {
	case probeErr != nil:
		return c.ProbeError
	case found:
		return c.Finding
	default:
		return c.CleanMiss
	}
}
