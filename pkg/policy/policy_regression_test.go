package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regression: the persisted file format is a contract with earlier
// releases. A table saved by this version must read back files written
// with the original flat-array layout and wire names.
func TestRegression_PersistedFormatCompatibility(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	legacy := `[
  {"state": "idlike:numeric", "action": "run_sqli", "estimate": 0.468559, "visits": 12},
  {"state": "idlike:numeric", "action": "run_xss", "estimate": -0.0975, "visits": 2},
  {"state": "searchlike:alphabetic", "action": "run_xss", "estimate": 0.64, "visits": 7},
  {"state": "other:empty", "action": "no_op", "estimate": 0.0, "visits": 1}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	tab, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, tab.Len())

	e, ok := tab.Get("idlike:numeric", ActionSQLi)
	require.True(t, ok)
	assert.InDelta(t, 0.468559, e.Estimate, 1e-9)
	assert.Equal(t, 12, e.Visits)

	e, ok = tab.Get("other:empty", ActionNoOp)
	require.True(t, ok)
	assert.Equal(t, 1, e.Visits)
}

// Regression: wire names are frozen. Renaming an action constant must
// fail this test before it silently invalidates every saved policy.
func TestRegression_ActionWireNames(t *testing.T) {
	want := map[Action]string{
		ActionSQLi: "run_sqli",
		ActionXSS:  "run_xss",
		ActionCSRF: "run_csrf_check",
		ActionNoOp: "no_op",
	}
	for a, name := range want {
		assert.Equal(t, name, a.String())
		parsed, err := ParseAction(name)
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
}

// Regression: the update rule is the fixed-step bandit rule. A change
// in the arithmetic shifts every learned policy, so pin exact values.
func TestRegression_UpdateArithmetic(t *testing.T) {
	tab := NewTable()

	tab.Update("idlike:numeric", ActionSQLi, 1.0, 0.1)
	e, _ := tab.Get("idlike:numeric", ActionSQLi)
	assert.InDelta(t, 0.1, e.Estimate, 1e-12)

	tab.Update("idlike:numeric", ActionSQLi, 1.0, 0.1)
	e, _ = tab.Get("idlike:numeric", ActionSQLi)
	assert.InDelta(t, 0.19, e.Estimate, 1e-12)

	tab.Update("idlike:numeric", ActionSQLi, -0.25, 0.1)
	e, _ = tab.Get("idlike:numeric", ActionSQLi)
	assert.InDelta(t, 0.146, e.Estimate, 1e-12)
	assert.Equal(t, 3, e.Visits)
}
