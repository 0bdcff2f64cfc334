package policy

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/parascan/parascan/pkg/jsonutil"
)

// persistedEntry is one row of the on-disk policy file. The format is a
// flat JSON array of these records — human-inspectable, and deleting the
// file resets learning.
type persistedEntry struct {
	State    string  `json:"state"`
	Action   string  `json:"action"`
	Estimate float64 `json:"estimate"`
	Visits   int     `json:"visits"`
}

// Load reads a persisted policy table from path.
//
// A missing file is not an error: learning simply starts fresh, so Load
// returns an empty table. A file that exists but cannot be decoded — or
// that names an action outside the enumeration, or carries a non-finite
// estimate — returns an error matching ErrParse along with an empty
// table the caller can choose to continue with.
func Load(path string) (*Table, error) {
	t := NewTable()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("%w: read %s: %v", ErrParse, path, err)
	}
	defer f.Close()

	var entries []persistedEntry
	if err := jsonutil.UnmarshalRead(f, &entries); err != nil {
		return NewTable(), fmt.Errorf("%w: decode %s: %v", ErrParse, path, err)
	}

	for _, e := range entries {
		action, err := ParseAction(e.Action)
		if err != nil {
			return NewTable(), fmt.Errorf("%w: %s: %v", ErrParse, path, err)
		}
		if math.IsNaN(e.Estimate) || math.IsInf(e.Estimate, 0) {
			return NewTable(), fmt.Errorf("%w: %s: non-finite estimate for %s/%s",
				ErrParse, path, e.State, e.Action)
		}
		t.set(State(e.State), action, QEntry{Estimate: e.Estimate, Visits: e.Visits})
	}

	return t, nil
}

// Save writes the table to path atomically: the encoded records go to a
// temp file in the same directory, which is then renamed over the
// destination, so a crash mid-write never leaves a torn policy file.
// Failures return an error matching ErrIO.
func Save(t *Table, path string) error {
	snapshot := t.Snapshot()

	entries := make([]persistedEntry, 0, len(snapshot)*len(Actions()))
	for state, row := range snapshot {
		for action, e := range row {
			entries = append(entries, persistedEntry{
				State:    string(state),
				Action:   action.String(),
				Estimate: e.Estimate,
				Visits:   e.Visits,
			})
		}
	}

	// Stable ordering keeps the file diffable between runs.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].State != entries[j].State {
			return entries[i].State < entries[j].State
		}
		return entries[i].Action < entries[j].Action
	})

	data, err := jsonutil.MarshalIndent(entries, "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrIO, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename to %s: %v", ErrIO, path, err)
	}
	return nil
}

// DefaultPath returns the policy file location next to dir, or just the
// filename when dir is empty (co-located with the working directory).
func DefaultPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
