package policy

import (
	"math"
	"sync"
)

// QEntry holds the learned estimate for one (state, action) pair.
type QEntry struct {
	Estimate float64
	Visits   int
}

// key is the unique (state, action) index into the table.
type key struct {
	state  State
	action Action
}

// Table is the action-value table. It is the one piece of shared mutable
// state between scan workers; a single mutex guards every
// read-modify-write so the update arithmetic never races. Probe network
// I/O happens outside the lock.
type Table struct {
	mu      sync.Mutex
	entries map[key]*QEntry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[key]*QEntry)}
}

// Get returns the entry for (state, action) and whether it exists.
// The returned value is a copy; mutating it does not affect the table.
func (t *Table) Get(s State, a Action) (QEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key{s, a}]
	if !ok {
		return QEntry{}, false
	}
	return *e, true
}

// estimate returns the current estimate for (state, action), treating
// missing entries as 0.0. Caller must hold t.mu.
func (t *Table) estimate(s State, a Action) float64 {
	if e, ok := t.entries[key{s, a}]; ok {
		return e.Estimate
	}
	return 0.0
}

// Update applies the bandit learning rule to (state, action):
//
//	estimate ← estimate + alpha * (reward − estimate)
//
// and increments the visit count. The read-modify-write runs under the
// table lock, so concurrent updates to the same pair serialize and the
// "current estimate" read is never stale within the arithmetic.
//
// There is no next-state term: a decision at one parameter does not
// change the world the next parameter is probed in, so this is a
// stateless bandit update rather than a full sequential one. The rule
// lives behind this method so a future sequential formulation can
// replace it without touching the orchestrator, encoder, or store.
func (t *Table) Update(s State, a Action, reward, alpha float64) {
	if !a.Valid() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{s, a}
	e, ok := t.entries[k]
	if !ok {
		e = &QEntry{}
		t.entries[k] = e
	}

	next := e.Estimate + alpha*(reward-e.Estimate)
	// Estimates must stay finite; a pathological reward or rate leaves
	// the prior value in place rather than poisoning the table.
	if !math.IsNaN(next) && !math.IsInf(next, 0) {
		e.Estimate = next
	}
	e.Visits++
}

// Len returns the number of (state, action) entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Snapshot returns a copy of all entries, keyed by state and action.
// Used by persistence and tests; the copy is detached from the table.
func (t *Table) Snapshot() map[State]map[Action]QEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[State]map[Action]QEntry, len(t.entries))
	for k, e := range t.entries {
		row, ok := out[k.state]
		if !ok {
			row = make(map[Action]QEntry)
			out[k.state] = row
		}
		row[k.action] = *e
	}
	return out
}

// set installs an entry directly. Used by Load; not exported so the
// enum-membership invariant stays enforced at the boundary.
func (t *Table) set(s State, a Action, e QEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := e
	t.entries[key{s, a}] = &entry
}
