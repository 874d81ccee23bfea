package repository

import "sync"

// ChangeKind discriminates staged mutations.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeUpdate
	ChangeDelete
)

// Change is one staged mutation awaiting commit.
type Change struct {
	Kind   ChangeKind
	Entity any
}

// ChangeTracker collects staged mutations between repository write
// calls and the unit of work's commit. It is shared by the base
// repository (which stages) and the unit of work (which drains).
type ChangeTracker struct {
	mu      sync.Mutex
	changes []Change
}

// NewChangeTracker creates an empty tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{}
}

// Stage appends a mutation to the pending set.
func (t *ChangeTracker) Stage(kind ChangeKind, entity any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changes = append(t.changes, Change{Kind: kind, Entity: entity})
}

// Pending returns a snapshot of the staged mutations in staging order.
func (t *ChangeTracker) Pending() []Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Change(nil), t.changes...)
}

// Len reports how many mutations are staged.
func (t *ChangeTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.changes)
}

// Clear drops all staged mutations. The unit of work calls this after
// a successful commit; a failed commit keeps the set intact so the
// caller may retry.
func (t *ChangeTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changes = nil
}
