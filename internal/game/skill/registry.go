package skill

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds skill tables by id.
//
// Invariant: tables stored in the registry are never mutated; Replace swaps
// the pointer, so callers holding an old table keep a consistent view.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Register adds t.
//
// Precondition: t is non-nil and validated.
// Postcondition: returns an error and leaves the registry unchanged when a
// table with the same id is already registered.
func (r *Registry) Register(t *Table) error {
	if t == nil {
		return fmt.Errorf("skill registry: nil table")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t.ID]; ok {
		return fmt.Errorf("skill registry: table %q already registered", t.ID)
	}
	r.tables[t.ID] = t
	return nil
}

// Replace inserts or overwrites the table with t's id.
func (r *Registry) Replace(t *Table) {
	if t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.ID] = t
}

// Table returns the table with the given id.
func (r *Registry) Table(id string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	return t, ok
}

// IDs returns the registered table ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.tables))
	for id := range r.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
