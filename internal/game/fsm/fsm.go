// Package fsm provides the generic finite-state machine every entity runs on.
package fsm

import (
	"errors"
	"fmt"
)

// ErrNilState is returned when registering a nil state.
var ErrNilState = errors.New("fsm: nil state")

// ErrDuplicateState is returned when a state name is registered twice.
var ErrDuplicateState = errors.New("fsm: duplicate state")

// State is one behaviour of an owner of type T.
//
// Update may call Machine.Change; the new state is entered before Update returns.
type State[T any] interface {
	Name() string
	Enter(owner T)
	Update(owner T, dt float64)
	Exit(owner T)
}

// TransitionFunc observes a completed transition. from is empty for the first
// transition.
type TransitionFunc func(from, to string)

// Machine holds the registered states of one owner and the active state.
//
// Invariant: at most one state is current; it is always a registered state.
// Not safe for concurrent use; an owner steps its machine from one goroutine.
type Machine[T any] struct {
	owner     T
	states    map[string]State[T]
	current   State[T]
	observers []TransitionFunc
}

// New returns an empty machine for owner.
func New[T any](owner T) *Machine[T] {
	return &Machine[T]{owner: owner, states: make(map[string]State[T])}
}

// Register adds s keyed by s.Name().
//
// Precondition: s is non-nil and its name is not already registered.
// Postcondition: returns ErrNilState or ErrDuplicateState otherwise, and the
// registry is unchanged.
func (m *Machine[T]) Register(s State[T]) error {
	if s == nil {
		return ErrNilState
	}
	name := s.Name()
	if _, ok := m.states[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateState, name)
	}
	m.states[name] = s
	return nil
}

// Change transitions to the named state.
//
// Postcondition: returns false and does nothing when name is unknown or
// already current. Otherwise the current state's Exit runs, the new state
// becomes current, observers are notified, its Enter runs, and true is
// returned. A change made from Enter is therefore observed after this one.
func (m *Machine[T]) Change(name string) bool {
	next, ok := m.states[name]
	if !ok {
		return false
	}
	if m.current != nil && m.current.Name() == name {
		return false
	}
	from := ""
	if m.current != nil {
		from = m.current.Name()
		m.current.Exit(m.owner)
	}
	m.current = next
	for _, fn := range m.observers {
		fn(from, name)
	}
	next.Enter(m.owner)
	return true
}

// Update forwards dt to the current state. No-op before the first Change.
func (m *Machine[T]) Update(dt float64) {
	if m.current == nil {
		return
	}
	m.current.Update(m.owner, dt)
}

// Current returns the active state, or nil.
func (m *Machine[T]) Current() State[T] { return m.current }

// CurrentName returns the active state's name, or "".
func (m *Machine[T]) CurrentName() string {
	if m.current == nil {
		return ""
	}
	return m.current.Name()
}

// Has reports whether name is registered.
func (m *Machine[T]) Has(name string) bool {
	_, ok := m.states[name]
	return ok
}

// OnTransition registers fn to be called synchronously after every transition.
func (m *Machine[T]) OnTransition(fn TransitionFunc) {
	if fn != nil {
		m.observers = append(m.observers, fn)
	}
}
