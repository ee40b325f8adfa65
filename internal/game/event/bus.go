// Package event provides the synchronous in-process bus entities use to
// announce deaths and boss phase changes.
package event

import (
	"sync"
	"time"
)

// Event names.
const (
	EnemyDied    = "enemy_died"
	PlayerDied   = "player_died"
	PhaseChanged = "boss_phase_changed"
)

// Subject is the entity an event is about.
type Subject interface {
	ID() string
	Kind() string
}

// Event is one announcement on the bus.
type Event struct {
	Name    string
	Subject Subject
	SceneID string
	At      time.Time
	// Data carries optional name-specific fields, e.g. "phase" for PhaseChanged.
	Data map[string]any
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus dispatches events to handlers registered for their name.
//
// Invariant: handlers run synchronously on the emitting goroutine, in
// subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	now    func() time.Time
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription), now: time.Now}
}

// Subscribe registers h for events named name and returns a function that
// removes the registration. Calling the returned function twice is safe.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[name]
		for i, s := range list {
			if s.id == id {
				b.subs[name] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers e to every handler subscribed to e.Name. A zero e.At is
// stamped with the current time.
//
// Handlers may subscribe or emit from within a handler.
func (b *Bus) Emit(e Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Name]))
	for _, s := range b.subs[e.Name] {
		handlers = append(handlers, s.fn)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}
