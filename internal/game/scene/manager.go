package scene

import (
	"fmt"
	"sort"
	"sync"
)

// Manager indexes scenes by ID.
// All methods are safe for concurrent use; the scenes themselves are not.
type Manager struct {
	mu     sync.RWMutex
	scenes map[string]*Scene
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{scenes: make(map[string]*Scene)}
}

// Add registers s.
//
// Postcondition: Returns an error if a scene with the same ID exists.
func (m *Manager) Add(s *Scene) error {
	if s == nil {
		return fmt.Errorf("scene.Manager.Add: scene must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenes[s.ID()]; ok {
		return fmt.Errorf("scene %q already registered", s.ID())
	}
	m.scenes[s.ID()] = s
	return nil
}

// Get returns the scene with id, or ErrSceneNotFound.
func (m *Manager) Get(id string) (*Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSceneNotFound, id)
	}
	return s, nil
}

// Remove closes and deletes the scene with id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.scenes[id]
	delete(m.scenes, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, id)
	}
	s.Close()
	return nil
}

// IDs returns every scene ID in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.scenes))
	for id := range m.scenes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
