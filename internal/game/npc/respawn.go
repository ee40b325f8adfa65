package npc

import (
	"sync"
	"time"

	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// SpawnPoint holds the spawn configuration for one template in one scene.
//
// Invariant: Max >= 1; RespawnDelay == 0 defers to the template's delay.
type SpawnPoint struct {
	// TemplateID is the template to spawn.
	TemplateID string `mapstructure:"template" yaml:"template"`
	// Position is where new actors appear.
	Position geom.Vec3 `mapstructure:"position" yaml:"position"`
	// Max is the population cap: respawn is suppressed when live count >= Max.
	Max int `mapstructure:"max" yaml:"max"`
	// RespawnDelay overrides the template's delay when non-zero.
	RespawnDelay time.Duration `mapstructure:"respawn_delay" yaml:"respawn_delay"`
}

// Population is the live side of a scene the respawn manager fills.
type Population interface {
	// CountTemplate returns the number of live actors built from templateID.
	CountTemplate(templateID string) int
	// SpawnTemplate builds an actor from templateID at pos.
	SpawnTemplate(templateID string, pos geom.Vec3) error
}

type respawnEntry struct {
	templateID string
	sceneID    string
	readyAt    time.Time
}

// RespawnManager schedules and executes actor respawns.
// It is safe for concurrent use.
//
// Invariant: entries with zero delay are never queued.
type RespawnManager struct {
	mu      sync.RWMutex
	spawns  map[string][]SpawnPoint // sceneID → points
	catalog *Catalog
	pending []respawnEntry
}

// NewRespawnManager creates a RespawnManager from scene spawn points and a
// template catalog.
//
// Precondition: spawns may be nil; catalog must be non-nil.
// Postcondition: Returns a non-nil RespawnManager.
func NewRespawnManager(spawns map[string][]SpawnPoint, catalog *Catalog) *RespawnManager {
	if spawns == nil {
		spawns = make(map[string][]SpawnPoint)
	}
	return &RespawnManager{spawns: spawns, catalog: catalog}
}

// SetSpawns replaces the spawn points of sceneID.
func (r *RespawnManager) SetSpawns(sceneID string, points []SpawnPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawns[sceneID] = append([]SpawnPoint(nil), points...)
}

// Spawns returns a copy of the spawn points of sceneID.
func (r *RespawnManager) Spawns(sceneID string) []SpawnPoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SpawnPoint(nil), r.spawns[sceneID]...)
}

// Populate fills each spawn point of sceneID up to its cap.
//
// Postcondition: for each point with a known template, actors are spawned
// until CountTemplate == Max, subject to SpawnTemplate succeeding.
func (r *RespawnManager) Populate(sceneID string, pop Population) {
	for _, sp := range r.Spawns(sceneID) {
		if _, ok := r.catalog.Get(sp.TemplateID); !ok {
			continue
		}
		for i := pop.CountTemplate(sp.TemplateID); i < sp.Max; i++ {
			if err := pop.SpawnTemplate(sp.TemplateID, sp.Position); err != nil {
				// Non-fatal; the next Populate retries.
				break
			}
		}
	}
}

// Schedule enqueues a future respawn for templateID in sceneID to fire at
// now+delay. No-op when delay == 0.
func (r *RespawnManager) Schedule(templateID, sceneID string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{
		templateID: templateID,
		sceneID:    sceneID,
		readyAt:    now.Add(delay),
	})
}

// Pending returns the number of queued respawns.
func (r *RespawnManager) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// Tick drains the entries of sceneID whose readyAt <= now, checks the
// population cap for each, and spawns up to the remaining capacity.
//
// Postcondition: pending entries of sceneID with readyAt <= now are consumed;
// entries of other scenes are untouched.
func (r *RespawnManager) Tick(now time.Time, sceneID string, pop Population) {
	r.mu.Lock()
	var ready, keep []respawnEntry
	for _, e := range r.pending {
		if e.sceneID == sceneID && !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			keep = append(keep, e)
		}
	}
	r.pending = keep
	r.mu.Unlock()

	for _, e := range ready {
		sp, ok := r.pointFor(e.sceneID, e.templateID)
		if !ok {
			continue
		}
		if pop.CountTemplate(e.templateID) >= sp.Max {
			continue
		}
		_ = pop.SpawnTemplate(e.templateID, sp.Position)
	}
}

// ResolvedDelay returns the effective respawn delay for templateID in
// sceneID: the spawn point's RespawnDelay if non-zero, otherwise the
// template's. Returns 0 when neither is set or the template is unknown.
func (r *RespawnManager) ResolvedDelay(templateID, sceneID string) time.Duration {
	if sp, ok := r.pointFor(sceneID, templateID); ok && sp.RespawnDelay > 0 {
		return sp.RespawnDelay
	}
	tmpl, ok := r.catalog.Get(templateID)
	if !ok {
		return 0
	}
	return tmpl.Respawn()
}

func (r *RespawnManager) pointFor(sceneID, templateID string) (SpawnPoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sp := range r.spawns[sceneID] {
		if sp.TemplateID == templateID {
			return sp, true
		}
	}
	return SpawnPoint{}, false
}
