// Package scene owns the actors of one play area together with its terrain,
// and steps them frame by frame.
package scene

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/movement"
	"github.com/cory-johannsen/actioncore/internal/game/npc"
)

// Sentinel errors.
var (
	ErrActorNotFound = errors.New("actor not found")
	ErrSceneNotFound = errors.New("scene not found")
)

// targeter is implemented by actors that can be aimed at another actor.
type targeter interface {
	SetTarget(entity.Actor)
}

// Options configure a new Scene.
type Options struct {
	// Terrain may be nil; actors then stand on a flat floor at Y=0.
	Terrain  *collision.Terrain
	Movement movement.Params
	Bus      *event.Bus
	Logger   *zap.Logger
	// Epoch anchors the scene clock; zero uses the Unix epoch.
	Epoch time.Time
}

// Scene steps its actors in insertion order and prunes removed ones.
//
// Invariant: actors holds no removed actor between Steps.
// Not safe for concurrent use; one goroutine owns a scene. Other goroutines
// reach it through Post.
type Scene struct {
	id         string
	integrator *movement.Integrator
	bus        *event.Bus
	logger     *zap.Logger

	actors    []entity.Actor
	templates map[string]string // actor ID → template ID
	player    *entity.Player

	spawner *Spawner
	respawn *npc.RespawnManager
	epoch   time.Time
	elapsed float64
	unsub   func()

	mu     sync.Mutex
	posted []func(*Scene)
}

// New creates an empty scene.
//
// Precondition: id must be non-empty.
func New(id string, opts Options) *Scene {
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Movement == (movement.Params{}) {
		opts.Movement = movement.DefaultParams()
	}
	if opts.Epoch.IsZero() {
		opts.Epoch = time.Unix(0, 0)
	}
	s := &Scene{
		id:         id,
		integrator: movement.NewIntegrator(opts.Terrain, opts.Movement),
		bus:        opts.Bus,
		logger:     opts.Logger.With(zap.String("scene", id)),
		templates:  make(map[string]string),
		epoch:      opts.Epoch,
	}
	s.unsub = s.bus.Subscribe(event.EnemyDied, s.onEnemyDied)
	return s
}

// ID returns the scene ID.
func (s *Scene) ID() string { return s.id }

// Bus returns the scene's event bus.
func (s *Scene) Bus() *event.Bus { return s.bus }

// Terrain returns the terrain, nil for a flat floor.
func (s *Scene) Terrain() *collision.Terrain { return s.integrator.Terrain() }

// Now returns the scene clock: the epoch plus simulated time.
func (s *Scene) Now() time.Time {
	return s.epoch.Add(time.Duration(s.elapsed * float64(time.Second)))
}

// Elapsed returns the simulated seconds stepped so far.
func (s *Scene) Elapsed() float64 { return s.elapsed }

// Deps returns entity dependencies bound to this scene.
func (s *Scene) Deps() entity.Deps {
	return entity.Deps{Bus: s.bus, Logger: s.logger, SceneID: s.id}
}

// SetSpawner attaches the spawner used by SpawnTemplate.
func (s *Scene) SetSpawner(sp *Spawner) { s.spawner = sp }

// SetRespawn attaches a respawn manager. Dead template actors are scheduled
// on it and it is ticked after every step.
func (s *Scene) SetRespawn(r *npc.RespawnManager) { s.respawn = r }

// Add appends a to the scene. A player becomes the target of every existing
// and future non-player actor.
//
// Postcondition: returns an error if an actor with the same ID is present.
func (s *Scene) Add(a entity.Actor) error {
	if a == nil {
		return fmt.Errorf("scene %q: nil actor", s.id)
	}
	if _, err := s.Actor(a.ID()); err == nil {
		return fmt.Errorf("scene %q: actor %q already present", s.id, a.ID())
	}
	s.actors = append(s.actors, a)
	if p, ok := a.(*entity.Player); ok {
		s.player = p
		for _, other := range s.actors {
			s.aim(other)
		}
		return nil
	}
	s.aim(a)
	return nil
}

func (s *Scene) aim(a entity.Actor) {
	if s.player == nil || a.Kind() == entity.KindPlayer {
		return
	}
	if t, ok := a.(targeter); ok {
		t.SetTarget(s.player)
	}
}

// Remove deletes the actor with id.
func (s *Scene) Remove(id string) error {
	for i, a := range s.actors {
		if a.ID() == id {
			s.actors = append(s.actors[:i], s.actors[i+1:]...)
			delete(s.templates, id)
			if s.player != nil && s.player.ID() == id {
				s.player = nil
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrActorNotFound, id)
}

// Actor returns the actor with id.
func (s *Scene) Actor(id string) (entity.Actor, error) {
	for _, a := range s.actors {
		if a.ID() == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrActorNotFound, id)
}

// Actors returns a snapshot of the actors in step order.
func (s *Scene) Actors() []entity.Actor {
	return append([]entity.Actor(nil), s.actors...)
}

// Player returns the scene's player, or nil.
func (s *Scene) Player() *entity.Player { return s.player }

// Post queues fn to run on the owning goroutine at the start of the next
// Step. Safe for concurrent use.
func (s *Scene) Post(fn func(*Scene)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, fn)
}

func (s *Scene) drain() {
	s.mu.Lock()
	posted := s.posted
	s.posted = nil
	s.mu.Unlock()
	for _, fn := range posted {
		fn(s)
	}
}

// Step runs posted functions, advances every actor by dt in insertion order,
// prunes removed actors and then runs due respawns.
//
// Postcondition: dt <= 0 leaves the scene unchanged.
func (s *Scene) Step(dt float64) {
	if dt <= 0 {
		return
	}
	s.drain()
	s.elapsed += dt
	f := s.frame(dt)
	for _, a := range f.actors {
		if a.Removed() {
			continue
		}
		a.Step(f.Frame)
	}
	s.prune()
	if s.respawn != nil {
		s.respawn.Tick(s.Now(), s.id, s)
	}
}

type frame struct {
	entity.Frame
	actors []entity.Actor
}

func (s *Scene) frame(dt float64) frame {
	actors := s.Actors()
	bodies := make([]*collision.Body, 0, len(actors))
	targets := make([]combat.Target, 0, len(actors))
	for _, a := range actors {
		bodies = append(bodies, a.Body())
		targets = append(targets, a)
	}
	return frame{
		Frame: entity.Frame{
			Dt:         dt,
			Integrator: s.integrator,
			Bodies:     bodies,
			Targets:    targets,
		},
		actors: actors,
	}
}

func (s *Scene) prune() {
	kept := s.actors[:0]
	for _, a := range s.actors {
		if a.Removed() {
			s.logger.Debug("actor removed", zap.String("actor", a.ID()), zap.String("kind", a.Kind()))
			delete(s.templates, a.ID())
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(s.actors); i++ {
		s.actors[i] = nil
	}
	s.actors = kept
}

// CountTemplate implements npc.Population.
func (s *Scene) CountTemplate(templateID string) int {
	n := 0
	for _, a := range s.actors {
		if s.templates[a.ID()] == templateID && !a.Removed() {
			n++
		}
	}
	return n
}

// SpawnTemplate implements npc.Population.
func (s *Scene) SpawnTemplate(templateID string, pos geom.Vec3) error {
	if s.spawner == nil {
		return fmt.Errorf("scene %q: no spawner", s.id)
	}
	_, err := s.spawner.Spawn(s, templateID, pos)
	return err
}

// TemplateOf returns the template an actor was built from.
func (s *Scene) TemplateOf(actorID string) (string, bool) {
	id, ok := s.templates[actorID]
	return id, ok
}

func (s *Scene) onEnemyDied(e event.Event) {
	if e.SceneID != s.id || e.Subject == nil || s.respawn == nil {
		return
	}
	templateID, ok := s.templates[e.Subject.ID()]
	if !ok {
		return
	}
	delay := s.respawn.ResolvedDelay(templateID, s.id)
	s.respawn.Schedule(templateID, s.id, s.Now(), delay)
	s.logger.Debug("respawn scheduled",
		zap.String("template", templateID),
		zap.Duration("delay", delay),
	)
}

// Close detaches the scene from its bus.
func (s *Scene) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}
