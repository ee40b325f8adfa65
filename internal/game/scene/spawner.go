package scene

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/npc"
)

// Spawner builds actors from templates into scenes.
type Spawner struct {
	catalog  *npc.Catalog
	roller   *dice.Roller
	animator entity.Animator
	logger   *zap.Logger
	onSpawn  []func(s *Scene, templateID string, a entity.Actor)
}

// NewSpawner creates a spawner over catalog.
//
// Precondition: catalog must be non-nil. roller, animator and logger may be
// nil and then fall back to the entity defaults.
func NewSpawner(catalog *npc.Catalog, roller *dice.Roller, animator entity.Animator, logger *zap.Logger) *Spawner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spawner{catalog: catalog, roller: roller, animator: animator, logger: logger}
}

// OnSpawn registers fn to run after every successful spawn.
func (sp *Spawner) OnSpawn(fn func(s *Scene, templateID string, a entity.Actor)) {
	sp.onSpawn = append(sp.onSpawn, fn)
}

// Spawn builds templateID at pos and adds it to s.
//
// Postcondition: the actor is in s, aimed at s's player when there is one,
// and s.TemplateOf reports templateID for it.
func (sp *Spawner) Spawn(s *Scene, templateID string, pos geom.Vec3) (entity.Actor, error) {
	deps := s.Deps()
	deps.Roller = sp.roller
	deps.Animator = sp.animator
	a, err := sp.catalog.Build(templateID, pos, deps)
	if err != nil {
		return nil, fmt.Errorf("spawning %q in scene %q: %w", templateID, s.ID(), err)
	}
	if err := s.Add(a); err != nil {
		return nil, err
	}
	s.templates[a.ID()] = templateID
	sp.logger.Info("actor spawned",
		zap.String("scene", s.ID()),
		zap.String("template", templateID),
		zap.String("actor", a.ID()),
		zap.String("kind", a.Kind()),
	)
	for _, fn := range sp.onSpawn {
		fn(s, templateID, a)
	}
	return a, nil
}
