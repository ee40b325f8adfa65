// Package npc provides actor template definitions for enemies and bosses, the
// catalog they are looked up in, and respawn scheduling.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// Template kinds.
const (
	KindEnemy = entity.KindEnemy
	KindBoss  = entity.KindBoss
)

// BodySpec is a visual bounding box in local space plus the XZ shrink factors
// that turn it into a hit-box.
type BodySpec struct {
	Min     [3]float64 `yaml:"min"`
	Max     [3]float64 `yaml:"max"`
	ShrinkX float64    `yaml:"shrink_x"`
	ShrinkZ float64    `yaml:"shrink_z"`
}

// IsZero reports whether no bounds were given.
func (b BodySpec) IsZero() bool {
	return b.Min == [3]float64{} && b.Max == [3]float64{}
}

// Build returns the collision body, or nil when no bounds were given.
func (b BodySpec) Build() *collision.Body {
	if b.IsZero() {
		return nil
	}
	sx, sz := b.ShrinkX, b.ShrinkZ
	if sx <= 0 {
		sx = 1
	}
	if sz <= 0 {
		sz = 1
	}
	visual := geom.NewAABB(geom.V(b.Min[0], b.Min[1], b.Min[2]), geom.V(b.Max[0], b.Max[1], b.Max[2]))
	return collision.BodyFromBounds(visual, sx, sz)
}

// Template defines a reusable enemy or boss archetype loaded from YAML.
type Template struct {
	ID    string       `yaml:"id"`
	Name  string       `yaml:"name"`
	Kind  string       `yaml:"kind"`
	Stats combat.Stats `yaml:"stats"`
	Body  BodySpec     `yaml:"body"`

	// Enemy tunes regular enemies; zero fields use entity.DefaultEnemyConfig.
	Enemy entity.EnemyConfig `yaml:"enemy"`
	// Boss tunes bosses; zero fields use entity.DefaultBossConfig.
	Boss entity.BossConfig `yaml:"boss"`
	// SkillTable names the boss skill table; empty means the built-in table.
	SkillTable string `yaml:"skill_table"`

	// RespawnDelay is the duration string (e.g. "30s") before a dead actor of
	// this template respawns. Empty means it does not respawn.
	RespawnDelay string `yaml:"respawn_delay"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is enemy or
// boss, the body bounds (when given) have Min <= Max on every axis with shrink
// factors in [0, 1], and RespawnDelay (when given) parses. Every violation is
// reported.
func (t *Template) Validate() error {
	var errs error
	if t.ID == "" {
		errs = multierr.Append(errs, fmt.Errorf("npc template: id must not be empty"))
	}
	if t.Name == "" {
		errs = multierr.Append(errs, fmt.Errorf("npc template %q: name must not be empty", t.ID))
	}
	switch t.Kind {
	case KindEnemy, KindBoss:
	default:
		errs = multierr.Append(errs, fmt.Errorf("npc template %q: kind %q must be %q or %q", t.ID, t.Kind, KindEnemy, KindBoss))
	}
	if !t.Body.IsZero() {
		for axis := 0; axis < 3; axis++ {
			if t.Body.Min[axis] > t.Body.Max[axis] {
				errs = multierr.Append(errs, fmt.Errorf("npc template %q: body min exceeds max on axis %d", t.ID, axis))
			}
		}
		if t.Body.ShrinkX < 0 || t.Body.ShrinkX > 1 || t.Body.ShrinkZ < 0 || t.Body.ShrinkZ > 1 {
			errs = multierr.Append(errs, fmt.Errorf("npc template %q: body shrink factors must be in [0, 1]", t.ID))
		}
	}
	if t.Kind != KindBoss && t.SkillTable != "" {
		errs = multierr.Append(errs, fmt.Errorf("npc template %q: skill_table is only valid for bosses", t.ID))
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("npc template %q: respawn_delay %q is not a valid duration: %w", t.ID, t.RespawnDelay, err))
		}
	}
	return errs
}

// Respawn returns the parsed respawn delay, zero when unset.
func (t *Template) Respawn() time.Duration {
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
