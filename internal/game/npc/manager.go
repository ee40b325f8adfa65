package npc

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/actioncore/internal/game/entity"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
)

// ErrTemplateNotFound is returned when a template id is not in the catalog.
var ErrTemplateNotFound = errors.New("npc template not found")

// TableSource looks up boss skill tables by id. *skill.Registry satisfies it.
type TableSource interface {
	Table(id string) (*skill.Table, bool)
}

// Catalog holds templates by ID.
// All methods are safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*Template
	tables    TableSource
}

// NewCatalog creates an empty catalog resolving skill tables through tables.
//
// Precondition: tables may be nil; bosses then always use the built-in table.
func NewCatalog(tables TableSource) *Catalog {
	return &Catalog{
		templates: make(map[string]*Template),
		tables:    tables,
	}
}

// Add registers tmpl.
//
// Precondition: tmpl must be non-nil and validated.
// Postcondition: Returns an error if a template with the same ID exists.
func (c *Catalog) Add(tmpl *Template) error {
	if tmpl == nil {
		return fmt.Errorf("npc.Catalog.Add: tmpl must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.templates[tmpl.ID]; ok {
		return fmt.Errorf("npc template %q already registered", tmpl.ID)
	}
	c.templates[tmpl.ID] = tmpl
	return nil
}

// Get returns the template with the given ID.
//
// Postcondition: Returns (tmpl, true) if found, or (nil, false) otherwise.
func (c *Catalog) Get(id string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.templates[id]
	return tmpl, ok
}

// IDs returns every template ID in sorted order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.templates))
	for id := range c.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Build creates a live actor from the template with the given ID at spawn.
//
// Precondition: id must name a registered template.
// Postcondition: Returns an *entity.Enemy or *entity.Boss, or
// ErrTemplateNotFound. A boss whose skill table is unknown is an error.
func (c *Catalog) Build(id string, spawn geom.Vec3, deps entity.Deps) (entity.Actor, error) {
	tmpl, ok := c.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	switch tmpl.Kind {
	case KindBoss:
		table, err := c.tableFor(tmpl)
		if err != nil {
			return nil, err
		}
		return entity.NewBoss(tmpl.Name, spawn, tmpl.Body.Build(), tmpl.Stats, table, tmpl.Boss, deps), nil
	default:
		return entity.NewEnemy(tmpl.Name, spawn, tmpl.Body.Build(), tmpl.Stats, tmpl.Enemy, deps), nil
	}
}

func (c *Catalog) tableFor(tmpl *Template) (*skill.Table, error) {
	if tmpl.SkillTable == "" {
		return skill.DefaultTable(), nil
	}
	if c.tables == nil {
		return nil, fmt.Errorf("npc template %q: no skill tables to resolve %q", tmpl.ID, tmpl.SkillTable)
	}
	t, ok := c.tables.Table(tmpl.SkillTable)
	if !ok {
		return nil, fmt.Errorf("npc template %q: skill table %q not found", tmpl.ID, tmpl.SkillTable)
	}
	return t, nil
}
