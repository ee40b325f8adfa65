package collision

import (
	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// Body is a per-entity AABB hit-box kept in local space and projected to
// world space each frame.
//
// Invariant: World() == Local() translated by the position last passed to Update.
type Body struct {
	local geom.AABB
	world geom.AABB
}

// NewBody returns a body with the given local box, positioned at the origin.
func NewBody(local geom.AABB) *Body {
	return &Body{local: local, world: local}
}

// BodyFromBounds builds a body from a visual bounding box, scaling its X and Z
// extents about the centre by shrinkX and shrinkZ to approximate a tighter
// hit-box. Y is kept.
func BodyFromBounds(visual geom.AABB, shrinkX, shrinkZ float64) *Body {
	return NewBody(visual.Shrink(shrinkX, 1, shrinkZ))
}

// Update recomputes the world box for an entity at pos.
func (b *Body) Update(pos geom.Vec3) {
	b.world = b.local.Translate(pos)
}

// Local returns the local-space box.
func (b *Body) Local() geom.AABB { return b.local }

// World returns the cached world-space box.
func (b *Body) World() geom.AABB { return b.world }

// At projects the local box to pos without touching the cache.
func (b *Body) At(pos geom.Vec3) geom.AABB {
	return b.local.Translate(pos)
}

// Footprint returns the world box's XZ rectangle.
func (b *Body) Footprint() cp.BB {
	return b.world.FootprintXZ()
}

// Overlaps reports whether the world boxes of b and o intersect.
func (b *Body) Overlaps(o *Body) bool {
	if o == nil || o == b {
		return false
	}
	return b.world.Intersects(o.world)
}

// Separation returns the least-penetration offset that moves b out of o.
//
// Postcondition: zero when the bodies do not overlap.
func (b *Body) Separation(o *Body) geom.Vec3 {
	if !b.Overlaps(o) {
		return geom.Vec3{}
	}
	return b.world.MinTranslation(o.world)
}
