package collision

import (
	"math"
	"os"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// Terrain answers ground queries against a static triangle soup.
//
// Invariant: the triangle list and its footprints are never mutated after
// construction, so a Terrain is safe for concurrent queries.
type Terrain struct {
	tris       []geom.Triangle
	footprints []cp.BB
	fallback   bool
}

// NewTerrain builds a terrain over tris. The slice is copied.
func NewTerrain(tris []geom.Triangle) *Terrain {
	t := &Terrain{
		tris:       make([]geom.Triangle, len(tris)),
		footprints: make([]cp.BB, len(tris)),
	}
	copy(t.tris, tris)
	for i, tri := range t.tris {
		t.footprints[i] = tri.FootprintXZ()
	}
	return t
}

// FlatTerrain builds the two-triangle proxy spanning bounds' XZ footprint at
// bounds.Min.Y.
func FlatTerrain(bounds geom.AABB) *Terrain {
	y := bounds.Min.Y()
	minX, minZ := bounds.Min.X(), bounds.Min.Z()
	maxX, maxZ := bounds.Max.X(), bounds.Max.Z()
	t := NewTerrain([]geom.Triangle{
		{V0: geom.V(minX, y, minZ), V1: geom.V(maxX, y, minZ), V2: geom.V(maxX, y, maxZ)},
		{V0: geom.V(minX, y, minZ), V1: geom.V(maxX, y, maxZ), V2: geom.V(minX, y, maxZ)},
	})
	t.fallback = true
	return t
}

// LoadTerrain parses the mesh at path. It never fails: a missing file, a read
// error or a mesh without triangles yields FlatTerrain(bounds) and a warning.
//
// Precondition: logger may be nil.
func LoadTerrain(path string, xf Transform, bounds geom.AABB, logger *zap.Logger) *Terrain {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("terrain mesh unavailable, using flat proxy", zap.String("path", path), zap.Error(err))
		return FlatTerrain(bounds)
	}
	defer f.Close()

	tris, stats, err := ParseMesh(f, xf)
	if err != nil {
		logger.Warn("terrain mesh unreadable, using flat proxy", zap.String("path", path), zap.Error(err))
		return FlatTerrain(bounds)
	}
	if len(tris) == 0 {
		logger.Warn("terrain mesh has no triangles, using flat proxy",
			zap.String("path", path),
			zap.Int("skipped", stats.Skipped),
		)
		return FlatTerrain(bounds)
	}
	logger.Info("terrain loaded",
		zap.String("path", path),
		zap.Int("vertices", stats.Vertices),
		zap.Int("triangles", stats.Triangles),
		zap.Int("skipped", stats.Skipped),
	)
	return NewTerrain(tris)
}

// IsFallback reports whether the terrain is the synthesised flat proxy.
func (t *Terrain) IsFallback() bool { return t.fallback }

// Len returns the number of triangles.
func (t *Terrain) Len() int { return len(t.tris) }

// Triangles returns a copy of the triangle list.
func (t *Terrain) Triangles() []geom.Triangle {
	out := make([]geom.Triangle, len(t.tris))
	copy(out, t.tris)
	return out
}

// RayIntersects returns the distance to the closest triangle hit by r.
//
// Triangles whose XZ footprint does not contain the ray origin are skipped
// before the exact test; callers cast near-vertical rays only.
//
// Postcondition: ok is false when no triangle is hit; otherwise dist is the
// smallest positive hit distance.
func (t *Terrain) RayIntersects(r geom.Ray) (dist float64, ok bool) {
	origin := geom.PointXZ(r.Origin)
	best := math.Inf(1)
	for i, tri := range t.tris {
		if !t.footprints[i].ContainsVect(origin) {
			continue
		}
		if d, hit := tri.Intersect(r); hit && d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// GroundBelow casts straight down from pos raised by probeHeight and returns
// the height of the first surface hit.
func (t *Terrain) GroundBelow(pos geom.Vec3, probeHeight float64) (float64, bool) {
	origin := pos.Add(geom.V(0, probeHeight, 0))
	d, ok := t.RayIntersects(geom.Ray{Origin: origin, Direction: geom.Down})
	if !ok {
		return 0, false
	}
	return origin.Y() - d, true
}
