package geom

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Ray is a half-line starting at Origin along Direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// At returns the point Origin + Direction*t.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Triangle is three world-space vertices.
type Triangle struct {
	V0, V1, V2 Vec3
}

// Intersect runs the Möller–Trumbore ray/triangle test.
//
// Postcondition: returns (t, true) only when the ray hits the triangle strictly
// in front of its origin (t > Epsilon). Rays parallel to the triangle plane
// (|a| < Epsilon) are rejected before any division.
func (tri Triangle) Intersect(r Ray) (float64, bool) {
	edge1 := tri.V1.Sub(tri.V0)
	edge2 := tri.V2.Sub(tri.V0)
	h := r.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -Epsilon && a < Epsilon {
		return 0, false
	}
	f := 1 / a
	s := r.Origin.Sub(tri.V0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := f * edge2.Dot(q)
	if t <= Epsilon {
		return 0, false
	}
	return t, true
}

// FootprintXZ returns the triangle's bounding rectangle on the XZ plane.
// cp.BB's bottom/top map to min/max Z.
func (tri Triangle) FootprintXZ() cp.BB {
	return cp.BB{
		L: math.Min(tri.V0[0], math.Min(tri.V1[0], tri.V2[0])),
		B: math.Min(tri.V0[2], math.Min(tri.V1[2], tri.V2[2])),
		R: math.Max(tri.V0[0], math.Max(tri.V1[0], tri.V2[0])),
		T: math.Max(tri.V0[2], math.Max(tri.V1[2], tri.V2[2])),
	}
}

// Normal returns the unnormalised face normal (edge1 x edge2).
func (tri Triangle) Normal() Vec3 {
	return tri.V1.Sub(tri.V0).Cross(tri.V2.Sub(tri.V0))
}

// PointXZ projects p onto the XZ plane as a cp.Vector.
func PointXZ(p Vec3) cp.Vector {
	return cp.Vector{X: p[0], Y: p[2]}
}

// AABB is an axis-aligned box given by its min and max corners.
//
// Invariant: Min[i] <= Max[i] for boxes built through NewAABB.
type AABB struct {
	Min Vec3
	Max Vec3
}

// NewAABB builds a box from two opposite corners in any order.
func NewAABB(a, b Vec3) AABB {
	return AABB{
		Min: Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// BoxAround builds a box centred on c with the given half extents.
func BoxAround(c, half Vec3) AABB {
	return NewAABB(c.Sub(half), c.Add(half))
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extents along each axis.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Translate returns the box moved by off.
func (b AABB) Translate(off Vec3) AABB {
	return AABB{Min: b.Min.Add(off), Max: b.Max.Add(off)}
}

// Intersects reports whether the boxes overlap with positive volume.
// Boxes that only touch on a face do not intersect.
func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] < o.Max[0] && b.Max[0] > o.Min[0] &&
		b.Min[1] < o.Max[1] && b.Max[1] > o.Min[1] &&
		b.Min[2] < o.Max[2] && b.Max[2] > o.Min[2]
}

// Contains reports whether p lies inside the box or on its boundary.
func (b AABB) Contains(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Shrink scales the box extents about its centre. A factor of 1 leaves an
// axis untouched; factors are clamped to [0, 1].
func (b AABB) Shrink(fx, fy, fz float64) AABB {
	c := b.Center()
	half := b.Size().Mul(0.5)
	f := Vec3{clamp01(fx), clamp01(fy), clamp01(fz)}
	scaled := Vec3{half[0] * f[0], half[1] * f[1], half[2] * f[2]}
	return AABB{Min: c.Sub(scaled), Max: c.Add(scaled)}
}

// FootprintXZ returns the box's rectangle on the XZ plane.
func (b AABB) FootprintXZ() cp.BB {
	return cp.BB{L: b.Min[0], B: b.Min[2], R: b.Max[0], T: b.Max[2]}
}

// MinTranslation returns the offset that moves b out of o along the axis of
// least penetration. The sign pushes b away from o's centre.
//
// Postcondition: returns the zero vector when the boxes do not intersect.
func (b AABB) MinTranslation(o AABB) Vec3 {
	if !b.Intersects(o) {
		return Vec3{}
	}
	bc, oc := b.Center(), o.Center()
	axis := -1
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		overlap := math.Min(b.Max[i], o.Max[i]) - math.Max(b.Min[i], o.Min[i])
		if overlap < depth {
			depth = overlap
			axis = i
		}
	}
	var out Vec3
	if bc[axis] < oc[axis] {
		out[axis] = -depth
	} else {
		out[axis] = depth
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
