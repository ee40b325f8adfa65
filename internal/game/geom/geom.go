// Package geom provides the value types shared by the collision, movement and
// AI layers: vectors, rays, triangles and axis-aligned boxes.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used to reject degenerate geometry before dividing.
const Epsilon = 1e-5

// Vec3 is a three-component float64 vector.
type Vec3 = mgl64.Vec3

// Down is the unit vector pointing along -Y.
var Down = Vec3{0, -1, 0}

// V builds a Vec3.
func V(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// DistanceXZ returns the distance between a and b ignoring the Y axis.
func DistanceXZ(a, b Vec3) float64 {
	return math.Hypot(a[0]-b[0], a[2]-b[2])
}

// Flatten returns v with its Y component zeroed.
func Flatten(v Vec3) Vec3 {
	return Vec3{v[0], 0, v[2]}
}

// SafeNormalize returns the unit vector along v.
//
// Postcondition: returns (zero, false) when |v| < Epsilon; never divides by zero.
func SafeNormalize(v Vec3) (Vec3, bool) {
	l := v.Len()
	if l < Epsilon {
		return Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// Lerp interpolates linearly from a to b; t is clamped to [0, 1].
func Lerp(a, b Vec3, t float64) Vec3 {
	t = math.Max(0, math.Min(1, t))
	return a.Add(b.Sub(a).Mul(t))
}

// YawDegrees returns the heading of dir on the XZ plane in degrees, measured
// from +Z towards +X.
//
// Postcondition: returns (0, false) when dir has no horizontal component.
func YawDegrees(dir Vec3) (float64, bool) {
	if math.Hypot(dir[0], dir[2]) < Epsilon {
		return 0, false
	}
	return math.Atan2(dir[0], dir[2]) * 180 / math.Pi, true
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
