// Package collision implements the terrain and body colliders: ray casts
// against a triangulated ground mesh and AABB overlap between characters.
package collision

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// Transform maps mesh-space vertices into world space: world = Scale*v + Translation.
type Transform struct {
	Scale       float64
	Translation geom.Vec3
}

// Identity is the transform that leaves vertices untouched.
var Identity = Transform{Scale: 1}

// Apply returns the world-space position of the mesh-space vertex v.
func (xf Transform) Apply(v geom.Vec3) geom.Vec3 {
	return v.Mul(xf.Scale).Add(xf.Translation)
}

// MeshStats summarises a parsed mesh.
type MeshStats struct {
	Vertices  int
	Faces     int
	Triangles int
	Skipped   int
}

// ParseMesh reads a Wavefront-style mesh and returns its world-space triangles.
//
// Only "v" and "f" records are interpreted. Face indices are 1-based; slash
// forms ("3/1/2", "3//2") use the index before the first slash. Faces with
// more than three vertices are fan-triangulated from their first vertex.
// Malformed vertex lines and faces referencing unknown vertices are skipped
// and counted in MeshStats.Skipped.
//
// Postcondition: the only error returned is one reported by r.
func ParseMesh(r io.Reader, xf Transform) ([]geom.Triangle, MeshStats, error) {
	var (
		stats    MeshStats
		vertices []geom.Vec3
		faces    [][]int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			v, ok := parseVertex(fields[1:])
			if !ok {
				stats.Skipped++
				continue
			}
			vertices = append(vertices, xf.Apply(v))
		case "f":
			idx, ok := parseFace(fields[1:])
			if !ok {
				stats.Skipped++
				continue
			}
			faces = append(faces, idx)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, stats, fmt.Errorf("reading mesh: %w", err)
	}

	stats.Vertices = len(vertices)
	var tris []geom.Triangle
	for _, face := range faces {
		if !indicesInRange(face, len(vertices)) {
			stats.Skipped++
			continue
		}
		stats.Faces++
		for i := 1; i+1 < len(face); i++ {
			tris = append(tris, geom.Triangle{
				V0: vertices[face[0]],
				V1: vertices[face[i]],
				V2: vertices[face[i+1]],
			})
		}
	}
	stats.Triangles = len(tris)
	return tris, stats, nil
}

func parseVertex(fields []string) (geom.Vec3, bool) {
	if len(fields) < 3 {
		return geom.Vec3{}, false
	}
	var v geom.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return geom.Vec3{}, false
		}
		v[i] = f
	}
	return v, true
}

// parseFace returns zero-based indices for a face record.
func parseFace(fields []string) ([]int, bool) {
	idx := make([]int, 0, len(fields))
	for _, f := range fields {
		if slash := strings.IndexByte(f, '/'); slash >= 0 {
			f = f[:slash]
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		idx = append(idx, n-1)
	}
	return idx, len(idx) >= 3
}

func indicesInRange(face []int, n int) bool {
	for _, i := range face {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}
