// Package movement integrates gravity and velocity for one entity per frame,
// following terrain within a step height and pushing bodies apart.
package movement

import (
	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// stepTolerance absorbs ray-cast rounding at exactly StepHeight.
const stepTolerance = 1e-6

// Params tunes the integrator.
type Params struct {
	Gravity     float64 `mapstructure:"gravity" yaml:"gravity"`
	StepHeight  float64 `mapstructure:"step_height" yaml:"step_height"`
	ProbeHeight float64 `mapstructure:"probe_height" yaml:"probe_height"`
}

// DefaultParams returns gravity 980, step height 40 and probe height 500.
func DefaultParams() Params {
	return Params{Gravity: 980, StepHeight: 40, ProbeHeight: 500}
}

// State is the physical state of one entity.
type State struct {
	Position geom.Vec3
	Velocity geom.Vec3
	Grounded bool
}

// Result reports what happened during one Step.
type Result struct {
	// Landed is true when the entity became grounded this step.
	Landed bool
	// Blocked is true when horizontal motion was cancelled by a wall or ledge.
	Blocked bool
	// Pushes counts the bodies the entity was pushed out of.
	Pushes int
}

// Integrator moves entities over a shared terrain. A nil terrain means a flat
// floor at Y = 0.
type Integrator struct {
	terrain *collision.Terrain
	params  Params
}

// NewIntegrator builds an integrator over terrain, which may be nil.
func NewIntegrator(terrain *collision.Terrain, params Params) *Integrator {
	return &Integrator{terrain: terrain, params: params}
}

// Terrain returns the terrain the integrator follows, or nil.
func (in *Integrator) Terrain() *collision.Terrain { return in.terrain }

// Params returns the integrator's tuning.
func (in *Integrator) Params() Params { return in.params }

// Step advances s by dt.
//
// Precondition: s is non-nil. body and others may be nil.
// Postcondition: when dt <= 0, s is unchanged. When the entity ends the step
// grounded its vertical velocity is zero.
func (in *Integrator) Step(s *State, body *collision.Body, others []*collision.Body, dt float64) Result {
	var res Result
	if dt <= 0 {
		return res
	}
	if !(s.Grounded && in.terrain != nil) {
		s.Velocity[1] -= in.params.Gravity * dt
	}

	old := s.Position
	candidate := old.Add(s.Velocity.Mul(dt))

	if body != nil {
		for _, o := range others {
			if o == nil || o == body {
				continue
			}
			box := body.At(candidate)
			if !box.Intersects(o.World()) {
				continue
			}
			candidate = candidate.Add(box.MinTranslation(o.World()))
			res.Pushes++
		}
	}

	wasGrounded := s.Grounded
	if in.terrain == nil {
		in.floor(s, candidate)
	} else {
		res.Blocked = in.follow(s, old, candidate, dt)
	}
	res.Landed = !wasGrounded && s.Grounded
	return res
}

func (in *Integrator) floor(s *State, candidate geom.Vec3) {
	if candidate.Y() <= 0 {
		candidate[1] = 0
		s.Velocity[1] = 0
		s.Grounded = true
	} else {
		s.Grounded = false
	}
	s.Position = candidate
}

// follow resolves candidate against the terrain and reports whether the
// horizontal move was blocked.
func (in *Integrator) follow(s *State, old, candidate geom.Vec3, dt float64) bool {
	groundY, ok := in.terrain.GroundBelow(candidate, in.params.ProbeHeight)
	if !ok {
		s.Position = candidate
		s.Grounded = false
		return false
	}

	rise := groundY - old.Y()
	limit := in.params.StepHeight + stepTolerance
	if s.Grounded {
		if rise <= limit && rise >= -limit {
			s.Position = geom.V(candidate.X(), groundY, candidate.Z())
			s.Velocity[1] = 0
			return false
		}
		in.block(s, old, dt)
		return true
	}

	if rise > limit {
		in.block(s, old, dt)
		return true
	}
	if candidate.Y() <= groundY {
		candidate[1] = groundY
		if s.Velocity.Y() <= 0 {
			s.Velocity[1] = 0
			s.Grounded = true
		}
	}
	s.Position = candidate
	return false
}

// block keeps the old XZ, applies only the vertical move and re-grounds
// against the terrain under the old position.
func (in *Integrator) block(s *State, old geom.Vec3, dt float64) {
	pos := geom.V(old.X(), old.Y()+s.Velocity.Y()*dt, old.Z())
	groundY, ok := in.terrain.GroundBelow(pos, in.params.ProbeHeight)
	if ok && pos.Y() <= groundY+stepTolerance && s.Velocity.Y() <= 0 {
		pos[1] = groundY
		s.Velocity[1] = 0
		s.Grounded = true
	} else if !ok || pos.Y() > groundY+stepTolerance {
		s.Grounded = false
	}
	s.Position = pos
}
