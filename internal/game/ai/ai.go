// Package ai implements the decision layers that sit above entity state
// machines. Brains never move or animate anything: they only request state
// transitions and, for bosses, write the pending skill the Attack state runs.
package ai

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// State names shared by the brains and the entity state machines.
const (
	StateIdle        = "Idle"
	StatePatrol      = "Patrol"
	StateChase       = "Chase"
	StateReturn      = "Return"
	StateAttack      = "Attack"
	StateHit         = "Hit"
	StateDead        = "Dead"
	StatePhaseChange = "PhaseChange"
)

// Perception is what an entity senses about its target this frame.
type Perception struct {
	// TargetDetected is true when a living target is within view range.
	TargetDetected bool
	TargetPosition geom.Vec3
}

// Brain is a per-entity decision layer stepped once per frame, after
// movement and before the state machine.
type Brain interface {
	Update(p Perception, dt float64)
}

// ScriptCaller is the interface required to evaluate Lua hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given key's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error)
}
