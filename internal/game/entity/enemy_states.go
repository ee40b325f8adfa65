package entity

import (
	"math"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// deathCheck moves e to Dead when its health is gone and reports whether it did.
func (e *Enemy) deathCheck() bool {
	if !e.health.IsDead() {
		return false
	}
	e.machine.Change(ai.StateDead)
	return true
}

type enemyIdle struct {
	timer float64
	dwell float64
}

func (s *enemyIdle) Name() string { return ai.StateIdle }

func (s *enemyIdle) Enter(e *Enemy) {
	e.stop()
	e.play("idle", true)
	s.timer = 0
	s.dwell = e.roller.Range(e.cfg.IdleMin, e.cfg.IdleMax)
}

func (s *enemyIdle) Update(e *Enemy, dt float64) {
	if e.deathCheck() {
		return
	}
	if e.targetInView() && e.RequestState(ai.StateChase) {
		return
	}
	s.timer += dt
	if s.timer >= s.dwell {
		e.machine.Change(ai.StatePatrol)
	}
}

func (s *enemyIdle) Exit(*Enemy) {}

// enemyPatrol walks to a random point on the patrol circle around spawn.
type enemyPatrol struct {
	dest  geom.Vec3
	timer float64
	limit float64
}

func (s *enemyPatrol) Name() string { return ai.StatePatrol }

func (s *enemyPatrol) Enter(e *Enemy) {
	angle := e.roller.Range(0, 2*math.Pi)
	s.dest = e.spawn.Add(geom.V(math.Cos(angle)*e.cfg.PatrolRadius, 0, math.Sin(angle)*e.cfg.PatrolRadius))
	s.timer = 0
	s.limit = e.roller.Range(e.cfg.PatrolMin, e.cfg.PatrolMax)
	e.play("walk", true)
}

func (s *enemyPatrol) Update(e *Enemy, dt float64) {
	if e.deathCheck() {
		return
	}
	if e.targetInView() && e.RequestState(ai.StateChase) {
		return
	}
	s.timer += dt
	if geom.DistanceXZ(e.Position(), s.dest) <= e.cfg.ArriveThreshold || s.timer >= s.limit {
		e.machine.Change(ai.StateIdle)
		return
	}
	e.steerTo(s.dest)
}

func (s *enemyPatrol) Exit(e *Enemy) { e.stop() }

type enemyChase struct{}

func (s *enemyChase) Name() string { return ai.StateChase }

func (s *enemyChase) Enter(e *Enemy) { e.play("run", true) }

func (s *enemyChase) Update(e *Enemy, _ float64) {
	if e.deathCheck() {
		return
	}
	t, ok := e.liveTarget()
	if !ok {
		e.machine.Change(ai.StateReturn)
		return
	}
	if geom.DistanceXZ(e.Position(), e.spawn) > e.cfg.MaxChaseRange {
		e.leashed = true
		e.machine.Change(ai.StateReturn)
		return
	}
	dist := e.targetDistance()
	if dist <= e.cfg.AttackRange && e.canAttack() {
		e.machine.Change(ai.StateAttack)
		return
	}
	if dist > e.cfg.ViewRange && !e.brain.Alert() {
		e.machine.Change(ai.StateReturn)
		return
	}
	e.steerTo(t.Position())
}

func (s *enemyChase) Exit(e *Enemy) { e.stop() }

type enemyReturn struct{}

func (s *enemyReturn) Name() string { return ai.StateReturn }

func (s *enemyReturn) Enter(e *Enemy) { e.play("walk", true) }

func (s *enemyReturn) Update(e *Enemy, _ float64) {
	if e.deathCheck() {
		return
	}
	if geom.DistanceXZ(e.Position(), e.spawn) <= e.cfg.ArriveThreshold {
		e.leashed = false
		e.machine.Change(ai.StatePatrol)
		return
	}
	e.steerTo(e.spawn)
}

func (s *enemyReturn) Exit(e *Enemy) { e.stop() }

// enemyAttack strikes every AttackCooldown seconds while the target stays
// in range.
type enemyAttack struct{}

func (s *enemyAttack) Name() string { return ai.StateAttack }

func (s *enemyAttack) Enter(e *Enemy) {
	e.stop()
	e.play("attack", true)
}

func (s *enemyAttack) Update(e *Enemy, _ float64) {
	if e.deathCheck() {
		return
	}
	t, ok := e.liveTarget()
	if !ok {
		e.machine.Change(ai.StateReturn)
		return
	}
	dist := e.targetDistance()
	if dist > e.cfg.ViewRange {
		e.machine.Change(ai.StateReturn)
		return
	}
	if dist > e.cfg.AttackRange {
		e.machine.Change(ai.StateChase)
		return
	}
	e.faceToward(t.Position())
	if e.canAttack() && e.cooldowns.TryStart(attackCooldownKey, e.cfg.AttackCooldown) {
		e.strike(e.cfg.AttackRange, e.stats)
	}
}

func (s *enemyAttack) Exit(*Enemy) {}

type enemyHit struct {
	timer float64
}

func (s *enemyHit) Name() string { return ai.StateHit }

func (s *enemyHit) Enter(e *Enemy) {
	s.timer = 0
	e.stop()
	e.play("hited", false)
}

func (s *enemyHit) Update(e *Enemy, dt float64) {
	if e.deathCheck() {
		return
	}
	s.timer += dt
	if s.timer < e.cfg.HitStun {
		return
	}
	dist := e.targetDistance()
	switch {
	case dist <= e.cfg.AttackRange:
		e.machine.Change(ai.StateAttack)
	case dist <= e.cfg.ViewRange:
		e.machine.Change(ai.StateChase)
	default:
		e.machine.Change(ai.StateReturn)
	}
}

func (s *enemyHit) Exit(*Enemy) {}

type enemyDead struct {
	timer float64
}

func (s *enemyDead) Name() string { return ai.StateDead }

func (s *enemyDead) Enter(e *Enemy) {
	s.timer = 0
	e.stop()
	e.play("dying", false)
	e.logger.Info("enemy died")
}

func (s *enemyDead) Update(e *Enemy, dt float64) {
	if e.removed {
		return
	}
	s.timer += dt
	if s.timer >= e.cfg.RemoveDelay {
		e.removed = true
		e.emit(event.EnemyDied, nil)
	}
}

func (s *enemyDead) Exit(*Enemy) {}
