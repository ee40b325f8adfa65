package entity

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
)

type bossIdle struct{}

func (s *bossIdle) Name() string { return ai.StateIdle }

func (s *bossIdle) Enter(b *Boss) {
	b.stop()
	b.play("idle", true)
}

func (s *bossIdle) Update(b *Boss, _ float64) {
	if b.deathCheck() {
		return
	}
	if !math.IsInf(b.TargetDistance(), 1) {
		b.machine.Change(ai.StateChase)
	}
}

func (s *bossIdle) Exit(*Boss) {}

// bossChase steers at the target. The boss holds position rather than step
// past its leash around spawn.
type bossChase struct{}

func (s *bossChase) Name() string { return ai.StateChase }

func (s *bossChase) Enter(b *Boss) { b.play("run", true) }

func (s *bossChase) Update(b *Boss, dt float64) {
	if b.deathCheck() {
		return
	}
	if math.IsInf(b.TargetDistance(), 1) {
		b.machine.Change(ai.StateIdle)
		return
	}
	t, _ := b.liveTarget()
	b.steer(t.Position(), b.cfg.MoveSpeed*b.moveMul)
	next := b.Position().Add(geom.Flatten(b.Velocity()).Mul(dt))
	if geom.DistanceXZ(next, b.spawn) > b.cfg.MaxChaseRange &&
		geom.DistanceXZ(next, b.spawn) > geom.DistanceXZ(b.Position(), b.spawn) {
		b.stop()
	}
}

func (s *bossChase) Exit(b *Boss) { b.stop() }

type attackStage int

const (
	stageWindup attackStage = iota
	stageMove
	stageActive
	stageRecovery
)

// bossAttack runs one skill through Windup, an optional Move, Active and
// Recovery, then returns to Chase.
//
// Invariant: at most one hit check per activation.
type bossAttack struct {
	def      *skill.Definition
	stage    attackStage
	timer    float64
	lockPos  geom.Vec3
	locked   bool
	moveFrom geom.Vec3
	moveTo   geom.Vec3
	hitDone  bool
}

func (s *bossAttack) Name() string { return ai.StateAttack }

func (s *bossAttack) Enter(b *Boss) {
	b.stop()
	s.def = b.takePendingSkill()
	s.stage = stageWindup
	s.timer = 0
	s.hitDone = false
	s.locked = false
	if s.def == nil {
		return
	}
	if t, ok := b.liveTarget(); ok {
		b.faceToward(t.Position())
		if s.def.LockTarget {
			s.lockPos = t.Position()
			s.locked = true
		}
	}
	b.play(s.def.AnimName(), false)
	b.logger.Debug("boss skill", zap.String("skill", s.def.ID))
}

func (s *bossAttack) Update(b *Boss, dt float64) {
	if b.deathCheck() {
		return
	}
	if s.def == nil {
		b.machine.Change(ai.StateChase)
		return
	}
	b.stop()
	s.timer += dt
	switch s.stage {
	case stageWindup:
		if !s.locked {
			if t, ok := b.liveTarget(); ok {
				b.faceToward(t.Position())
			}
		}
		if s.timer >= s.def.Windup {
			s.timer = 0
			if s.def.MoveTime > 0 {
				s.beginMove(b)
				s.stage = stageMove
			} else {
				s.stage = stageActive
			}
		}
	case stageMove:
		frac := math.Min(1, s.timer/s.def.MoveTime)
		pos := geom.Lerp(s.moveFrom, s.moveTo, frac)
		pos[1] = b.Position().Y()
		b.motion.Position = pos
		b.body.Update(pos)
		if frac >= 1 {
			s.timer = 0
			s.stage = stageActive
		}
	case stageActive:
		if !s.hitDone {
			s.hitDone = true
			s.applyHit(b)
		}
		if s.timer >= s.def.Active {
			s.timer = 0
			s.stage = stageRecovery
			if s.def.FollowAnim != "" {
				b.play(s.def.FollowAnim, false)
			}
		}
	case stageRecovery:
		if s.timer >= s.def.Recovery {
			b.machine.Change(ai.StateChase)
		}
	}
}

func (s *bossAttack) Exit(*Boss) { s.def = nil }

// beginMove aims the move at the target minus the skill's stand-off distance.
func (s *bossAttack) beginMove(b *Boss) {
	s.moveFrom = b.Position()
	s.moveTo = s.moveFrom
	aim := s.lockPos
	if !s.locked {
		t, ok := b.liveTarget()
		if !ok {
			return
		}
		aim = t.Position()
	}
	delta := geom.Flatten(aim.Sub(s.moveFrom))
	dir, ok := geom.SafeNormalize(delta)
	if !ok {
		return
	}
	want := math.Max(0, delta.Len()-s.def.StandOff)
	s.moveTo = s.moveFrom.Add(dir.Mul(want))
	b.face(dir)
}

func (s *bossAttack) applyHit(b *Boss) {
	if s.def.Damage <= 0 {
		return
	}
	t, ok := b.liveTarget()
	if !ok {
		return
	}
	if geom.Distance(b.Position(), t.Position()) > s.def.HitRadius {
		return
	}
	if t.TakeHit(s.def.Damage*b.dmgMul, b.id) {
		b.logger.Debug("boss skill hit", zap.String("skill", s.def.ID), zap.String("target", t.ID()))
	}
}

// takePendingSkill consumes the pending skill id, falling back to the table
// default.
func (b *Boss) takePendingSkill() *skill.Definition {
	id := b.pending
	b.pending = ""
	table := b.brain.Table()
	if def, ok := table.Skill(id); ok {
		return def
	}
	return table.DefaultSkill()
}

// bossPhaseChange staggers the boss, then applies the phase-two buff.
type bossPhaseChange struct {
	timer float64
}

func (s *bossPhaseChange) Name() string { return ai.StatePhaseChange }

func (s *bossPhaseChange) Enter(b *Boss) {
	s.timer = 0
	b.stop()
	b.play("roar", false)
}

func (s *bossPhaseChange) Update(b *Boss, dt float64) {
	if b.deathCheck() {
		return
	}
	s.timer += dt
	if s.timer < b.cfg.Stagger {
		return
	}
	b.moveMul = b.cfg.MoveBuff
	b.dmgMul = b.cfg.DamageBuff
	b.machine.Change(ai.StateChase)
}

func (s *bossPhaseChange) Exit(*Boss) {}

type bossHit struct {
	timer float64
}

func (s *bossHit) Name() string { return ai.StateHit }

func (s *bossHit) Enter(b *Boss) {
	s.timer = 0
	b.stop()
	b.play("hited", false)
}

func (s *bossHit) Update(b *Boss, dt float64) {
	if b.deathCheck() {
		return
	}
	s.timer += dt
	if s.timer >= b.cfg.HitDuration {
		b.machine.Change(ai.StateChase)
	}
}

func (s *bossHit) Exit(*Boss) {}

type bossDead struct {
	timer float64
}

func (s *bossDead) Name() string { return ai.StateDead }

func (s *bossDead) Enter(b *Boss) {
	s.timer = 0
	b.stop()
	b.play("dying", false)
	b.logger.Info("boss died", zap.Int("phase", b.phase))
}

func (s *bossDead) Update(b *Boss, dt float64) {
	if b.removed {
		return
	}
	s.timer += dt
	if s.timer >= b.cfg.RemoveDelay {
		b.removed = true
		b.emit(event.EnemyDied, map[string]any{"boss": true})
	}
}

func (s *bossDead) Exit(*Boss) {}
