package entity

import (
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

type playerIdle struct{}

func (s *playerIdle) Name() string { return PlayerIdle }

func (s *playerIdle) Enter(p *Player) {
	p.stop()
	p.play("idle", true)
}

func (s *playerIdle) Update(p *Player, _ float64) {
	if p.intent.Active() {
		p.machine.Change(PlayerMove)
	}
}

func (s *playerIdle) Exit(*Player) {}

type playerMove struct{}

func (s *playerMove) Name() string { return PlayerMove }

func (s *playerMove) Enter(p *Player) { p.play("move", true) }

func (s *playerMove) Update(p *Player, _ float64) {
	if !p.intent.Active() {
		p.machine.Change(PlayerIdle)
		return
	}
	p.applyIntent()
}

func (s *playerMove) Exit(*Player) {}

// playerJump waits for the player to leave the ground and land again. The
// guard keeps the take-off frame from counting as a landing.
type playerJump struct {
	timer      float64
	leftGround bool
}

func (s *playerJump) Name() string { return PlayerJump }

func (s *playerJump) Enter(p *Player) {
	s.timer = 0
	s.leftGround = false
	p.play("jump", false)
}

func (s *playerJump) Update(p *Player, dt float64) {
	s.timer += dt
	if !p.motion.Grounded {
		s.leftGround = true
	}
	if s.leftGround {
		if s.timer >= p.cfg.JumpGuard && p.motion.Grounded {
			p.settle()
		}
		return
	}
	if s.timer >= p.cfg.JumpFallback {
		p.settle()
	}
}

func (s *playerJump) Exit(*Player) {}

type playerRoll struct {
	timer float64
}

func (s *playerRoll) Name() string { return PlayerRoll }

func (s *playerRoll) Enter(p *Player) {
	s.timer = 0
	dir, ok := geom.SafeNormalize(geom.Flatten(p.intent.Dir))
	if !ok {
		dir = geom.V(0, 0, -1)
	}
	speed := p.cfg.RunSpeed * p.cfg.RollSpeedMul
	p.motion.Velocity[0] = dir[0] * speed
	p.motion.Velocity[2] = dir[2] * speed
	p.face(dir)
	p.health.SetInvincible(p.cfg.RollDuration)
	p.play("roll", false)
}

func (s *playerRoll) Update(p *Player, dt float64) {
	s.timer += dt
	if s.timer >= p.cfg.RollDuration {
		p.settle()
	}
}

func (s *playerRoll) Exit(p *Player) { p.stop() }

// playerAttack is one step of the three-hit light combo.
type playerAttack struct {
	name     string
	clip     string
	next     string
	timer    float64
	duration float64
	struck   bool
}

func (s *playerAttack) Name() string { return s.name }

func (s *playerAttack) Enter(p *Player) {
	s.timer = 0
	s.struck = false
	p.comboQueued = false
	s.duration = p.anim.Duration(s.clip)
	if s.duration <= 0 {
		s.duration = p.cfg.AttackDuration
	}
	p.stop()
	p.play(s.clip, false)
}

func (s *playerAttack) Update(p *Player, dt float64) {
	s.timer += dt
	open := p.cfg.ComboOpen * s.duration
	if !s.struck && s.timer >= open {
		s.struck = true
		p.strike(p.cfg.AttackReach, p.stats)
	}
	if p.comboQueued && s.next != "" && s.timer >= open {
		p.machine.Change(s.next)
		return
	}
	if s.timer >= p.cfg.AttackEnd*s.duration {
		p.settle()
	}
}

func (s *playerAttack) Exit(p *Player) { p.comboQueued = false }

// acceptsBuffer reports whether a follow-up input may still be buffered.
func (s *playerAttack) acceptsBuffer(p *Player) bool {
	return s.next != "" && s.timer <= p.cfg.ComboClose*s.duration
}

type playerHurt struct {
	timer float64
}

func (s *playerHurt) Name() string { return PlayerHurt }

func (s *playerHurt) Enter(p *Player) {
	s.timer = 0
	p.stop()
	p.play("hurt", false)
}

func (s *playerHurt) Update(p *Player, dt float64) {
	s.timer += dt
	if s.timer >= p.cfg.HurtDuration {
		p.settle()
	}
}

func (s *playerHurt) Exit(*Player) {}

type playerDead struct{}

func (s *playerDead) Name() string { return PlayerDead }

func (s *playerDead) Enter(p *Player) {
	p.stop()
	p.play("dying", false)
	p.logger.Info("player died")
	p.emit(event.PlayerDied, nil)
}

func (s *playerDead) Update(*Player, float64) {}

func (s *playerDead) Exit(*Player) {}
