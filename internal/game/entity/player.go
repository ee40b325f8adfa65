package entity

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/fsm"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// Player state names.
const (
	PlayerIdle    = "Idle"
	PlayerMove    = "Move"
	PlayerJump    = "Jump"
	PlayerRoll    = "Roll"
	PlayerAttack1 = "Attack1"
	PlayerAttack2 = "Attack2"
	PlayerAttack3 = "Attack3"
	PlayerHurt    = "Hurt"
	PlayerDead    = "Dead"
)

// PlayerConfig tunes the player character.
type PlayerConfig struct {
	MaxHealth    float64 `mapstructure:"max_health" yaml:"max_health"`
	WalkSpeed    float64 `mapstructure:"walk_speed" yaml:"walk_speed"`
	RunSpeed     float64 `mapstructure:"run_speed" yaml:"run_speed"`
	JumpSpeed    float64 `mapstructure:"jump_speed" yaml:"jump_speed"`
	RollDuration float64 `mapstructure:"roll_duration" yaml:"roll_duration"`
	RollSpeedMul float64 `mapstructure:"roll_speed_mul" yaml:"roll_speed_mul"`
	HurtDuration float64 `mapstructure:"hurt_duration" yaml:"hurt_duration"`
	JumpGuard    float64 `mapstructure:"jump_guard" yaml:"jump_guard"`
	JumpFallback float64 `mapstructure:"jump_fallback" yaml:"jump_fallback"`

	// ComboOpen and ComboClose bound the combo window as fractions of the
	// attack duration; AttackEnd is when an unchained attack finishes.
	ComboOpen      float64 `mapstructure:"combo_open" yaml:"combo_open"`
	ComboClose     float64 `mapstructure:"combo_close" yaml:"combo_close"`
	AttackEnd      float64 `mapstructure:"attack_end" yaml:"attack_end"`
	AttackDuration float64 `mapstructure:"attack_duration" yaml:"attack_duration"`
	AttackReach    float64 `mapstructure:"attack_reach" yaml:"attack_reach"`
}

// DefaultPlayerConfig returns 100 hp, walk 150, run 300, jump 450, a 0.45 s
// roll at 1.25x run speed, 0.35 s hurt, and a combo window of 20% to 65% of a
// 0.6 s attack ending at 95%.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		MaxHealth:      100,
		WalkSpeed:      150,
		RunSpeed:       300,
		JumpSpeed:      450,
		RollDuration:   0.45,
		RollSpeedMul:   1.25,
		HurtDuration:   0.35,
		JumpGuard:      0.08,
		JumpFallback:   0.35,
		ComboOpen:      0.20,
		ComboClose:     0.65,
		AttackEnd:      0.95,
		AttackDuration: 0.6,
		AttackReach:    80,
	}
}

func (c PlayerConfig) withDefaults() PlayerConfig {
	d := DefaultPlayerConfig()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.MaxHealth, d.MaxHealth)
	fill(&c.WalkSpeed, d.WalkSpeed)
	fill(&c.RunSpeed, d.RunSpeed)
	fill(&c.JumpSpeed, d.JumpSpeed)
	fill(&c.RollDuration, d.RollDuration)
	fill(&c.RollSpeedMul, d.RollSpeedMul)
	fill(&c.HurtDuration, d.HurtDuration)
	fill(&c.JumpGuard, d.JumpGuard)
	fill(&c.JumpFallback, d.JumpFallback)
	fill(&c.ComboOpen, d.ComboOpen)
	fill(&c.ComboClose, d.ComboClose)
	fill(&c.AttackEnd, d.AttackEnd)
	fill(&c.AttackDuration, d.AttackDuration)
	fill(&c.AttackReach, d.AttackReach)
	return c
}

// MoveIntent is the player's requested horizontal movement.
type MoveIntent struct {
	// Dir is the desired direction on the XZ plane; its length is ignored.
	Dir geom.Vec3
	Run bool
}

// Active reports whether the intent asks for movement.
func (m MoveIntent) Active() bool {
	_, ok := geom.SafeNormalize(geom.Flatten(m.Dir))
	return ok
}

// Player is the controllable character.
type Player struct {
	Base
	cfg         PlayerConfig
	machine     *fsm.Machine[*Player]
	intent      MoveIntent
	comboQueued bool
}

// NewPlayer creates a player at pos in the Idle state.
func NewPlayer(name string, pos geom.Vec3, body *collision.Body, stats combat.Stats, cfg PlayerConfig, deps Deps) *Player {
	cfg = cfg.withDefaults()
	p := &Player{
		Base: newBase(KindPlayer, name, pos, body, cfg.MaxHealth, stats, deps),
		cfg:  cfg,
	}
	p.machine = fsm.New(p)
	registerAll[*Player](p.machine,
		&playerIdle{}, &playerMove{}, &playerJump{}, &playerRoll{},
		&playerAttack{name: PlayerAttack1, clip: "attack1", next: PlayerAttack2},
		&playerAttack{name: PlayerAttack2, clip: "attack2", next: PlayerAttack3},
		&playerAttack{name: PlayerAttack3, clip: "attack3"},
		&playerHurt{}, &playerDead{},
	)
	p.machine.OnTransition(func(from, to string) {
		p.logger.Debug("state change", zap.String("from", from), zap.String("to", to))
	})
	p.machine.Change(PlayerIdle)
	return p
}

// Config returns the player tuning.
func (p *Player) Config() PlayerConfig { return p.cfg }

// StateName returns the current state name.
func (p *Player) StateName() string { return p.machine.CurrentName() }

// SetMoveIntent replaces the movement intent.
func (p *Player) SetMoveIntent(m MoveIntent) { p.intent = m }

// MoveIntent returns the current movement intent.
func (p *Player) MoveIntent() MoveIntent { return p.intent }

func (p *Player) acceptsCommands() bool {
	switch p.machine.CurrentName() {
	case PlayerIdle, PlayerMove:
		return true
	}
	return false
}

// Jump launches the player when grounded and free to act, and reports whether
// it did.
func (p *Player) Jump() bool {
	if !p.acceptsCommands() || !p.motion.Grounded {
		return false
	}
	p.motion.Velocity[1] = p.cfg.JumpSpeed
	p.motion.Grounded = false
	p.machine.Change(PlayerJump)
	return true
}

// Roll starts a dodge roll and reports whether it did.
func (p *Player) Roll() bool {
	if !p.acceptsCommands() {
		return false
	}
	p.machine.Change(PlayerRoll)
	return true
}

// AttackLight starts the combo, or buffers the next hit while an attack's
// combo window is still open. It reports whether the input was taken.
func (p *Player) AttackLight() bool {
	if p.acceptsCommands() {
		p.machine.Change(PlayerAttack1)
		return true
	}
	if a, ok := p.machine.Current().(*playerAttack); ok && a.acceptsBuffer(p) {
		p.comboQueued = true
		return true
	}
	return false
}

// TakeHit applies damage from attacker.
//
// Postcondition: a landed hit enters Hurt, or Dead when it kills.
func (p *Player) TakeHit(amount float64, attacker string) bool {
	if p.health.TakeDamage(amount, attacker) <= 0 {
		return false
	}
	if p.health.IsDead() {
		p.machine.Change(PlayerDead)
		return true
	}
	if p.machine.CurrentName() == PlayerHurt {
		// Restart the reaction.
		p.machine.Current().Enter(p)
		return true
	}
	p.machine.Change(PlayerHurt)
	return true
}

// Step advances the player by one frame.
func (p *Player) Step(f Frame) {
	p.integrate(f)
	p.machine.Update(f.Dt)
}

// applyIntent writes walk or run velocity along the intent.
func (p *Player) applyIntent() {
	dir, ok := geom.SafeNormalize(geom.Flatten(p.intent.Dir))
	if !ok {
		p.stop()
		return
	}
	speed := p.cfg.WalkSpeed
	if p.intent.Run {
		speed = p.cfg.RunSpeed
	}
	p.motion.Velocity[0] = dir[0] * speed
	p.motion.Velocity[2] = dir[2] * speed
	p.face(dir)
}

// settle returns to Move or Idle depending on the intent.
func (p *Player) settle() {
	if p.intent.Active() {
		p.machine.Change(PlayerMove)
		return
	}
	p.machine.Change(PlayerIdle)
}
