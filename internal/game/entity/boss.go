package entity

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/event"
	"github.com/cory-johannsen/actioncore/internal/game/fsm"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
)

// BossConfig tunes a boss.
type BossConfig struct {
	MaxHealth     float64 `mapstructure:"max_health" yaml:"max_health"`
	MoveSpeed     float64 `mapstructure:"move_speed" yaml:"move_speed"`
	ViewRange     float64 `mapstructure:"view_range" yaml:"view_range"`
	MaxChaseRange float64 `mapstructure:"max_chase_range" yaml:"max_chase_range"`
	Stagger       float64 `mapstructure:"stagger" yaml:"stagger"`
	MoveBuff      float64 `mapstructure:"move_buff" yaml:"move_buff"`
	DamageBuff    float64 `mapstructure:"damage_buff" yaml:"damage_buff"`
	HitDuration   float64 `mapstructure:"hit_duration" yaml:"hit_duration"`
	RemoveDelay   float64 `mapstructure:"remove_delay" yaml:"remove_delay"`

	// PhaseTwoFullHeal restores full health on entering phase two.
	PhaseTwoFullHeal bool          `mapstructure:"phase_two_full_heal" yaml:"phase_two_full_heal"`
	AI               ai.BossConfig `mapstructure:"ai" yaml:"ai"`
}

// DefaultBossConfig returns the stock tuning: 1000 hp, move 40, view 500,
// leash 500, a 3.5 s phase-change stagger followed by a 1.2x move and 1.15x
// damage buff, a 0.8 s hit reaction and removal 3 s after death.
func DefaultBossConfig() BossConfig {
	return BossConfig{
		MaxHealth:     1000,
		MoveSpeed:     40,
		ViewRange:     500,
		MaxChaseRange: 500,
		Stagger:       3.5,
		MoveBuff:      1.2,
		DamageBuff:    1.15,
		HitDuration:   0.8,
		RemoveDelay:   3,
		AI:            ai.DefaultBossConfig(),
	}
}

func (c BossConfig) withDefaults() BossConfig {
	d := DefaultBossConfig()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.MaxHealth, d.MaxHealth)
	fill(&c.MoveSpeed, d.MoveSpeed)
	fill(&c.ViewRange, d.ViewRange)
	fill(&c.MaxChaseRange, d.MaxChaseRange)
	fill(&c.Stagger, d.Stagger)
	fill(&c.MoveBuff, d.MoveBuff)
	fill(&c.DamageBuff, d.DamageBuff)
	fill(&c.HitDuration, d.HitDuration)
	fill(&c.RemoveDelay, d.RemoveDelay)
	return c
}

// Boss is a boss enemy driven by a skill-picking brain.
//
// Invariant: the phase only ever moves from 1 to 2.
type Boss struct {
	Base
	cfg     BossConfig
	spawn   geom.Vec3
	machine *fsm.Machine[*Boss]
	brain   *ai.BossBrain

	phase   int
	moveMul float64
	dmgMul  float64
	pending string
}

// NewBoss creates a boss at spawn choosing from table, in the Chase state.
// A nil table uses skill.DefaultTable().
func NewBoss(name string, spawn geom.Vec3, body *collision.Body, stats combat.Stats, table *skill.Table, cfg BossConfig, deps Deps) *Boss {
	cfg = cfg.withDefaults()
	if table == nil {
		table = skill.DefaultTable()
	}
	b := &Boss{
		Base:    newBase(KindBoss, name, spawn, body, cfg.MaxHealth, stats, deps),
		cfg:     cfg,
		spawn:   spawn,
		phase:   skill.PhaseOne,
		moveMul: 1,
		dmgMul:  1,
	}
	b.machine = fsm.New(b)
	registerAll[*Boss](b.machine,
		&bossIdle{}, &bossChase{}, &bossAttack{}, &bossPhaseChange{},
		&bossHit{}, &bossDead{},
	)
	b.machine.OnTransition(func(from, to string) {
		b.logger.Debug("state change", zap.String("from", from), zap.String("to", to))
	})
	b.brain = ai.NewBossBrain(b, table, b.roller, cfg.AI, b.logger)
	b.machine.Change(ai.StateChase)
	return b
}

// Config returns the boss tuning.
func (b *Boss) Config() BossConfig { return b.cfg }

// Brain returns the boss's decision layer.
func (b *Boss) Brain() *ai.BossBrain { return b.brain }

// Phase returns 1 or 2.
func (b *Boss) Phase() int { return b.phase }

// Multipliers returns the move and damage multipliers.
func (b *Boss) Multipliers() (move, damage float64) { return b.moveMul, b.dmgMul }

// SetTable swaps the skill table, e.g. after a content reload.
//
// Precondition: t must be non-nil.
func (b *Boss) SetTable(t *skill.Table) { b.brain.SetTable(t) }

// StateName returns the current state name.
func (b *Boss) StateName() string { return b.machine.CurrentName() }

// CurrentState implements ai.BossHost.
func (b *Boss) CurrentState() string { return b.machine.CurrentName() }

// RequestState implements ai.BossHost.
func (b *Boss) RequestState(name string) bool { return request(b.machine, name) }

// IsDead implements ai.BossHost.
func (b *Boss) IsDead() bool { return b.health.IsDead() }

// IsBusy implements ai.BossHost.
func (b *Boss) IsBusy() bool {
	switch b.machine.CurrentName() {
	case ai.StateAttack, ai.StatePhaseChange, ai.StateHit, ai.StateDead:
		return true
	}
	return false
}

// HealthRatio implements ai.BossHost.
func (b *Boss) HealthRatio() float64 { return b.health.Percentage() }

// TargetDistance implements ai.BossHost: the horizontal distance to a live
// target within view range, +Inf otherwise.
func (b *Boss) TargetDistance() float64 {
	d := b.targetDistanceXZ()
	if d > b.cfg.ViewRange {
		return math.Inf(1)
	}
	return d
}

// SetPendingSkill implements ai.BossHost.
func (b *Boss) SetPendingSkill(id string) { b.pending = id }

// EnterPhaseTwo implements ai.BossHost.
func (b *Boss) EnterPhaseTwo() {
	if b.phase == skill.PhaseTwo {
		return
	}
	b.phase = skill.PhaseTwo
	if b.cfg.PhaseTwoFullHeal {
		b.health.FullHeal()
	}
	b.logger.Info("boss phase two", zap.Bool("full_heal", b.cfg.PhaseTwoFullHeal))
	b.emit(event.PhaseChanged, map[string]any{"phase": b.phase})
}

// TakeHit applies damage from attacker. The hit reaction only plays when the
// boss is not committed to another action.
func (b *Boss) TakeHit(amount float64, attacker string) bool {
	if b.health.TakeDamage(amount, attacker) <= 0 {
		return false
	}
	if b.health.IsDead() {
		b.machine.Change(ai.StateDead)
		return true
	}
	if !b.IsBusy() {
		b.machine.Change(ai.StateHit)
	}
	return true
}

// Step advances the boss by one frame.
func (b *Boss) Step(f Frame) {
	if b.removed {
		return
	}
	b.integrate(f)
	b.brain.Update(b.perceive(), f.Dt)
	b.machine.Update(f.Dt)
}

func (b *Boss) perceive() ai.Perception {
	t, ok := b.liveTarget()
	if !ok {
		return ai.Perception{}
	}
	return ai.Perception{
		TargetDetected: b.targetDistanceXZ() <= b.cfg.ViewRange,
		TargetPosition: t.Position(),
	}
}

func (b *Boss) deathCheck() bool {
	if !b.health.IsDead() {
		return false
	}
	b.machine.Change(ai.StateDead)
	return true
}
