package entity

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/ai"
	"github.com/cory-johannsen/actioncore/internal/game/collision"
	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/fsm"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// EnemyConfig tunes a regular enemy.
type EnemyConfig struct {
	MaxHealth       float64 `mapstructure:"max_health" yaml:"max_health"`
	MoveSpeed       float64 `mapstructure:"move_speed" yaml:"move_speed"`
	ViewRange       float64 `mapstructure:"view_range" yaml:"view_range"`
	MaxChaseRange   float64 `mapstructure:"max_chase_range" yaml:"max_chase_range"`
	AttackRange     float64 `mapstructure:"attack_range" yaml:"attack_range"`
	AttackCooldown  float64 `mapstructure:"attack_cooldown" yaml:"attack_cooldown"`
	HitStun         float64 `mapstructure:"hit_stun" yaml:"hit_stun"`
	RemoveDelay     float64 `mapstructure:"remove_delay" yaml:"remove_delay"`
	PatrolRadius    float64 `mapstructure:"patrol_radius" yaml:"patrol_radius"`
	ArriveThreshold float64 `mapstructure:"arrive_threshold" yaml:"arrive_threshold"`
	IdleMin         float64 `mapstructure:"idle_min" yaml:"idle_min"`
	IdleMax         float64 `mapstructure:"idle_max" yaml:"idle_max"`
	PatrolMin       float64 `mapstructure:"patrol_min" yaml:"patrol_min"`
	PatrolMax       float64 `mapstructure:"patrol_max" yaml:"patrol_max"`
	AlertDuration   float64 `mapstructure:"alert_duration" yaml:"alert_duration"`
}

// DefaultEnemyConfig returns the stock tuning: 100 hp, move 50, view 200,
// leash 1000, attack range 60 every 1 s, 0.5 s hit stun, removal 1.5 s after
// death, and a 100 unit patrol circle.
func DefaultEnemyConfig() EnemyConfig {
	return EnemyConfig{
		MaxHealth:       100,
		MoveSpeed:       50,
		ViewRange:       200,
		MaxChaseRange:   1000,
		AttackRange:     60,
		AttackCooldown:  1,
		HitStun:         0.5,
		RemoveDelay:     1.5,
		PatrolRadius:    100,
		ArriveThreshold: 10,
		IdleMin:         1,
		IdleMax:         3,
		PatrolMin:       3,
		PatrolMax:       7,
		AlertDuration:   ai.DefaultAlertDuration,
	}
}

// withDefaults replaces non-positive fields with the stock tuning.
func (c EnemyConfig) withDefaults() EnemyConfig {
	d := DefaultEnemyConfig()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.MaxHealth, d.MaxHealth)
	fill(&c.MoveSpeed, d.MoveSpeed)
	fill(&c.ViewRange, d.ViewRange)
	fill(&c.MaxChaseRange, d.MaxChaseRange)
	fill(&c.AttackRange, d.AttackRange)
	fill(&c.AttackCooldown, d.AttackCooldown)
	fill(&c.HitStun, d.HitStun)
	fill(&c.RemoveDelay, d.RemoveDelay)
	fill(&c.PatrolRadius, d.PatrolRadius)
	fill(&c.ArriveThreshold, d.ArriveThreshold)
	fill(&c.IdleMin, d.IdleMin)
	fill(&c.IdleMax, d.IdleMax)
	fill(&c.PatrolMin, d.PatrolMin)
	fill(&c.PatrolMax, d.PatrolMax)
	fill(&c.AlertDuration, d.AlertDuration)
	return c
}

const attackCooldownKey = "attack"

// Enemy is a regular enemy: it patrols around its spawn point, chases a
// target it sees and strikes it in melee range.
type Enemy struct {
	Base
	cfg       EnemyConfig
	spawn     geom.Vec3
	machine   *fsm.Machine[*Enemy]
	brain     *ai.NormalBrain
	cooldowns *combat.Cooldowns
	stun      float64
	// leashed is set when the enemy gave up a chase for straying too far and
	// is cleared once it is home.
	leashed bool
}

// NewEnemy creates an enemy at spawn in the Idle state.
//
// Postcondition: the enemy is alive, its state is Idle and its brain is attached.
func NewEnemy(name string, spawn geom.Vec3, body *collision.Body, stats combat.Stats, cfg EnemyConfig, deps Deps) *Enemy {
	cfg = cfg.withDefaults()
	e := &Enemy{
		Base:      newBase(KindEnemy, name, spawn, body, cfg.MaxHealth, stats, deps),
		cfg:       cfg,
		spawn:     spawn,
		cooldowns: combat.NewCooldowns(),
	}
	e.machine = fsm.New(e)
	registerAll[*Enemy](e.machine,
		&enemyIdle{}, &enemyPatrol{}, &enemyChase{}, &enemyReturn{},
		&enemyAttack{}, &enemyHit{}, &enemyDead{},
	)
	e.machine.OnTransition(func(from, to string) {
		e.logger.Debug("state change", zap.String("from", from), zap.String("to", to))
	})
	e.brain = ai.NewNormalBrain(e, cfg.AlertDuration)
	e.machine.Change(ai.StateIdle)
	return e
}

// Config returns the enemy's tuning.
func (e *Enemy) Config() EnemyConfig { return e.cfg }

// Spawn returns the anchor the enemy patrols around and returns to.
func (e *Enemy) Spawn() geom.Vec3 { return e.spawn }

// Brain returns the enemy's decision layer.
func (e *Enemy) Brain() *ai.NormalBrain { return e.brain }

// StateName returns the current state name.
func (e *Enemy) StateName() string { return e.machine.CurrentName() }

// CurrentState implements ai.NormalHost.
func (e *Enemy) CurrentState() string { return e.machine.CurrentName() }

// RequestState implements ai.NormalHost. A chase request is refused while
// the enemy is walking home after straying past its leash.
func (e *Enemy) RequestState(name string) bool {
	if name == ai.StateChase && e.leashed {
		return false
	}
	return request(e.machine, name)
}

// IsDead implements ai.NormalHost.
func (e *Enemy) IsDead() bool { return e.health.IsDead() }

// Stunned reports whether movement and attacks are disabled after a hit.
func (e *Enemy) Stunned() bool { return e.stun > 0 }

// TakeHit applies damage from attacker.
//
// Postcondition: a landed hit that leaves the enemy alive stuns it and enters
// Hit; a killing hit enters Dead.
func (e *Enemy) TakeHit(amount float64, attacker string) bool {
	if e.health.TakeDamage(amount, attacker) <= 0 {
		return false
	}
	if e.health.IsDead() {
		e.machine.Change(ai.StateDead)
		return true
	}
	e.stun = e.cfg.HitStun
	e.stop()
	e.machine.Change(ai.StateHit)
	return true
}

// Step advances the enemy by one frame.
func (e *Enemy) Step(f Frame) {
	if e.removed {
		return
	}
	if e.stun > 0 {
		e.stun -= f.Dt
		if e.stun <= 0 {
			e.stun = 0
		}
	}
	e.cooldowns.Advance(f.Dt)
	e.integrate(f)
	e.brain.Update(e.perceive(), f.Dt)
	e.machine.Update(f.Dt)
}

func (e *Enemy) perceive() ai.Perception {
	t, ok := e.liveTarget()
	if !ok {
		return ai.Perception{}
	}
	return ai.Perception{
		TargetDetected: e.targetDistance() <= e.cfg.ViewRange,
		TargetPosition: t.Position(),
	}
}

func (e *Enemy) targetInView() bool {
	return e.targetDistance() <= e.cfg.ViewRange
}

func (e *Enemy) canAttack() bool {
	return e.stun <= 0
}

// steerTo moves towards dest at move speed unless stunned.
func (e *Enemy) steerTo(dest geom.Vec3) {
	if e.stun > 0 {
		e.stop()
		return
	}
	e.steer(dest, e.cfg.MoveSpeed)
}
