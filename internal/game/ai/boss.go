package ai

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/combat"
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/skill"
)

// BossHost is the view of a boss entity its brain drives.
type BossHost interface {
	CurrentState() string
	// RequestState asks the entity's state machine to transition; it reports
	// whether the named state exists.
	RequestState(name string) bool
	IsDead() bool
	// IsBusy reports whether the boss is in a state a decision must not
	// interrupt (Attack, Hit, PhaseChange, Dead).
	IsBusy() bool
	HealthRatio() float64
	// TargetDistance returns the distance to the current target, or +Inf when
	// there is none.
	TargetDistance() float64
	SetPendingSkill(id string)
	// EnterPhaseTwo applies the phase-two entry effects (phase number, optional
	// full heal). The brain calls it exactly once.
	EnterPhaseTwo()
}

// BossConfig tunes a BossBrain.
type BossConfig struct {
	ThinkInterval     float64        `mapstructure:"think_interval" yaml:"think_interval"`
	PhaseTwoThreshold float64        `mapstructure:"phase_two_threshold" yaml:"phase_two_threshold"`
	IntentBias        float64        `mapstructure:"intent_bias" yaml:"intent_bias"`
	Director          DirectorConfig `mapstructure:"director" yaml:"director"`
}

// DefaultBossConfig returns a 100 ms think interval, a phase-two threshold of
// half health and a 1.5x weight bias for skills matching the director intent.
func DefaultBossConfig() BossConfig {
	return BossConfig{
		ThinkInterval:     0.1,
		PhaseTwoThreshold: 0.5,
		IntentBias:        1.5,
		Director:          DefaultDirectorConfig(),
	}
}

// DecisionKind classifies the outcome of one think.
type DecisionKind int

// Decision kinds.
const (
	DecisionNone DecisionKind = iota
	DecisionPhaseChange
	DecisionAttack
	DecisionChase
)

// String returns the kind name.
func (k DecisionKind) String() string {
	switch k {
	case DecisionPhaseChange:
		return "phase_change"
	case DecisionAttack:
		return "attack"
	case DecisionChase:
		return "chase"
	default:
		return "none"
	}
}

// Decision is the outcome of one think.
type Decision struct {
	Kind  DecisionKind
	Skill string
}

// SelectionContext is what a Selector sees when choosing among candidates.
type SelectionContext struct {
	Phase       int
	Distance    float64
	HealthRatio float64
	Intent      skill.Intent
	Candidates  []*skill.Definition
}

// Selector overrides the weighted pick. A returned id that is not one of the
// candidates is ignored.
type Selector interface {
	Select(ctx SelectionContext) (string, bool)
}

// BossBrain picks boss skills on a fixed think interval.
//
// Invariant: phase two is entered at most once per brain.
// Invariant: a picked skill is usable in the current phase, in range and off
// cooldown at the moment it is picked.
type BossBrain struct {
	host      BossHost
	table     *skill.Table
	roller    *dice.Roller
	cfg       BossConfig
	logger    *zap.Logger
	director  *Director
	cooldowns *combat.Cooldowns
	selector  Selector

	phase       int
	phaseTwoHit bool
	accum       float64
	sinceThink  float64
	last        Decision
}

// NewBossBrain creates a brain for host choosing from table.
//
// Precondition: host, table and roller must be non-nil. A nil logger disables
// logging. Non-positive config values fall back to DefaultBossConfig.
func NewBossBrain(host BossHost, table *skill.Table, roller *dice.Roller, cfg BossConfig, logger *zap.Logger) *BossBrain {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultBossConfig()
	if cfg.ThinkInterval <= 0 {
		cfg.ThinkInterval = def.ThinkInterval
	}
	if cfg.PhaseTwoThreshold <= 0 {
		cfg.PhaseTwoThreshold = def.PhaseTwoThreshold
	}
	if cfg.IntentBias <= 0 {
		cfg.IntentBias = def.IntentBias
	}
	if cfg.Director == (DirectorConfig{}) {
		cfg.Director = def.Director
	}
	return &BossBrain{
		host:      host,
		table:     table,
		roller:    roller,
		cfg:       cfg,
		logger:    logger,
		director:  NewDirector(cfg.Director),
		cooldowns: combat.NewCooldowns(),
		phase:     skill.PhaseOne,
	}
}

// SetSelector installs a selector consulted before the weighted pick; nil
// removes it.
func (b *BossBrain) SetSelector(s Selector) { b.selector = s }

// SetTable swaps the skill table. Cooldowns carry over by skill id.
//
// Precondition: t must be non-nil.
func (b *BossBrain) SetTable(t *skill.Table) { b.table = t }

// Table returns the active skill table.
func (b *BossBrain) Table() *skill.Table { return b.table }

// Phase returns the boss phase, 1 or 2.
func (b *BossBrain) Phase() int { return b.phase }

// Director returns the pacing director.
func (b *BossBrain) Director() *Director { return b.director }

// Cooldown returns the seconds left on the named skill's cooldown.
func (b *BossBrain) Cooldown(id string) float64 { return b.cooldowns.Remaining(id) }

// LastDecision returns the most recent think outcome.
func (b *BossBrain) LastDecision() Decision { return b.last }

// Update advances the director every frame and thinks once per ThinkInterval.
func (b *BossBrain) Update(p Perception, dt float64) {
	b.director.Update(dt, b.host.CurrentState(), p.TargetDetected, b.host.TargetDistance())
	b.accum += dt
	b.sinceThink += dt
	if b.accum < b.cfg.ThinkInterval {
		return
	}
	// Keep the remainder so thinks stay on the interval grid; a long frame
	// still thinks only once.
	b.accum = math.Mod(b.accum-b.cfg.ThinkInterval, b.cfg.ThinkInterval)
	elapsed := b.sinceThink
	b.sinceThink = 0
	b.Think(elapsed)
}

// Think runs one decision with elapsed seconds since the previous one.
//
// Postcondition: at most one state is requested.
func (b *BossBrain) Think(elapsed float64) Decision {
	b.cooldowns.Advance(elapsed)
	b.last = b.think()
	return b.last
}

func (b *BossBrain) think() Decision {
	if b.host.IsDead() || b.host.IsBusy() {
		return Decision{}
	}

	if !b.phaseTwoHit && b.host.HealthRatio() <= b.cfg.PhaseTwoThreshold {
		b.phaseTwoHit = true
		b.phase = skill.PhaseTwo
		b.host.EnterPhaseTwo()
		b.host.RequestState(StatePhaseChange)
		b.logger.Info("boss entering phase two",
			zap.Float64("health_ratio", b.host.HealthRatio()))
		return Decision{Kind: DecisionPhaseChange}
	}

	dist := b.host.TargetDistance()
	if math.IsInf(dist, 1) || math.IsNaN(dist) {
		return Decision{}
	}

	candidates := b.candidates(dist)
	chosen := b.pick(candidates, dist)
	if chosen == nil {
		b.host.RequestState(StateChase)
		return Decision{Kind: DecisionChase}
	}

	b.host.SetPendingSkill(chosen.ID)
	b.cooldowns.Start(chosen.ID, chosen.Cooldown)
	b.host.RequestState(StateAttack)
	b.logger.Debug("boss picked skill",
		zap.String("skill", chosen.ID),
		zap.Int("phase", b.phase),
		zap.Float64("distance", dist),
		zap.String("intent", string(b.director.Intent())),
	)
	return Decision{Kind: DecisionAttack, Skill: chosen.ID}
}

func (b *BossBrain) candidates(dist float64) []*skill.Definition {
	var out []*skill.Definition
	for i := range b.table.Skills {
		s := &b.table.Skills[i]
		if s.UsableIn(b.phase) && s.InRange(dist) && b.cooldowns.Ready(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

func (b *BossBrain) pick(candidates []*skill.Definition, dist float64) *skill.Definition {
	if len(candidates) == 0 {
		return nil
	}

	// Phase two closes distance first when the target is far away.
	if b.phase == skill.PhaseTwo && dist >= b.table.LongRange {
		for _, c := range candidates {
			if c.Closing {
				return c
			}
		}
	}

	if b.selector != nil {
		id, ok := b.selector.Select(SelectionContext{
			Phase:       b.phase,
			Distance:    dist,
			HealthRatio: b.host.HealthRatio(),
			Intent:      b.director.Intent(),
			Candidates:  candidates,
		})
		if ok {
			for _, c := range candidates {
				if c.ID == id {
					return c
				}
			}
			b.logger.Debug("selector returned unknown skill", zap.String("skill", id))
		}
	}

	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = c.Weight * b.director.Bias(c, b.cfg.IntentBias)
	}
	idx := b.roller.WeightedIndex(weights)
	if idx < 0 {
		return nil
	}
	return candidates[idx]
}
