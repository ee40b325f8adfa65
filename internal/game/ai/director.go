package ai

import "github.com/cory-johannsen/actioncore/internal/game/skill"

// CombatPhase is a coarse pacing beat of a boss fight.
type CombatPhase int

// Combat phases.
const (
	PhaseOpening CombatPhase = iota
	PhasePressure
	PhaseRecovery
	PhasePunish
)

// String returns the phase name.
func (p CombatPhase) String() string {
	switch p {
	case PhaseOpening:
		return "opening"
	case PhasePressure:
		return "pressure"
	case PhaseRecovery:
		return "recovery"
	case PhasePunish:
		return "punish"
	default:
		return "unknown"
	}
}

// DirectorConfig tunes the pacing timers.
type DirectorConfig struct {
	PhaseMin      float64 `mapstructure:"phase_min" yaml:"phase_min"`
	Pressure      float64 `mapstructure:"pressure" yaml:"pressure"`
	IntentMin     float64 `mapstructure:"intent_min" yaml:"intent_min"`
	CounterWindow float64 `mapstructure:"counter_window" yaml:"counter_window"`
	NearRange     float64 `mapstructure:"near_range" yaml:"near_range"`
}

// DefaultDirectorConfig returns phase minimum 2 s, pressure 6 s, intent
// minimum 1 s, counter window 1.5 s and near range 300.
func DefaultDirectorConfig() DirectorConfig {
	return DirectorConfig{PhaseMin: 2, Pressure: 6, IntentMin: 1, CounterWindow: 1.5, NearRange: 300}
}

// Director tracks a boss fight's pacing and the behaviour intent it wants
// next. Its output is advisory: BossBrain scales the weight of skills whose
// intent matches.
//
// Invariant: the intent changes at most once per IntentMin seconds.
type Director struct {
	cfg          DirectorConfig
	phase        CombatPhase
	phaseTimer   float64
	intent       skill.Intent
	intentTimer  float64
	inCounter    bool
	counterTimer float64
	lastState    string
}

// NewDirector returns a director in the Opening phase with a melee intent.
func NewDirector(cfg DirectorConfig) *Director {
	return &Director{cfg: cfg, phase: PhaseOpening, intent: skill.IntentMelee}
}

// Phase returns the current pacing phase.
func (d *Director) Phase() CombatPhase { return d.phase }

// Intent returns the current intent.
func (d *Director) Intent() skill.Intent { return d.intent }

// InCounterWindow reports whether the boss was hit within CounterWindow seconds.
func (d *Director) InCounterWindow() bool { return d.inCounter }

// Update advances the timers. state is the boss's current state name; near
// reports whether a detected target is within NearRange.
//
// Entering the Hit state forces Punish and opens the counter window once per
// entry; staying in Hit does not extend either.
func (d *Director) Update(dt float64, state string, detected bool, distance float64) {
	d.phaseTimer += dt
	d.intentTimer += dt
	if d.inCounter {
		d.counterTimer += dt
		if d.counterTimer > d.cfg.CounterWindow {
			d.inCounter = false
		}
	}

	enteredHit := state == StateHit && d.lastState != StateHit
	d.lastState = state
	if enteredHit {
		d.inCounter = true
		d.counterTimer = 0
	}

	next := d.phase
	switch d.phase {
	case PhaseOpening:
		if d.phaseTimer > d.cfg.PhaseMin {
			next = PhasePressure
		}
	case PhasePressure:
		if d.phaseTimer > d.cfg.Pressure {
			next = PhaseRecovery
		}
	case PhaseRecovery, PhasePunish:
		if d.phaseTimer > d.cfg.PhaseMin {
			next = PhasePressure
		}
	}
	if enteredHit {
		next = PhasePunish
	}
	if next != d.phase || enteredHit {
		d.phaseTimer = 0
	}
	d.phase = next

	var want skill.Intent
	switch d.phase {
	case PhaseOpening:
		want = skill.IntentMelee
	case PhasePressure:
		switch {
		case d.inCounter:
			want = skill.IntentCounter
		case detected && distance <= d.cfg.NearRange:
			want = skill.IntentMelee
		default:
			want = skill.IntentRanged
		}
	case PhaseRecovery:
		want = skill.IntentDash
	case PhasePunish:
		want = skill.IntentAOE
	}
	if d.intentTimer > d.cfg.IntentMin {
		d.intent = want
		d.intentTimer = 0
	}
}

// Bias returns the weight multiplier for def: bias when def's intent matches
// the current intent, 1 otherwise.
func (d *Director) Bias(def *skill.Definition, bias float64) float64 {
	if def.Intent != skill.IntentNone && def.Intent == d.intent {
		return bias
	}
	return 1
}
