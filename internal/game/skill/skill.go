// Package skill defines boss skill descriptors and the tables they are
// selected from.
package skill

import (
	"math"
	"strings"
)

// Phase bits for Definition.Phases.
const (
	PhaseOne = 1 << iota
	PhaseTwo
)

// PhaseBit returns the mask bit for the 1-based phase number.
func PhaseBit(phase int) int {
	if phase < 1 {
		return 0
	}
	return 1 << (phase - 1)
}

// Intent tags a skill with the behaviour category it expresses.
type Intent string

// Intents.
const (
	IntentNone    Intent = ""
	IntentMelee   Intent = "melee"
	IntentRanged  Intent = "ranged"
	IntentDash    Intent = "dash"
	IntentAOE     Intent = "aoe"
	IntentCounter Intent = "counter"
)

// Definition describes one skill: when the AI may pick it and how the attack
// state executes it.
type Definition struct {
	ID         string  `yaml:"id"`
	Anim       string  `yaml:"anim"`
	FollowAnim string  `yaml:"follow_anim"`
	MinRange   float64 `yaml:"min_range"`
	MaxRange   float64 `yaml:"max_range"`
	Cooldown   float64 `yaml:"cooldown"`
	Weight     float64 `yaml:"weight"`

	// PhaseList is the YAML form of Phases.
	PhaseList []int  `yaml:"phases"`
	Closing   bool   `yaml:"closing"`
	Intent    Intent `yaml:"intent"`

	Windup     float64 `yaml:"windup"`
	MoveTime   float64 `yaml:"move_time"`
	Active     float64 `yaml:"active"`
	Recovery   float64 `yaml:"recovery"`
	StandOff   float64 `yaml:"stand_off"`
	HitRadius  float64 `yaml:"hit_radius"`
	Damage     float64 `yaml:"damage"`
	LockTarget bool    `yaml:"lock_target"`

	// Phases is the bitmask built from PhaseList.
	Phases int `yaml:"-"`
}

// UsableIn reports whether the skill may be picked in the 1-based phase.
func (d *Definition) UsableIn(phase int) bool {
	return d.Phases&PhaseBit(phase) != 0
}

// InRange reports whether dist lies in [MinRange, MaxRange].
func (d *Definition) InRange(dist float64) bool {
	return dist >= d.MinRange && dist <= d.MaxRange
}

// Total returns the duration of every stage combined.
func (d *Definition) Total() float64 {
	return d.Windup + d.MoveTime + d.Active + d.Recovery
}

// AnimName returns Anim, falling back to the lower-cased ID.
func (d *Definition) AnimName() string {
	if d.Anim != "" {
		return d.Anim
	}
	return strings.ToLower(d.ID)
}

func (d *Definition) buildMask() {
	d.Phases = 0
	for _, p := range d.PhaseList {
		d.Phases |= PhaseBit(p)
	}
}

// Table is the skill set one boss chooses from.
type Table struct {
	ID        string       `yaml:"id"`
	Default   string       `yaml:"default"`
	LongRange float64      `yaml:"long_range"`
	Skills    []Definition `yaml:"skills"`
}

// Skill returns the named definition.
func (t *Table) Skill(id string) (*Definition, bool) {
	for i := range t.Skills {
		if t.Skills[i].ID == id {
			return &t.Skills[i], true
		}
	}
	return nil, false
}

// DefaultSkill returns the table's default definition, or nil when unset.
func (t *Table) DefaultSkill() *Definition {
	d, _ := t.Skill(t.Default)
	return d
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := *t
	out.Skills = make([]Definition, len(t.Skills))
	for i, s := range t.Skills {
		s.PhaseList = append([]int(nil), s.PhaseList...)
		out.Skills[i] = s
	}
	return &out
}

// DefaultTable returns the built-in boss table: Combo3, GroundSlam and
// DashSlash in both phases; Roar and LeapSlam in phase two only.
func DefaultTable() *Table {
	t := &Table{
		ID:        "default",
		Default:   "Combo3",
		LongRange: 300,
		Skills: []Definition{
			{
				ID: "Combo3", Anim: "combo3", MinRange: 0, MaxRange: 150, Cooldown: 2, Weight: 3,
				PhaseList: []int{1, 2}, Intent: IntentMelee,
				Windup: 0.35, MoveTime: 0, Active: 0.5, Recovery: 0.65,
				StandOff: 0, HitRadius: 120, Damage: 12,
			},
			{
				ID: "GroundSlam", Anim: "groundslam", MinRange: 0, MaxRange: 200, Cooldown: 5, Weight: 2,
				PhaseList: []int{1, 2}, Intent: IntentAOE,
				Windup: 0.60, MoveTime: 0, Active: 0.20, Recovery: 0.80,
				StandOff: 0, HitRadius: 170, Damage: 20,
			},
			{
				ID: "DashSlash", Anim: "dashslash", MinRange: 150, MaxRange: 450, Cooldown: 4, Weight: 2,
				PhaseList: []int{1, 2}, Closing: true, Intent: IntentDash,
				Windup: 0.30, MoveTime: 0.25, Active: 0.15, Recovery: 0.50,
				StandOff: 200, HitRadius: 140, Damage: 16, LockTarget: true,
			},
			{
				ID: "Roar", Anim: "roar", MinRange: 0, MaxRange: 500, Cooldown: 12, Weight: 1,
				PhaseList: []int{2}, Intent: IntentCounter,
				Windup: 1.0,
			},
			{
				ID: "LeapSlam", Anim: "leapslam", FollowAnim: "groundslam", MinRange: 250, MaxRange: 600,
				Cooldown: 8, Weight: 2, PhaseList: []int{2}, Closing: true, Intent: IntentRanged,
				Windup: 0.35, MoveTime: 0.35, Active: 0.15, Recovery: 1.30,
				StandOff: 200, HitRadius: 300, Damage: 26, LockTarget: true,
			},
		},
	}
	for i := range t.Skills {
		t.Skills[i].buildMask()
	}
	return t
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
