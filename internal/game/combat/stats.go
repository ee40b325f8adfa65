package combat

import (
	"github.com/cory-johannsen/actioncore/internal/game/dice"
	"github.com/cory-johannsen/actioncore/internal/game/geom"
)

// Stats are an entity's attack and defence numbers.
type Stats struct {
	AttackPower  float64 `mapstructure:"attack_power" yaml:"attack_power"`
	Defense      float64 `mapstructure:"defense" yaml:"defense"`
	CritRate     float64 `mapstructure:"crit_rate" yaml:"crit_rate"`
	CritDamage   float64 `mapstructure:"crit_damage" yaml:"crit_damage"`
	WeaponDamage float64 `mapstructure:"weapon_damage" yaml:"weapon_damage"`
}

// DefaultStats returns attack power 10, defence 0, 5% crit chance at 2x.
func DefaultStats() Stats {
	return Stats{AttackPower: 10, CritRate: 0.05, CritDamage: 2}
}

// Mitigate reduces base by defence: base * (1 - def/(def+100)).
//
// Postcondition: returns base unchanged when defence <= 0.
func Mitigate(base, defense float64) float64 {
	if defense <= 0 {
		return base
	}
	return base * (1 - defense/(defense+100))
}

// RollDamage returns the unmitigated damage of one attack and whether it crit.
//
// Precondition: roller is non-nil.
func (s Stats) RollDamage(roller *dice.Roller) (float64, bool) {
	base := s.AttackPower + s.WeaponDamage
	if roller.Chance(s.CritRate) {
		return base * s.CritDamage, true
	}
	return base, false
}

// Target is anything a melee attack can hit.
type Target interface {
	ID() string
	Alive() bool
	Hurtbox() geom.AABB
	Defense() float64
	// TakeHit applies damage from attacker and reports whether it landed.
	TakeHit(amount float64, attacker string) bool
}

// ExecuteMeleeAttack applies one attack from attacker to every living target
// whose hurtbox intersects hitbox, and returns the number of targets hit.
// The attacker never hits itself.
//
// Precondition: roller is non-nil.
func ExecuteMeleeAttack(hitbox geom.AABB, attacker string, stats Stats, targets []Target, roller *dice.Roller) int {
	hits := 0
	for _, t := range targets {
		if t == nil || t.ID() == attacker || !t.Alive() {
			continue
		}
		if !hitbox.Intersects(t.Hurtbox()) {
			continue
		}
		dmg, _ := stats.RollDamage(roller)
		if t.TakeHit(Mitigate(dmg, t.Defense()), attacker) {
			hits++
		}
	}
	return hits
}
