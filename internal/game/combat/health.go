// Package combat implements the per-entity combat services: health with
// invincibility windows, attack statistics, melee hit resolution and named
// cooldowns.
package combat

import "math"

// HealthObserver is notified synchronously of health transitions.
type HealthObserver interface {
	// OnHealthChanged fires after every change of the current value.
	OnHealthChanged(current, maximum float64)
	// OnHurt fires once per damage application that removed health.
	OnHurt(amount float64, attacker string)
	// OnDeath fires once, when health first reaches zero.
	OnDeath(attacker string)
}

// Health tracks hit points for one entity.
//
// Invariant: 0 <= Current() <= Max(); IsDead() iff Current() == 0.
// Not safe for concurrent use.
type Health struct {
	current    float64
	max        float64
	invincible float64
	observers  []HealthObserver
}

// NewHealth returns a full Health with the given maximum.
//
// Precondition: maxHP > 0; values below 1 are raised to 1.
func NewHealth(maxHP float64) *Health {
	if maxHP < 1 || math.IsNaN(maxHP) {
		maxHP = 1
	}
	return &Health{current: maxHP, max: maxHP}
}

// Observe registers o for notifications.
func (h *Health) Observe(o HealthObserver) {
	if o != nil {
		h.observers = append(h.observers, o)
	}
}

// Current returns the current hit points.
func (h *Health) Current() float64 { return h.current }

// Max returns the maximum hit points.
func (h *Health) Max() float64 { return h.max }

// IsDead reports whether health has reached zero.
func (h *Health) IsDead() bool { return h.current <= 0 }

// Percentage returns Current/Max in [0, 1].
func (h *Health) Percentage() float64 { return h.current / h.max }

// Invincible reports whether an invincibility window is open.
func (h *Health) Invincible() bool { return h.invincible > 0 }

// SetInvincible opens an invincibility window of at least seconds.
func (h *Health) SetInvincible(seconds float64) {
	if seconds > h.invincible {
		h.invincible = seconds
	}
}

// Advance counts down the invincibility window.
func (h *Health) Advance(dt float64) {
	if h.invincible > 0 {
		h.invincible = math.Max(0, h.invincible-dt)
	}
}

// TakeDamage removes up to amount hit points and returns how many were removed.
//
// Postcondition: returns 0 and notifies nobody when amount <= 0, the entity is
// dead or an invincibility window is open.
func (h *Health) TakeDamage(amount float64, attacker string) float64 {
	if amount <= 0 || math.IsNaN(amount) || h.IsDead() || h.Invincible() {
		return 0
	}
	applied := math.Min(amount, h.current)
	h.current -= applied
	for _, o := range h.observers {
		o.OnHealthChanged(h.current, h.max)
	}
	for _, o := range h.observers {
		o.OnHurt(applied, attacker)
	}
	if h.IsDead() {
		h.current = 0
		for _, o := range h.observers {
			o.OnDeath(attacker)
		}
	}
	return applied
}

// Heal restores up to amount hit points to a living entity and returns how
// many were restored.
func (h *Health) Heal(amount float64) float64 {
	if amount <= 0 || h.IsDead() {
		return 0
	}
	restored := math.Min(amount, h.max-h.current)
	if restored <= 0 {
		return 0
	}
	h.current += restored
	h.notifyChanged()
	return restored
}

// FullHeal restores a living entity to maximum health.
func (h *Health) FullHeal() {
	h.Heal(h.max)
}

// Set overwrites the current value, clamped to [0, Max]. It may revive a dead
// entity and never fires OnHurt or OnDeath.
func (h *Health) Set(v float64) {
	v = math.Max(0, math.Min(h.max, v))
	if v == h.current {
		return
	}
	h.current = v
	h.notifyChanged()
}

func (h *Health) notifyChanged() {
	for _, o := range h.observers {
		o.OnHealthChanged(h.current, h.max)
	}
}
