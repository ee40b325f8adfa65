package combat

import "math"

// Cooldowns tracks remaining cooldown seconds by name.
//
// Invariant: every stored remaining time is >= 0.
type Cooldowns struct {
	remaining map[string]float64
}

// NewCooldowns returns an empty set; every name starts ready.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{remaining: make(map[string]float64)}
}

// Start puts name on cooldown for seconds.
func (c *Cooldowns) Start(name string, seconds float64) {
	c.remaining[name] = math.Max(0, seconds)
}

// Ready reports whether name is off cooldown.
func (c *Cooldowns) Ready(name string) bool {
	return c.remaining[name] <= 0
}

// Remaining returns the seconds left on name's cooldown.
func (c *Cooldowns) Remaining(name string) float64 {
	return c.remaining[name]
}

// TryStart starts name's cooldown when it is ready and reports whether it did.
func (c *Cooldowns) TryStart(name string, seconds float64) bool {
	if !c.Ready(name) {
		return false
	}
	c.Start(name, seconds)
	return true
}

// Advance counts every cooldown down by dt, clamping at zero.
func (c *Cooldowns) Advance(dt float64) {
	for k, v := range c.remaining {
		c.remaining[k] = math.Max(0, v-dt)
	}
}

// Reset clears every cooldown.
func (c *Cooldowns) Reset() {
	clear(c.remaining)
}
