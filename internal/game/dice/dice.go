// Package dice provides the randomness abstraction shared by the combat and
// AI layers: an injectable Source and a logged Roller built on top of it.
package dice

// Source is the randomness provider for every random decision in the
// simulation.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}
