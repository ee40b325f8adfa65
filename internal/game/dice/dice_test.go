package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/actioncore/internal/game/dice"
)

// fixedSource returns the same float for every draw.
type fixedSource struct{ f float64 }

func (s fixedSource) Intn(n int) int   { return int(s.f * float64(n)) }
func (s fixedSource) Float64() float64 { return s.f }

// TestCryptoSource_Intn_InRange verifies every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestCryptoSource_Float64_InUnitInterval(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000))
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestRoller_WeightedIndex_Empty(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSource{0.5}, nil)
	assert.Equal(t, -1, r.WeightedIndex(nil))
}

func TestRoller_WeightedIndex_AllZeroPicksFirst(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSource{0.99}, nil)
	assert.Equal(t, 0, r.WeightedIndex([]float64{0, 0, 0}))
}

func TestRoller_WeightedIndex_Boundaries(t *testing.T) {
	weights := []float64{1, 3}
	// draw = f * 4: 0.2 -> 0.8 (A); 0.25 -> 1.0 (A, remainder reaches 0); 0.26 -> B.
	assert.Equal(t, 0, dice.NewLoggedRoller(fixedSource{0.2}, nil).WeightedIndex(weights))
	assert.Equal(t, 0, dice.NewLoggedRoller(fixedSource{0.25}, nil).WeightedIndex(weights))
	assert.Equal(t, 1, dice.NewLoggedRoller(fixedSource{0.26}, nil).WeightedIndex(weights))
}

func TestRoller_WeightedIndex_SkipsZeroWeightAtZeroDraw(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSource{0}, nil)
	assert.Equal(t, 1, r.WeightedIndex([]float64{0, 2}))
}

// TestRoller_WeightedIndex_Distribution checks that weights {1, 3} are picked
// at roughly 1:3 over many seeded draws.
func TestRoller_WeightedIndex_Distribution(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewSeededSource(7), nil)
	counts := [2]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		counts[r.WeightedIndex([]float64{1, 3})]++
	}
	ratio := float64(counts[1]) / float64(counts[0])
	assert.InDelta(t, 3.0, ratio, 0.3)
}

func TestRoller_WeightedIndex_Property_InRangeAndPositive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		weights := rapid.SliceOfN(rapid.Float64Range(-5, 10), 1, 12).Draw(rt, "weights")
		f := rapid.Float64Range(0, 0.999999).Draw(rt, "f")
		idx := dice.NewLoggedRoller(fixedSource{f}, nil).WeightedIndex(weights)
		if idx < 0 || idx >= len(weights) {
			rt.Fatalf("index %d out of range", idx)
		}
		anyPositive := false
		for _, w := range weights {
			if w > 0 {
				anyPositive = true
			}
		}
		if anyPositive && weights[idx] <= 0 {
			rt.Fatalf("picked non-positive weight %v at %d", weights[idx], idx)
		}
	})
}

func TestRoller_Range(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSource{0.5}, nil)
	assert.InDelta(t, 2.0, r.Range(1, 3), 1e-12)
	assert.Equal(t, 5.0, r.Range(5, 5))
}

func TestRoller_Chance(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSource{0.3}, nil)
	assert.True(t, r.Chance(0.5))
	assert.False(t, r.Chance(0.2))
	assert.False(t, r.Chance(0))
	assert.True(t, r.Chance(1))
}

func TestRoller_LogsDrawsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := dice.NewLoggedRoller(fixedSource{0.5}, zap.New(core))
	r.WeightedIndex([]float64{1, 1})
	entries := logs.FilterMessage("weighted roll").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(0), entries[0].ContextMap()["index"])
}
