package sim_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/actioncore/internal/game/scene"
	"github.com/cory-johannsen/actioncore/internal/sim"
)

func TestTicker_PanicsOnNonPositiveInterval(t *testing.T) {
	assert.Panics(t, func() { sim.NewTicker(0, nil) })
}

func TestTicker_TickRunsCallbacksInOrderWithInterval(t *testing.T) {
	tk := sim.NewTicker(50*time.Millisecond, nil)
	var order []string
	var dts []float64
	tk.Register("b", func(dt float64) { order = append(order, "b"); dts = append(dts, dt) })
	tk.Register("a", func(dt float64) { order = append(order, "a"); dts = append(dts, dt) })

	tk.Tick()
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, []float64{0.05, 0.05}, dts)
	assert.Equal(t, uint64(1), tk.Ticks())
}

func TestTicker_RegisterSceneStepsScene(t *testing.T) {
	tk := sim.NewTicker(100*time.Millisecond, nil)
	s := scene.New("arena", scene.Options{})
	tk.RegisterScene(s)
	tk.Tick()
	tk.Tick()
	assert.InDelta(t, 0.2, s.Elapsed(), 1e-12)
}

func TestTicker_RunInvokesCallbackAndStops(t *testing.T) {
	tk := sim.NewTicker(10*time.Millisecond, nil)
	called := make(chan struct{}, 1)
	tk.Register("arena", func(float64) {
		select {
		case called <- struct{}{}:
		default:
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx) }()
	select {
	case <-called:
	case <-ctx.Done():
		t.Fatal("tick callback not invoked within timeout")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestTicker_UnregisterStopsCallback(t *testing.T) {
	tk := sim.NewTicker(10*time.Millisecond, nil)
	var count atomic.Int64
	tk.Register("arena", func(float64) { count.Add(1) })
	tk.Tick()
	tk.Unregister("arena")
	tk.Tick()
	assert.Equal(t, int64(1), count.Load())
}
