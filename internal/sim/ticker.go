// Package sim drives scenes with a fixed-interval tick.
package sim

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/actioncore/internal/game/scene"
)

// Ticker runs a periodic tick for each registered scene.
// Callbacks are invoked sequentially, in scene ID order, on the ticking
// goroutine.
//
// Invariant: every callback is invoked at most once per tick interval and
// always receives the interval in seconds as dt.
type Ticker struct {
	interval time.Duration
	logger   *zap.Logger
	mu       sync.Mutex
	ticks    map[string]func(dt float64)
	count    uint64
}

// NewTicker returns a ticker that fires every interval.
//
// Precondition: interval must be > 0.
func NewTicker(interval time.Duration, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		panic("sim.NewTicker: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{
		interval: interval,
		logger:   logger,
		ticks:    make(map[string]func(dt float64)),
	}
}

// Interval returns the tick interval.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Register registers a callback for sceneID. Replaces any existing callback.
func (t *Ticker) Register(sceneID string, fn func(dt float64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks[sceneID] = fn
}

// RegisterScene registers s.Step under the scene's ID.
func (t *Ticker) RegisterScene(s *scene.Scene) {
	t.Register(s.ID(), s.Step)
}

// Unregister removes the callback for sceneID.
func (t *Ticker) Unregister(sceneID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ticks, sceneID)
}

// Ticks returns the number of ticks fired so far.
func (t *Ticker) Ticks() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Tick fires every registered callback once, synchronously.
func (t *Ticker) Tick() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.ticks))
	for id := range t.ticks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	callbacks := make([]func(float64), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, t.ticks[id])
	}
	t.count++
	t.mu.Unlock()

	dt := t.interval.Seconds()
	for _, fn := range callbacks {
		fn(dt)
	}
}

// Run ticks until ctx is cancelled and then returns nil.
//
// Postcondition: all registered callbacks are invoked once per interval.
func (t *Ticker) Run(ctx context.Context) error {
	t.logger.Info("simulation ticker started", zap.Duration("interval", t.interval))
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("simulation ticker stopped", zap.Uint64("ticks", t.Ticks()))
			return nil
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Start runs the ticker on its own goroutine until ctx is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	go func() { _ = t.Run(ctx) }()
}
