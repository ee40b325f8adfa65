package entity

import (
	"sync"

	"go.uber.org/zap"
)

// Animator plays named clips. Unknown clips are skipped, never an error.
type Animator interface {
	Play(name string, loop bool)
	// Duration returns the clip length in seconds, or 0 when unknown.
	Duration(name string) float64
}

// ClipAnimator is a headless Animator backed by a table of clip lengths.
type ClipAnimator struct {
	mu      sync.Mutex
	clips   map[string]float64
	current string
	loop    bool
	history []string
	logger  *zap.Logger
}

// NewClipAnimator returns an animator knowing clips (name to seconds). With a
// nil table every clip name is accepted with an unknown duration.
func NewClipAnimator(clips map[string]float64, logger *zap.Logger) *ClipAnimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClipAnimator{clips: clips, logger: logger}
}

// Play implements Animator.
func (a *ClipAnimator) Play(name string, loop bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.clips != nil {
		if _, ok := a.clips[name]; !ok {
			a.logger.Debug("animation clip missing", zap.String("clip", name))
			return
		}
	}
	a.current = name
	a.loop = loop
	a.history = append(a.history, name)
}

// Duration implements Animator.
func (a *ClipAnimator) Duration(name string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clips[name]
}

// Current returns the clip playing and whether it loops.
func (a *ClipAnimator) Current() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, a.loop
}

// History returns every clip started, oldest first.
func (a *ClipAnimator) History() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.history...)
}
