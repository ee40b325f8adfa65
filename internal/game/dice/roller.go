package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged random decisions.
// Every draw is logged at debug level with its inputs and outcome.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Range returns a uniformly distributed float in [lo, hi).
//
// Postcondition: returns lo when hi <= lo.
func (r *Roller) Range(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	v := lo + r.src.Float64()*(hi-lo)
	r.logger.Debug("range roll",
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("value", v),
	)
	return v
}

// Chance reports true with probability p. p <= 0 never succeeds; p >= 1 always does.
func (r *Roller) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	draw := r.src.Float64()
	r.logger.Debug("chance roll", zap.Float64("p", p), zap.Float64("draw", draw))
	return draw < p
}

// WeightedIndex picks an index with probability proportional to its weight.
// Negative weights count as zero.
//
// A draw in [0, total) is reduced by each weight in order; the first index at
// which the remainder reaches zero or below wins.
//
// Postcondition: returns -1 for an empty slice; returns 0 when every weight is
// zero; otherwise returns an index in [0, len(weights)).
func (r *Roller) WeightedIndex(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	draw := r.src.Float64() * total
	remaining := draw
	picked := len(weights) - 1
	for i, w := range weights {
		if w > 0 {
			remaining -= w
		}
		if remaining <= 0 && w > 0 {
			picked = i
			break
		}
	}
	r.logger.Debug("weighted roll",
		zap.Float64s("weights", weights),
		zap.Float64("draw", draw),
		zap.Int("index", picked),
	)
	return picked
}
