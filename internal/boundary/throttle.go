package boundary

import (
	"time"

	"golang.org/x/time/rate"
)

// Throttle caps how often the boundary re-runs the full heuristic battery
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows perMinute fresh runs per minute with a burst of one.
// perMinute <= 0 returns nil, which never throttles.
func NewThrottle(perMinute int) *Throttle {
	if perMinute <= 0 {
		return nil
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Allow reports whether a fresh run may start now
func (t *Throttle) Allow() bool {
	if t == nil {
		return true
	}
	return t.limiter.Allow()
}
