// Package boundary is the call surface a host application uses. Its calls
// take no parameters, block until a verdict is ready, and never panic or
// return an error: any internal fault becomes inconclusive findings.
package boundary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/rootcheck/internal/cache"
	"github.com/ppiankov/rootcheck/internal/model"
	log "github.com/sirupsen/logrus"
)

// Checker is what the boundary needs from the integrity checker
type Checker interface {
	Check(ctx context.Context) model.Verdict
	Fallback(reason string) model.Verdict
}

// Options configure verdict reuse
type Options struct {
	CacheKey string
	CacheTTL time.Duration // 0 disables caching
	Throttle *Throttle     // nil never throttles
	Cache    cache.Cache   // nil creates a memory cache when CacheTTL > 0
}

// Boundary serializes host calls into the checker
type Boundary struct {
	mu      sync.Mutex
	checker Checker
	cache   cache.Cache
	key     string
	ttl     time.Duration
	limit   *Throttle
	last    *model.Verdict
}

// New wraps a checker
func New(c Checker, opts Options) *Boundary {
	b := &Boundary{
		checker: c,
		cache:   opts.Cache,
		key:     opts.CacheKey,
		ttl:     opts.CacheTTL,
		limit:   opts.Throttle,
	}
	if b.key == "" {
		b.key = "rootcheck:v1:default"
	}
	if b.ttl > 0 && b.cache == nil {
		b.cache = cache.NewMemoryCache(b.ttl, 2*b.ttl)
	}
	return b
}

// IsDeviceRooted is the minimal boundary form
func (b *Boundary) IsDeviceRooted() bool {
	return b.CheckDeviceIntegrity().Rooted
}

// CheckDeviceIntegrity returns a well-formed verdict for the live device
// state. Cached verdicts are served while fresh; when the throttle refuses a
// fresh run the previous verdict is served instead.
func (b *Boundary) CheckDeviceIntegrity() (verdict model.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("integrity check fault: %v", rec)
			verdict = b.fallback(fmt.Sprintf("fault: %v", rec))
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ttl > 0 {
		if v, ok := b.cache.Get(b.key); ok {
			log.Debug("serving cached verdict")
			return v.Clone()
		}
	}

	if !b.limit.Allow() && b.last != nil {
		log.Debug("run throttled, serving previous verdict")
		return b.last.Clone()
	}

	v := b.checker.Check(context.Background())
	if v.Suspicious == nil {
		v.Suspicious = []model.Finding{}
	}

	if b.ttl > 0 {
		b.cache.Set(b.key, v, b.ttl)
	}
	b.last = &v
	return v.Clone()
}

// Reset drops cached and previous verdicts so the next call runs fresh
func (b *Boundary) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cache != nil {
		b.cache.Clear()
	}
	b.last = nil
}

// fallback asks the checker for an all-inconclusive verdict; if even that
// faults, it returns the empty verdict
func (b *Boundary) fallback(reason string) (verdict model.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			verdict = model.Verdict{Suspicious: []model.Finding{}}
		}
	}()

	v := b.checker.Fallback(reason)
	if v.Suspicious == nil {
		v.Suspicious = []model.Finding{}
	}
	return v
}
