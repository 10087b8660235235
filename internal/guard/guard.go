// Package guard enforces the safety preconditions that wrap the experiment
// state machine.
package guard

import (
	"sync"
	"time"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// GateConfig holds the gate's limits.
type GateConfig struct {
	RateLimitPerMinute int
}

// Gate checks the safety-equipment flag before any chemical-adding operation
// and rate-limits API callers. The gate wraps the transition layer; it holds
// no experiment state of its own.
type Gate struct {
	Config GateConfig

	mu            sync.Mutex
	safetyEnabled bool
	rateCounts    map[string]*rateBucket
}

type rateBucket struct {
	count       int
	windowStart int64
}

// NewGate creates a Gate with the safety flag in the given initial position.
func NewGate(safetyEnabled bool, cfg GateConfig) *Gate {
	return &Gate{
		Config:        cfg,
		safetyEnabled: safetyEnabled,
		rateCounts:    make(map[string]*rateBucket),
	}
}

// SetSafety toggles the safety-equipment flag.
func (g *Gate) SetSafety(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.safetyEnabled = enabled
}

// SafetyEnabled reports the current flag position.
func (g *Gate) SafetyEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.safetyEnabled
}

// CheckChemicalAdd rejects chemical-adding operations while safety equipment
// is disabled. Returns ErrSafetyDisabled, never mutating anything.
func (g *Gate) CheckChemicalAdd() error {
	if !g.SafetyEnabled() {
		return domain.ErrSafetyDisabled
	}
	return nil
}

// CheckRate enforces a per-key sliding window rate limit. The window is 60
// seconds. A zero or negative configured limit disables the check.
func (g *Gate) CheckRate(key string) error {
	if g.Config.RateLimitPerMinute <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().Unix()
	bucket, ok := g.rateCounts[key]
	if !ok {
		g.rateCounts[key] = &rateBucket{count: 1, windowStart: now}
		return nil
	}

	if now-bucket.windowStart > 60 {
		bucket.count = 1
		bucket.windowStart = now
		return nil
	}

	if bucket.count >= g.Config.RateLimitPerMinute {
		return domain.ErrRateLimitExceeded
	}

	bucket.count++
	return nil
}
