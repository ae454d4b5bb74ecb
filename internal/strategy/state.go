// Package strategy defines the search strategy contract and the
// per-strategy circuit breaker state shared by every adapter.
package strategy

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/model"
)

// StateConfig controls one strategy's quota and breaker behavior.
type StateConfig struct {
	// Cap is the session usage quota. Once reached the strategy
	// refuses further use until Reset. Default: 50.
	Cap int

	// FailureTrip is the number of consecutive failures that opens
	// the breaker. Default: 3.
	FailureTrip int

	// Cooldown is how long the breaker stays open. Default: 5m.
	Cooldown time.Duration
}

func (c StateConfig) withDefaults() StateConfig {
	if c.Cap <= 0 {
		c.Cap = 50
	}
	if c.FailureTrip <= 0 {
		c.FailureTrip = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 5 * time.Minute
	}
	return c
}

// State is the circuit breaker and quota tracker for one strategy.
// It is created at process start, mutated only through RecordUse and
// Reset, and lives as long as the process. All methods are safe for
// concurrent use.
type State struct {
	id  string
	cfg StateConfig

	mu                  sync.Mutex
	enabled             bool
	usageCount          int
	successCount        int
	failCount           int
	consecutiveFailures int
	cooldownUntil       time.Time
	avgLatency          float64 // milliseconds

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewState creates the breaker state for the named strategy.
func NewState(id string, cfg StateConfig) *State {
	return &State{
		id:      id,
		cfg:     cfg.withDefaults(),
		enabled: true,
		nowFunc: time.Now,
	}
}

// RecordUse counts one strategy invocation. A success zeroes the
// consecutive-failure streak; a failure extends it and, at the trip
// threshold, opens the breaker for the configured cooldown. The
// rolling average latency is recomputed as (avg*(n-1)+ms)/n.
func (s *State) RecordUse(success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usageCount++
	if success {
		s.successCount++
		s.consecutiveFailures = 0
	} else {
		s.failCount++
		s.consecutiveFailures++
	}

	n := float64(s.successCount + s.failCount)
	ms := float64(latency.Milliseconds())
	s.avgLatency = (s.avgLatency*(n-1) + ms) / n

	if s.consecutiveFailures >= s.cfg.FailureTrip {
		s.cooldownUntil = s.nowFunc().Add(s.cfg.Cooldown)
		zap.L().Warn("strategy: breaker opened",
			zap.String("strategy", s.id),
			zap.Int("consecutive_failures", s.consecutiveFailures),
			zap.Duration("cooldown", s.cfg.Cooldown),
		)
	}
}

// IsAvailable reports whether the strategy may be invoked: enabled,
// quota unexhausted, and any cooldown expired.
func (s *State) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled &&
		s.usageCount < s.cfg.Cap &&
		!s.nowFunc().Before(s.cooldownUntil)
}

// Reset zeroes all counters, clears the cooldown and re-enables the
// strategy. Operators call this to start a new session.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	s.usageCount = 0
	s.successCount = 0
	s.failCount = 0
	s.consecutiveFailures = 0
	s.cooldownUntil = time.Time{}
	s.avgLatency = 0
}

// Snapshot returns a point-in-time view for operators.
func (s *State) Snapshot() model.StrategySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.StrategySnapshot{
		Strategy:     s.id,
		Available:    s.enabled && s.usageCount < s.cfg.Cap && !s.nowFunc().Before(s.cooldownUntil),
		UsageCount:   s.usageCount,
		Cap:          s.cfg.Cap,
		SuccessCount: s.successCount,
		FailCount:    s.failCount,
		AvgLatencyMs: s.avgLatency,
	}
	if n := s.successCount + s.failCount; n > 0 {
		snap.SuccessRate = float64(s.successCount) / float64(n)
	}
	if !s.cooldownUntil.IsZero() {
		until := s.cooldownUntil
		snap.CooldownUntil = &until
	}
	return snap
}
