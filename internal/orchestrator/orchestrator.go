// Package orchestrator runs the multi-phase website search: direct
// search engines first, directory lookups only when no direct strategy
// produced a confident answer.
package orchestrator

import (
	"context"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

// Orchestrator coordinates the registered strategies for single and
// batch lookups.
type Orchestrator struct {
	cfg      *config.Config
	registry *strategy.Registry

	confidentScore int

	// Injectable for tests.
	sleepFunc func(time.Duration)
	randIntn  func(int) int
}

// New creates an orchestrator over an already-populated registry.
func New(cfg *config.Config, registry *strategy.Registry) *Orchestrator {
	confident := cfg.Search.ConfidentScore
	if confident <= 0 {
		confident = 15
	}
	return &Orchestrator{
		cfg:            cfg,
		registry:       registry,
		confidentScore: confident,
		sleepFunc:      time.Sleep,
		randIntn:       rand.Intn,
	}
}

// Search runs the phased lookup for one company. forced, when set,
// names a strategy to try first; if it misses, the normal phases run
// as usual. The returned strategy id names the last strategy attempted
// and is meaningful even when the result is nil.
func (o *Orchestrator) Search(ctx context.Context, companyName, ruc, forced string) (*model.SearchResult, string) {
	var (
		retained      *model.SearchResult
		lastAttempted string
	)

	consider := func(s strategy.Strategy) *model.SearchResult {
		lastAttempted = s.ID()
		result := o.runStrategy(ctx, s, companyName, ruc)
		if result == nil {
			return nil
		}
		if result.Score >= o.confidentScore {
			zap.L().Info("orchestrator: confident match",
				zap.String("company", companyName),
				zap.String("strategy", s.ID()),
				zap.Int("score", result.Score),
			)
			return result
		}
		if result.Found && (retained == nil || result.Score > retained.Score) {
			retained = result
		}
		return nil
	}

	if forced != "" {
		if s := o.registry.Get(forced); s != nil && s.IsAvailable() {
			if confident := consider(s); confident != nil {
				return confident, lastAttempted
			}
		} else {
			zap.L().Warn("orchestrator: forced strategy unavailable, falling back",
				zap.String("strategy", forced),
			)
		}
	}

	for _, s := range o.registry.ByKind(strategy.KindDirect) {
		if s.ID() == forced || !s.IsAvailable() {
			continue
		}
		if ctx.Err() != nil {
			return retained, lastAttempted
		}
		if confident := consider(s); confident != nil {
			return confident, lastAttempted
		}
	}

	// Phase 2 resolves on the first directory hit: whichever of the
	// directory result and the retained direct candidate scores
	// higher wins, without asking further directories.
	for _, s := range o.registry.ByKind(strategy.KindDirectory) {
		if s.ID() == forced || !s.IsAvailable() {
			continue
		}
		if ctx.Err() != nil {
			return retained, lastAttempted
		}
		lastAttempted = s.ID()
		result := o.runStrategy(ctx, s, companyName, ruc)
		if result == nil || !result.Found {
			continue
		}
		if retained != nil && retained.Score >= result.Score {
			return retained, lastAttempted
		}
		return result, lastAttempted
	}

	if retained != nil {
		return retained, lastAttempted
	}
	zap.L().Info("orchestrator: no website found",
		zap.String("company", companyName),
		zap.String("last_strategy", lastAttempted),
	)
	return nil, lastAttempted
}

// runStrategy invokes one strategy, absorbing panics so a broken
// parser cannot take down a batch. A recovered panic counts as a
// failed use, so a repeatedly panicking strategy trips its breaker
// like any other failing one.
func (o *Orchestrator) runStrategy(ctx context.Context, s strategy.Strategy, companyName, ruc string) (result *model.SearchResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.RecordFailure(time.Since(start))
			zap.L().Error("orchestrator: strategy panicked",
				zap.String("strategy", s.ID()),
				zap.Any("panic", r),
			)
			result = nil
		}
	}()
	return s.Search(ctx, companyName, ruc)
}

// BatchSearch processes companies sequentially, pausing between
// lookups. A positive delay is used as-is; zero falls back to a
// randomized interval inside the serving strategy's pacing window. A
// miss yields a found=false result rather than a gap in the output.
func (o *Orchestrator) BatchSearch(ctx context.Context, items []model.BatchItem, delay time.Duration) []*model.SearchResult {
	results := make([]*model.SearchResult, 0, len(items))
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		result, lastStrategy := o.Search(ctx, item.CompanyName, item.RUC, "")
		if result == nil {
			result = &model.SearchResult{
				CompanyName: item.CompanyName,
				RUC:         item.RUC,
				Strategy:    lastStrategy,
			}
		}
		results = append(results, result)

		if i < len(items)-1 {
			pause := delay
			if pause <= 0 {
				pause = o.pacingDelay(lastStrategy)
			}
			o.sleepFunc(pause)
		}
	}
	return results
}

// pacingDelay picks a random delay inside the strategy's configured
// pacing window.
func (o *Orchestrator) pacingDelay(strategyID string) time.Duration {
	min, max := o.cfg.Strategy(strategyID).PacingWindow()
	if max <= min {
		return min
	}
	return min + time.Duration(o.randIntn(int(max-min)))
}

// Status reports every registered strategy's circuit state.
func (o *Orchestrator) Status() []model.StrategySnapshot {
	strategies := o.registry.All()
	snapshots := make([]model.StrategySnapshot, 0, len(strategies))
	for _, s := range strategies {
		snapshots = append(snapshots, s.Status())
	}
	return snapshots
}

// ResetStrategy clears one strategy's quota and circuit state.
func (o *Orchestrator) ResetStrategy(id string) error {
	s := o.registry.Get(id)
	if s == nil {
		return eris.Errorf("orchestrator: unknown strategy %q", id)
	}
	s.Reset()
	return nil
}

// Close releases every strategy's resources.
func (o *Orchestrator) Close() {
	o.registry.CloseAll()
}
