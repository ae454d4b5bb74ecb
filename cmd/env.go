package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/orchestrator"
	"github.com/Mingbling1/empliq-scraper-api/internal/proxy"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy/directory"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy/serp"
)

// searchEnv holds the rotator, the strategy registry and the
// orchestrator shared by the search/batch/serve commands.
type searchEnv struct {
	Orchestrator *orchestrator.Orchestrator
	Rotator      *proxy.Rotator
}

// Close releases resources held by the search environment.
func (se *searchEnv) Close() {
	se.Orchestrator.Close()
}

// initSearch builds the proxy rotator, the strategies and the
// orchestrator. Callers should defer env.Close().
func initSearch(ctx context.Context) (*searchEnv, error) {
	rotator := proxy.NewRotator(cfg.Proxy)
	if cfg.Proxy.ListURL != "" {
		// Warm the pool in the background; seeds serve until it lands.
		rotator.RefreshAsync(ctx)
	}

	registry := strategy.NewRegistry(
		serp.NewDuckDuckGo(cfg),
		serp.NewBing(cfg),
		directory.NewDatosPeru(cfg, rotator),
	)
	zap.L().Info("strategies registered", zap.Int("count", len(registry.All())))

	return &searchEnv{
		Orchestrator: orchestrator.New(cfg, registry),
		Rotator:      rotator,
	}, nil
}
