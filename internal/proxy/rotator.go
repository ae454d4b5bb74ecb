package proxy

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
)

// Rotator fetches pages through the rotating pool. Blocking can occur
// at the network layer (proxy IP reputation) or the application layer
// (TLS/HTTP client signature), so it rotates proxies first and client
// fingerprint last.
type Rotator struct {
	pool *Pool
	cfg  config.ProxyConfig

	// attemptFunc and fallbackFunc are swappable for tests.
	attemptFunc  func(ctx context.Context, proxyURL, target string, timeout time.Duration, minBody int) ([]byte, error)
	fallbackFunc func(target string, timeout time.Duration, minBody int) ([]byte, error)
	listFunc     func(ctx context.Context, listURL string) ([]string, error)
}

// NewRotator creates a Rotator seeded from the config's proxy list.
func NewRotator(cfg config.ProxyConfig) *Rotator {
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = 3
	}
	if cfg.FetchTimeoutSecs <= 0 {
		cfg.FetchTimeoutSecs = 20
	}
	if cfg.HealthTimeoutSecs <= 0 {
		cfg.HealthTimeoutSecs = 8
	}
	if cfg.MinBodyBytes <= 0 {
		cfg.MinBodyBytes = 5000
	}
	if cfg.MaxTestSample <= 0 {
		cfg.MaxTestSample = 30
	}
	return &Rotator{
		pool:         NewPool(cfg.Seeds),
		cfg:          cfg,
		attemptFunc:  fetchThroughProxy,
		fallbackFunc: fetchCycleTLS,
		listFunc:     downloadProxyList,
	}
}

// Pool exposes the underlying pool for status reporting.
func (r *Rotator) Pool() *Pool {
	return r.pool
}

// Fetch retrieves target through up to RetryBudget rotated proxies,
// then once through the alternate transport. Returns the page body or
// an error once every path is exhausted. A timed-out attempt counts
// the same as any failed attempt and is not retried in place; the next
// proxy is simply tried.
func (r *Rotator) Fetch(ctx context.Context, target string) ([]byte, error) {
	timeout := time.Duration(r.cfg.FetchTimeoutSecs) * time.Second

	var lastErr error
	for attempt := 0; attempt < r.cfg.RetryBudget; attempt++ {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "proxy: fetch canceled")
		}

		endpoint := r.pool.Next()
		body, err := r.attemptFunc(ctx, endpoint, target, timeout, r.cfg.MinBodyBytes)
		if err == nil {
			return body, nil
		}
		lastErr = err
		zap.L().Debug("proxy: attempt failed, rotating",
			zap.String("proxy", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	// Every proxy path failed; try the alternate client fingerprint
	// before giving up.
	zap.L().Debug("proxy: rotation budget exhausted, trying alternate transport",
		zap.String("target", target),
	)
	body, err := r.fallbackFunc(target, timeout, r.cfg.MinBodyBytes)
	if err == nil {
		return body, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return nil, eris.Wrap(lastErr, "proxy: all transports failed")
}
