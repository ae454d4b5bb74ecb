package proxy

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const healthTestConcurrency = 10

// Refresh downloads the public proxy list, health-tests a bounded
// sample concurrently and swaps the pool with the passing set. A
// refresh where nothing passes keeps the previous pool unchanged and
// is not an error.
func (r *Rotator) Refresh(ctx context.Context) error {
	candidates, err := r.listFunc(ctx, r.cfg.ListURL)
	if err != nil {
		return eris.Wrap(err, "proxy: download candidate list")
	}
	if len(candidates) > r.cfg.MaxTestSample {
		candidates = candidates[:r.cfg.MaxTestSample]
	}

	timeout := time.Duration(r.cfg.HealthTimeoutSecs) * time.Second

	var (
		mu      sync.Mutex
		passing []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(healthTestConcurrency)
	for _, cand := range candidates {
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(gCtx, timeout)
			defer cancel()

			// Acceptance mirrors Fetch: 200, non-trivial body, no
			// block markers. A failing test only drops its own
			// candidate.
			if _, err := r.attemptFunc(tctx, cand, r.cfg.ReferenceURL, timeout, r.cfg.MinBodyBytes); err != nil {
				return nil
			}
			mu.Lock()
			passing = append(passing, cand)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(passing) == 0 {
		zap.L().Warn("proxy: refresh found no working proxies, keeping previous pool",
			zap.Int("tested", len(candidates)),
			zap.Int("pool_size", r.pool.Len()),
		)
		return nil
	}

	r.pool.Replace(passing)
	zap.L().Info("proxy: pool refreshed",
		zap.Int("tested", len(candidates)),
		zap.Int("passing", len(passing)),
	)
	return nil
}

// RefreshAsync runs Refresh in the background so the request path is
// never coupled to refresh latency.
func (r *Rotator) RefreshAsync(ctx context.Context) {
	go func() {
		if err := r.Refresh(ctx); err != nil {
			zap.L().Warn("proxy: background refresh failed", zap.Error(err))
		}
	}()
}

// downloadProxyList fetches a newline-separated host:port list and
// normalizes entries to http:// endpoints.
func downloadProxyList(ctx context.Context, listURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "proxy: create list request")
	}

	client := &http.Client{Timeout: 20 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "proxy: fetch list")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("proxy: list status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "proxy: read list")
	}

	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "://") {
			line = "http://" + line
		}
		out = append(out, line)
	}
	return out, nil
}
