// Package serp implements the Phase-1 search strategies: plain-HTTP
// queries against public search engine HTML endpoints, parsed with
// goquery into raw hits for the ranker.
package serp

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/ranker"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

const (
	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxHits     = 20
	maxSERPSize = 2 * 1024 * 1024
)

// engine is the shared plumbing for one SERP strategy: quota state,
// request pacing, fetching and ranking. The concrete engines differ
// only in how they build a query URL and pull hits out of the page.
type engine struct {
	id       string
	state    *strategy.State
	client   *http.Client
	limiter  *rate.Limiter
	buildURL func(query string) string
	parse    func(doc *goquery.Document) []model.RawHit

	rankerOpts      ranker.Options
	minScore        int
	maxAlternatives int
}

// engineParams carries everything a concrete engine needs to share
// the common Search implementation.
type engineParams struct {
	id       string
	cfg      config.StrategyConfig
	search   config.SearchConfig
	ranker   config.RankerConfig
	buildURL func(query string) string
	parse    func(doc *goquery.Document) []model.RawHit
}

func newEngine(p engineParams) *engine {
	minPace, _ := p.cfg.PacingWindow()
	limit := rate.Inf
	if minPace > 0 {
		limit = rate.Every(minPace)
	}
	minScore := p.search.MinScore
	if minScore <= 0 {
		minScore = 8
	}
	maxAlt := p.search.MaxAlternatives
	if maxAlt <= 0 {
		maxAlt = 5
	}
	blacklist := p.ranker.Blacklist
	if len(blacklist) == 0 {
		blacklist = config.DefaultBlacklist
	}
	return &engine{
		id: p.id,
		state: strategy.NewState(p.id, strategy.StateConfig{
			Cap:         p.cfg.SessionCap,
			FailureTrip: p.cfg.FailureTrip,
			Cooldown:    p.cfg.Cooldown(),
		}),
		client: &http.Client{
			Timeout: time.Duration(p.cfg.TimeoutSecs) * time.Second,
		},
		limiter:         rate.NewLimiter(limit, 1),
		buildURL:        p.buildURL,
		parse:           p.parse,
		rankerOpts:      ranker.Options{Blacklist: blacklist},
		minScore:        minScore,
		maxAlternatives: maxAlt,
	}
}

func (e *engine) ID() string          { return e.id }
func (e *engine) Kind() strategy.Kind { return strategy.KindDirect }

func (e *engine) Status() model.StrategySnapshot { return e.state.Snapshot() }
func (e *engine) IsAvailable() bool              { return e.state.IsAvailable() }
func (e *engine) Reset()                         { e.state.Reset() }

func (e *engine) RecordFailure(latency time.Duration) {
	e.state.RecordUse(false, latency)
}

func (e *engine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Search queries the engine and ranks the hits. I/O failures are
// recorded against the breaker and come back as nil, never as an
// error.
func (e *engine) Search(ctx context.Context, companyName, ruc string) *model.SearchResult {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil
	}

	start := time.Now()
	hits, err := e.fetchHits(ctx, buildQuery(companyName, ruc))
	elapsed := time.Since(start)
	if err != nil {
		e.state.RecordUse(false, elapsed)
		zap.L().Warn("serp: query failed",
			zap.String("strategy", e.id),
			zap.String("company", companyName),
			zap.Error(err),
		)
		return nil
	}
	e.state.RecordUse(true, elapsed)

	candidates := ranker.Rank(hits, companyName, nil, e.rankerOpts)

	result := &model.SearchResult{
		CompanyName:    companyName,
		NormalizedName: ranker.Normalize(companyName),
		RUC:            ruc,
		Strategy:       e.id,
	}
	if len(candidates) > 0 {
		best := candidates[0]
		result.Website = best.URL
		result.Score = best.Score
		result.Title = best.Title
		result.Found = best.Score >= e.minScore
		if n := len(candidates); n > 1 {
			limit := e.maxAlternatives
			if n-1 < limit {
				limit = n - 1
			}
			result.Alternatives = candidates[1 : 1+limit]
		}
	}

	zap.L().Debug("serp: search complete",
		zap.String("strategy", e.id),
		zap.String("company", companyName),
		zap.Int("hits", len(hits)),
		zap.Bool("found", result.Found),
		zap.Int("score", result.Score),
	)
	return result
}

func (e *engine) fetchHits(ctx context.Context, query string) ([]model.RawHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.buildURL(query), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", e.id)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-PE,es;q=0.9,en;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: fetch", e.id)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("%s: status %d", e.id, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxSERPSize))
	if err != nil {
		return nil, eris.Wrapf(err, "%s: parse html", e.id)
	}

	hits := e.parse(doc)
	if len(hits) > maxHits {
		hits = hits[:maxHits]
	}
	return hits, nil
}

// buildQuery shapes the engine query: the exact name plus the terms
// that push official homepages above directory listings.
func buildQuery(companyName, ruc string) string {
	q := `"` + companyName + `" página web oficial`
	if ruc != "" {
		q += " RUC " + ruc
	}
	return q
}
