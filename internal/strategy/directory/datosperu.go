// Package directory implements the Phase-2 fallback strategy: looking
// a company up in a structured business directory when no direct
// search produced a confident match. The directory sits behind
// Cloudflare, so every page goes through the rotating proxy fetcher.
package directory

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/ranker"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

const (
	datosPeruBase = "https://www.datosperu.org"
	maxProfiles   = 3
)

// Fetcher retrieves a page body, typically through the rotating proxy
// pool. The adapter treats any error as "page unreachable".
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// DatosPeru searches datosperu.org company profiles. When a profile
// lists the company's own website that URL is returned; otherwise the
// profile page itself becomes a low-confidence candidate.
type DatosPeru struct {
	state   *strategy.State
	fetcher Fetcher
	baseURL string

	rankerOpts      ranker.Options
	minScore        int
	maxAlternatives int
}

// DatosPeruOption overrides adapter internals, mainly for tests.
type DatosPeruOption func(*DatosPeru)

// WithBaseURL points the adapter at a different directory host.
func WithBaseURL(base string) DatosPeruOption {
	return func(d *DatosPeru) { d.baseURL = strings.TrimSuffix(base, "/") }
}

// NewDatosPeru creates the datosperu.org directory strategy.
func NewDatosPeru(cfg *config.Config, fetcher Fetcher, opts ...DatosPeruOption) *DatosPeru {
	sc := cfg.Strategy("datosperu")
	blacklist := cfg.Ranker.Blacklist
	if len(blacklist) == 0 {
		blacklist = config.DefaultBlacklist
	}
	minScore := cfg.Search.MinScore
	if minScore <= 0 {
		minScore = 8
	}
	maxAlt := cfg.Search.MaxAlternatives
	if maxAlt <= 0 {
		maxAlt = 5
	}
	d := &DatosPeru{
		state: strategy.NewState("datosperu", strategy.StateConfig{
			Cap:         sc.SessionCap,
			FailureTrip: sc.FailureTrip,
			Cooldown:    sc.Cooldown(),
		}),
		fetcher:         fetcher,
		baseURL:         datosPeruBase,
		rankerOpts:      ranker.Options{Blacklist: blacklist},
		minScore:        minScore,
		maxAlternatives: maxAlt,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

var _ strategy.Strategy = (*DatosPeru)(nil)

func (d *DatosPeru) ID() string          { return "datosperu" }
func (d *DatosPeru) Kind() strategy.Kind { return strategy.KindDirectory }

func (d *DatosPeru) Status() model.StrategySnapshot { return d.state.Snapshot() }
func (d *DatosPeru) IsAvailable() bool              { return d.state.IsAvailable() }
func (d *DatosPeru) Reset()                         { d.state.Reset() }
func (d *DatosPeru) Close() error                   { return nil }

func (d *DatosPeru) RecordFailure(latency time.Duration) {
	d.state.RecordUse(false, latency)
}

// Search queries the directory and ranks what the profiles reveal.
func (d *DatosPeru) Search(ctx context.Context, companyName, ruc string) *model.SearchResult {
	start := time.Now()

	searchURL := d.baseURL + "/buscador.php?cbuscador=" + url.QueryEscape(ranker.Normalize(companyName))
	body, err := d.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		d.state.RecordUse(false, time.Since(start))
		zap.L().Warn("directory: search page unreachable",
			zap.String("company", companyName),
			zap.Error(err),
		)
		return nil
	}

	profiles := d.profileLinks(body)
	var websiteHits, profileHits []model.RawHit
	for _, profileURL := range profiles {
		page, err := d.fetcher.Fetch(ctx, profileURL)
		if err != nil {
			zap.L().Debug("directory: profile unreachable",
				zap.String("url", profileURL),
				zap.Error(err),
			)
			continue
		}
		website, title, pageText := parseProfile(page)
		if ruc != "" && !strings.Contains(pageText, ruc) {
			// Wrong company: the profile does not carry the RUC the
			// caller asked for.
			continue
		}
		if website != "" {
			websiteHits = append(websiteHits, model.RawHit{URL: website, Title: title})
		}
		profileHits = append(profileHits, model.RawHit{URL: profileURL, Title: title})
	}
	d.state.RecordUse(true, time.Since(start))

	result := &model.SearchResult{
		CompanyName:    companyName,
		NormalizedName: ranker.Normalize(companyName),
		RUC:            ruc,
		Strategy:       "datosperu",
	}

	// A website listed on the profile beats the profile page itself.
	// Profile pages skip consolidation: it would rewrite them to the
	// directory's root, losing the slug that identifies the company.
	candidates := ranker.Rank(websiteHits, companyName, nil, d.rankerOpts)
	if len(candidates) == 0 || candidates[0].Score < d.minScore {
		candidates = rankProfilePages(profileHits, companyName)
	}
	if len(candidates) > 0 {
		best := candidates[0]
		result.Website = best.URL
		result.Score = best.Score
		result.Title = best.Title
		result.Found = best.Score >= d.minScore
		if n := len(candidates); n > 1 {
			limit := d.maxAlternatives
			if n-1 < limit {
				limit = n - 1
			}
			result.Alternatives = candidates[1 : 1+limit]
		}
	}

	zap.L().Debug("directory: search complete",
		zap.String("company", companyName),
		zap.Int("profiles", len(profiles)),
		zap.Bool("found", result.Found),
		zap.Int("score", result.Score),
	)
	return result
}

// rankProfilePages scores profile URLs directly, keeping each page's
// own URL as the candidate.
func rankProfilePages(hits []model.RawHit, company string) []model.RankedCandidate {
	variants := ranker.Variants(company)
	out := make([]model.RankedCandidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, model.RankedCandidate{
			URL:   h.URL,
			Title: h.Title,
			Score: ranker.Score(h.URL, h.Title, company, variants),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// profileLinks pulls company profile URLs out of the directory's
// search results page.
func (d *DatosPeru) profileLinks(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || !strings.Contains(href, "empresa-") {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = d.baseURL + href
		}
		if !strings.HasPrefix(href, "http") || seen[href] {
			return true
		}
		seen[href] = true
		links = append(links, href)
		return len(links) < maxProfiles
	})
	return links
}

// parseProfile extracts the listed website (when the profile carries
// one), the page title, and the full text for RUC verification.
func parseProfile(body []byte) (website, title, pageText string) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", ""
	}

	title = strings.TrimSpace(doc.Find("title").Text())
	pageText = doc.Text()

	// The profile labels the company's own site "Página Web"; an
	// anchor inside a labeled block is the listed website.
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return true
		}
		parentText := strings.ToLower(sel.Parent().Text())
		if strings.Contains(parentText, "página web") ||
			strings.Contains(parentText, "pagina web") ||
			strings.Contains(parentText, "sitio web") {
			website = href
			return false
		}
		return true
	})
	return website, title, pageText
}
