package serp

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

const duckduckgoBase = "https://html.duckduckgo.com/html/"

// DuckDuckGo is the highest-priority direct strategy: the HTML
// endpoint needs no API key and tolerates datacenter egress better
// than the alternatives.
type DuckDuckGo struct {
	*engine
}

// Option overrides engine internals, mainly for tests.
type Option func(*engine)

// WithBaseURL points the engine at a different endpoint.
func WithBaseURL(base string) Option {
	return func(e *engine) {
		orig := e.buildURL
		e.buildURL = func(query string) string {
			u := orig(query)
			if i := strings.Index(u, "?"); i >= 0 {
				return base + u[i:]
			}
			return base
		}
	}
}

// NewDuckDuckGo creates the DuckDuckGo HTML strategy.
func NewDuckDuckGo(cfg *config.Config, opts ...Option) *DuckDuckGo {
	e := newEngine(engineParams{
		id:     "duckduckgo",
		cfg:    cfg.Strategy("duckduckgo"),
		search: cfg.Search,
		ranker: cfg.Ranker,
		buildURL: func(query string) string {
			return duckduckgoBase + "?q=" + url.QueryEscape(query)
		},
		parse: parseDuckDuckGo,
	})
	for _, o := range opts {
		o(e)
	}
	return &DuckDuckGo{engine: e}
}

var _ strategy.Strategy = (*DuckDuckGo)(nil)

func parseDuckDuckGo(doc *goquery.Document) []model.RawHit {
	var hits []model.RawHit
	doc.Find("a.result__a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = unwrapDuckDuckGoRedirect(href)
		title := strings.TrimSpace(sel.Text())
		if href == "" {
			return
		}
		hits = append(hits, model.RawHit{URL: href, Title: title})
	})
	return hits
}

// unwrapDuckDuckGoRedirect resolves the /l/?uddg=<encoded> indirection
// the HTML endpoint wraps result links in.
func unwrapDuckDuckGoRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
