package serp

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

const bingBase = "https://www.bing.com/search"

// Bing is the second direct strategy, tried when DuckDuckGo is
// exhausted, cooling down, or below the confidence threshold.
type Bing struct {
	*engine
}

// NewBing creates the Bing HTML strategy.
func NewBing(cfg *config.Config, opts ...Option) *Bing {
	e := newEngine(engineParams{
		id:     "bing",
		cfg:    cfg.Strategy("bing"),
		search: cfg.Search,
		ranker: cfg.Ranker,
		buildURL: func(query string) string {
			return bingBase + "?q=" + url.QueryEscape(query) + "&setlang=es&cc=pe"
		},
		parse: parseBing,
	})
	for _, o := range opts {
		o(e)
	}
	return &Bing{engine: e}
}

var _ strategy.Strategy = (*Bing)(nil)

func parseBing(doc *goquery.Document) []model.RawHit {
	var hits []model.RawHit
	doc.Find("li.b_algo h2 a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		hits = append(hits, model.RawHit{
			URL:   href,
			Title: strings.TrimSpace(sel.Text()),
		})
	})
	return hits
}
