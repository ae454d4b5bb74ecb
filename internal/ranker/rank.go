package ranker

import (
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/model"
)

// Options configures one ranking pass. Adapters that search inside a
// directory site supply their own blacklist so the directory's own
// domain survives filtering.
type Options struct {
	Blacklist []string
}

// Rank filters, scores, deduplicates and consolidates raw hits into a
// descending-ordered candidate list. Ties keep provider-arrival order.
func Rank(hits []model.RawHit, company string, variants []string, opts Options) []model.RankedCandidate {
	variants = append(variants, Variants(company)...)

	// Blacklist filter, then first-hit-wins hostname dedup.
	seen := make(map[string]bool)
	var kept []model.RawHit
	for _, h := range hits {
		host, ok := hostnameOf(h.URL)
		if !ok || blacklisted(host, opts.Blacklist) {
			continue
		}
		if seen[host] {
			continue
		}
		seen[host] = true
		kept = append(kept, h)
	}

	// Score and consolidate by root domain. A login subdomain or a
	// deep legal-notice page must not shadow the real homepage under
	// the same brand, so every root also gets its normalized homepage
	// URL scored and the best of the two is kept.
	type group struct {
		candidate model.RankedCandidate
		order     int
	}
	groups := make(map[string]*group)
	var roots []string

	for i, h := range kept {
		host, _ := hostnameOf(h.URL)
		root := RootDomain(host)
		normalized := "https://www." + root + "/"

		score := Score(h.URL, h.Title, company, variants)
		if ns := Score(normalized, h.Title, company, variants); ns > score {
			score = ns
		}

		g, ok := groups[root]
		if !ok {
			groups[root] = &group{
				candidate: model.RankedCandidate{URL: normalized, Title: h.Title, Score: score},
				order:     i,
			}
			roots = append(roots, root)
			continue
		}
		if score > g.candidate.Score {
			g.candidate.Score = score
		}
		// Keep the longer, more descriptive title.
		if len(h.Title) > len(g.candidate.Title) {
			g.candidate.Title = h.Title
		}
	}

	out := make([]model.RankedCandidate, 0, len(roots))
	for _, root := range roots {
		out = append(out, groups[root].candidate)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	zap.L().Debug("ranker: consolidated candidates",
		zap.String("company", company),
		zap.Int("raw", len(hits)),
		zap.Int("ranked", len(out)),
	)

	return out
}

// hostnameOf parses the URL and returns its lowercase hostname. A
// malformed URL fails closed: it is treated like a blacklisted hit.
func hostnameOf(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

func blacklisted(host string, blacklist []string) bool {
	for _, b := range blacklist {
		if b != "" && strings.Contains(host, strings.ToLower(b)) {
			return true
		}
	}
	return false
}
