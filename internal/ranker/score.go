package ranker

import (
	"net/url"
	"strings"
)

// peruTLDs are the hostname suffixes that signal local hosting.
var peruTLDs = []string{".com.pe", ".gob.pe", ".org.pe", ".pe"}

// secondLevelSuffixes are the labels that make a registrable domain
// three labels long (x.com.pe, x.gob.pe) instead of two.
var secondLevelSuffixes = map[string]bool{
	"com": true, "gob": true, "org": true, "net": true, "edu": true,
}

// portalSubdomains mark hosts that are internal portals rather than
// public homepages.
var portalSubdomains = []string{"login", "app", "secure", "auth", "portal", "zonasegura"}

// documentExtensions mark paths that point at a document, not a page.
var documentExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx"}

// Score rates a single (url, title) hit against the target company
// name and its short-form variants. Higher is better; the scale is
// open-ended. Signals are additive so each one can be tested in
// isolation.
func Score(rawURL, title, company string, variants []string) int {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return 0
	}

	host := strings.ToLower(u.Hostname())
	words := SignificantWords(company)
	base := baseLabel(host)
	score := 0

	// Local TLD: a Peruvian company's own site is usually .pe hosted.
	for _, tld := range peruTLDs {
		if strings.HasSuffix(host, tld) {
			score += 15
			break
		}
	}

	// Name words present in the hostname.
	for _, w := range words {
		if strings.Contains(host, w) {
			score += 10
		}
	}

	// A short acronym matching the domain base is a strong brand
	// signal: the registered domain is frequently the commercial
	// initials rather than the legal name.
	for _, v := range variants {
		v = strings.ToLower(v)
		if len(v) >= 3 && len(v) <= 6 && strings.Contains(base, v) {
			score += 12
			break
		}
	}

	lowerTitle := strings.ToLower(title)
	for _, w := range words {
		if strings.Contains(lowerTitle, w) {
			score += 5
		}
	}
	if strings.Contains(lowerTitle, "oficial") || strings.Contains(lowerTitle, "official") {
		score += 3
	}

	if u.Scheme == "https" {
		score += 2
	}

	// Homepages are the desired target; deep paths suggest a profile
	// or legal-notice page under someone else's site.
	depth := pathDepth(u.Path)
	switch {
	case depth == 0 || isLocaleRoot(u.Path):
		score += 8
	case depth >= 3:
		score -= 5
	case depth == 2:
		score -= 2
	}

	// Government hosts are never a private company's own site.
	if strings.HasSuffix(host, ".gob.pe") {
		score -= 20
	}

	lowerPath := strings.ToLower(u.Path)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			score -= 15
			break
		}
	}

	if len(u.RawQuery) > 20 {
		score -= 5
	}

	if sub := subdomainLabel(host); sub != "" {
		for _, p := range portalSubdomains {
			if sub == p {
				score -= 3
				break
			}
		}
	}

	// A compact, name-bearing domain base reads as the real brand.
	if len(base) <= 15 {
		for _, w := range words {
			if strings.Contains(base, w) {
				score += 5
				break
			}
		}
	}

	return score
}

// RootDomain returns the registrable domain for a hostname: the last
// two labels, or the last three when the second-to-last label is a
// known second-level suffix (x.com.pe).
func RootDomain(host string) string {
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	if secondLevelSuffixes[labels[len(labels)-2]] {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// baseLabel returns the brand-bearing label of the registrable domain:
// "viabcp" for www.viabcp.com or x.viabcp.com.pe.
func baseLabel(host string) string {
	root := RootDomain(host)
	if i := strings.IndexByte(root, '.'); i > 0 {
		return root[:i]
	}
	return root
}

// subdomainLabel returns the first label when the host has one beyond
// its registrable domain, "" otherwise. "www" is not a subdomain here.
func subdomainLabel(host string) string {
	host = strings.ToLower(host)
	root := RootDomain(host)
	if host == root || host == "www."+root {
		return ""
	}
	prefix := strings.TrimSuffix(host, "."+root)
	if i := strings.IndexByte(prefix, '.'); i >= 0 {
		prefix = prefix[:i]
	}
	return prefix
}

func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// isLocaleRoot reports whether the path is a bare locale prefix such
// as /es/ or /en-US/, which still counts as a homepage.
func isLocaleRoot(path string) bool {
	seg := strings.Trim(path, "/")
	if seg == "" || strings.Contains(seg, "/") {
		return seg == ""
	}
	if len(seg) == 2 {
		return true
	}
	if len(seg) == 5 && seg[2] == '-' {
		return true
	}
	return false
}
