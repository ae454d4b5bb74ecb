// Package ranker turns raw search-engine hits into a ranked,
// deduplicated list of candidate company websites.
package ranker

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// corporateSuffixes are legal-form tails that carry no brand signal.
// Longest first so "s.a.c." wins over "s.a.".
var corporateSuffixes = []string{
	"e.i.r.l.", "e.i.r.l", "eirl",
	"s.a.c.", "s.a.c", "sac",
	"s.r.l.", "s.r.l", "srl",
	"s.a.a.", "s.a.a", "saa",
	"s.a.", "s.a", "sa",
	"s.c.r.l.", "scrl",
}

// stopwords are connective words skipped when extracting significant
// name words and acronym initials.
var stopwords = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "el": true,
	"los": true, "y": true, "e": true, "en": true, "para": true,
	"the": true, "of": true, "and": true,
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a company name, strips diacritics and legal
// suffixes, and collapses whitespace.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}

	// Strip punctuation that is not part of a legal suffix yet.
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '.' {
			return r
		}
		return ' '
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	for _, suffix := range corporateSuffixes {
		if strings.HasSuffix(s, " "+suffix) {
			s = strings.TrimSuffix(s, " "+suffix)
			s = strings.TrimSpace(s)
		}
	}
	return strings.ReplaceAll(s, ".", "")
}

// SignificantWords returns the normalized name words longer than three
// characters, stopwords excluded.
func SignificantWords(name string) []string {
	var words []string
	for _, w := range strings.Fields(Normalize(name)) {
		if len(w) > 3 && !stopwords[w] {
			words = append(words, w)
		}
	}
	return words
}

// Variants derives short-form name variants: the acronym built from
// the initials of the name's non-stopword tokens, when it lands in the
// 3-6 character range an acronym brand usually has (BCP, BBVA, ARCC).
func Variants(name string) []string {
	var initials strings.Builder
	for _, w := range strings.Fields(Normalize(name)) {
		if stopwords[w] {
			continue
		}
		initials.WriteByte(w[0])
	}

	acronym := initials.String()
	if len(acronym) >= 3 && len(acronym) <= 6 {
		return []string{acronym}
	}
	return nil
}
