package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingbling1/empliq-scraper-api/internal/model"
)

var testBlacklist = []string{
	"google.com", "facebook.com", "linkedin.com", "computrabajo.com",
	"datosperu.org", "wikipedia.org",
}

func TestRank_BlacklistClosure(t *testing.T) {
	t.Parallel()

	hits := []model.RawHit{
		{URL: "https://www.facebook.com/viabcp", Title: "BCP - Banco de Crédito Oficial"},
		{URL: "https://pe.linkedin.com/company/bcp", Title: "BCP"},
		{URL: "https://www.datosperu.org/empresa-banco-de-credito", Title: "Banco de Crédito del Perú"},
		{URL: "https://www.google.com/search?q=bcp", Title: "bcp"},
	}

	got := Rank(hits, bcp, nil, Options{Blacklist: testBlacklist})
	assert.Empty(t, got, "blacklisted hosts must never rank, regardless of title")
}

func TestRank_MalformedURLFailsClosed(t *testing.T) {
	t.Parallel()

	hits := []model.RawHit{
		{URL: "://broken", Title: "Banco de Crédito"},
		{URL: "ftp://files.acme.com/x", Title: "ACME"},
		{URL: "https://viabcp.com/", Title: "BCP"},
	}

	got := Rank(hits, bcp, nil, Options{Blacklist: testBlacklist})
	require.Len(t, got, 1)
	assert.Equal(t, "https://www.viabcp.com/", got[0].URL)
}

func TestRank_ConsolidatesRootDomain(t *testing.T) {
	t.Parallel()

	hits := []model.RawHit{
		{URL: "https://www.acme.com/", Title: "ACME"},
		{URL: "https://acme.com/about", Title: "ACME - Quiénes somos"},
		{URL: "https://login.acme.com/", Title: "ACME portal"},
	}

	got := Rank(hits, "ACME SAC", nil, Options{Blacklist: testBlacklist})
	require.Len(t, got, 1, "same root domain must collapse to one candidate")
	assert.Equal(t, "https://www.acme.com/", got[0].URL)
	assert.Equal(t, "ACME - Quiénes somos", got[0].Title, "longer title wins the merge")
}

func TestRank_NormalizedHomepageNeverScoresBelowOriginal(t *testing.T) {
	t.Parallel()

	// A deep subdomain page alone must still rank its root homepage
	// at least as high as the deep page itself.
	deep := []model.RawHit{{URL: "https://login.acme.com.pe/cuenta/ingreso", Title: "ACME ingreso"}}
	got := Rank(deep, "ACME SAC", nil, Options{Blacklist: testBlacklist})
	require.Len(t, got, 1)
	assert.Equal(t, "https://www.acme.com.pe/", got[0].URL)
	assert.GreaterOrEqual(t, got[0].Score, Score(deep[0].URL, deep[0].Title, "ACME SAC", nil))
}

func TestRank_Idempotent(t *testing.T) {
	t.Parallel()

	hits := []model.RawHit{
		{URL: "https://viabcp.com/", Title: "BCP - Banco de Crédito"},
		{URL: "https://www.bancomundo.pe/", Title: "Banco Mundo"},
		{URL: "https://viabcp.com/tarjetas", Title: "Tarjetas BCP"},
	}

	first := Rank(hits, bcp, nil, Options{Blacklist: testBlacklist})
	second := Rank(hits, bcp, nil, Options{Blacklist: testBlacklist})
	assert.Equal(t, first, second)
}

func TestRank_SortsDescendingKeepingArrivalOrderOnTies(t *testing.T) {
	t.Parallel()

	// Two hits with identical signals: provider order decides.
	hits := []model.RawHit{
		{URL: "http://first.net/", Title: ""},
		{URL: "http://second.net/", Title: ""},
		{URL: "https://viabcp.com/", Title: "Banco de Crédito BCP"},
	}

	got := Rank(hits, bcp, []string{"bcp"}, Options{Blacklist: testBlacklist})
	require.Len(t, got, 3)
	assert.Equal(t, "https://www.viabcp.com/", got[0].URL)
	assert.Equal(t, "https://www.first.net/", got[1].URL)
	assert.Equal(t, "https://www.second.net/", got[2].URL)
	assert.Equal(t, got[1].Score, got[2].Score)
}

func TestRank_DedupKeepsFirstPerHostname(t *testing.T) {
	t.Parallel()

	hits := []model.RawHit{
		{URL: "https://acme.pe/", Title: "first"},
		{URL: "https://acme.pe/otra", Title: "a much longer duplicate title"},
	}

	got := Rank(hits, "ACME SAC", nil, Options{Blacklist: testBlacklist})
	require.Len(t, got, 1)
	// The second hit on the same hostname was dropped before
	// consolidation, so its title never merges in.
	assert.Equal(t, "first", got[0].Title)
}

func TestRank_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Rank(nil, bcp, nil, Options{Blacklist: testBlacklist}))
}
