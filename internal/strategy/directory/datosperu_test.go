package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("unreachable")
	}
	return []byte(body), nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Search.ConfidentScore = 15
	cfg.Search.MinScore = 8
	cfg.Search.MaxAlternatives = 5
	cfg.Ranker.Blacklist = config.DefaultBlacklist
	return cfg
}

const searchPage = `<html><body>
<div class="resultados">
  <a href="/empresa-banco-de-credito-del-peru-bcp-20100047218.php">BANCO DE CREDITO DEL PERU</a>
  <a href="/nosotros.php">Nosotros</a>
</div>
</body></html>`

const profileWithWebsite = `<html>
<head><title>Banco de Credito del Peru BCP - Informacion de empresa</title></head>
<body>
<table>
  <tr><td>RUC</td><td>20100047218</td></tr>
  <tr><td>Razon Social</td><td>BANCO DE CREDITO DEL PERU</td></tr>
</table>
<p>Página Web: <a href="https://www.viabcp.com/">www.viabcp.com</a></p>
</body></html>`

const profileNoWebsite = `<html>
<head><title>Banco de Credito del Peru BCP - Informacion de empresa</title></head>
<body>
<table>
  <tr><td>RUC</td><td>20100047218</td></tr>
  <tr><td>Telefono</td><td>311-9898</td></tr>
</table>
</body></html>`

func TestDatosPeru_Search_ProfileListsWebsite(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.datosperu.org/buscador.php?cbuscador=banco+de+credito+del+peru": searchPage,
		"https://www.datosperu.org/empresa-banco-de-credito-del-peru-bcp-20100047218.php": profileWithWebsite,
	}}

	d := NewDatosPeru(testConfig(), fetcher)
	result := d.Search(context.Background(), "BANCO DE CREDITO DEL PERU S.A.", "20100047218")

	require.NotNil(t, result)
	assert.True(t, result.Found)
	assert.Equal(t, "https://www.viabcp.com/", result.Website)
	assert.Equal(t, "datosperu", result.Strategy)
	assert.GreaterOrEqual(t, result.Score, 8)
	require.Len(t, fetcher.calls, 2)

	snap := d.Status()
	assert.Equal(t, 1, snap.UsageCount)
	assert.Equal(t, 1, snap.SuccessCount)
}

func TestDatosPeru_Search_FallsBackToProfileURL(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.datosperu.org/buscador.php?cbuscador=banco+de+credito+del+peru": searchPage,
		"https://www.datosperu.org/empresa-banco-de-credito-del-peru-bcp-20100047218.php": profileNoWebsite,
	}}

	d := NewDatosPeru(testConfig(), fetcher)
	result := d.Search(context.Background(), "BANCO DE CREDITO DEL PERU S.A.", "20100047218")

	require.NotNil(t, result)
	assert.Equal(t, "https://www.datosperu.org/empresa-banco-de-credito-del-peru-bcp-20100047218.php", result.Website)
	assert.NotZero(t, result.Score)
}

func TestDatosPeru_Search_RUCMismatchSkipsProfile(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.datosperu.org/buscador.php?cbuscador=banco+de+credito+del+peru": searchPage,
		"https://www.datosperu.org/empresa-banco-de-credito-del-peru-bcp-20100047218.php": profileWithWebsite,
	}}

	d := NewDatosPeru(testConfig(), fetcher)
	result := d.Search(context.Background(), "BANCO DE CREDITO DEL PERU S.A.", "99999999999")

	require.NotNil(t, result)
	assert.False(t, result.Found)
	assert.Empty(t, result.Website)
}

func TestDatosPeru_Search_SearchPageUnreachable(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{}}

	d := NewDatosPeru(testConfig(), fetcher)
	result := d.Search(context.Background(), "BANCO DE CREDITO DEL PERU S.A.", "")

	assert.Nil(t, result)
	snap := d.Status()
	assert.Equal(t, 1, snap.FailCount)
}

func TestDatosPeru_UnreachableProfileIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.datosperu.org/buscador.php?cbuscador=banco+de+credito+del+peru": searchPage,
	}}

	d := NewDatosPeru(testConfig(), fetcher)
	result := d.Search(context.Background(), "BANCO DE CREDITO DEL PERU S.A.", "")

	require.NotNil(t, result)
	assert.False(t, result.Found)
	snap := d.Status()
	assert.Equal(t, 1, snap.SuccessCount)
}

func TestDatosPeru_ImplementsStrategy(t *testing.T) {
	d := NewDatosPeru(testConfig(), &fakeFetcher{})
	var s strategy.Strategy = d
	assert.Equal(t, "datosperu", s.ID())
	assert.Equal(t, strategy.KindDirectory, s.Kind())
	assert.True(t, s.IsAvailable())
	assert.NoError(t, s.Close())
}
