package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/orchestrator"
	"github.com/Mingbling1/empliq-scraper-api/internal/proxy"
	"github.com/Mingbling1/empliq-scraper-api/internal/strategy"
)

type stubStrategy struct {
	id     string
	result *model.SearchResult
	resets int
}

func (s *stubStrategy) ID() string          { return s.id }
func (s *stubStrategy) Kind() strategy.Kind { return strategy.KindDirect }
func (s *stubStrategy) IsAvailable() bool   { return true }
func (s *stubStrategy) Reset()              { s.resets++ }
func (s *stubStrategy) Close() error        { return nil }

func (s *stubStrategy) RecordFailure(time.Duration) {}

func (s *stubStrategy) Status() model.StrategySnapshot {
	return model.StrategySnapshot{Strategy: s.id, Available: true}
}

func (s *stubStrategy) Search(_ context.Context, companyName, ruc string) *model.SearchResult {
	if s.result == nil {
		return nil
	}
	out := *s.result
	out.CompanyName = companyName
	out.RUC = ruc
	return &out
}

func testServer(t *testing.T, strategies ...strategy.Strategy) (*Server, *stubStrategy) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Search.ConfidentScore = 15
	cfg.Search.MinScore = 8
	cfg.Strategies = map[string]config.StrategyConfig{
		"stub": {PacingMinMs: 1, PacingMaxMs: 2},
	}

	stub := &stubStrategy{id: "stub", result: &model.SearchResult{
		Website:  "https://www.acme.com.pe/",
		Score:    22,
		Found:    true,
		Strategy: "stub",
	}}
	if len(strategies) == 0 {
		strategies = []strategy.Strategy{stub}
	}

	orch := orchestrator.New(cfg, strategy.NewRegistry(strategies...))
	rotator := proxy.NewRotator(config.ProxyConfig{
		Seeds: []string{"http://10.0.0.1:8080", "http://10.0.0.2:8080"},
	})
	return New(cfg, orch, rotator), stub
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/search",
		`{"company_name":"ACME S.A.C.","ruc":"20100047218"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var result model.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Found)
	assert.Equal(t, "https://www.acme.com.pe/", result.Website)
	assert.Equal(t, "ACME S.A.C.", result.CompanyName)
}

func TestHandleSearch_MissIsStillOK(t *testing.T) {
	miss := &stubStrategy{id: "stub"}
	srv, _ := testServer(t, miss)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/search",
		`{"company_name":"XYZ TEST SAC"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var result model.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Found)
	assert.Equal(t, "stub", result.Strategy)
}

func TestHandleSearch_BadRequests(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/search", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Router(), http.MethodPost, "/api/search", `{"ruc":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBatch(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/batch",
		`{"companies":[{"company_name":"ACME"},{"company_name":"GLOBEX"}],"delay_ms":1}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		JobID   string                `json:"job_id"`
		Results []model.SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "GLOBEX", resp.Results[1].CompanyName)
}

func TestHandleBatch_Validation(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/batch", `{"companies":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var sb strings.Builder
	sb.WriteString(`{"companies":[`)
	for i := 0; i < 51; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"company_name":"A"}`)
	}
	sb.WriteString(`]}`)
	rec = doJSON(t, srv.Router(), http.MethodPost, "/api/batch", sb.String())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Router(), http.MethodPost, "/api/batch",
		`{"companies":[{"company_name":"A"}],"delay_ms":-5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStatus(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Strategies []model.StrategySnapshot `json:"strategies"`
		ProxyCount int                      `json:"proxy_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Strategies, 1)
	assert.Equal(t, "stub", resp.Strategies[0].Strategy)
	assert.Equal(t, 2, resp.ProxyCount)
}

func TestHandleStrategyReset(t *testing.T) {
	srv, stub := testServer(t)

	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/strategies/stub/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.resets)

	rec = doJSON(t, srv.Router(), http.MethodPost, "/api/strategies/nope/reset", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleProxies(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/proxies", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int      `json:"count"`
		Proxies []string `json:"proxies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Contains(t, resp.Proxies, "http://10.0.0.1:8080")
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
