// Package server exposes the search orchestrator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
	"github.com/Mingbling1/empliq-scraper-api/internal/model"
	"github.com/Mingbling1/empliq-scraper-api/internal/orchestrator"
	"github.com/Mingbling1/empliq-scraper-api/internal/proxy"
)

// maxBatchSize bounds one batch request; larger batches should be
// split by the caller.
const maxBatchSize = 50

// Server wires the orchestrator and proxy rotator into an HTTP API.
type Server struct {
	cfg     *config.Config
	orch    *orchestrator.Orchestrator
	rotator *proxy.Rotator
}

// New creates the API server.
func New(cfg *config.Config, orch *orchestrator.Orchestrator, rotator *proxy.Rotator) *Server {
	return &Server{cfg: cfg, orch: orch, rotator: rotator}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/batch", s.handleBatch)
		r.Get("/status", s.handleStatus)
		r.Post("/strategies/{id}/reset", s.handleStrategyReset)
		r.Get("/proxies", s.handleProxies)
		r.Post("/proxies/refresh", s.handleProxyRefresh)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	CompanyName string `json:"company_name"`
	RUC         string `json:"ruc"`
	Strategy    string `json:"strategy"`
}

// handleSearch looks up one company. A miss is a normal outcome: the
// response is 200 with found=false, not an error status.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	result, lastStrategy := s.orch.Search(r.Context(), req.CompanyName, req.RUC, req.Strategy)
	if result == nil {
		result = &model.SearchResult{
			CompanyName: req.CompanyName,
			RUC:         req.RUC,
			Strategy:    lastStrategy,
		}
	}
	writeJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Companies []model.BatchItem `json:"companies"`

	// DelayMs overrides the inter-lookup pause; 0 uses each
	// strategy's own pacing window.
	DelayMs int `json:"delay_ms"`
}

type batchResponse struct {
	JobID   string                `json:"job_id"`
	Results []*model.SearchResult `json:"results"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Companies) == 0 {
		writeError(w, http.StatusBadRequest, "companies is required")
		return
	}
	if len(req.Companies) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch too large")
		return
	}
	if req.DelayMs < 0 {
		writeError(w, http.StatusBadRequest, "delay_ms must not be negative")
		return
	}

	jobID := uuid.NewString()
	zap.L().Info("batch started",
		zap.String("job_id", jobID),
		zap.Int("companies", len(req.Companies)),
	)

	results := s.orch.BatchSearch(r.Context(), req.Companies, time.Duration(req.DelayMs)*time.Millisecond)
	writeJSON(w, http.StatusOK, batchResponse{JobID: jobID, Results: results})
}

type statusResponse struct {
	Strategies []model.StrategySnapshot `json:"strategies"`
	ProxyCount int                      `json:"proxy_count"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Strategies: s.orch.Status(),
		ProxyCount: s.rotator.Pool().Len(),
	})
}

func (s *Server) handleStrategyReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orch.ResetStrategy(id); err != nil {
		writeError(w, http.StatusNotFound, "unknown strategy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset", "strategy": id})
}

func (s *Server) handleProxies(w http.ResponseWriter, _ *http.Request) {
	entries := s.rotator.Pool().Entries()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(entries),
		"proxies": entries,
	})
}

func (s *Server) handleProxyRefresh(w http.ResponseWriter, _ *http.Request) {
	// Detached from the request context: the refresh outlives the call.
	s.rotator.RefreshAsync(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
