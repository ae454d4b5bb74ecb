// Package model defines the shared data types exchanged between the
// search strategies, the ranker and the orchestrator.
package model

import "time"

// RawHit is a single (url, title) pair returned by a search strategy
// before any scoring. It carries no identity beyond its URL string.
type RawHit struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// RankedCandidate is one scored, consolidated candidate per root domain.
// Score is a signed integer; higher is better; there is no ceiling.
type RankedCandidate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

// SearchResult is the outward-facing outcome of one orchestration run.
type SearchResult struct {
	CompanyName    string            `json:"company_name"`
	NormalizedName string            `json:"normalized_name"`
	RUC            string            `json:"ruc,omitempty"`
	Website        string            `json:"website,omitempty"`
	Score          int               `json:"score"`
	Title          string            `json:"title,omitempty"`
	Found          bool              `json:"found"`
	Strategy       string            `json:"strategy,omitempty"`
	Alternatives   []RankedCandidate `json:"alternatives,omitempty"`
}

// BatchItem is one company in a batch lookup request.
type BatchItem struct {
	CompanyName string `json:"company_name"`
	RUC         string `json:"ruc,omitempty"`
}

// StrategySnapshot is a read-only view of one strategy's circuit
// breaker state, refreshed on every orchestration call.
type StrategySnapshot struct {
	Strategy      string     `json:"strategy"`
	Available     bool       `json:"available"`
	UsageCount    int        `json:"usage_count"`
	Cap           int        `json:"cap"`
	SuccessCount  int        `json:"success_count"`
	FailCount     int        `json:"fail_count"`
	SuccessRate   float64    `json:"success_rate"`
	AvgLatencyMs  float64    `json:"avg_latency_ms"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}
