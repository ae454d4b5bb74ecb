package strategy

import (
	"context"
	"time"

	"github.com/Mingbling1/empliq-scraper-api/internal/model"
)

// Kind separates the two orchestration phases a strategy belongs to.
type Kind int

const (
	// KindDirect searches for the company's own site (Phase 1).
	KindDirect Kind = iota
	// KindDirectory searches structured business directories (Phase 2).
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Strategy is one distinct way of finding a company's website. A nil
// result with a nil error means "found nothing" — adapters swallow
// their own I/O failures, record them against their State, and never
// surface them to the orchestrator.
type Strategy interface {
	ID() string
	Kind() Kind

	// Search looks up the company. ruc may be empty.
	Search(ctx context.Context, companyName, ruc string) *model.SearchResult

	// RecordFailure charges a failed use against the strategy's
	// breaker. Adapters record their own I/O failures inside Search;
	// this is for failures only the caller can see, such as a panic
	// recovered mid-call.
	RecordFailure(latency time.Duration)

	Status() model.StrategySnapshot
	IsAvailable() bool
	Reset()

	// Close releases held resources. Idempotent.
	Close() error
}

// Registry maps strategy ids to implementations and keeps the
// priority order per kind. It is built once at startup and read-only
// afterwards, so no locking is needed.
type Registry struct {
	byID    map[string]Strategy
	ordered []Strategy
}

// NewRegistry builds a registry from strategies in priority order.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{byID: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		if _, dup := r.byID[s.ID()]; dup {
			continue
		}
		r.byID[s.ID()] = s
		r.ordered = append(r.ordered, s)
	}
	return r
}

// Get returns the strategy by id, or nil.
func (r *Registry) Get(id string) Strategy {
	return r.byID[id]
}

// ByKind returns the strategies of one kind in priority order.
func (r *Registry) ByKind(kind Kind) []Strategy {
	var out []Strategy
	for _, s := range r.ordered {
		if s.Kind() == kind {
			out = append(out, s)
		}
	}
	return out
}

// All returns every strategy in priority order.
func (r *Registry) All() []Strategy {
	return r.ordered
}

// CloseAll disposes every registered strategy.
func (r *Registry) CloseAll() {
	for _, s := range r.ordered {
		_ = s.Close()
	}
}
