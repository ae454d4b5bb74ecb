// Package proxy provides a rotating anonymous egress path for HTTP
// requests against a target that fingerprints and blocks standard
// client signatures.
package proxy

import (
	"sync/atomic"
)

// Pool holds the current set of proxy endpoints (scheme://host:port)
// as an immutable snapshot behind an atomic pointer. Refresh swaps
// the whole snapshot at once, so an in-flight rotation read never
// observes a half-updated pool. Membership carries no per-proxy
// history; the pool is replaced wholesale, never trimmed.
type Pool struct {
	snapshot atomic.Pointer[[]string]
	cursor   atomic.Uint64
}

// NewPool seeds the pool. The seed list must be non-empty; it is what
// guarantees Next never runs against an empty pool.
func NewPool(seeds []string) *Pool {
	p := &Pool{}
	entries := make([]string, len(seeds))
	copy(entries, seeds)
	p.snapshot.Store(&entries)
	return p
}

// Next returns the proxy at the round-robin cursor and advances it.
// It never blocks.
func (p *Pool) Next() string {
	entries := *p.snapshot.Load()
	i := p.cursor.Add(1) - 1
	return entries[int(i%uint64(len(entries)))]
}

// Replace atomically swaps the pool membership. An empty replacement
// is ignored: a failed refresh must retain the previous pool.
func (p *Pool) Replace(entries []string) {
	if len(entries) == 0 {
		return
	}
	copied := make([]string, len(entries))
	copy(copied, entries)
	p.snapshot.Store(&copied)
}

// Entries returns a copy of the current membership.
func (p *Pool) Entries() []string {
	entries := *p.snapshot.Load()
	out := make([]string, len(entries))
	copy(out, entries)
	return out
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	return len(*p.snapshot.Load())
}
