// Package candidates sources restaurant decks for the host.
package candidates

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/DoyleJ11/dinedecide/internal/domain"
)

// Fetcher returns up to limit candidates for an area. Fewer is allowed.
type Fetcher interface {
	Fetch(ctx context.Context, area, query string, limit int) ([]domain.Candidate, error)
}

// Pool is a fixed in-memory source, also used to backfill short decks.
type Pool struct {
	mu    sync.Mutex
	items []domain.Candidate
	rnd   *rand.Rand
}

func NewPool(items []domain.Candidate, rnd *rand.Rand) *Pool {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Pool{items: items, rnd: rnd}
}

// Items returns the pool in its fixed order.
func (p *Pool) Items() []domain.Candidate {
	out := make([]domain.Candidate, len(p.items))
	copy(out, p.items)
	return out
}

// Fetch prefers candidates in area and falls back to the whole pool when
// none match. The result is shuffled.
func (p *Pool) Fetch(ctx context.Context, area, _ string, limit int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var picked []domain.Candidate
	for _, c := range p.items {
		if c.Area == area {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		picked = p.Items()
	}

	p.mu.Lock()
	p.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	p.mu.Unlock()

	if limit >= 0 && len(picked) > limit {
		picked = picked[:limit]
	}
	return picked, nil
}

// Backfill trims deck to n and tops it up from pool, skipping ids already
// present. Pool order is kept so every host fills the same way.
func Backfill(deck, pool []domain.Candidate, n int) []domain.Candidate {
	if len(deck) > n {
		deck = deck[:n]
	}
	out := make([]domain.Candidate, len(deck), n)
	copy(out, deck)

	seen := make(map[string]bool, n)
	for _, c := range out {
		seen[c.ID] = true
	}
	for _, c := range pool {
		if len(out) >= n {
			break
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
