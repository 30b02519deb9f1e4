package loader

import (
	"context"
	"sync"

	"github.com/warp-contracts/weave-engine/model"
)

type cacheEntry struct {
	from         string
	to           string
	interactions []model.Interaction
}

// Caching wraps a Loader and memoizes the full interaction list per
// contract for the lifetime of the wrapper (normally one evaluation). A
// call that extends to_sort_key beyond what's cached triggers an
// incremental fetch starting from the last cached key rather than
// refetching the whole window.
type Caching struct {
	inner Loader

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewCaching(inner Loader) *Caching {
	return &Caching{inner: inner, cache: map[string]cacheEntry{}}
}

func (c *Caching) Load(ctx context.Context, contract string, from string, to string, opts Options) ([]model.Interaction, error) {
	c.mu.Lock()
	entry, ok := c.cache[contract]
	c.mu.Unlock()

	if !ok || entry.from != from {
		interactions, err := c.inner.Load(ctx, contract, from, to, opts)
		if err != nil {
			return nil, err
		}
		c.store(contract, cacheEntry{from: from, to: to, interactions: interactions})
		return interactions, nil
	}

	if to != "" && entry.to != "" && to <= entry.to {
		return Filter(entry.interactions, from, to, opts), nil
	}

	// extend: fetch only the tail beyond what's cached.
	tailFrom := entry.to
	if tailFrom == "" && len(entry.interactions) > 0 {
		tailFrom = entry.interactions[len(entry.interactions)-1].SortKey
	}
	tail, err := c.inner.Load(ctx, contract, tailFrom, to, opts)
	if err != nil {
		return nil, err
	}

	merged := append(append([]model.Interaction{}, entry.interactions...), tail...)
	c.store(contract, cacheEntry{from: from, to: to, interactions: merged})
	return Filter(merged, from, to, opts), nil
}

func (c *Caching) store(contract string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[contract] = entry
}
