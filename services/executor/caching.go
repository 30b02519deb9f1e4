package executor

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

// CachingFactory shares compiled handlers across contracts that resolve
// to the same src_tx_id, since compiled handler instances are treated as
// immutable modulo the VM state InitState reseeds between interactions
// (spec.md's "shared resources" note in §4.9/§5).
type CachingFactory[S any] struct {
	inner *Factory[S]
	cache *lru.Cache[string, sandbox.Handler[S]]
}

// NewCachingFactory wraps inner with an LRU cache of at most size
// compiled handlers.
func NewCachingFactory[S any](inner *Factory[S], size int) (*CachingFactory[S], error) {
	cache, err := lru.New[string, sandbox.Handler[S]](size)
	if err != nil {
		return nil, err
	}
	return &CachingFactory[S]{inner: inner, cache: cache}, nil
}

func (f *CachingFactory[S]) Create(def model.ContractDefinition, cfg config.EvaluationConfig) (sandbox.Handler[S], error) {
	if handler, ok := f.cache.Get(def.SrcTxId); ok {
		return handler, nil
	}

	handler, err := f.inner.Create(def, cfg)
	if err != nil {
		return nil, err
	}

	f.cache.Add(def.SrcTxId, handler)
	return handler, nil
}

// Purge evicts every cached handler, used when a blacklist or allowlist
// changes and previously-compiled handlers must be recompiled under the
// new policy.
func (f *CachingFactory[S]) Purge() {
	f.cache.Purge()
}
