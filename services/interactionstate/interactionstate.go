// Package interactionstate implements the transactional scratchpad from
// spec.md §4.8: a per-root-call map from (contract_tx_id, sort_key) to a
// folded state, staged during a fold and only reaching the persistent
// sort-key cache on commit. A nested readState sees the same scratchpad
// as its parent, so a write staged for one contract is visible to every
// other contract folding inside the same root call — the mechanism that
// lets internal-write cycles converge.
package interactionstate

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/statestorage"
	"github.com/warp-contracts/weave-engine/sortkey"
)

// State is the shape every scratchpad entry holds. The evaluator folds and
// stages every contract's state as raw JSON, since a single root call may
// touch contracts with unrelated state shapes.
type State = *model.EvalStateResult[json.RawMessage]

// Base is the persistent sort-key cache a Scratchpad falls back to for
// entries it has not itself staged, and flushes committed entries into.
// *statestorage.Cache[State] satisfies this.
type Base interface {
	Get(contract, sortKey string) (statestorage.Entry[State], bool, error)
	GetLessOrEqual(contract, sortKey string) (statestorage.Entry[State], bool, error)
	GetLast(contract string) (statestorage.Entry[State], bool, error)
	Put(contract, sortKey string, value State) error
}

// Key identifies one scratchpad slot.
type Key struct {
	Contract string
	SortKey  string
}

type staged struct {
	result    State
	cacheable bool
}

// Scratchpad is the transactional map itself, shared by every contract
// folded inside one root readState call.
type Scratchpad struct {
	base Base

	mu      sync.Mutex
	entries map[Key]staged
	order   []Key // insertion order; Commit/Rollback walk it to stay deterministic
}

// New builds a Scratchpad backed by base. base may be nil for a base
// (non-cacheable) evaluator, in which case the scratchpad never falls
// back to or commits into persistent storage.
func New(base Base) *Scratchpad {
	return &Scratchpad{base: base, entries: map[Key]staged{}}
}

// SetInitial stages result as the starting point for contract at
// sort-key, uncommitted and never itself cacheable (it mirrors whatever
// base state the fold started from, already persisted if it came from
// the cache).
func (s *Scratchpad) SetInitial(contract, sortKey string, result State) {
	s.stage(contract, sortKey, result, false)
}

// Update stages result as contract's folded state as of sort-key,
// overwriting any earlier staged entry at the same key. cacheable gates
// whether a later Commit is allowed to persist it (spec.md §4.7 step 8).
func (s *Scratchpad) Update(contract, sortKey string, result State, cacheable bool) {
	s.stage(contract, sortKey, result, cacheable)
}

func (s *Scratchpad) stage(contract, sortKey string, result State, cacheable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := Key{Contract: contract, SortKey: sortKey}
	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = staged{result: result, cacheable: cacheable}
}

// Get reads the exact (contract, sortKey) entry, scratchpad first, base
// cache second.
func (s *Scratchpad) Get(contract, sortKey string) (State, bool, error) {
	s.mu.Lock()
	e, ok := s.entries[Key{Contract: contract, SortKey: sortKey}]
	s.mu.Unlock()
	if ok {
		return e.result, true, nil
	}
	if s.base == nil {
		return nil, false, nil
	}
	entry, ok, err := s.base.Get(contract, sortKey)
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %s@%s", contract, sortKey)
	}
	if !ok {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// GetLessOrEqual returns the freshest known state for contract at or
// before sortKey (an empty sortKey means unbounded, i.e. the latest).
// Staged entries take precedence over the base cache at equal sort-keys,
// since a staged entry may not have been committed yet.
func (s *Scratchpad) GetLessOrEqual(contract, sortKey string) (State, string, bool, error) {
	s.mu.Lock()
	var bestKey string
	var best State
	found := false
	for key, e := range s.entries {
		if key.Contract != contract {
			continue
		}
		if sortKey != "" && sortkey.Less(sortKey, key.SortKey) {
			continue
		}
		if !found || sortkey.Less(bestKey, key.SortKey) {
			bestKey, best, found = key.SortKey, e.result, true
		}
	}
	s.mu.Unlock()

	if s.base == nil {
		return best, bestKey, found, nil
	}

	var baseEntry statestorage.Entry[State]
	var baseOk bool
	var err error
	if sortKey == "" {
		baseEntry, baseOk, err = s.base.GetLast(contract)
	} else {
		baseEntry, baseOk, err = s.base.GetLessOrEqual(contract, sortKey)
	}
	if err != nil {
		return nil, "", false, errors.Wrapf(err, "get_less_or_equal %s@%s", contract, sortKey)
	}
	if baseOk && (!found || sortkey.Less(bestKey, baseEntry.SortKey)) {
		return baseEntry.Value, baseEntry.SortKey, true, nil
	}
	return best, bestKey, found, nil
}

// Commit flushes every staged entry with sort-key <= interaction's into
// the persistent cache, subject to the cacheability gate unless force is
// set, then drops the flushed entries from the scratchpad.
func (s *Scratchpad) Commit(interaction model.Interaction, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return nil
	}
	remaining := make([]Key, 0, len(s.order))
	for _, key := range s.order {
		if sortkey.Less(interaction.SortKey, key.SortKey) {
			remaining = append(remaining, key)
			continue
		}
		e := s.entries[key]
		if !force && !e.cacheable {
			remaining = append(remaining, key)
			continue
		}
		if err := s.base.Put(key.Contract, key.SortKey, e.result); err != nil {
			return errors.Wrapf(err, "commit %s@%s", key.Contract, key.SortKey)
		}
		delete(s.entries, key)
	}
	s.order = remaining
	return nil
}

// Rollback discards every staged entry at or after interaction's
// sort-key, restoring the pre-interaction view. force discards the
// entire scratchpad regardless of sort-key.
func (s *Scratchpad) Rollback(interaction model.Interaction, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if force {
		s.entries = map[Key]staged{}
		s.order = nil
		return
	}
	remaining := make([]Key, 0, len(s.order))
	for _, key := range s.order {
		if sortkey.Less(key.SortKey, interaction.SortKey) {
			remaining = append(remaining, key)
			continue
		}
		delete(s.entries, key)
	}
	s.order = remaining
}

// Pending reports whether contract has any uncommitted staged entry.
func (s *Scratchpad) Pending(contract string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if key.Contract == contract {
			return true
		}
	}
	return false
}
