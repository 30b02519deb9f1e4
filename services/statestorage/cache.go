// Package statestorage implements the sort-key cache: a per-contract
// key/value store keyed by sort-key with range lookups, backed by a
// pluggable Adapter (in-memory or persistent leveldb).
package statestorage

import (
	"github.com/pkg/errors"
)

// Entry pairs a sort-key with its stored value, returned by lookups that
// don't know the key in advance (get_last, get_less_or_equal).
type Entry[V any] struct {
	SortKey string
	Value   V
}

// Adapter is the persistence boundary a Cache is built on: byte-level
// storage keyed by (contract, sort-key), ordered lexicographically within
// a contract's namespace. Both adapter/memory and adapter/leveldb satisfy
// it with identical semantics per spec.md §4.2.
type Adapter interface {
	Get(contract string, sortKey string) ([]byte, bool, error)
	// GetLessOrEqual returns the entry with the greatest sort-key <= the
	// given key, within contract's namespace.
	GetLessOrEqual(contract string, sortKey string) (string, []byte, bool, error)
	GetLast(contract string) (string, []byte, bool, error)
	Put(contract string, sortKey string, value []byte) error
	Delete(contract string, sortKey string) error
	Keys(contract string) ([]string, error)
	AllContracts() ([]string, error)
	// PruneKeepLastN deletes every entry but the N most recent (by
	// sort-key descending) for contract.
	PruneKeepLastN(contract string, n int) error
	Close() error
}

// Codec marshals V to and from the bytes an Adapter stores.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// Cache is the sort-key cache contract from spec.md §4.2, typed over the
// value it stores (normally *model.EvalStateResult[S]).
type Cache[V any] struct {
	adapter Adapter
	codec   Codec[V]
}

func New[V any](adapter Adapter, codec Codec[V]) *Cache[V] {
	return &Cache[V]{adapter: adapter, codec: codec}
}

func (c *Cache[V]) Get(contract string, sortKey string) (Entry[V], bool, error) {
	raw, ok, err := c.adapter.Get(contract, sortKey)
	if err != nil {
		return Entry[V]{}, false, errors.Wrapf(err, "get %s@%s", contract, sortKey)
	}
	if !ok {
		return Entry[V]{}, false, nil
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return Entry[V]{}, false, errors.Wrapf(err, "decode %s@%s", contract, sortKey)
	}
	return Entry[V]{SortKey: sortKey, Value: v}, true, nil
}

func (c *Cache[V]) GetLast(contract string) (Entry[V], bool, error) {
	key, raw, ok, err := c.adapter.GetLast(contract)
	if err != nil {
		return Entry[V]{}, false, errors.Wrapf(err, "get_last %s", contract)
	}
	if !ok {
		return Entry[V]{}, false, nil
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return Entry[V]{}, false, errors.Wrapf(err, "decode %s@%s", contract, key)
	}
	return Entry[V]{SortKey: key, Value: v}, true, nil
}

func (c *Cache[V]) GetLessOrEqual(contract string, sortKey string) (Entry[V], bool, error) {
	key, raw, ok, err := c.adapter.GetLessOrEqual(contract, sortKey)
	if err != nil {
		return Entry[V]{}, false, errors.Wrapf(err, "get_less_or_equal %s@%s", contract, sortKey)
	}
	if !ok {
		return Entry[V]{}, false, nil
	}
	v, err := c.codec.Decode(raw)
	if err != nil {
		return Entry[V]{}, false, errors.Wrapf(err, "decode %s@%s", contract, key)
	}
	return Entry[V]{SortKey: key, Value: v}, true, nil
}

func (c *Cache[V]) Put(contract string, sortKey string, value V) error {
	raw, err := c.codec.Encode(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s@%s", contract, sortKey)
	}
	return errors.Wrapf(c.adapter.Put(contract, sortKey, raw), "put %s@%s", contract, sortKey)
}

func (c *Cache[V]) Delete(contract string, sortKey string) error {
	return errors.Wrapf(c.adapter.Delete(contract, sortKey), "delete %s@%s", contract, sortKey)
}

func (c *Cache[V]) Keys(contract string) ([]string, error) {
	keys, err := c.adapter.Keys(contract)
	return keys, errors.Wrapf(err, "keys %s", contract)
}

func (c *Cache[V]) AllContracts() ([]string, error) {
	contracts, err := c.adapter.AllContracts()
	return contracts, errors.Wrap(err, "all_contracts")
}

// Dump returns every entry of every contract, decoded, for diagnostics
// and for migrating between adapters.
func (c *Cache[V]) Dump() (map[string][]Entry[V], error) {
	contracts, err := c.AllContracts()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Entry[V], len(contracts))
	for _, contract := range contracts {
		keys, err := c.Keys(contract)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry[V], 0, len(keys))
		for _, key := range keys {
			entry, ok, err := c.Get(contract, key)
			if err != nil {
				return nil, err
			}
			if ok {
				entries = append(entries, entry)
			}
		}
		out[contract] = entries
	}
	return out, nil
}

// Prune retains only the n most-recent entries per contract, sort-key
// descending, across every contract in the cache.
func (c *Cache[V]) Prune(n int) error {
	contracts, err := c.AllContracts()
	if err != nil {
		return err
	}
	for _, contract := range contracts {
		if err := c.adapter.PruneKeepLastN(contract, n); err != nil {
			return errors.Wrapf(err, "prune %s", contract)
		}
	}
	return nil
}

func (c *Cache[V]) Close() error {
	return c.adapter.Close()
}
