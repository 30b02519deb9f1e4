// Package memory is the in-memory sort-key cache Adapter: identical
// semantics to adapter/leveldb, used in tests and for ephemeral/dry
// evaluations that should never touch disk.
package memory

import (
	"sort"
	"sync"
)

type contractStore struct {
	// keys is kept sorted ascending so GetLast/GetLessOrEqual/PruneKeepLastN
	// don't need a full scan.
	keys   []string
	values map[string][]byte
}

type Adapter struct {
	mu        sync.RWMutex
	contracts map[string]*contractStore
}

func New() *Adapter {
	return &Adapter{contracts: map[string]*contractStore{}}
}

func (a *Adapter) store(contract string) *contractStore {
	s, ok := a.contracts[contract]
	if !ok {
		s = &contractStore{values: map[string][]byte{}}
		a.contracts[contract] = s
	}
	return s
}

func (a *Adapter) Get(contract string, sortKey string) ([]byte, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.contracts[contract]
	if !ok {
		return nil, false, nil
	}
	v, ok := s.values[sortKey]
	return v, ok, nil
}

func (a *Adapter) GetLast(contract string) (string, []byte, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.contracts[contract]
	if !ok || len(s.keys) == 0 {
		return "", nil, false, nil
	}
	key := s.keys[len(s.keys)-1]
	return key, s.values[key], true, nil
}

func (a *Adapter) GetLessOrEqual(contract string, sortKey string) (string, []byte, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.contracts[contract]
	if !ok || len(s.keys) == 0 {
		return "", nil, false, nil
	}
	// idx is the first index with keys[idx] > sortKey; the entry we want
	// (if any) is at idx-1.
	idx := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] > sortKey })
	if idx == 0 {
		return "", nil, false, nil
	}
	key := s.keys[idx-1]
	return key, s.values[key], true, nil
}

func (a *Adapter) Put(contract string, sortKey string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.store(contract)
	if _, exists := s.values[sortKey]; !exists {
		idx := sort.SearchStrings(s.keys, sortKey)
		s.keys = append(s.keys, "")
		copy(s.keys[idx+1:], s.keys[idx:])
		s.keys[idx] = sortKey
	}
	s.values[sortKey] = value
	return nil
}

func (a *Adapter) Delete(contract string, sortKey string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.contracts[contract]
	if !ok {
		return nil
	}
	if _, exists := s.values[sortKey]; !exists {
		return nil
	}
	delete(s.values, sortKey)
	idx := sort.SearchStrings(s.keys, sortKey)
	if idx < len(s.keys) && s.keys[idx] == sortKey {
		s.keys = append(s.keys[:idx], s.keys[idx+1:]...)
	}
	return nil
}

func (a *Adapter) Keys(contract string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.contracts[contract]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out, nil
}

func (a *Adapter) AllContracts() ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.contracts))
	for contract := range a.contracts {
		out = append(out, contract)
	}
	sort.Strings(out)
	return out, nil
}

func (a *Adapter) PruneKeepLastN(contract string, n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.contracts[contract]
	if !ok || n < 0 || len(s.keys) <= n {
		return nil
	}
	drop := s.keys[:len(s.keys)-n]
	for _, key := range drop {
		delete(s.values, key)
	}
	s.keys = append([]string(nil), s.keys[len(s.keys)-n:]...)
	return nil
}

func (a *Adapter) Close() error { return nil }
