// Package leveldb is the persistent sort-key cache Adapter, backed by
// goleveldb the way the teacher repo's block persistence layer is:
// string keys composed of a namespace prefix plus the natural sort key,
// relying on goleveldb's own key ordering to satisfy GetLast/GetLessOrEqual
// with a single iterator seek instead of an index structure of our own.
package leveldb

import (
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/pkg/errors"
)

const keySeparator = "\x00"

type Adapter struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a goleveldb database at path.
func Open(path string) (*Adapter, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sort-key cache at %s", path)
	}
	return &Adapter{db: db}, nil
}

func namespacedKey(contract string, sortKey string) []byte {
	return []byte(contract + keySeparator + sortKey)
}

func contractPrefix(contract string) []byte {
	return []byte(contract + keySeparator)
}

func splitSortKey(contract string, key []byte) string {
	return strings.TrimPrefix(string(key), contract+keySeparator)
}

func (a *Adapter) Get(contract string, sortKey string) ([]byte, bool, error) {
	value, err := a.db.Get(namespacedKey(contract, sortKey), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "leveldb get")
	}
	return value, true, nil
}

func (a *Adapter) GetLast(contract string) (string, []byte, bool, error) {
	iter := a.db.NewIterator(util.BytesPrefix(contractPrefix(contract)), nil)
	defer iter.Release()
	if !iter.Last() {
		return "", nil, false, iter.Error()
	}
	key := splitSortKey(contract, iter.Key())
	value := append([]byte(nil), iter.Value()...)
	return key, value, true, iter.Error()
}

func (a *Adapter) GetLessOrEqual(contract string, sortKey string) (string, []byte, bool, error) {
	iter := a.db.NewIterator(util.BytesPrefix(contractPrefix(contract)), nil)
	defer iter.Release()

	target := namespacedKey(contract, sortKey)
	if !iter.Seek(target) {
		// every key in the namespace is < target: the last one qualifies.
		if !iter.Last() {
			return "", nil, false, iter.Error()
		}
		key := splitSortKey(contract, iter.Key())
		value := append([]byte(nil), iter.Value()...)
		return key, value, true, iter.Error()
	}

	// iter.Key() is the first key >= target.
	if string(iter.Key()) == string(target) {
		key := splitSortKey(contract, iter.Key())
		value := append([]byte(nil), iter.Value()...)
		return key, value, true, nil
	}
	if !iter.Prev() {
		return "", nil, false, iter.Error()
	}
	key := splitSortKey(contract, iter.Key())
	value := append([]byte(nil), iter.Value()...)
	return key, value, true, iter.Error()
}

func (a *Adapter) Put(contract string, sortKey string, value []byte) error {
	return errors.Wrap(a.db.Put(namespacedKey(contract, sortKey), value, nil), "leveldb put")
}

func (a *Adapter) Delete(contract string, sortKey string) error {
	return errors.Wrap(a.db.Delete(namespacedKey(contract, sortKey), nil), "leveldb delete")
}

func (a *Adapter) Keys(contract string) ([]string, error) {
	iter := a.db.NewIterator(util.BytesPrefix(contractPrefix(contract)), nil)
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, splitSortKey(contract, iter.Key()))
	}
	return keys, iter.Error()
}

func (a *Adapter) AllContracts() ([]string, error) {
	iter := a.db.NewIterator(nil, nil)
	defer iter.Release()
	seen := map[string]bool{}
	var contracts []string
	for iter.Next() {
		parts := strings.SplitN(string(iter.Key()), keySeparator, 2)
		if len(parts) != 2 {
			continue
		}
		if !seen[parts[0]] {
			seen[parts[0]] = true
			contracts = append(contracts, parts[0])
		}
	}
	return contracts, iter.Error()
}

func (a *Adapter) PruneKeepLastN(contract string, n int) error {
	if n < 0 {
		return nil
	}
	keys, err := a.Keys(contract)
	if err != nil {
		return err
	}
	if len(keys) <= n {
		return nil
	}
	batch := new(leveldb.Batch)
	for _, key := range keys[:len(keys)-n] {
		batch.Delete(namespacedKey(contract, key))
	}
	return errors.Wrap(a.db.Write(batch, nil), "leveldb prune batch")
}

func (a *Adapter) Close() error {
	return a.db.Close()
}
