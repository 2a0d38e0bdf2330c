package storage

import (
	dbm "github.com/tendermint/tendermint/libs/db"
)

// Order controls the direction a range scan walks the keyspace in.
type Order int

const (
	Ascending Order = iota
	Descending
)

// KVIterator is the iteration contract every scan in this package returns.
// It is kept identical in shape to dbm.Iterator so that a KVStore backed by
// tendermint/tendermint/libs/db satisfies it without adaptation.
type KVIterator = dbm.Iterator

// KVIterable is anything that can produce forward and reverse iterators
// over a byte range. min is inclusive, max is exclusive; either may be nil
// for an unbounded side.
type KVIterable interface {
	Iterator(start, end []byte) KVIterator
	ReverseIterator(start, end []byte) KVIterator
}

// KVStore is the ordered byte KV storage primitive: get/put/remove with
// get/put/remove and a ranged scan. Implementations include dbm's MemDB
// (used directly for tests) and the sandbox-adapter-provided host store
// used for contract execution.
type KVStore interface {
	KVIterable
	Get(key []byte) []byte
	Has(key []byte) bool
	Set(key, value []byte)
	Delete(key []byte)
}

// NewMemStore returns an in-memory KVStore (a dbm MemDB), this codebase's
// stand-in for a real backing store in tests.
func NewMemStore() KVStore {
	return dbm.NewMemDB()
}

// Scan walks store over [min, max) in the given order, invoking fn for
// each entry until fn returns false or the range is exhausted.
func Scan(store KVIterable, min, max []byte, order Order, fn func(key, value []byte) bool) {
	var it KVIterator
	if order == Ascending {
		it = store.Iterator(min, max)
	} else {
		it = store.ReverseIterator(min, max)
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		if !fn(it.Key(), it.Value()) {
			return
		}
	}
}
