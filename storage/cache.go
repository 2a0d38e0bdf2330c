package storage

import (
	"bytes"
	"sort"
)

// OpKind tags a pending write in a CacheStore's overlay.
type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

// Op is a single pending write: either Put(value) or Delete.
type Op struct {
	Kind  OpKind
	Value []byte
}

// CacheStore wraps a base KVStore with a copy-on-write overlay. Reads
// consult the overlay first and fall back to the base; writes
// only ever touch the overlay. Consume() flushes the overlay into the base
// store; dropping the cache without consuming discards it -- this is what
// gives each submessage frame (execution/submessage.go) its rollback-by-
// default semantics.
//
// The overlay records an explicit per-key Op{Put|Delete}.
type CacheStore struct {
	base    KVStore
	overlay map[string]Op
}

// NewCacheStore wraps base. The optional preload lets a caller seed the
// overlay directly (mirroring this codebase's `CacheStore::new(storage,
// None)` call shape, where the second argument is usually nil).
func NewCacheStore(base KVStore, preload map[string]Op) *CacheStore {
	overlay := preload
	if overlay == nil {
		overlay = make(map[string]Op)
	}
	return &CacheStore{base: base, overlay: overlay}
}

func (c *CacheStore) Get(key []byte) []byte {
	if op, ok := c.overlay[string(key)]; ok {
		if op.Kind == OpDelete {
			return nil
		}
		return op.Value
	}
	return c.base.Get(key)
}

func (c *CacheStore) Has(key []byte) bool {
	if op, ok := c.overlay[string(key)]; ok {
		return op.Kind == OpPut
	}
	return c.base.Has(key)
}

func (c *CacheStore) Set(key, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	c.overlay[string(key)] = Op{Kind: OpPut, Value: cp}
}

func (c *CacheStore) Delete(key []byte) {
	c.overlay[string(key)] = Op{Kind: OpDelete}
}

// Consume flushes every overlay operation into the base store. After
// Consume the CacheStore is empty and further reads pass straight through.
func (c *CacheStore) Consume() {
	keys := make([]string, 0, len(c.overlay))
	for k := range c.overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		op := c.overlay[k]
		switch op.Kind {
		case OpPut:
			c.base.Set([]byte(k), op.Value)
		case OpDelete:
			c.base.Delete([]byte(k))
		}
	}
	c.overlay = make(map[string]Op)
}

// Discard drops the overlay without flushing it. It exists for symmetry
// with Consume and documents intent at call sites; simply letting a
// CacheStore go out of scope has the same effect.
func (c *CacheStore) Discard() {
	c.overlay = make(map[string]Op)
}

// KeyOp pairs a physical key with its pending overlay operation.
type KeyOp struct {
	Key []byte
	Op  Op
}

// Ops returns a key-sorted snapshot of the overlay's pending writes
// without flushing them, so a caller can feed the same write set to
// another consumer (the authenticated tree, at end-of-block) before or
// instead of calling Consume.
func (c *CacheStore) Ops() []KeyOp {
	keys := make([]string, 0, len(c.overlay))
	for k := range c.overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]KeyOp, len(keys))
	for i, k := range keys {
		out[i] = KeyOp{Key: []byte(k), Op: c.overlay[k]}
	}
	return out
}

func (c *CacheStore) Iterator(start, end []byte) KVIterator {
	return c.mergedIterator(start, end, Ascending)
}

func (c *CacheStore) ReverseIterator(start, end []byte) KVIterator {
	return c.mergedIterator(start, end, Descending)
}

// mergedIterator collects the in-range entries of the overlay and the base
// store into one sorted slice, letting an overlay entry for a key shadow
// the base's value for that key (a Delete hides it, a Put replaces it)
func (c *CacheStore) mergedIterator(start, end []byte, order Order) KVIterator {
	seen := make(map[string]bool)
	var entries []sliceEntry
	for k, op := range c.overlay {
		kb := []byte(k)
		if !inRange(kb, start, end) {
			continue
		}
		seen[k] = true
		if op.Kind == OpPut {
			entries = append(entries, sliceEntry{key: kb, value: op.Value})
		}
	}
	var base KVIterator
	if order == Ascending {
		base = c.base.Iterator(start, end)
	} else {
		base = c.base.ReverseIterator(start, end)
	}
	for ; base.Valid(); base.Next() {
		k := base.Key()
		if seen[string(k)] {
			continue
		}
		entries = append(entries, sliceEntry{key: append([]byte(nil), k...), value: append([]byte(nil), base.Value()...)})
	}
	base.Close()

	sort.Slice(entries, func(i, j int) bool {
		cmp := bytes.Compare(entries[i].key, entries[j].key)
		if order == Ascending {
			return cmp < 0
		}
		return cmp > 0
	})

	return &sliceIterator{entries: entries}
}

func inRange(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(key, end) >= 0 {
		return false
	}
	return true
}

type sliceEntry struct {
	key   []byte
	value []byte
}

type sliceIterator struct {
	entries []sliceEntry
	pos     int
}

func (it *sliceIterator) Domain() (start, end []byte) { return nil, nil }

func (it *sliceIterator) Valid() bool { return it.pos < len(it.entries) }

func (it *sliceIterator) Next() { it.pos++ }

func (it *sliceIterator) Key() []byte { return it.entries[it.pos].key }

func (it *sliceIterator) Value() []byte { return it.entries[it.pos].value }

func (it *sliceIterator) Close() {}
