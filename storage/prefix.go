package storage

import (
	"bytes"

	dbm "github.com/tendermint/tendermint/libs/db"
)

// Prefix is the raw-bytes namespace view a sandboxed contract's storage is
// scoped by: everything Item/Map (namespace.go) builds as a typed,
// length-prefixed accessor, Prefix exposes as plain byte concatenation for
// callers that need a KVStore scoped to one fixed region directly, chiefly
// acm/instance.go's contractPrefix (storage per contract_addr's namespace,
// spec.md §4.F item 2) and sandbox/life.go's equivalent guest-host wiring.
type Prefix []byte

func NewPrefix(p string) Prefix {
	return Prefix(p)
}

func (p Prefix) Key(key []byte) []byte {
	// Avoid any unintended memory sharing between keys
	return append(p[:len(p):len(p)], key...)
}

func (p Prefix) Suffix(key []byte) []byte {
	return key[len(p):]
}

// Above returns the half-open upper bound of p's region, by the same
// carry-propagating increment bound.go's typed range scans use for their
// own unbounded upper edge (rangeBounds' `hi = incrementLastByte(prefix)`,
// spec.md §4.D's `increment_last_byte`) -- a raw Prefix scan's unbounded
// upper edge is the same half-open boundary, just computed directly over
// the namespace bytes instead of over a namespace-plus-typed-key byte
// string.
func (p Prefix) Above() []byte {
	return incrementLastByte(p)
}

// Below returns the lexicographic predecessor of p's region: the
// borrow-propagating mirror of Above, for a reverse scan's unbounded
// lower edge.
func (p Prefix) Below() []byte {
	return decrementLastByte(p)
}

func (p Prefix) Iterator(iteratorFn func(start, end []byte) dbm.Iterator, start, end []byte) KVIterator {
	var pstart, pend []byte = p.Key(start), nil

	if end == nil {
		pend = p.Above()
	} else {
		pend = p.Key(end)
	}
	return &prefixIterator{
		start:  start,
		end:    end,
		prefix: p,
		source: iteratorFn(pstart, pend),
	}
}

func (p Prefix) ReverseIterator(iteratorFn func(start, end []byte) dbm.Iterator, start, end []byte) KVIterator {
	// Note because of the inclusive start, exclusive end on underlying iterator
	// To get inclusive start/end we have to handle the following:
	// 1012 above <- does not start with prefix (but included by underlying iterator)
	// 1011232
	// 1011 prefix
	// 1010111 <- does not start with prefix (but included by underlying iterator)
	// 1010 below
	var pstart, pend []byte
	above := p.Above()
	if start == nil {
		pstart = above
	} else {
		pstart = p.Key(start)
	}
	if end == nil {
		pend = p.Below()
	} else {
		pend = p.Key(end)
	}
	return &prefixIterator{
		start:  start,
		end:    end,
		prefix: p,
		// Skip 'above' if necessary
		source: skipOne(iteratorFn(pstart, pend), above),
	}
}

func (p Prefix) Store(source KVStore) KVStore {
	return &prefixKVStore{
		prefix: p,
		source: source,
	}
}

type prefixIterator struct {
	prefix  Prefix
	source  dbm.Iterator
	start   []byte
	end     []byte
	invalid bool
}

func (pi *prefixIterator) Domain() ([]byte, []byte) {
	return pi.start, pi.end
}

func (pi *prefixIterator) Valid() bool {
	pi.validate()
	return !pi.invalid && pi.source.Valid()
}

func (pi *prefixIterator) Next() {
	if pi.invalid {
		panic("prefixIterator.Next() called on invalid iterator")
	}
	pi.source.Next()
	pi.validate()
}

func (pi *prefixIterator) Key() []byte {
	if pi.invalid {
		panic("prefixIterator.Key() called on invalid iterator")
	}
	return pi.prefix.Suffix(pi.source.Key())
}

func (pi *prefixIterator) Value() []byte {
	if pi.invalid {
		panic("prefixIterator.Value() called on invalid iterator")
	}
	return pi.source.Value()
}

func (pi *prefixIterator) Close() {
	pi.source.Close()
}

func (pi *prefixIterator) validate() {
	if pi.invalid {
		return
	}
	sourceValid := pi.source.Valid()
	pi.invalid = !sourceValid || !bytes.HasPrefix(pi.source.Key(), pi.prefix)
	if pi.invalid {
		pi.Close()
	}
}

// If the first iterator item is skipKey, then
// skip it.
func skipOne(iterator dbm.Iterator, skipKey []byte) dbm.Iterator {
	if iterator.Valid() {
		if bytes.Equal(iterator.Key(), skipKey) {
			iterator.Next()
		}
	}
	return iterator
}

type prefixKVStore struct {
	prefix Prefix
	source KVStore
}

func (ps *prefixKVStore) Get(key []byte) []byte {
	return ps.source.Get(ps.prefix.Key(key))
}

func (ps *prefixKVStore) Has(key []byte) bool {
	return ps.source.Has(ps.prefix.Key(key))
}

func (ps *prefixKVStore) Set(key, value []byte) {
	ps.source.Set(ps.prefix.Key(key), value)
}

func (ps *prefixKVStore) Delete(key []byte) {
	ps.source.Delete(ps.prefix.Key(key))
}

func (ps *prefixKVStore) Iterator(start, end []byte) dbm.Iterator {
	return ps.prefix.Iterator(ps.source.Iterator, start, end)
}

func (ps *prefixKVStore) ReverseIterator(start, end []byte) dbm.Iterator {
	return ps.prefix.ReverseIterator(ps.source.ReverseIterator, start, end)
}
