package storage

import "fmt"

// Map is a typed, namespaced key-value collection ("Map<K,T>").
type Map[K any, T any] struct {
	namespace []byte
	codec     KeyCodec[K]
	encoding  Encoding
}

func NewMap[K any, T any](ns string, codec KeyCodec[K], enc Encoding) Map[K, T] {
	return Map[K, T]{namespace: namespacePrefix([]byte(ns)), codec: codec, encoding: enc}
}

func (m Map[K, T]) key(k K) []byte {
	return concat(m.namespace, joinSegments(m.codec.RawKeys(k)))
}

func (m Map[K, T]) Save(store KVStore, k K, value *T) error {
	bz, err := m.encoding.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: map save: %w", err)
	}
	store.Set(m.key(k), bz)
	return nil
}

func (m Map[K, T]) Load(store KVStore, k K) (T, error) {
	var out T
	v, err := m.MayLoad(store, k)
	if err != nil {
		return out, err
	}
	if v == nil {
		return out, fmt.Errorf("storage: map key %x not found", m.key(k))
	}
	return *v, nil
}

func (m Map[K, T]) MayLoad(store KVStore, k K) (*T, error) {
	bz := store.Get(m.key(k))
	if bz == nil {
		return nil, nil
	}
	var out T
	if err := m.encoding.Unmarshal(bz, &out); err != nil {
		return nil, fmt.Errorf("storage: map load: %w", err)
	}
	return &out, nil
}

func (m Map[K, T]) Has(store KVStore, k K) bool {
	return store.Has(m.key(k))
}

func (m Map[K, T]) Remove(store KVStore, k K) {
	store.Delete(m.key(k))
}

func (m Map[K, T]) Update(store KVStore, k K, action func(*T) (*T, error)) (*T, error) {
	current, err := m.MayLoad(store, k)
	if err != nil {
		return nil, err
	}
	next, err := action(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		m.Remove(store, k)
		return nil, nil
	}
	if err := m.Save(store, k, next); err != nil {
		return nil, err
	}
	return next, nil
}

// IsEmpty reports whether the map holds no entries at all.
func (m Map[K, T]) IsEmpty(store KVStore) bool {
	empty := true
	m.Range(store, nil, nil, Ascending, func(K, T) bool {
		empty = false
		return false
	})
	return empty
}

// Range walks entries whose key falls in [min, max) (per the Bound
// semantics), decoding both key and value, until fn returns
// false or the range is exhausted.
func (m Map[K, T]) Range(store KVStore, min, max *Bound[K], order Order, fn func(K, T) bool) error {
	lo, hi := rangeBounds(m.namespace, m.codec, min, max)
	var rangeErr error
	Scan(store, lo, hi, order, func(key, value []byte) bool {
		suffix := key[len(m.namespace):]
		k, err := m.codec.Parse(suffix)
		if err != nil {
			rangeErr = fmt.Errorf("storage: map range: %w", err)
			return false
		}
		var v T
		if err := m.encoding.Unmarshal(value, &v); err != nil {
			rangeErr = fmt.Errorf("storage: map range: %w", err)
			return false
		}
		return fn(k, v)
	})
	return rangeErr
}

// Keys walks just the decoded keys in [min, max).
func (m Map[K, T]) Keys(store KVStore, min, max *Bound[K], order Order, fn func(K) bool) error {
	return m.Range(store, min, max, order, func(k K, _ T) bool { return fn(k) })
}

// Clear removes up to limit entries in [min, max); limit of 0 means
// unbounded.
func (m Map[K, T]) Clear(store KVStore, min, max *Bound[K], limit int) error {
	lo, hi := rangeBounds(m.namespace, m.codec, min, max)
	var toDelete [][]byte
	Scan(store, lo, hi, Ascending, func(key, _ []byte) bool {
		toDelete = append(toDelete, append([]byte(nil), key...))
		return limit == 0 || len(toDelete) < limit
	})
	for _, key := range toDelete {
		store.Delete(key)
	}
	return nil
}

// Prefix is a partial-key view over a Map, for composite keys whose
// leading segments are fixed. Rather than resolving the suffix's type
// statically through an associated type, this takes the fixed segments
// as raw bytes and scans only the keys that begin with them; each match
// is decoded whole (everything after the Map's namespace, fixed segments
// included) with the same KeyCodec the underlying Map uses, so Range
// yields full keys.
type Prefix[K any, T any] struct {
	prefix   []byte
	nsLen    int
	codec    KeyCodec[K]
	encoding Encoding
}

// Prefix narrows m to the sub-range whose key begins with the given raw
// segments (all of which are length-prefixed, since further suffix
// segments always follow -- see joinSegmentsAllPrefixed).
func (m Map[K, T]) Prefix(segments ...RawKey) Prefix[K, T] {
	return Prefix[K, T]{
		prefix:   concat(m.namespace, joinSegmentsAllPrefixed(segments)),
		nsLen:    len(m.namespace),
		codec:    m.codec,
		encoding: m.encoding,
	}
}

func (p Prefix[K, T]) Range(store KVStore, min, max *Bound[K], order Order, fn func(K, T) bool) error {
	lo, hi := rangeBounds(p.prefix, p.codec, min, max)
	var rangeErr error
	Scan(store, lo, hi, order, func(key, value []byte) bool {
		k, err := p.codec.Parse(key[p.nsLen:])
		if err != nil {
			rangeErr = fmt.Errorf("storage: prefix range: %w", err)
			return false
		}
		var v T
		if err := p.encoding.Unmarshal(value, &v); err != nil {
			rangeErr = fmt.Errorf("storage: prefix range: %w", err)
			return false
		}
		return fn(k, v)
	})
	return rangeErr
}
