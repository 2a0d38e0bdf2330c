package storage

import "sync"

// SharedStore is a reference-shared handle over a single mutable KVStore,
// so that recursive submessage frames can each layer their own CacheStore
// above one shared parent without nested generic wrapper types piling up
// for every recursion depth. Go has no borrow checker, so the "only one
// live mutable borrow at a time" discipline is enforced by convention
// (LIFO: a frame shares its store, recurses, and does not touch it again
// until the recursive call returns) rather than by the type system.
type SharedStore struct {
	mu    *sync.Mutex
	store *KVStore
}

// NewSharedStore wraps store in a fresh shared handle.
func NewSharedStore(store KVStore) SharedStore {
	return SharedStore{mu: &sync.Mutex{}, store: &store}
}

// Share returns a new handle over the same underlying store. Both handles
// observe each other's writes; this is how a submessage frame can layer a
// CacheStore above its parent's SharedStore while the parent still holds a
// reference to the pre-frame state.
func (s SharedStore) Share() SharedStore {
	return SharedStore{mu: s.mu, store: s.store}
}

// With executes fn against the shared store under the handle's lock,
// providing the single borrow-at-a-time discipline recursive submessage frames require.
func (s SharedStore) With(fn func(store KVStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(*s.store)
}

// Disassemble returns the underlying store for direct access, bypassing
// the lock. Only safe to call once recursion into the frame that produced
// this handle has returned, immediately before the frame's CacheStore is
// consumed or discarded.
func (s SharedStore) Disassemble() KVStore {
	return *s.store
}

func (s SharedStore) Get(key []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*s.store).Get(key)
}

func (s SharedStore) Has(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*s.store).Has(key)
}

func (s SharedStore) Set(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	(*s.store).Set(key, value)
}

func (s SharedStore) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	(*s.store).Delete(key)
}

func (s SharedStore) Iterator(start, end []byte) KVIterator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*s.store).Iterator(start, end)
}

func (s SharedStore) ReverseIterator(start, end []byte) KVIterator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (*s.store).ReverseIterator(start, end)
}
