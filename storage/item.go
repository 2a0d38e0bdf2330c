package storage

import "fmt"

// Item is a namespaced single-value slot ("Item<T>").
type Item[T any] struct {
	key      []byte
	encoding Encoding
}

// NewItem declares a new Item under namespace ns, serialized with enc.
func NewItem[T any](ns string, enc Encoding) Item[T] {
	return Item[T]{key: namespacePrefix([]byte(ns)), encoding: enc}
}

func (it Item[T]) Save(store KVStore, value *T) error {
	bz, err := it.encoding.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: item save: %w", err)
	}
	store.Set(it.key, bz)
	return nil
}

// Load fails (returns an error) if the item is absent.
func (it Item[T]) Load(store KVStore) (T, error) {
	var out T
	v, err := it.MayLoad(store)
	if err != nil {
		return out, err
	}
	if v == nil {
		return out, fmt.Errorf("storage: item %x not found", it.key)
	}
	return *v, nil
}

func (it Item[T]) MayLoad(store KVStore) (*T, error) {
	bz := store.Get(it.key)
	if bz == nil {
		return nil, nil
	}
	var out T
	if err := it.encoding.Unmarshal(bz, &out); err != nil {
		return nil, fmt.Errorf("storage: item load: %w", err)
	}
	return &out, nil
}

func (it Item[T]) Exists(store KVStore) bool {
	return store.Has(it.key)
}

func (it Item[T]) Remove(store KVStore) {
	store.Delete(it.key)
}

// Update loads the current value (if any), applies action, and saves the
// result -- or removes the item if action returns nil.
func (it Item[T]) Update(store KVStore, action func(*T) (*T, error)) (*T, error) {
	current, err := it.MayLoad(store)
	if err != nil {
		return nil, err
	}
	next, err := action(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		it.Remove(store)
		return nil, nil
	}
	if err := it.Save(store, next); err != nil {
		return nil, err
	}
	return next, nil
}
