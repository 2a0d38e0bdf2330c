package storage

// Unsigned is the set of integer types an Incrementor can count with. The
// account protocol uses uint32 ("Sequence"); ~uint64 is accepted for
// wider counters.
type Unsigned interface {
	~uint32 | ~uint64
}

// Incrementor is an Item specialized to a numeric counter (
// "Incrementor<N>"): Initialize sets it to zero, Increment reads, adds one,
// writes back, and returns the new value.
type Incrementor[N Unsigned] struct {
	item Item[N]
}

func NewIncrementor[N Unsigned](ns string) Incrementor[N] {
	return Incrementor[N]{item: NewItem[N](ns, Binary)}
}

func (c Incrementor[N]) Initialize(store KVStore) error {
	var zero N
	return c.item.Save(store, &zero)
}

func (c Incrementor[N]) Load(store KVStore) (N, error) {
	return c.item.Load(store)
}

// Increment reads the current value, adds one, persists it, and returns
// the new value -- an atomic-in-effect read-modify-write against the
// CacheStore layer the caller is working against.
func (c Incrementor[N]) Increment(store KVStore) (N, error) {
	current, err := c.item.Load(store)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := c.item.Save(store, &next); err != nil {
		return 0, err
	}
	return next, nil
}
