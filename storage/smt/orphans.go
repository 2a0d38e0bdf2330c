package smt

import "github.com/grugnet/core/storage"

// Prune deletes every node orphaned at a version strictly below
// retainFrom, for a retention window [retainFrom, latest] (the authenticated-tree
// "Pruning"). It is a no-op on versions that have no recorded orphans.
func (t *Tree) Prune(store storage.KVStore, retainFrom uint64) error {
	var processed []uint64
	err := t.orphanMap.Range(store, nil, storage.Exclusive(retainFrom), storage.Ascending, func(version uint64, orphaned []NodeKey) bool {
		for _, key := range orphaned {
			store.Delete(nodeStoreKey(t.nodesNS, key))
		}
		processed = append(processed, version)
		return true
	})
	if err != nil {
		return err
	}
	for _, version := range processed {
		t.orphanMap.Remove(store, version)
	}
	return nil
}
