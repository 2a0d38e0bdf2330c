package smt

import (
	"encoding/binary"
	"sort"

	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// rootRecord is the persisted pointer to a version's root node: Present is
// false for the empty tree, otherwise Version names where the physical
// root node lives (it may predate the queried version, if the root itself
// was untouched by later writes) and Hash is its cached digest.
type rootRecord struct {
	Present bool
	Version uint64
	Hash    types.Hash
}

// Tree is a versioned sparse Merkle tree scoped to one namespace, so that
// multiple trees (e.g. one per contract, or one for the global account
// tree) can coexist in the same backing KVStore.
type Tree struct {
	nodesNS   []byte
	rootsMap  storage.Map[uint64, rootRecord]
	orphanMap storage.Map[uint64, []NodeKey]
}

// NewTree declares a tree under namespace ns.
func NewTree(ns string) *Tree {
	return &Tree{
		nodesNS:   namespaceBytes(ns + "/nodes"),
		rootsMap:  storage.NewMap[uint64, rootRecord](ns+"/roots", storage.Uint64Key{}, storage.Schema),
		orphanMap: storage.NewMap[uint64, []NodeKey](ns+"/orphans", storage.Uint64Key{}, storage.Schema),
	}
}

func namespaceBytes(ns string) []byte {
	b := []byte(ns)
	var lbuf [2]byte
	binary.BigEndian.PutUint16(lbuf[:], uint16(len(b)))
	out := make([]byte, 0, 2+len(b))
	out = append(out, lbuf[:]...)
	out = append(out, b...)
	return out
}

func (t *Tree) saveNode(store storage.KVStore, key NodeKey, n Node) {
	store.Set(nodeStoreKey(t.nodesNS, key), encodeNode(n))
}

func (t *Tree) loadNode(store storage.KVStore, key NodeKey) (Node, error) {
	raw := store.Get(nodeStoreKey(t.nodesNS, key))
	if raw == nil {
		return nil, nodeNotFoundError(key)
	}
	return decodeNode(raw)
}

// BatchEntry is one pending write against the tree: Put(value) or Delete,
// reusing storage.Op so callers building a batch from a CacheStore's
// overlay (execution/block.go's end-of-block commit) need no translation.
type BatchEntry struct {
	Key []byte
	Op  storage.Op
}

// LatestVersion returns the highest version ever committed, or false if
// the tree has never been applied to.
func (t *Tree) LatestVersion(store storage.KVStore) (uint64, bool, error) {
	var latest uint64
	var found bool
	err := t.rootsMap.Keys(store, nil, nil, storage.Descending, func(v uint64) bool {
		latest, found = v, true
		return false
	})
	return latest, found, err
}

// RootHash returns the root digest at version; the empty tree's root hash
// is the zero hash.
func (t *Tree) RootHash(store storage.KVStore, version uint64) (types.Hash, error) {
	rec, err := t.rootsMap.MayLoad(store, version)
	if err != nil {
		return types.Hash{}, err
	}
	if rec == nil || !rec.Present {
		return types.Hash{}, nil
	}
	return rec.Hash, nil
}

func (t *Tree) loadRoot(store storage.KVStore, version uint64) (*Child, error) {
	rec, err := t.rootsMap.MayLoad(store, version)
	if err != nil {
		return nil, err
	}
	if rec == nil || !rec.Present {
		return nil, nil
	}
	return &Child{Version: rec.Version, Hash: rec.Hash}, nil
}

// Apply commits batch against the tree rooted at baseVersion, producing
// version baseVersion+1 ("Apply semantics"). Unaffected
// subtrees are left exactly as they were (referenced, not rewritten);
// nodes they replace are recorded in the new version's orphan list.
func (t *Tree) Apply(store storage.KVStore, baseVersion uint64, batch []BatchEntry) (uint64, types.Hash, error) {
	newVersion := baseVersion + 1

	sorted := make([]BatchEntry, len(batch))
	copy(sorted, batch)
	keyHashes := make([]types.Hash, len(sorted))
	for i, e := range sorted {
		keyHashes[i] = types.Hash256(e.Key)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return string(types.Hash256(sorted[i].Key).Bytes()) < string(types.Hash256(sorted[j].Key).Bytes())
	})
	// re-derive keyHashes in sorted order
	for i, e := range sorted {
		keyHashes[i] = types.Hash256(e.Key)
	}

	rootRef, err := t.loadRoot(store, baseVersion)
	if err != nil {
		return 0, types.Hash{}, err
	}

	var orphans []NodeKey
	for i, e := range sorted {
		keyHash := keyHashes[i]
		switch e.Op.Kind {
		case storage.OpPut:
			valueHash := types.Hash256(e.Op.Value)
			rootRef, err = t.upsertLeaf(store, newVersion, rootRef, nil, keyHash, valueHash, &orphans)
		case storage.OpDelete:
			var found bool
			rootRef, found, err = t.deleteLeaf(store, newVersion, rootRef, nil, keyHash, &orphans)
			_ = found
		}
		if err != nil {
			return 0, types.Hash{}, err
		}
	}

	rec := rootRecord{}
	if rootRef != nil {
		rec = rootRecord{Present: true, Version: rootRef.Version, Hash: rootRef.Hash}
	}
	if err := t.rootsMap.Save(store, newVersion, &rec); err != nil {
		return 0, types.Hash{}, err
	}
	if len(orphans) > 0 {
		if err := t.orphanMap.Save(store, newVersion, &orphans); err != nil {
			return 0, types.Hash{}, err
		}
	}

	return newVersion, rec.Hash, nil
}

// upsertLeaf inserts or overwrites (keyHash,valueHash) in the subtree
// referenced by ref at path, returning the new reference.
func (t *Tree) upsertLeaf(store storage.KVStore, newVersion uint64, ref *Child, path []byte, keyHash, valueHash types.Hash, orphans *[]NodeKey) (*Child, error) {
	if ref == nil {
		leaf := LeafNode{KeyHash: keyHash, ValueHash: valueHash}
		key := NodeKey{Version: newVersion, Path: path}
		t.saveNode(store, key, leaf)
		return &Child{Version: newVersion, Hash: leaf.Hash()}, nil
	}

	node, err := t.loadNode(store, NodeKey{Version: ref.Version, Path: path})
	if err != nil {
		return nil, err
	}
	*orphans = append(*orphans, NodeKey{Version: ref.Version, Path: path})

	switch n := node.(type) {
	case LeafNode:
		if n.KeyHash == keyHash {
			leaf := LeafNode{KeyHash: keyHash, ValueHash: valueHash}
			key := NodeKey{Version: newVersion, Path: path}
			t.saveNode(store, key, leaf)
			return &Child{Version: newVersion, Hash: leaf.Hash()}, nil
		}
		return t.spliceLeaf(store, newVersion, path, n, keyHash, valueHash)
	case InternalNode:
		bit := bitAt(keyHash, len(path))
		childPath := appendBit(path, bit)
		childRef := n.Left
		if bit == 1 {
			childRef = n.Right
		}
		newChildRef, err := t.upsertLeaf(store, newVersion, childRef, childPath, keyHash, valueHash, orphans)
		if err != nil {
			return nil, err
		}
		if bit == 0 {
			n.Left = newChildRef
		} else {
			n.Right = newChildRef
		}
		key := NodeKey{Version: newVersion, Path: path}
		t.saveNode(store, key, n)
		return &Child{Version: newVersion, Hash: n.Hash()}, nil
	default:
		panic("smt: unreachable node type")
	}
}

// spliceLeaf builds the minimal chain of Internal nodes needed to
// distinguish oldLeaf from the new (keyHash, valueHash) pair, starting at
// path, terminating once their key_hash bits diverge.
func (t *Tree) spliceLeaf(store storage.KVStore, newVersion uint64, path []byte, oldLeaf LeafNode, keyHash, valueHash types.Hash) (*Child, error) {
	depth := len(path)
	oldBit := bitAt(oldLeaf.KeyHash, depth)
	newBit := bitAt(keyHash, depth)

	if oldBit != newBit {
		oldPath := appendBit(path, oldBit)
		newPath := appendBit(path, newBit)
		t.saveNode(store, NodeKey{Version: newVersion, Path: oldPath}, oldLeaf)
		newLeaf := LeafNode{KeyHash: keyHash, ValueHash: valueHash}
		t.saveNode(store, NodeKey{Version: newVersion, Path: newPath}, newLeaf)

		oldChild := &Child{Version: newVersion, Hash: oldLeaf.Hash()}
		newChild := &Child{Version: newVersion, Hash: newLeaf.Hash()}
		var internal InternalNode
		if oldBit == 0 {
			internal = InternalNode{Left: oldChild, Right: newChild}
		} else {
			internal = InternalNode{Left: newChild, Right: oldChild}
		}
		t.saveNode(store, NodeKey{Version: newVersion, Path: path}, internal)
		return &Child{Version: newVersion, Hash: internal.Hash()}, nil
	}

	childPath := appendBit(path, oldBit)
	childRef, err := t.spliceLeaf(store, newVersion, childPath, oldLeaf, keyHash, valueHash)
	if err != nil {
		return nil, err
	}
	var internal InternalNode
	if oldBit == 0 {
		internal.Left = childRef
	} else {
		internal.Right = childRef
	}
	t.saveNode(store, NodeKey{Version: newVersion, Path: path}, internal)
	return &Child{Version: newVersion, Hash: internal.Hash()}, nil
}

// deleteLeaf removes keyHash from the subtree referenced by ref at path.
// found is false (and ref returned unchanged) when the key was not
// present, so ancestors that didn't actually change are left alone.
func (t *Tree) deleteLeaf(store storage.KVStore, newVersion uint64, ref *Child, path []byte, keyHash types.Hash, orphans *[]NodeKey) (*Child, bool, error) {
	if ref == nil {
		return nil, false, nil
	}
	node, err := t.loadNode(store, NodeKey{Version: ref.Version, Path: path})
	if err != nil {
		return nil, false, err
	}

	switch n := node.(type) {
	case LeafNode:
		if n.KeyHash != keyHash {
			return ref, false, nil
		}
		*orphans = append(*orphans, NodeKey{Version: ref.Version, Path: path})
		return nil, true, nil
	case InternalNode:
		bit := bitAt(keyHash, len(path))
		childPath := appendBit(path, bit)
		childRef := n.Left
		if bit == 1 {
			childRef = n.Right
		}
		newChildRef, found, err := t.deleteLeaf(store, newVersion, childRef, childPath, keyHash, orphans)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return ref, false, nil
		}
		*orphans = append(*orphans, NodeKey{Version: ref.Version, Path: path})

		if bit == 0 {
			n.Left = newChildRef
		} else {
			n.Right = newChildRef
		}

		if n.Left == nil && n.Right == nil {
			return nil, true, nil
		}

		// collapse rule: an Internal with only a Leaf descendant is
		// replaced by that Leaf.
		if n.Left == nil || n.Right == nil {
			only, onlyPath := n.Left, appendBit(path, 0)
			if only == nil {
				only, onlyPath = n.Right, appendBit(path, 1)
			}
			onlyNode, err := t.loadNode(store, NodeKey{Version: only.Version, Path: onlyPath})
			if err != nil {
				return nil, false, err
			}
			if leaf, ok := onlyNode.(LeafNode); ok {
				t.saveNode(store, NodeKey{Version: newVersion, Path: path}, leaf)
				return &Child{Version: newVersion, Hash: leaf.Hash()}, true, nil
			}
		}

		t.saveNode(store, NodeKey{Version: newVersion, Path: path}, n)
		return &Child{Version: newVersion, Hash: n.Hash()}, true, nil
	default:
		panic("smt: unreachable node type")
	}
}

// Get returns the value_hash authenticated for key at version, or
// found=false if absent.
func (t *Tree) Get(store storage.KVStore, version uint64, key []byte) (types.Hash, bool, error) {
	rootRef, err := t.loadRoot(store, version)
	if err != nil {
		return types.Hash{}, false, err
	}
	if rootRef == nil {
		return types.Hash{}, false, nil
	}
	keyHash := types.Hash256(key)
	node, err := t.loadNode(store, NodeKey{Version: rootRef.Version, Path: nil})
	if err != nil {
		return types.Hash{}, false, err
	}
	return t.getRec(store, node, nil, keyHash)
}

func (t *Tree) getRec(store storage.KVStore, node Node, path []byte, keyHash types.Hash) (types.Hash, bool, error) {
	switch n := node.(type) {
	case LeafNode:
		if n.KeyHash == keyHash {
			return n.ValueHash, true, nil
		}
		return types.Hash{}, false, nil
	case InternalNode:
		bit := bitAt(keyHash, len(path))
		child := n.Left
		if bit == 1 {
			child = n.Right
		}
		if child == nil {
			return types.Hash{}, false, nil
		}
		childPath := appendBit(path, bit)
		childNode, err := t.loadNode(store, NodeKey{Version: child.Version, Path: childPath})
		if err != nil {
			return types.Hash{}, false, err
		}
		return t.getRec(store, childNode, childPath, keyHash)
	default:
		panic("smt: unreachable node type")
	}
}

type nodeNotFoundErr struct{ key NodeKey }

func (e nodeNotFoundErr) Error() string {
	return "smt: node not found at version and path"
}

func nodeNotFoundError(key NodeKey) error { return nodeNotFoundErr{key: key} }
