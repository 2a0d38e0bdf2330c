package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

func putBatch(entries map[string]string) []BatchEntry {
	var batch []BatchEntry
	for k, v := range entries {
		batch = append(batch, BatchEntry{Key: []byte(k), Op: storage.Op{Kind: storage.OpPut, Value: []byte(v)}})
	}
	return batch
}

func TestTree_ApplyAndGet(t *testing.T) {
	store := storage.NewMemStore()
	tree := NewTree("test")

	version, root, err := tree.Apply(store, 0, putBatch(map[string]string{
		"foo":   "bar",
		"fuzz":  "buzz",
		"larry": "engineer",
	}))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
	assert.False(t, root.IsZero())

	gotHash, found, err := tree.Get(store, version, []byte("foo"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.Hash256([]byte("bar")), gotHash)

	_, found, err = tree.Get(store, version, []byte("absent"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTree_DeterministicAcrossInsertOrder(t *testing.T) {
	entries := map[string]string{"foo": "bar", "fuzz": "buzz", "larry": "engineer"}

	storeA := storage.NewMemStore()
	treeA := NewTree("a")
	_, rootA, err := treeA.Apply(storeA, 0, putBatch(entries))
	require.NoError(t, err)

	// Apply the same entries one at a time, in a different order, in
	// separate Apply calls -- the tree must reach the same final root
	// hash regardless of application order.
	storeB := storage.NewMemStore()
	treeB := NewTree("b")
	version := uint64(0)
	for _, k := range []string{"larry", "foo", "fuzz"} {
		v := entries[k]
		var err error
		version, _, err = treeB.Apply(storeB, version, []BatchEntry{
			{Key: []byte(k), Op: storage.Op{Kind: storage.OpPut, Value: []byte(v)}},
		})
		require.NoError(t, err)
	}
	rootB, err := treeB.RootHash(storeB, version)
	require.NoError(t, err)

	assert.Equal(t, rootA, rootB)
}

func TestTree_DeleteAndCollapse(t *testing.T) {
	store := storage.NewMemStore()
	tree := NewTree("test")

	v1, _, err := tree.Apply(store, 0, putBatch(map[string]string{"foo": "bar", "fuzz": "buzz"}))
	require.NoError(t, err)

	v2, root2, err := tree.Apply(store, v1, []BatchEntry{
		{Key: []byte("fuzz"), Op: storage.Op{Kind: storage.OpDelete}},
	})
	require.NoError(t, err)
	// with one key left, the root has collapsed to that key's bare leaf
	assert.Equal(t, LeafNode{KeyHash: types.Hash256([]byte("foo")), ValueHash: types.Hash256([]byte("bar"))}.Hash(), root2)

	_, found, err := tree.Get(store, v2, []byte("fuzz"))
	require.NoError(t, err)
	assert.False(t, found)

	gotHash, found, err := tree.Get(store, v2, []byte("foo"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.Hash256([]byte("bar")), gotHash)

	// deleting the last remaining key empties the tree.
	_, root3, err := tree.Apply(store, v2, []BatchEntry{
		{Key: []byte("foo"), Op: storage.Op{Kind: storage.OpDelete}},
	})
	require.NoError(t, err)
	assert.True(t, root3.IsZero())
}

func TestTree_ProveInclusionAndExclusion(t *testing.T) {
	store := storage.NewMemStore()
	tree := NewTree("test")

	version, root, err := tree.Apply(store, 0, putBatch(map[string]string{
		"foo":   "bar",
		"fuzz":  "buzz",
		"larry": "engineer",
	}))
	require.NoError(t, err)

	incProof, err := tree.Prove(store, version, []byte("foo"))
	require.NoError(t, err)
	assert.True(t, incProof.Included)
	assert.True(t, VerifyProof(root, incProof))

	excProof, err := tree.Prove(store, version, []byte("absent-key"))
	require.NoError(t, err)
	assert.False(t, excProof.Included)
	assert.True(t, VerifyProof(root, excProof))
}

func TestTree_Prune(t *testing.T) {
	store := storage.NewMemStore()
	tree := NewTree("test")

	v1, _, err := tree.Apply(store, 0, putBatch(map[string]string{"foo": "bar"}))
	require.NoError(t, err)
	v2, _, err := tree.Apply(store, v1, putBatch(map[string]string{"foo": "baz"}))
	require.NoError(t, err)

	require.NoError(t, tree.Prune(store, v2))

	// pruning orphans from versions below v2 must not disturb the current
	// (v2) tree's readability.
	hash, found, err := tree.Get(store, v2, []byte("foo"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.Hash256([]byte("baz")), hash)
}
