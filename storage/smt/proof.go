package smt

import (
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// Proof is an inclusion or exclusion proof for one key at one version
// ("prove"). Siblings are ordered root-first: Siblings[i] is
// the hash of the branch not taken at depth i (or the zero placeholder if
// that branch was empty).
type Proof struct {
	KeyHash  types.Hash
	Included bool

	// Populated when Included.
	ValueHash types.Hash

	// Populated when !Included and a different leaf occupies the slot the
	// key would have descended to (a genuine exclusion proof, as opposed
	// to simply running off the end of the tree into an empty branch).
	DivergentLeaf *LeafNode

	Siblings []types.Hash
}

// Prove builds a Proof for key against version.
func (t *Tree) Prove(store storage.KVStore, version uint64, key []byte) (*Proof, error) {
	keyHash := types.Hash256(key)
	proof := &Proof{KeyHash: keyHash}

	rootRef, err := t.loadRoot(store, version)
	if err != nil {
		return nil, err
	}
	if rootRef == nil {
		return proof, nil
	}

	node, err := t.loadNode(store, NodeKey{Version: rootRef.Version, Path: nil})
	if err != nil {
		return nil, err
	}
	return t.proveRec(store, node, nil, keyHash, proof)
}

func (t *Tree) proveRec(store storage.KVStore, node Node, path []byte, keyHash types.Hash, proof *Proof) (*Proof, error) {
	switch n := node.(type) {
	case LeafNode:
		if n.KeyHash == keyHash {
			proof.Included = true
			proof.ValueHash = n.ValueHash
			return proof, nil
		}
		leaf := n
		proof.DivergentLeaf = &leaf
		return proof, nil
	case InternalNode:
		bit := bitAt(keyHash, len(path))
		child, sibling := n.Left, n.Right
		if bit == 1 {
			child, sibling = n.Right, n.Left
		}
		proof.Siblings = append(proof.Siblings, childHashOrPlaceholder(sibling))
		if child == nil {
			return proof, nil
		}
		childPath := appendBit(path, bit)
		childNode, err := t.loadNode(store, NodeKey{Version: child.Version, Path: childPath})
		if err != nil {
			return nil, err
		}
		return t.proveRec(store, childNode, childPath, keyHash, proof)
	default:
		panic("smt: unreachable node type")
	}
}

// VerifyProof recomputes the root hash implied by proof and compares it
// against rootHash.
func VerifyProof(rootHash types.Hash, proof *Proof) bool {
	var cur types.Hash
	switch {
	case proof.Included:
		cur = LeafNode{KeyHash: proof.KeyHash, ValueHash: proof.ValueHash}.Hash()
	case proof.DivergentLeaf != nil:
		cur = proof.DivergentLeaf.Hash()
	default:
		cur = types.Hash{}
	}

	for depth := len(proof.Siblings) - 1; depth >= 0; depth-- {
		bit := bitAt(proof.KeyHash, depth)
		sibling := proof.Siblings[depth]
		var n InternalNode
		if bit == 0 {
			n = InternalNode{Left: &Child{Hash: cur}, Right: &Child{Hash: sibling}}
		} else {
			n = InternalNode{Left: &Child{Hash: sibling}, Right: &Child{Hash: cur}}
		}
		cur = n.Hash()
	}

	return cur == rootHash
}
