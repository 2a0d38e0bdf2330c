// Package smt implements the versioned, authenticated sparse Merkle tree:
// a persistent binary trie keyed by key_hash = H(user_key), leaves carrying
// value_hash = H(user_value), copy-on-write across versions with orphan
// tracking for pruning.
//
// This is a deliberately different tree shape than an AVL-balanced,
// key-ordered IAVL tree: nodes are addressed by (version, bit-path) rather
// than by key order, so the package builds its own node layer instead of
// wrapping tendermint/iavl.
package smt

import (
	"github.com/grugnet/core/types"
)

// NodeKey addresses one physical node: the version it was written at, and
// its path from the root. Unlike a jellyfish-merkle-style nibble path,
// internal nodes here have at most two children (left/right), so a path
// element is a single bit, not a 4-bit nibble.
type NodeKey struct {
	Version uint64
	Path    []byte // each element is 0 or 1
}

// Child is a reference from a parent Internal node to one of its children:
// the version at which the child node was physically written (which may
// predate the parent's own version, when the child's subtree was
// unaffected by the write that created the parent), and the child's cached
// hash so computing the parent's hash never requires a disk read.
type Child struct {
	Version uint64
	Hash    types.Hash
}

// Node is either a LeafNode or an InternalNode.
type Node interface {
	isNode()
	Hash() types.Hash
}

// LeafNode carries one (key_hash, value_hash) pair.
type LeafNode struct {
	KeyHash   types.Hash
	ValueHash types.Hash
}

func (LeafNode) isNode() {}

var domainLeaf = []byte{0x00}
var domainInternal = []byte{0x01}

// Hash computes Leaf hash = H(domain_leaf || key_hash || value_hash).
func (l LeafNode) Hash() types.Hash {
	buf := make([]byte, 0, len(domainLeaf)+types.HashLength*2)
	buf = append(buf, domainLeaf...)
	buf = append(buf, l.KeyHash.Bytes()...)
	buf = append(buf, l.ValueHash.Bytes()...)
	return types.Hash256(buf)
}

// InternalNode has up to two children.
type InternalNode struct {
	Left  *Child
	Right *Child
}

func (InternalNode) isNode() {}

// childHashOrPlaceholder returns the zero hash for a missing child, per
// ("a missing child uses the zero hash placeholder").
func childHashOrPlaceholder(c *Child) types.Hash {
	if c == nil {
		return types.Hash{}
	}
	return c.Hash
}

// Hash computes Internal hash = H(domain_internal || left || right).
func (n InternalNode) Hash() types.Hash {
	left := childHashOrPlaceholder(n.Left)
	right := childHashOrPlaceholder(n.Right)
	buf := make([]byte, 0, len(domainInternal)+types.HashLength*2)
	buf = append(buf, domainInternal...)
	buf = append(buf, left.Bytes()...)
	buf = append(buf, right.Bytes()...)
	return types.Hash256(buf)
}

// bitAt returns the bit of h at position depth (0 = most significant bit
// of the first byte), determining which child a key_hash descends into at
// that depth.
func bitAt(h types.Hash, depth int) byte {
	byteIdx := depth / 8
	bitIdx := 7 - uint(depth%8)
	return (h[byteIdx] >> bitIdx) & 1
}

func appendBit(path []byte, bit byte) []byte {
	out := make([]byte, len(path)+1)
	copy(out, path)
	out[len(path)] = bit
	return out
}
