package smt

import (
	"encoding/binary"
	"fmt"

	"github.com/grugnet/core/types"
)

// Node storage layout is a small hand-rolled binary format (in the style
// of storage/prefix.go's manual key formatting elsewhere in this module):
//
//	tag byte: 0 = leaf, 1 = internal
//	leaf:     key_hash(32) || value_hash(32)
//	internal: left-present(1) [|| left-version(8) || left-hash(32)]
//	          right-present(1) [|| right-version(8) || right-hash(32)]
func encodeNode(n Node) []byte {
	switch v := n.(type) {
	case LeafNode:
		out := make([]byte, 0, 1+types.HashLength*2)
		out = append(out, 0)
		out = append(out, v.KeyHash.Bytes()...)
		out = append(out, v.ValueHash.Bytes()...)
		return out
	case InternalNode:
		out := make([]byte, 0, 1+2*(1+8+types.HashLength))
		out = append(out, 1)
		out = appendChild(out, v.Left)
		out = appendChild(out, v.Right)
		return out
	default:
		panic("smt: unknown node type")
	}
}

func appendChild(out []byte, c *Child) []byte {
	if c == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	var vbuf [8]byte
	binary.BigEndian.PutUint64(vbuf[:], c.Version)
	out = append(out, vbuf[:]...)
	out = append(out, c.Hash.Bytes()...)
	return out
}

func decodeNode(raw []byte) (Node, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("smt: empty node encoding")
	}
	switch raw[0] {
	case 0:
		rest := raw[1:]
		if len(rest) != types.HashLength*2 {
			return nil, fmt.Errorf("smt: malformed leaf encoding")
		}
		var keyHash, valueHash types.Hash
		copy(keyHash[:], rest[:types.HashLength])
		copy(valueHash[:], rest[types.HashLength:])
		return LeafNode{KeyHash: keyHash, ValueHash: valueHash}, nil
	case 1:
		rest := raw[1:]
		left, rest, err := readChild(rest)
		if err != nil {
			return nil, err
		}
		right, rest, err := readChild(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) != 0 {
			return nil, fmt.Errorf("smt: trailing bytes in internal node encoding")
		}
		return InternalNode{Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("smt: unknown node tag %d", raw[0])
	}
}

func readChild(raw []byte) (*Child, []byte, error) {
	if len(raw) < 1 {
		return nil, nil, fmt.Errorf("smt: truncated child presence flag")
	}
	present := raw[0]
	raw = raw[1:]
	if present == 0 {
		return nil, raw, nil
	}
	if len(raw) < 8+types.HashLength {
		return nil, nil, fmt.Errorf("smt: truncated child reference")
	}
	version := binary.BigEndian.Uint64(raw[:8])
	var hash types.Hash
	copy(hash[:], raw[8:8+types.HashLength])
	return &Child{Version: version, Hash: hash}, raw[8+types.HashLength:], nil
}

// nodeStoreKey is the physical key a node is stored under: a namespace
// prefix followed by the node's version and path (see namespaceBytes in
// tree.go).
func nodeStoreKey(namespace []byte, key NodeKey) []byte {
	var vbuf [8]byte
	binary.BigEndian.PutUint64(vbuf[:], key.Version)
	out := make([]byte, 0, len(namespace)+8+2+len(key.Path))
	out = append(out, namespace...)
	out = append(out, vbuf[:]...)
	var lbuf [2]byte
	binary.BigEndian.PutUint16(lbuf[:], uint16(len(key.Path)))
	out = append(out, lbuf[:]...)
	out = append(out, key.Path...)
	return out
}
