package storage

import "encoding/binary"

// namespacePrefix returns the length-prefixed namespace bytes every
// physical key in this package begins with:
//
//	len(ns) || ns
//
// length-prefixing the namespace itself (not just the segments that
// follow it) is what stops one namespace's keys from ever being a prefix
// of another's, e.g. ns="ab" key="c" colliding with ns="a" key="bc"
// ("Namespacing").
func namespacePrefix(ns []byte) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(ns)))
	out := make([]byte, 0, 2+len(ns))
	out = append(out, lenBuf[:]...)
	out = append(out, ns...)
	return out
}
