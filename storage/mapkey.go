package storage

import (
	"encoding/binary"
	"fmt"
)

// RawKey is one segment of a composite key, already reduced to bytes.
type RawKey []byte

// KeyCodec is a capability describing how a key type composes into and
// decomposes from raw byte segments: a pair of functions per key type,
// {encode -> segments, decode <- bytes}. Go generics can't attach an
// associated type to a type parameter, so the codec is reified as a value
// passed alongside each Map/Prefix instead of resolved implicitly.
type KeyCodec[K any] interface {
	// RawKeys splits k into its ordered segments. Every segment but the
	// last is length-prefixed when composed (see joinSegments); the last
	// is appended raw, enabling prefix scans.
	RawKeys(k K) []RawKey
	// Parse reverses RawKeys/joinSegments for a fully composed key.
	Parse(raw []byte) (K, error)
}

// joinSegments composes raw key segments with length-prefixing: every
// segment but the last is prefixed by its 2-byte big-endian length; the
// last segment is appended raw so that a prefix scan over the leading
// segments stays a contiguous byte range.
func joinSegments(segments []RawKey) []byte {
	return composeSegments(segments, true)
}

// joinSegmentsAllPrefixed length-prefixes every segment, including the
// last. It is used for a Prefix view's own fixed segments, since those are
// followed by further (as yet unknown) suffix segments and so can never be
// left unprefixed the way a terminal key's last segment can.
func joinSegmentsAllPrefixed(segments []RawKey) []byte {
	return composeSegments(segments, false)
}

func composeSegments(segments []RawKey, leaveLastRaw bool) []byte {
	var out []byte
	for i, seg := range segments {
		prefixed := !leaveLastRaw || i < len(segments)-1
		if prefixed {
			var lenBuf [2]byte
			binary.BigEndian.PutUint16(lenBuf[:], uint16(len(seg)))
			out = append(out, lenBuf[:]...)
		}
		out = append(out, seg...)
	}
	return out
}

// splitOneSegment reverses one length-prefixed segment off the front of
// raw, returning the segment and the remainder.
func splitOneSegment(raw []byte) (RawKey, []byte, error) {
	if len(raw) < 2 {
		return nil, nil, fmt.Errorf("storage: key too short to contain a length prefix")
	}
	n := int(binary.BigEndian.Uint16(raw[:2]))
	raw = raw[2:]
	if len(raw) < n {
		return nil, nil, fmt.Errorf("storage: key length prefix %d exceeds remaining %d bytes", n, len(raw))
	}
	return RawKey(raw[:n]), raw[n:], nil
}

// -- built-in codecs for the key types this framework actually needs -----

// BytesKey is the identity codec: a key is already its own raw bytes, and
// is always the final (un-prefixed) segment.
type BytesKey struct{}

func (BytesKey) RawKeys(k []byte) []RawKey { return []RawKey{RawKey(k)} }

func (BytesKey) Parse(raw []byte) ([]byte, error) { return raw, nil }

// StringKey treats a Go string as a single raw segment.
type StringKey struct{}

func (StringKey) RawKeys(k string) []RawKey { return []RawKey{RawKey(k)} }

func (StringKey) Parse(raw []byte) (string, error) { return string(raw), nil }

// Uint32Key encodes a uint32 as 4 big-endian bytes, so that range scans
// over numeric keys stay in numeric order.
type Uint32Key struct{}

func (Uint32Key) RawKeys(k uint32) []RawKey {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], k)
	return []RawKey{RawKey(buf[:])}
}

func (Uint32Key) Parse(raw []byte) (uint32, error) {
	if len(raw) != 4 {
		return 0, fmt.Errorf("storage: uint32 key must be 4 bytes, got %d", len(raw))
	}
	return binary.BigEndian.Uint32(raw), nil
}

// Uint64Key encodes a uint64 as 8 big-endian bytes. Used for block heights
// and tree versions, where keys must sort numerically.
type Uint64Key struct{}

func (Uint64Key) RawKeys(k uint64) []RawKey {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], k)
	return []RawKey{RawKey(buf[:])}
}

func (Uint64Key) Parse(raw []byte) (uint64, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("storage: uint64 key must be 8 bytes, got %d", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}
