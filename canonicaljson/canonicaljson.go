// Package canonicaljson pins down a previously open question: the
// deterministic JSON encoding of a message batch that sign_bytes hashes
// over.
//
// The rule, per spec.md §4.H/§9, is: fixed field order -- alphabetical for
// objects -- no insignificant whitespace, and Go's minimal number
// formatting. encoding/json's struct marshaling gives the latter two for
// free but orders object fields by struct declaration, not alphabetically,
// so Marshal re-encodes every object level with its keys sorted by
// sort.Strings after the initial marshal. No third-party canonical-JSON
// codec exists anywhere in the retrieved pack, so this re-sorting pass is
// the one place the implementation falls back to the standard library.
package canonicaljson

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Marshal produces the canonical encoding of v: every object's fields
// sorted alphabetically by key, arrays left in their given order, no
// insignificant whitespace, numbers in encoding/json's default minimal
// format.
func Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return canonicalize(raw)
}

// canonicalize re-renders a JSON value with every object's keys sorted
// alphabetically, recursing into arrays and nested objects. Scalars are
// returned unchanged so encoding/json's own number/string formatting from
// the initial Marshal survives untouched.
func canonicalize(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return raw, nil
	}
	switch trimmed[0] {
	case '{':
		return canonicalizeObject(trimmed)
	case '[':
		return canonicalizeArray(trimmed)
	default:
		return trimmed, nil
	}
}

func canonicalizeObject(raw json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return []byte("null"), nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		val, err := canonicalize(fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func canonicalizeArray(raw json.RawMessage) (json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	if elems == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := canonicalize(elem)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
