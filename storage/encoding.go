package storage

import (
	"encoding/json"

	"github.com/tendermint/go-amino"
)

// Encoding is the serialization discipline a typed accessor is
// parameterized over: compact binary vs schema-tagged. Two disciplines
// are supported; mixing them within one namespace is forbidden by
// convention -- each Item/Map constructor pins one Encoding value for its
// lifetime.
type Encoding interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	Name() string
}

// aminoCodec is shared process-wide: every Binary-encoded value goes
// through this single *amino.Codec.
var aminoCodec = amino.NewCodec()

// Binary is the compact binary encoding discipline, backed by
// github.com/tendermint/go-amino -- its binary codec.
var Binary Encoding = binaryEncoding{}

type binaryEncoding struct{}

func (binaryEncoding) Marshal(v interface{}) ([]byte, error) {
	return aminoCodec.MarshalBinaryBare(v)
}

func (binaryEncoding) Unmarshal(data []byte, v interface{}) error {
	return aminoCodec.UnmarshalBinaryBare(data, v)
}

func (binaryEncoding) Name() string { return "binary" }

// Schema is the schema-tagged encoding discipline: ordinary JSON, self-
// describing on the wire (field names, not just positions), used wherever
// a typed accessor's value needs to be introspectable (e.g. by `query`
// entry points that return arbitrary Json).
var Schema Encoding = schemaEncoding{}

type schemaEncoding struct{}

func (schemaEncoding) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (schemaEncoding) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (schemaEncoding) Name() string { return "schema" }
