// Package acm implements the account authentication protocol: the tagged
// PublicKey variant, canonical sign-bytes, and the before_tx/after_tx
// contract behavior every signer account runs, recast as a native Go
// contract the execution core dispatches through the same sandbox.Instance
// interface a WASM guest satisfies (see instance.go).
package acm

import (
	"encoding/json"
	"fmt"

	"github.com/tmthrgd/go-hex"
)

// Kind tags which curve a PublicKey was issued under.
type Kind uint8

const (
	Secp256k1 Kind = iota + 1
	Secp256r1
)

func (k Kind) String() string {
	switch k {
	case Secp256k1:
		return "secp256k1"
	case Secp256r1:
		return "secp256r1"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// keyLength is the fixed width of both variants' key bytes: 33-byte
// SEC1-compressed points for both curves.
const keyLength = 33

// PublicKey is the tagged, comparable, serializable key a signer account
// is instantiated with and never changes again ("write-
// once"). Being a plain struct of comparable fields (no slices), it is
// directly usable as a Go map key, matching the requirement that
// it double as a registry key for the (out-of-scope) account-factory
// contract.
type PublicKey struct {
	Kind Kind
	Key  [keyLength]byte
}

// NewPublicKey builds a PublicKey from kind and raw key bytes.
func NewPublicKey(kind Kind, key []byte) (PublicKey, error) {
	var pk PublicKey
	if len(key) != keyLength {
		return pk, fmt.Errorf("acm: public key must be %d bytes, got %d", keyLength, len(key))
	}
	pk.Kind = kind
	copy(pk.Key[:], key)
	return pk, nil
}

// Encode renders the stable tagged byte encoding: type-tag || key-bytes.
func (pk PublicKey) Encode() []byte {
	out := make([]byte, 0, 1+keyLength)
	out = append(out, byte(pk.Kind))
	out = append(out, pk.Key[:]...)
	return out
}

// DecodePublicKey reverses Encode.
func DecodePublicKey(raw []byte) (PublicKey, error) {
	var pk PublicKey
	if len(raw) != 1+keyLength {
		return pk, fmt.Errorf("acm: encoded public key must be %d bytes, got %d", 1+keyLength, len(raw))
	}
	kind := Kind(raw[0])
	if kind != Secp256k1 && kind != Secp256r1 {
		return pk, fmt.Errorf("acm: unknown public key kind tag %d", raw[0])
	}
	pk.Kind = kind
	copy(pk.Key[:], raw[1:])
	return pk, nil
}

func (pk PublicKey) String() string {
	return fmt.Sprintf("%s:%s", pk.Kind, hex.EncodeUpperToString(pk.Key[:]))
}

func (pk PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeUpperToString(pk.Encode()))
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	decoded, err := DecodePublicKey(raw)
	if err != nil {
		return err
	}
	*pk = decoded
	return nil
}
