package types

import (
	"encoding/json"
	"fmt"

	"github.com/tendermint/tendermint/crypto/tmhash"
	"github.com/tmthrgd/go-hex"
)

// AddressLength is the fixed width of an account address.
const AddressLength = 32

// HashLength is the fixed width of a content hash (code hash, key hash,
// value hash, node hash).
const HashLength = 32

// Address identifies an account: either a signer account or a contract.
type Address [AddressLength]byte

// Hash is the output of the system hash function H.
type Hash [HashLength]byte

// Hash256 computes the system hash H over arbitrary bytes.
func Hash256(data []byte) Hash {
	var h Hash
	copy(h[:], tmhash.Sum(data))
	return h
}

// ComputeAddress derives the deterministic address of a contract from its
// instantiator, its code hash and the salt supplied at instantiation time:
//
//	Address = H(sender || code_hash || salt)
func ComputeAddress(sender Address, codeHash Hash, salt []byte) Address {
	buf := make([]byte, 0, AddressLength+HashLength+len(salt))
	buf = append(buf, sender[:]...)
	buf = append(buf, codeHash[:]...)
	buf = append(buf, salt...)
	return Address(Hash256(buf))
}

func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return hex.EncodeUpperToString(a[:]) }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	bs, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(bs) != AddressLength {
		return fmt.Errorf("address must be %d bytes, got %d", AddressLength, len(bs))
	}
	copy(a[:], bs)
	return nil
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return hex.EncodeUpperToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	bs, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(bs) != HashLength {
		return fmt.Errorf("hash must be %d bytes, got %d", HashLength, len(bs))
	}
	copy(h[:], bs)
	return nil
}
