package storage

import (
	"fmt"

	"github.com/grugnet/core/types"
)

// AddressKey and HashKey are the KeyCodec instances the execution package
// uses for its CODES (Hash -> Code) and ACCOUNTS (Address -> Account)
// namespaces.
type AddressKey struct{}

func (AddressKey) RawKeys(k types.Address) []RawKey { return []RawKey{RawKey(k.Bytes())} }

func (AddressKey) Parse(raw []byte) (types.Address, error) {
	var a types.Address
	if len(raw) != types.AddressLength {
		return a, fmt.Errorf("storage: address key must be %d bytes, got %d", types.AddressLength, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

type HashKey struct{}

func (HashKey) RawKeys(k types.Hash) []RawKey { return []RawKey{RawKey(k.Bytes())} }

func (HashKey) Parse(raw []byte) (types.Hash, error) {
	var h types.Hash
	if len(raw) != types.HashLength {
		return h, fmt.Errorf("storage: hash key must be %d bytes, got %d", types.HashLength, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
