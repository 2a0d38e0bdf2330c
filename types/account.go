package types

// Account is the on-chain record for an address: the code it runs and,
// optionally, the address allowed to migrate it to a new code hash. There
// is no other mutable field -- balances, sequences and everything else
// live in the contract's own namespaced storage ("Account").
type Account struct {
	CodeHash Hash
	Admin    *Address
}

// Code is a deduplicated, content-addressed program blob.
type Code []byte

func (c Code) Hash() Hash { return Hash256(c) }
