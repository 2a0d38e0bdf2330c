package execution

import (
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// Canonical namespaces persisted state is organized under. Every
// contract's own private storage lives under a further namespace keyed by
// its address, carved out by the sandbox adapter rather than through
// Stores (sandbox/life.go's hostImports.namespacedKey, acm/instance.go's
// contractPrefix).
const (
	nsCodes     = "CODES"
	nsAccounts  = "ACCOUNTS"
	nsConfig    = "CONFIG"
	nsChainID   = "CHAIN_ID"
	nsLastBlock = "LAST_BLOCK"
)

// Stores bundles the typed accessors over the canonical global namespaces,
// in place of a hand-rolled key-format/RWTree pairing: one generic
// storage.Map/Item accessor per namespace.
type Stores struct {
	Codes     storage.Map[types.Hash, types.Code]
	Accounts  storage.Map[types.Address, types.Account]
	Config    storage.Item[types.Config]
	ChainID   storage.Item[string]
	LastBlock storage.Item[types.BlockInfo]
}

// NewStores declares the canonical accessors. Codes are kept under the
// compact binary encoding since they're opaque program bytes never
// introspected by queries; the others use the schema-tagged encoding since
// they're exposed to queries and genesis tooling as plain JSON.
func NewStores() Stores {
	return Stores{
		Codes:     storage.NewMap[types.Hash, types.Code](nsCodes, storage.HashKey{}, storage.Binary),
		Accounts:  storage.NewMap[types.Address, types.Account](nsAccounts, storage.AddressKey{}, storage.Schema),
		Config:    storage.NewItem[types.Config](nsConfig, storage.Schema),
		ChainID:   storage.NewItem[string](nsChainID, storage.Schema),
		LastBlock: storage.NewItem[types.BlockInfo](nsLastBlock, storage.Schema),
	}
}
