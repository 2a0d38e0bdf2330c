// Package sandbox abstracts over a concrete guest execution engine
//. Adapter is the contract every concrete engine
// implements; life.go supplies the one backed by
// github.com/perlin-network/life, this codebase's WASM virtual machine.
package sandbox

import (
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// Program is a loaded, hash-verified, instantiation-ready guest module.
type Program interface {
	// CodeHash is the content hash the program was loaded under.
	CodeHash() types.Hash
}

// Adapter obligations are
type Adapter interface {
	// LoadProgram fetches code by hash from store, verifies it hashes to
	// code_hash, and prepares it for instantiation. Implementations may
	// cache compiled artifacts keyed by code_hash.
	LoadProgram(store storage.KVStore, codeHash types.Hash) (Program, error)

	// CreateInstance constructs a sandboxed instance of program, wired to
	// host functions scoped to contractAddr's storage namespace.
	CreateInstance(host Host, block types.BlockInfo, contractAddr types.Address, program Program) (Instance, error)
}

// Host is everything an Instance's host functions need from the caller:
// the working store (unprefixed; the adapter namespaces keys per
// contractAddr itself) and a way to recursively query sibling contracts.
// It carries no event sink.
type Host interface {
	Store() storage.KVStore
	// QueryContract invokes another contract's query entry point without
	// mutating state; used by the guest's "query" import.
	QueryContract(addr types.Address, msg []byte) ([]byte, error)
}

// Instance is one sandboxed execution context bound to a single contract
// call tree. Every non-query entry point returns a Response or an error;
// query returns raw JSON.
type Instance interface {
	Instantiate(ctx types.Context, msg []byte) (*types.Response, error)
	Execute(ctx types.Context, msg []byte) (*types.Response, error)
	Migrate(ctx types.Context, oldMsg []byte) (*types.Response, error)
	Query(ctx types.Context, msg []byte) ([]byte, error)
	BeforeTx(ctx types.Context, tx types.Tx) (*types.Response, error)
	AfterTx(ctx types.Context, tx types.Tx) (*types.Response, error)
	Receive(ctx types.Context) (*types.Response, error)
	Reply(ctx types.Context, payload []byte, result types.SubMsgResult) (*types.Response, error)
}
