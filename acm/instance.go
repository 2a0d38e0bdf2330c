package acm

import (
	"encoding/binary"
	"encoding/json"

	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/sandbox"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// AccountCodeHash is the well-known code_hash every signer account is
// instantiated against: a native Go implementation of the account
// protocol rather than a guest WASM module. Contracts are content-
// addressed by code_hash ("Code"); the account contract is no
// exception, it just never has guest bytes behind it.
var AccountCodeHash = types.Hash256([]byte("grug/native/account/v1"))

type nativeProgram struct{}

func (nativeProgram) CodeHash() types.Hash { return AccountCodeHash }

// NativeAdapter is a sandbox.Adapter that serves exactly one program: the
// built-in account contract. Wiring it alongside the WASM-backed
// sandbox.LifeAdapter via sandbox.MultiAdapter lets the execution core
// dispatch before_tx/after_tx/receive/query on signer accounts through
// the same Adapter/Instance abstraction ordinary user
// contracts use, rather than special-casing account calls in the
// execution package.
type NativeAdapter struct{}

func (NativeAdapter) LoadProgram(store storage.KVStore, codeHash types.Hash) (sandbox.Program, error) {
	if codeHash != AccountCodeHash {
		return nil, errors.NotFound("acm: native adapter has no program for code hash %s", codeHash)
	}
	return nativeProgram{}, nil
}

func (NativeAdapter) CreateInstance(host sandbox.Host, block types.BlockInfo, contractAddr types.Address, program sandbox.Program) (sandbox.Instance, error) {
	if _, ok := program.(nativeProgram); !ok {
		return nil, errors.Internal("acm: program not produced by NativeAdapter.LoadProgram")
	}
	return &nativeInstance{
		state: NewAccountState("account"),
		store: contractPrefix(contractAddr).Store(host.Store()),
	}, nil
}

// contractPrefix reproduces sandbox's LifeAdapter host-namespacing scheme
// (len(addr) || addr) so that the native account contract and WASM guest
// contracts carve up the shared working store identically (
// item 2: storage scoped to contract_addr's namespace).
func contractPrefix(addr types.Address) storage.Prefix {
	b := addr.Bytes()
	var lbuf [2]byte
	binary.BigEndian.PutUint16(lbuf[:], uint16(len(b)))
	buf := make([]byte, 0, 2+len(b))
	buf = append(buf, lbuf[:]...)
	buf = append(buf, b...)
	return storage.Prefix(buf)
}

// nativeInstance adapts AccountState's Go-typed methods to the
// byte-in/byte-out sandbox.Instance contract every entry point (guest or
// native) satisfies.
type nativeInstance struct {
	state AccountState
	store storage.KVStore
}

func (n *nativeInstance) Instantiate(ctx types.Context, msg []byte) (*types.Response, error) {
	var m InstantiateMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, errors.BadInput("acm: decoding instantiate msg: %v", err)
	}
	return n.state.Instantiate(n.store, m)
}

func (n *nativeInstance) Execute(ctx types.Context, msg []byte) (*types.Response, error) {
	return nil, errors.BadInput("acm: account contract has no execute entry point")
}

func (n *nativeInstance) Migrate(ctx types.Context, oldMsg []byte) (*types.Response, error) {
	return nil, errors.BadInput("acm: account contract does not support migrate")
}

func (n *nativeInstance) Query(ctx types.Context, msg []byte) ([]byte, error) {
	var m QueryMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		return nil, errors.BadInput("acm: decoding query msg: %v", err)
	}
	return n.state.Query(n.store, m)
}

func (n *nativeInstance) BeforeTx(ctx types.Context, tx types.Tx) (*types.Response, error) {
	simulate := ctx.Simulate != nil && *ctx.Simulate
	return n.state.BeforeTx(n.store, ctx.ChainID, tx, simulate)
}

func (n *nativeInstance) AfterTx(ctx types.Context, tx types.Tx) (*types.Response, error) {
	return n.state.AfterTx(n.store, ctx.ChainID, tx)
}

func (n *nativeInstance) Receive(ctx types.Context) (*types.Response, error) {
	var sender types.Address
	if ctx.Sender != nil {
		sender = *ctx.Sender
	}
	return n.state.Receive(n.store, sender, ctx.Funds)
}

func (n *nativeInstance) Reply(ctx types.Context, payload []byte, result types.SubMsgResult) (*types.Response, error) {
	return nil, errors.BadInput("acm: account contract never sends submessages")
}
