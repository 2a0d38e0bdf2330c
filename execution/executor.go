// Package execution is the state-transition machine: it authenticates
// transactions, dispatches to sandboxed contract entry points, propagates
// the submessage/reply protocol, and commits each block's writes to the
// authenticated tree (storage/smt). It replaces an EVM call-frame
// interpreter over a single State tree with a generic dispatcher over the
// typed accessors in storage and the sandbox package's Adapter/Instance
// boundary.
package execution

import (
	"github.com/grugnet/core/logging"
	"github.com/grugnet/core/sandbox"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/storage/smt"
	"github.com/grugnet/core/types"
)

// Executor is the execution core's entry point: it owns the canonical
// accessors (Stores), the sandbox adapter contracts run under, and the
// tunables that scope a call -- pairing a *State-like bundle of accessors
// with a generic sandbox.Adapter in place of a concrete EVM.
type Executor struct {
	stores  Stores
	tree    *smt.Tree
	adapter sandbox.Adapter
	config  *ExecutionConfig
	metrics *sandbox.Metrics
	logger  *logging.Logger
}

// NewExecutor wires together one chain's execution core. adapter is
// typically a sandbox.MultiAdapter combining acm.NativeAdapter (the
// built-in account protocol) with a guest engine such as
// sandbox.NewLifeAdapter, so account and user-contract calls dispatch
// through the identical Instance boundary.
func NewExecutor(adapter sandbox.Adapter, config *ExecutionConfig, metrics *sandbox.Metrics, logger *logging.Logger) *Executor {
	if config == nil {
		config = DefaultExecutionConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Executor{
		stores:  NewStores(),
		tree:    smt.NewTree("state"),
		adapter: adapter,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// InitGenesis seeds CONFIG and CHAIN_ID ahead of any block processing
// ("Global state ... initialize on genesis").
func (e *Executor) InitGenesis(store storage.KVStore, chainID string, config types.Config) error {
	if err := e.stores.ChainID.Save(store, &chainID); err != nil {
		return err
	}
	return e.stores.Config.Save(store, &config)
}

// Query answers a read-only query entry point without going through block
// processing, for external callers. A contract's own "query" host import
// goes through execHost.QueryContract below, which calls execContext.query
// directly.
func (e *Executor) Query(store storage.KVStore, block types.BlockInfo, chainID string, contractAddr types.Address, msg []byte) ([]byte, error) {
	ec := &execContext{exec: e, block: block, chainID: chainID, store: storage.NewSharedStore(store)}
	return ec.query(contractAddr, msg)
}

// execContext is the state threaded through one call tree: the block it
// belongs to, the chain id (for sign-bytes), and the frame's current
// working store ("one dynamic handle" backing the logical
// stack of overlays).
type execContext struct {
	exec    *Executor
	block   types.BlockInfo
	chainID string
	store   storage.SharedStore
}

// child opens a new cache frame layered over ec's current store ("each
// submessage runs in its own cache frame"). finish must be
// called exactly once with the commit decision before the parent frame is
// touched again.
func (ec *execContext) child() (*execContext, func(commit bool)) {
	cache := storage.NewCacheStore(ec.store, nil)
	shared := storage.NewSharedStore(cache)
	child := &execContext{exec: ec.exec, block: ec.block, chainID: ec.chainID, store: shared}
	finish := func(commit bool) {
		c := shared.Disassemble().(*storage.CacheStore)
		if commit {
			c.Consume()
		} else {
			c.Discard()
		}
	}
	return child, finish
}

func (ec *execContext) contextFor(contract types.Address, sender *types.Address, funds types.Coins) types.Context {
	return types.Context{
		ChainID:        ec.chainID,
		BlockHeight:    ec.block.Height,
		BlockTimestamp: ec.block.Timestamp,
		BlockHash:      ec.block.Hash,
		Contract:       contract,
		Sender:         sender,
		Funds:          funds,
	}
}

// loadInstance resolves contractAddr's account, loads its program, and
// spins up a sandboxed Instance wired to this frame's store.
func (ec *execContext) loadInstance(contractAddr types.Address) (sandbox.Instance, types.Account, error) {
	account, err := ec.exec.stores.Accounts.Load(ec.store, contractAddr)
	if err != nil {
		return nil, types.Account{}, err
	}
	program, err := ec.exec.adapter.LoadProgram(ec.store, account.CodeHash)
	if err != nil {
		return nil, account, err
	}
	instance, err := ec.exec.adapter.CreateInstance(&execHost{ec: ec}, ec.block, contractAddr, program)
	if err != nil {
		return nil, account, err
	}
	return instance, account, nil
}

func (ec *execContext) query(contractAddr types.Address, msg []byte) ([]byte, error) {
	instance, _, err := ec.loadInstance(contractAddr)
	if err != nil {
		return nil, err
	}
	return instance.Query(ec.contextFor(contractAddr, nil, nil), msg)
}

// execHost adapts an execContext to the sandbox.Host contract: Store()
// exposes the frame's raw working store (the adapter namespaces it per
// contract itself, as sandbox/life.go's hostImports and acm/instance.go's
// contractPrefix both do), and QueryContract routes a guest's "query"
// import back through the same read-only dispatch Executor.Query uses.
type execHost struct {
	ec *execContext
}

func (h *execHost) Store() storage.KVStore { return h.ec.store }

func (h *execHost) QueryContract(addr types.Address, msg []byte) ([]byte, error) {
	return h.ec.query(addr, msg)
}
