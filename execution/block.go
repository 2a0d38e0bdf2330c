package execution

import (
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/storage/smt"
	"github.com/grugnet/core/types"
)

// BlockResult is everything ExecuteBlock reports back to its caller (the
// consensus engine, out of scope here).
type BlockResult struct {
	Events     []types.Event
	TxErrors   []error
	NewVersion uint64
	RootHash   types.Hash
}

// ExecuteBlock runs every transaction in txs against base in declared
// order, then commits the block's accumulated writes to the authenticated
// tree to produce a new app-hash ("End-of-block"). A
// transaction that errors is rolled back individually and recorded in
// TxErrors; it does not affect the rest of the block (
// "already-committed transactions in the block are unaffected").
func (e *Executor) ExecuteBlock(base storage.KVStore, block types.BlockInfo, chainID string, txs []types.Tx) (*BlockResult, error) {
	blockCache := storage.NewCacheStore(base, nil)
	blockShared := storage.NewSharedStore(blockCache)
	root := &execContext{exec: e, block: block, chainID: chainID, store: blockShared}

	result := &BlockResult{}
	for _, tx := range txs {
		events, err := root.RunTx(tx, false)
		if err != nil {
			result.TxErrors = append(result.TxErrors, err)
			continue
		}
		result.Events = append(result.Events, events...)
	}

	baseVersion, _, err := e.tree.LatestVersion(base)
	if err != nil {
		return nil, err
	}
	ops := blockCache.Ops()
	batch := make([]smt.BatchEntry, len(ops))
	for i, op := range ops {
		batch[i] = smt.BatchEntry{Key: op.Key, Op: op.Op}
	}
	newVersion, rootHash, err := e.tree.Apply(base, baseVersion, batch)
	if err != nil {
		return nil, err
	}

	blockCache.Consume()
	if err := e.stores.LastBlock.Save(base, &block); err != nil {
		return nil, err
	}

	result.NewVersion = newVersion
	result.RootHash = rootHash
	return result, nil
}
