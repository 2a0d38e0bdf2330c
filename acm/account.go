package acm

import (
	"encoding/json"
	"strconv"

	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// InstantiateMsg is the payload a signer account is instantiated with: the
// public key to register, set once and never changed afterward.
type InstantiateMsg struct {
	PublicKey PublicKey `json:"public_key"`
}

// QueryMsg is the account contract's only query variant: fetch the
// stored public key and sequence.
type QueryMsg struct {
	State *struct{} `json:"state,omitempty"`
}

// StateResponse answers QueryMsg.State.
type StateResponse struct {
	PublicKey PublicKey `json:"public_key"`
	Sequence  uint32    `json:"sequence"`
}

// AccountState is the per-account storage layout of the built-in signer
// account contract: a write-once public key and a replay-protection
// sequence. It is namespaced per account by the caller (see instance.go),
// the same way any contract's private store is namespaced under its own
// address.
type AccountState struct {
	pubKey storage.Item[PublicKey]
	seq    storage.Incrementor[uint32]
}

// NewAccountState declares the account contract's storage under ns, which
// callers scope to one account (e.g. the account's address).
func NewAccountState(ns string) AccountState {
	return AccountState{
		pubKey: storage.NewItem[PublicKey](ns+"/public_key", storage.Schema),
		seq:    storage.NewIncrementor[uint32](ns + "/sequence"),
	}
}

// Instantiate registers msg's public key and zeroes the sequence. Called
// exactly once, at account creation.
func (a AccountState) Instantiate(store storage.KVStore, msg InstantiateMsg) (*types.Response, error) {
	if a.pubKey.Exists(store) {
		return nil, errors.Internal("account: public key already set")
	}
	if err := a.pubKey.Save(store, &msg.PublicKey); err != nil {
		return nil, errors.Internal("account: saving public key: %v", err)
	}
	if err := a.seq.Initialize(store); err != nil {
		return nil, errors.Internal("account: initializing sequence: %v", err)
	}
	return types.NewResponse().
		AddAttribute("public_key_kind", msg.PublicKey.Kind.String()), nil
}

// BeforeTx authenticates tx against the stored public key and sequence,
// then increments the sequence. simulate skips the signature check (fee
// estimation) but still increments the sequence, so a simulated tx
// consumes the same replay-protection slot a real one would, rather than
// creating a free sequence-burning oracle.
func (a AccountState) BeforeTx(store storage.KVStore, chainID string, tx types.Tx, simulate bool) (*types.Response, error) {
	pk, err := a.pubKey.Load(store)
	if err != nil {
		return nil, errors.Internal("account: loading public key: %v", err)
	}
	sequence, err := a.seq.Load(store)
	if err != nil {
		return nil, errors.Internal("account: loading sequence: %v", err)
	}

	signBytes, err := SignBytes(tx.Msgs, tx.Sender, chainID, sequence)
	if err != nil {
		return nil, errors.BadInput("account: computing sign bytes: %v", err)
	}

	if !simulate && !Verify(pk, signBytes, tx.Credential) {
		return nil, errors.AuthFailure("account: signature verification failed for sequence %d", sequence)
	}

	if _, err := a.seq.Increment(store); err != nil {
		return nil, errors.Internal("account: incrementing sequence: %v", err)
	}
	return types.NewResponse(), nil
}

// AfterTx is the post-transaction hook. The built-in account contract has
// nothing further to do once every message and before_tx have already
// succeeded.
func (a AccountState) AfterTx(store storage.KVStore, chainID string, tx types.Tx) (*types.Response, error) {
	return types.NewResponse(), nil
}

// Receive is the accept-transfer hook invoked when a plain transfer
// targets this account, logging the sender and the received funds.
func (a AccountState) Receive(store storage.KVStore, sender types.Address, funds types.Coins) (*types.Response, error) {
	resp := types.NewResponse().AddAttribute("sender", sender.String())
	for _, c := range funds {
		resp.AddAttribute("funds_"+c.Denom, strconv.FormatUint(c.Amount, 10))
	}
	return resp, nil
}

// Query answers msg, returning the stored public key and sequence.
func (a AccountState) Query(store storage.KVStore, msg QueryMsg) (json.RawMessage, error) {
	if msg.State != nil {
		pk, err := a.pubKey.Load(store)
		if err != nil {
			return nil, errors.NotFound("account: public key not set")
		}
		seq, err := a.seq.Load(store)
		if err != nil {
			return nil, errors.Internal("account: loading sequence: %v", err)
		}
		return json.Marshal(StateResponse{PublicKey: pk, Sequence: seq})
	}
	return nil, errors.BadInput("account: unknown query variant")
}
