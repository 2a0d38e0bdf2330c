package execution

import (
	"testing"

	execerrors "github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/sandbox"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

func newTestExecutor(t *testing.T) (*Executor, storage.KVStore, *fakeAdapter) {
	t.Helper()
	adapter := newFakeAdapter()
	exec := NewExecutor(adapter, nil, nil, nil)
	store := storage.NewMemStore()
	config := types.Config{
		Permissions: types.Permissions{
			Upload:      types.Everybody(),
			Instantiate: types.Everybody(),
		},
	}
	if err := exec.InitGenesis(store, "test-chain", config); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	return exec, store, adapter
}

func rootContext(exec *Executor, store storage.KVStore) *execContext {
	return &execContext{
		exec:    exec,
		block:   types.BlockInfo{Height: 1},
		chainID: "test-chain",
		store:   storage.NewSharedStore(store),
	}
}

func uploadAndInstantiate(t *testing.T, ec *execContext, adapter *fakeAdapter, sender types.Address, salt []byte, prog *fakeProgram) types.Address {
	t.Helper()
	code := types.Code(append([]byte("contract-src-"), salt...))
	codeHash := code.Hash()
	prog.hash = codeHash
	adapter.register(prog)

	if _, err := ec.ProcessMsg(sender, types.NewUploadMsg(code)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	addr := types.ComputeAddress(sender, codeHash, salt)
	if _, err := ec.ProcessMsg(sender, types.NewInstantiateMsg(codeHash, nil, salt, nil, nil)); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	return addr
}

func TestUpload_RejectsDuplicateCodeHash(t *testing.T) {
	exec, store, _ := newTestExecutor(t)
	ec := rootContext(exec, store)
	sender := types.Address{1}
	code := types.Code("same-bytes")

	if _, err := ec.ProcessMsg(sender, types.NewUploadMsg(code)); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	_, err := ec.ProcessMsg(sender, types.NewUploadMsg(code))
	if !execerrors.Is(err, execerrors.ErrorCodeAlreadyExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}

func TestInstantiate_AddressDeterministicAndCollisionRejected(t *testing.T) {
	exec, store, adapter := newTestExecutor(t)
	ec := rootContext(exec, store)
	sender := types.Address{1}
	code := types.Code("contract-a-src")
	codeHash := code.Hash()
	adapter.register(&fakeProgram{hash: codeHash})

	if _, err := ec.ProcessMsg(sender, types.NewUploadMsg(code)); err != nil {
		t.Fatalf("upload: %v", err)
	}

	salt := []byte("salt-1")
	wantAddr := types.ComputeAddress(sender, codeHash, salt)
	if _, err := ec.ProcessMsg(sender, types.NewInstantiateMsg(codeHash, nil, salt, nil, nil)); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if !exec.stores.Accounts.Has(ec.store, wantAddr) {
		t.Fatalf("expected account at deterministic address %s", wantAddr)
	}

	_, err := ec.ProcessMsg(sender, types.NewInstantiateMsg(codeHash, nil, salt, nil, nil))
	if !execerrors.Is(err, execerrors.ErrorCodeAlreadyExists) {
		t.Fatalf("expected AlreadyExists on salt collision, got %v", err)
	}

	otherSalt := []byte("salt-2")
	otherAddr := types.ComputeAddress(sender, codeHash, otherSalt)
	if otherAddr == wantAddr {
		t.Fatalf("different salts must not collide")
	}
	if _, err := ec.ProcessMsg(sender, types.NewInstantiateMsg(codeHash, nil, otherSalt, nil, nil)); err != nil {
		t.Fatalf("instantiate with different salt: %v", err)
	}
}

// TestRunTx_SubmessageNeverOnError_AbortsWholeTransaction covers the
// S4 scenario: a submessage with reply_on=never whose inner call errors
// propagates the error all the way out, and the whole transaction -- not
// just the submessage's own frame -- rolls back.
func TestRunTx_SubmessageNeverOnError_AbortsWholeTransaction(t *testing.T) {
	exec, store, adapter := newTestExecutor(t)
	ec := rootContext(exec, store)
	sender := types.Address{1}

	var aAddr, bAddr types.Address
	aAddr = uploadAndInstantiate(t, ec, adapter, sender, []byte("a"), &fakeProgram{
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			host.Store().Set([]byte("a-direct-write"), []byte("1"))
			resp := types.NewResponse()
			resp.AddSubmessage(types.NewExecuteMsg(bAddr, nil, nil), types.ReplyNever())
			return resp, nil
		},
	})
	bAddr = uploadAndInstantiate(t, ec, adapter, sender, []byte("b"), &fakeProgram{
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			return nil, execerrors.BadInput("execution_test: contract b always fails")
		},
	})

	tx := types.Tx{Sender: aAddr, Msgs: []types.Message{types.NewExecuteMsg(aAddr, nil, nil)}}
	_, err := ec.RunTx(tx, false)
	if err == nil {
		t.Fatalf("expected transaction to abort")
	}
	if ec.store.Has([]byte("a-direct-write")) {
		t.Fatalf("a's direct write must have been rolled back with the rest of the transaction")
	}
}

// TestRunTx_SubmessageReplyOnError_CommitsReplyButDiscardsFailedChild covers
// reply_on=error catching the inner failure: the
// failed submessage's own writes are discarded, and the reply's writes (run
// against the parent frame) survive the transaction's commit.
func TestRunTx_SubmessageReplyOnError_CommitsReplyButDiscardsFailedChild(t *testing.T) {
	exec, store, adapter := newTestExecutor(t)
	ec := rootContext(exec, store)
	sender := types.Address{1}

	var bAddr types.Address
	aAddr := uploadAndInstantiate(t, ec, adapter, sender, []byte("a"), &fakeProgram{
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			resp := types.NewResponse()
			resp.AddSubmessage(types.NewExecuteMsg(bAddr, nil, nil), types.ReplyOnErrorWith(nil))
			return resp, nil
		},
		reply: func(host sandbox.Host, ctx types.Context, payload []byte, result types.SubMsgResult) (*types.Response, error) {
			if result.Error == nil {
				t.Fatalf("expected an Err result in reply")
			}
			host.Store().Set([]byte("a-reply-write"), []byte("1"))
			return types.NewResponse(), nil
		},
	})
	bAddr = uploadAndInstantiate(t, ec, adapter, sender, []byte("b"), &fakeProgram{
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			host.Store().Set([]byte("b-direct-write"), []byte("1"))
			return nil, execerrors.BadInput("execution_test: contract b fails")
		},
	})

	tx := types.Tx{Sender: aAddr, Msgs: []types.Message{types.NewExecuteMsg(aAddr, nil, nil)}}
	if _, err := ec.RunTx(tx, false); err != nil {
		t.Fatalf("expected transaction to succeed via reply_on=error, got %v", err)
	}
	if !ec.store.Has([]byte("a-reply-write")) {
		t.Fatalf("expected reply's write to have committed")
	}
	if ec.store.Has([]byte("b-direct-write")) {
		t.Fatalf("expected b's write to have been discarded with its failed frame")
	}
}

func TestRunTx_BeforeTxFailure_AbortsWithNoStateChange(t *testing.T) {
	exec, store, adapter := newTestExecutor(t)
	ec := rootContext(exec, store)
	sender := types.Address{1}

	addr := uploadAndInstantiate(t, ec, adapter, sender, []byte("s"), &fakeProgram{
		beforeTx: func(host sandbox.Host, ctx types.Context, tx types.Tx) (*types.Response, error) {
			return nil, execerrors.AuthFailure("execution_test: bad credential")
		},
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			host.Store().Set([]byte("should-not-exist"), []byte("1"))
			return types.NewResponse(), nil
		},
	})

	tx := types.Tx{Sender: addr, Msgs: []types.Message{types.NewExecuteMsg(addr, nil, nil)}}
	_, err := ec.RunTx(tx, false)
	if !execerrors.Is(err, execerrors.ErrorCodeAuthFailure) {
		t.Fatalf("expected AuthFailure, got %v", err)
	}
	if ec.store.Has([]byte("should-not-exist")) {
		t.Fatalf("before_tx failure must prevent any message from taking effect")
	}
}

func TestRunTx_Success_RunsBeforeTxMessagesAfterTxInOrder(t *testing.T) {
	exec, store, adapter := newTestExecutor(t)
	ec := rootContext(exec, store)
	sender := types.Address{1}

	var calls []string
	addr := uploadAndInstantiate(t, ec, adapter, sender, []byte("s"), &fakeProgram{
		beforeTx: func(host sandbox.Host, ctx types.Context, tx types.Tx) (*types.Response, error) {
			calls = append(calls, "before_tx")
			return types.NewResponse().AddAttribute("step", "before_tx"), nil
		},
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			calls = append(calls, "execute")
			return types.NewResponse().AddAttribute("step", "execute"), nil
		},
		afterTx: func(host sandbox.Host, ctx types.Context, tx types.Tx) (*types.Response, error) {
			calls = append(calls, "after_tx")
			return types.NewResponse().AddAttribute("step", "after_tx"), nil
		},
	})

	tx := types.Tx{Sender: addr, Msgs: []types.Message{types.NewExecuteMsg(addr, nil, nil)}}
	events, err := ec.RunTx(tx, false)
	if err != nil {
		t.Fatalf("RunTx: %v", err)
	}
	want := []string{"before_tx", "execute", "after_tx"}
	if len(calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, calls)
		}
	}
	if len(events) != 3 {
		t.Fatalf("expected one event per hook/message, got %d: %v", len(events), events)
	}
}
