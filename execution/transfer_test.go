package execution

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/btcsuite/btcd/btcec"

	"github.com/grugnet/core/acm"
	execerrors "github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/sandbox"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

const bankDenom = "ugrug"

func bankBalanceKey(addr types.Address) []byte {
	return []byte("bank:balance:" + addr.String())
}

func readBankBalance(store storage.KVStore, addr types.Address) uint64 {
	raw := store.Get(bankBalanceKey(addr))
	if raw == nil {
		return 0
	}
	v, _ := strconv.ParseUint(string(raw), 10, 64)
	return v
}

func writeBankBalance(store storage.KVStore, addr types.Address, amount uint64) {
	store.Set(bankBalanceKey(addr), []byte(strconv.FormatUint(amount, 10)))
}

// bankProgram is a fake bank contract (fakeAdapter-hosted) that settles
// every MsgTransfer's bankTransferMsg payload against a balance map kept
// in raw store, standing in for a real CosmWasm-style bank contract so the
// signed-transfer path can be exercised end to end without the WASM
// sandbox.
func newBankProgram() *fakeProgram {
	return &fakeProgram{
		execute: func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error) {
			var payload bankTransferMsg
			if err := json.Unmarshal(msg, &payload); err != nil {
				return nil, execerrors.BadInput("bank: decoding transfer payload: %v", err)
			}
			amount := payload.Transfer.Funds.AmountOf(bankDenom)
			from, to := payload.Transfer.From, payload.Transfer.To
			fromBal := readBankBalance(host.Store(), from)
			if fromBal < amount {
				return nil, execerrors.BadInput("bank: insufficient balance")
			}
			writeBankBalance(host.Store(), from, fromBal-amount)
			writeBankBalance(host.Store(), to, readBankBalance(host.Store(), to)+amount)
			return types.NewResponse(), nil
		},
	}
}

// signedAccount is a native signer account backed by a real secp256k1
// keypair, wired up through acm.NativeAdapter so BeforeTx performs genuine
// signature verification rather than the simulate-mode bypass the rest of
// this package's tests use.
type signedAccount struct {
	addr types.Address
	priv *btcec.PrivateKey
}

func instantiateSignedAccount(t *testing.T, ec *execContext, deployer types.Address, salt []byte) signedAccount {
	t.Helper()
	priv, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		t.Fatalf("generating secp256k1 key: %v", err)
	}
	pubKey, err := acm.NewPublicKey(acm.Secp256k1, priv.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	instantiateMsg, err := json.Marshal(acm.InstantiateMsg{PublicKey: pubKey})
	if err != nil {
		t.Fatalf("marshal instantiate msg: %v", err)
	}
	addr := types.ComputeAddress(deployer, acm.AccountCodeHash, salt)
	if _, err := ec.ProcessMsg(deployer, types.NewInstantiateMsg(acm.AccountCodeHash, instantiateMsg, salt, nil, nil)); err != nil {
		t.Fatalf("instantiate signed account: %v", err)
	}
	return signedAccount{addr: addr, priv: priv}
}

func (a signedAccount) sign(t *testing.T, msgs []types.Message, chainID string, sequence uint32) []byte {
	t.Helper()
	signBytes, err := acm.SignBytes(msgs, a.addr, chainID, sequence)
	if err != nil {
		t.Fatalf("SignBytes: %v", err)
	}
	sig, err := a.priv.Sign(signBytes.Bytes())
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return sig.Serialize()
}

func querySequence(t *testing.T, exec *Executor, store storage.KVStore, chainID string, addr types.Address) uint32 {
	t.Helper()
	queryMsg, err := json.Marshal(acm.QueryMsg{State: &struct{}{}})
	if err != nil {
		t.Fatalf("marshal query msg: %v", err)
	}
	raw, err := exec.Query(store, types.BlockInfo{Height: 1}, chainID, addr, queryMsg)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var resp acm.StateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal query response: %v", err)
	}
	return resp.Sequence
}

// TestRunTx_SignedTransfer_SucceedsThenRejectsReplay covers spec.md §8
// scenario S3: Alice (sequence starting at 0, matching a freshly
// instantiated account) signs a transfer of funds to Bob through the bank
// contract. The valid signature moves the balance and advances Alice's
// sequence; replaying the identical signed transaction is rejected with
// AuthFailure because the stored sequence has already moved past the one
// the signature was produced over.
func TestRunTx_SignedTransfer_SucceedsThenRejectsReplay(t *testing.T) {
	const chainID = "test-chain"
	adapter := newFakeAdapter()
	multi := sandbox.NewMultiAdapter(acm.NativeAdapter{}, adapter)
	exec := NewExecutor(multi, nil, nil, nil)
	store := storage.NewMemStore()

	deployer := types.Address{0xAA}
	config := types.Config{
		Permissions: types.Permissions{
			Upload:      types.Everybody(),
			Instantiate: types.Everybody(),
		},
	}
	if err := exec.InitGenesis(store, chainID, config); err != nil {
		t.Fatalf("genesis: %v", err)
	}
	// acm.NativeAdapter never reads the code bytes back, only compares the
	// hash, so a sentinel entry seeds CODES the same way
	// TestExecutor_NativeAccountOverRealAdapterStack does.
	if err := exec.stores.Codes.Save(store, acm.AccountCodeHash, &types.Code{}); err != nil {
		t.Fatalf("seeding native account code hash: %v", err)
	}

	ec := rootContext(exec, store)

	bankCode := types.Code("bank-contract-src")
	bankCodeHash := bankCode.Hash()
	bankProgram := newBankProgram()
	bankProgram.hash = bankCodeHash
	adapter.register(bankProgram)
	if _, err := ec.ProcessMsg(deployer, types.NewUploadMsg(bankCode)); err != nil {
		t.Fatalf("upload bank code: %v", err)
	}
	bankSalt := []byte("bank")
	bankAddr := types.ComputeAddress(deployer, bankCodeHash, bankSalt)
	if _, err := ec.ProcessMsg(deployer, types.NewInstantiateMsg(bankCodeHash, nil, bankSalt, nil, nil)); err != nil {
		t.Fatalf("instantiate bank: %v", err)
	}

	cfg, err := exec.stores.Config.Load(ec.store)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.Bank = &bankAddr
	if err := exec.stores.Config.Save(ec.store, &cfg); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	alice := instantiateSignedAccount(t, ec, deployer, []byte("alice"))
	bob := instantiateSignedAccount(t, ec, deployer, []byte("bob"))

	writeBankBalance(ec.store, alice.addr, 1000)

	funds := types.Coins{{Denom: bankDenom, Amount: 100}}
	msgs := []types.Message{types.NewTransferMsg(bob.addr, funds)}
	credential := alice.sign(t, msgs, chainID, 0)

	tx := types.Tx{Sender: alice.addr, Msgs: msgs, Credential: credential}
	if _, err := ec.RunTx(tx, false); err != nil {
		t.Fatalf("signed transfer: %v", err)
	}

	if got := readBankBalance(ec.store, alice.addr); got != 900 {
		t.Fatalf("expected Alice's balance to be 900, got %d", got)
	}
	if got := readBankBalance(ec.store, bob.addr); got != 100 {
		t.Fatalf("expected Bob's balance to be 100, got %d", got)
	}
	if seq := querySequence(t, exec, store, chainID, alice.addr); seq != 1 {
		t.Fatalf("expected Alice's sequence to be 1 after one signed tx, got %d", seq)
	}

	// Replaying the identical signed transaction must fail: the stored
	// sequence has moved to 1, so before_tx recomputes sign_bytes over
	// sequence 1 and the signature (produced over sequence 0) no longer
	// verifies.
	replay := types.Tx{Sender: alice.addr, Msgs: msgs, Credential: credential}
	_, err = ec.RunTx(replay, false)
	if !execerrors.Is(err, execerrors.ErrorCodeAuthFailure) {
		t.Fatalf("expected AuthFailure on replay, got %v", err)
	}
	if got := readBankBalance(ec.store, alice.addr); got != 900 {
		t.Fatalf("replay must not move any balance, Alice's balance changed to %d", got)
	}
}

// TestTransfer_PlainRecipientWithoutAccountIsNotNotified covers the fix
// to execution/transfer.go: a plain MsgTransfer to an address that has
// never been instantiated must still move funds through the bank
// contract, it just has no receive entry point to invoke.
func TestTransfer_PlainRecipientWithoutAccountIsNotNotified(t *testing.T) {
	const chainID = "test-chain"
	exec, store, adapter := newTestExecutor(t)
	ec := rootContext(exec, store)
	deployer := types.Address{0x01}

	bankCode := types.Code("bank-contract-src-2")
	bankCodeHash := bankCode.Hash()
	bankProgram := newBankProgram()
	bankProgram.hash = bankCodeHash
	adapter.register(bankProgram)
	if _, err := ec.ProcessMsg(deployer, types.NewUploadMsg(bankCode)); err != nil {
		t.Fatalf("upload bank code: %v", err)
	}
	bankSalt := []byte("bank")
	bankAddr := types.ComputeAddress(deployer, bankCodeHash, bankSalt)
	if _, err := ec.ProcessMsg(deployer, types.NewInstantiateMsg(bankCodeHash, nil, bankSalt, nil, nil)); err != nil {
		t.Fatalf("instantiate bank: %v", err)
	}

	cfg, err := exec.stores.Config.Load(ec.store)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.Bank = &bankAddr
	if err := exec.stores.Config.Save(ec.store, &cfg); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	writeBankBalance(ec.store, deployer, 500)
	uninstantiated := types.Address{0x99}

	funds := types.Coins{{Denom: bankDenom, Amount: 50}}
	_, err = ec.ProcessMsg(deployer, types.NewTransferMsg(uninstantiated, funds))
	if err != nil {
		t.Fatalf("expected transfer to a plain address to succeed, got %v", err)
	}
	if got := readBankBalance(ec.store, uninstantiated); got != 50 {
		t.Fatalf("expected recipient's balance to be 50, got %d", got)
	}
	if exec.stores.Accounts.Has(ec.store, uninstantiated) {
		t.Fatalf("a plain transfer must not instantiate an account for its recipient")
	}
}
