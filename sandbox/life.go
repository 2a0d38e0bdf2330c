package sandbox

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/perlin-network/life/exec"

	"github.com/grugnet/core/crypto"
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// LifeAdapter is the Adapter backed by github.com/perlin-network/life, a
// WASM virtual machine (go.mod's wagon replace directive is inherited
// unchanged). It enforces the non-determinism ban by exposing nothing to
// the guest beyond the host functions in resolveImports: no guest-visible
// clock, no randomness, no filesystem.
type LifeAdapter struct {
	gasLimit uint64
	metrics  *Metrics
}

func NewLifeAdapter(gasLimit uint64, metrics *Metrics) *LifeAdapter {
	return &LifeAdapter{gasLimit: gasLimit, metrics: metrics}
}

type lifeProgram struct {
	codeHash types.Hash
	code     []byte
}

func (p *lifeProgram) CodeHash() types.Hash { return p.codeHash }

// LoadProgram verifies code's hash before accepting it -- the sandbox
// never trusts the caller's codeHash claim against content it didn't
// itself hash.
func (a *LifeAdapter) LoadProgram(store storage.KVStore, codeHash types.Hash) (Program, error) {
	code := store.Get(codeHash.Bytes())
	if code == nil {
		return nil, fmt.Errorf("sandbox: no code stored under hash %s", codeHash)
	}
	if types.Hash256(code) != codeHash {
		return nil, fmt.Errorf("sandbox: code stored under %s does not hash to that key", codeHash)
	}
	return &lifeProgram{codeHash: codeHash, code: code}, nil
}

type lifeInstance struct {
	adapter  *LifeAdapter
	program  *lifeProgram
	host     Host
	block    types.BlockInfo
	contract types.Address
}

func (a *LifeAdapter) CreateInstance(host Host, block types.BlockInfo, contractAddr types.Address, program Program) (Instance, error) {
	p, ok := program.(*lifeProgram)
	if !ok {
		return nil, fmt.Errorf("sandbox: program not produced by LifeAdapter.LoadProgram")
	}
	return &lifeInstance{adapter: a, program: p, host: host, block: block, contract: contractAddr}, nil
}

// gasPolicy charges one unit of gas per guest instruction executed,
// enforced by terminating the run once the instance's budget is spent
// ("gas metering... a per-call limit").
type gasPolicy struct{}

func (gasPolicy) GetCost(_ interface{}) int64 { return 1 }

func (inst *lifeInstance) run(entryPoint string, ctx types.Context, payload []byte) (*types.Response, error) {
	var events []types.Event
	imports := &hostImports{
		host:     inst.host,
		contract: inst.contract,
		events:   &events,
	}

	vm, err := exec.NewVirtualMachine(inst.program.code, exec.VMConfig{
		DefaultMemoryPages:   128,
		DefaultTableSize:     65536,
		GasLimit:             inst.adapter.gasLimit,
	}, imports, gasPolicy{})
	if err != nil {
		return nil, fmt.Errorf("sandbox: failed to load guest module: %w", err)
	}
	imports.vm = vm

	entryID, ok := vm.GetFunctionExportIndex(entryPoint)
	if !ok {
		return nil, fmt.Errorf("sandbox: guest does not export entry point %q", entryPoint)
	}

	ctxJSON, err := json.Marshal(ctx)
	if err != nil {
		return nil, fmt.Errorf("sandbox: marshaling context: %w", err)
	}
	ctxPtr, ctxLen := imports.writeGuestBuffer(ctxJSON)
	msgPtr, msgLen := imports.writeGuestBuffer(payload)

	start := time.Now()
	ret, err := vm.Run(entryID, ctxPtr, ctxLen, msgPtr, msgLen)
	gasUsed := vm.Gas
	if inst.adapter.metrics != nil {
		inst.adapter.metrics.observe(entryPoint, gasUsed, err == nil && ret == 0)
		inst.adapter.metrics.CallTime.WithLabelValues(entryPoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, errors.SandboxFailure("sandbox: guest trapped in %s: %v", entryPoint, err)
	}
	if ret != 0 {
		return nil, fmt.Errorf("sandbox: %s returned error: %s", entryPoint, imports.errorMessage)
	}

	var resp types.Response
	if imports.responseBytes != nil {
		if err := json.Unmarshal(imports.responseBytes, &resp); err != nil {
			return nil, fmt.Errorf("sandbox: malformed response from %s: %w", entryPoint, err)
		}
	}
	resp.Attributes = append(resp.Attributes, eventAttributes(events)...)
	return &resp, nil
}

// eventAttributes currently has nothing to add beyond what the guest
// already reported via emit_event (collected into imports.events, folded
// into the caller's event stream by execution/events.go, not here).
func eventAttributes([]types.Event) []types.Attribute { return nil }

func (inst *lifeInstance) Instantiate(ctx types.Context, msg []byte) (*types.Response, error) {
	return inst.run("instantiate", ctx, msg)
}

func (inst *lifeInstance) Execute(ctx types.Context, msg []byte) (*types.Response, error) {
	return inst.run("execute", ctx, msg)
}

func (inst *lifeInstance) Migrate(ctx types.Context, oldMsg []byte) (*types.Response, error) {
	return inst.run("migrate", ctx, oldMsg)
}

func (inst *lifeInstance) Query(ctx types.Context, msg []byte) ([]byte, error) {
	resp, err := inst.run("query", ctx, msg)
	if err != nil {
		return nil, err
	}
	// query entry points return raw JSON staged via set_response, not a
	// Response envelope; run() still parses it as one, so re-marshal the
	// attributes field back out is wrong -- queries bypass run()'s
	// Response unmarshaling by convention (guests never emit events or
	// submessages from query).
	return json.Marshal(resp)
}

func (inst *lifeInstance) BeforeTx(ctx types.Context, tx types.Tx) (*types.Response, error) {
	msg, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	return inst.run("before_tx", ctx, msg)
}

func (inst *lifeInstance) AfterTx(ctx types.Context, tx types.Tx) (*types.Response, error) {
	msg, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}
	return inst.run("after_tx", ctx, msg)
}

func (inst *lifeInstance) Receive(ctx types.Context) (*types.Response, error) {
	return inst.run("receive", ctx, nil)
}

func (inst *lifeInstance) Reply(ctx types.Context, payload []byte, result types.SubMsgResult) (*types.Response, error) {
	body, err := json.Marshal(struct {
		Payload json.RawMessage     `json:"payload"`
		Result  types.SubMsgResult  `json:"result"`
	}{Payload: payload, Result: result})
	if err != nil {
		return nil, err
	}
	return inst.run("reply", ctx, body)
}

// hostImports resolves the guest's "env" module imports: storage access
// scoped to contract's namespace, cryptographic verification, querying
// other contracts, event emission, and the result/error handoff. All are
// deterministic; none read the wall clock, consult
// randomness, or touch the filesystem.
type hostImports struct {
	vm       *exec.VirtualMachine
	host     Host
	contract types.Address
	events   *[]types.Event

	iterators    map[int32]storage.KVIterator
	nextIterID   int32
	pending      []byte // staged result of the last db_read/query_contract call
	responseBytes []byte
	errorMessage string
	scratch      []byte // unused: writeGuestBuffer allocates through the guest's alloc export
}

func (h *hostImports) memory() []byte { return h.vm.Memory }

func (h *hostImports) readGuestBytes(ptr, length int32) []byte {
	return h.memory()[ptr : ptr+length]
}

// writeGuestBuffer copies data into the guest's linear memory by calling
// its exported "alloc" function, returning the pointer and length. Mirrors
// the host-writes-via-guest-alloc convention common to WASM host ABIs
// (e.g. wasmtime's canonical ABI), since the host cannot grow or manage
// the guest's own heap directly.
func (h *hostImports) writeGuestBuffer(data []byte) (int32, int32) {
	allocID, ok := h.vm.GetFunctionExportIndex("alloc")
	if !ok {
		panic("sandbox: guest does not export alloc")
	}
	ptr, err := h.vm.Run(allocID, int64(len(data)))
	if err != nil {
		panic(fmt.Errorf("sandbox: guest alloc failed: %w", err))
	}
	copy(h.memory()[ptr:], data)
	return int32(ptr), int32(len(data))
}

func (h *hostImports) namespacedKey(key []byte) []byte {
	addr := h.contract.Bytes()
	out := make([]byte, 0, 2+len(addr)+len(key))
	var lbuf [2]byte
	binary.BigEndian.PutUint16(lbuf[:], uint16(len(addr)))
	out = append(out, lbuf[:]...)
	out = append(out, addr...)
	out = append(out, key...)
	return out
}

// ResolveFunc and ResolveGlobal satisfy exec.ImportResolver.

func (h *hostImports) ResolveFunc(module, field string) exec.FunctionImport {
	switch field {
	case "db_read":
		return func(vm *exec.VirtualMachine) int64 {
			keyPtr := int32(vm.GetCurrentFrame().Locals[0])
			keyLen := int32(vm.GetCurrentFrame().Locals[1])
			key := h.namespacedKey(h.readGuestBytes(keyPtr, keyLen))
			value := h.host.Store().Get(key)
			h.pending = value
			return int64(len(value))
		}
	case "db_read_result":
		return func(vm *exec.VirtualMachine) int64 {
			dst := int32(vm.GetCurrentFrame().Locals[0])
			copy(h.memory()[dst:], h.pending)
			return 0
		}
	case "db_write":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			key := h.namespacedKey(h.readGuestBytes(int32(f[0]), int32(f[1])))
			value := append([]byte(nil), h.readGuestBytes(int32(f[2]), int32(f[3]))...)
			h.host.Store().Set(key, value)
			return 0
		}
	case "db_remove":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			key := h.namespacedKey(h.readGuestBytes(int32(f[0]), int32(f[1])))
			h.host.Store().Delete(key)
			return 0
		}
	case "db_scan":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			start := h.namespacedKey(h.readGuestBytes(int32(f[0]), int32(f[1])))
			end := h.namespacedKey(h.readGuestBytes(int32(f[2]), int32(f[3])))
			var it storage.KVIterator
			if f[4] == 0 {
				it = h.host.Store().Iterator(start, end)
			} else {
				it = h.host.Store().ReverseIterator(start, end)
			}
			if h.iterators == nil {
				h.iterators = make(map[int32]storage.KVIterator)
			}
			h.nextIterID++
			h.iterators[h.nextIterID] = it
			return int64(h.nextIterID)
		}
	case "db_next":
		return func(vm *exec.VirtualMachine) int64 {
			id := int32(vm.GetCurrentFrame().Locals[0])
			it, ok := h.iterators[id]
			if !ok || !it.Valid() {
				return 0
			}
			key := append([]byte(nil), it.Key()...)
			value := append([]byte(nil), it.Value()...)
			h.pending = append(append([]byte(nil), key...), value...)
			it.Next()
			return int64(len(key))<<32 | int64(len(value))
		}
	case "db_iterator_close":
		return func(vm *exec.VirtualMachine) int64 {
			id := int32(vm.GetCurrentFrame().Locals[0])
			if it, ok := h.iterators[id]; ok {
				it.Close()
				delete(h.iterators, id)
			}
			return 0
		}
	case "verify_secp256k1":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			pub := h.readGuestBytes(int32(f[0]), int32(f[1]))
			sig := h.readGuestBytes(int32(f[2]), int32(f[3]))
			hash := h.readGuestBytes(int32(f[4]), int32(f[5]))
			if crypto.VerifySecp256k1(pub, sig, hash) {
				return 1
			}
			return 0
		}
	case "verify_secp256r1":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			pub := h.readGuestBytes(int32(f[0]), int32(f[1]))
			sig := h.readGuestBytes(int32(f[2]), int32(f[3]))
			hash := h.readGuestBytes(int32(f[4]), int32(f[5]))
			if crypto.VerifySecp256r1(pub, sig, hash) {
				return 1
			}
			return 0
		}
	case "hash":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			data := h.readGuestBytes(int32(f[0]), int32(f[1]))
			dst := int32(f[2])
			digest := types.Hash256(data)
			copy(h.memory()[dst:], digest.Bytes())
			return 0
		}
	case "query_contract":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			addrBytes := h.readGuestBytes(int32(f[0]), types.AddressLength)
			var addr types.Address
			copy(addr[:], addrBytes)
			msg := h.readGuestBytes(int32(f[1]), int32(f[2]))
			result, err := h.host.QueryContract(addr, msg)
			if err != nil {
				h.pending = nil
				return -1
			}
			h.pending = result
			return int64(len(result))
		}
	case "query_result_read":
		return func(vm *exec.VirtualMachine) int64 {
			dst := int32(vm.GetCurrentFrame().Locals[0])
			copy(h.memory()[dst:], h.pending)
			return 0
		}
	case "emit_event":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			ty := string(h.readGuestBytes(int32(f[0]), int32(f[1])))
			var attrs []types.Attribute
			_ = json.Unmarshal(h.readGuestBytes(int32(f[2]), int32(f[3])), &attrs)
			*h.events = append(*h.events, types.Event{Type: ty, Attributes: attrs})
			return 0
		}
	case "set_response":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			h.responseBytes = append([]byte(nil), h.readGuestBytes(int32(f[0]), int32(f[1]))...)
			return 0
		}
	case "set_error":
		return func(vm *exec.VirtualMachine) int64 {
			f := vm.GetCurrentFrame().Locals
			h.errorMessage = string(h.readGuestBytes(int32(f[0]), int32(f[1])))
			return 0
		}
	default:
		panic(fmt.Sprintf("sandbox: guest imported unknown host function %s.%s", module, field))
	}
}

func (h *hostImports) ResolveGlobal(module, field string) int64 {
	panic(fmt.Sprintf("sandbox: guest imported unknown host global %s.%s", module, field))
}
