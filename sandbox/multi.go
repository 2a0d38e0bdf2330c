package sandbox

import (
	"fmt"

	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// MultiAdapter dispatches LoadProgram to the first constituent Adapter
// that recognizes a code_hash, letting the execution core treat native Go
// contracts (the built-in account protocol, acm.NativeAdapter) and guest
// WASM modules (LifeAdapter) uniformly through the single Adapter/Instance
// Adapter boundary.
type MultiAdapter struct {
	adapters []Adapter
}

func NewMultiAdapter(adapters ...Adapter) *MultiAdapter {
	return &MultiAdapter{adapters: adapters}
}

// multiProgram remembers which constituent adapter resolved it so
// CreateInstance can route back to the same one.
type multiProgram struct {
	adapter Adapter
	program Program
}

func (p *multiProgram) CodeHash() types.Hash { return p.program.CodeHash() }

func (m *MultiAdapter) LoadProgram(store storage.KVStore, codeHash types.Hash) (Program, error) {
	var lastErr error
	for _, a := range m.adapters {
		p, err := a.LoadProgram(store, codeHash)
		if err == nil {
			return &multiProgram{adapter: a, program: p}, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("sandbox: no adapter registered for code hash %s", codeHash)
}

func (m *MultiAdapter) CreateInstance(host Host, block types.BlockInfo, contractAddr types.Address, program Program) (Instance, error) {
	mp, ok := program.(*multiProgram)
	if !ok {
		return nil, fmt.Errorf("sandbox: program not produced by MultiAdapter.LoadProgram")
	}
	return mp.adapter.CreateInstance(host, block, contractAddr, mp.program)
}
