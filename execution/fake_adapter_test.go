package execution

import (
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/sandbox"
	"github.com/grugnet/core/storage"
	"github.com/grugnet/core/types"
)

// fakeProgram is a hand-scripted contract for tests: each entry point is a
// plain closure standing in for compiled guest bytecode, so the
// submessage/reply protocol and auth dispatch can be exercised without real
// WASM (sandbox/life.go and acm/instance.go cover the two real adapters
// elsewhere).
type fakeProgram struct {
	hash types.Hash

	instantiate func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error)
	execute     func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error)
	migrate     func(host sandbox.Host, ctx types.Context, msg []byte) (*types.Response, error)
	query       func(host sandbox.Host, ctx types.Context, msg []byte) ([]byte, error)
	beforeTx    func(host sandbox.Host, ctx types.Context, tx types.Tx) (*types.Response, error)
	afterTx     func(host sandbox.Host, ctx types.Context, tx types.Tx) (*types.Response, error)
	receive     func(host sandbox.Host, ctx types.Context) (*types.Response, error)
	reply       func(host sandbox.Host, ctx types.Context, payload []byte, result types.SubMsgResult) (*types.Response, error)
}

func (p *fakeProgram) CodeHash() types.Hash { return p.hash }

// fakeAdapter is a sandbox.Adapter over a fixed set of fakePrograms, keyed
// by code hash.
type fakeAdapter struct {
	programs map[types.Hash]*fakeProgram
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{programs: make(map[types.Hash]*fakeProgram)}
}

func (a *fakeAdapter) register(p *fakeProgram) {
	a.programs[p.hash] = p
}

func (a *fakeAdapter) LoadProgram(store storage.KVStore, codeHash types.Hash) (sandbox.Program, error) {
	p, ok := a.programs[codeHash]
	if !ok {
		return nil, errors.NotFound("fakeAdapter: no program registered for code hash %s", codeHash)
	}
	return p, nil
}

func (a *fakeAdapter) CreateInstance(host sandbox.Host, block types.BlockInfo, contractAddr types.Address, program sandbox.Program) (sandbox.Instance, error) {
	return &fakeInstance{host: host, program: program.(*fakeProgram)}, nil
}

// fakeInstance dispatches each entry point to the scripted closure,
// defaulting to an empty successful Response (or empty query result) when a
// test doesn't care about a particular entry point.
type fakeInstance struct {
	host    sandbox.Host
	program *fakeProgram
}

func (i *fakeInstance) Instantiate(ctx types.Context, msg []byte) (*types.Response, error) {
	if i.program.instantiate == nil {
		return types.NewResponse(), nil
	}
	return i.program.instantiate(i.host, ctx, msg)
}

func (i *fakeInstance) Execute(ctx types.Context, msg []byte) (*types.Response, error) {
	if i.program.execute == nil {
		return types.NewResponse(), nil
	}
	return i.program.execute(i.host, ctx, msg)
}

func (i *fakeInstance) Migrate(ctx types.Context, msg []byte) (*types.Response, error) {
	if i.program.migrate == nil {
		return types.NewResponse(), nil
	}
	return i.program.migrate(i.host, ctx, msg)
}

func (i *fakeInstance) Query(ctx types.Context, msg []byte) ([]byte, error) {
	if i.program.query == nil {
		return []byte("{}"), nil
	}
	return i.program.query(i.host, ctx, msg)
}

func (i *fakeInstance) BeforeTx(ctx types.Context, tx types.Tx) (*types.Response, error) {
	if i.program.beforeTx == nil {
		return types.NewResponse(), nil
	}
	return i.program.beforeTx(i.host, ctx, tx)
}

func (i *fakeInstance) AfterTx(ctx types.Context, tx types.Tx) (*types.Response, error) {
	if i.program.afterTx == nil {
		return types.NewResponse(), nil
	}
	return i.program.afterTx(i.host, ctx, tx)
}

func (i *fakeInstance) Receive(ctx types.Context) (*types.Response, error) {
	if i.program.receive == nil {
		return types.NewResponse(), nil
	}
	return i.program.receive(i.host, ctx)
}

func (i *fakeInstance) Reply(ctx types.Context, payload []byte, result types.SubMsgResult) (*types.Response, error) {
	if i.program.reply == nil {
		return types.NewResponse(), nil
	}
	return i.program.reply(i.host, ctx, payload, result)
}
