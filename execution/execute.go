package execution

import (
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/types"
)

// execute implements "Execute / Migrate / Receive" for the
// plain contract-call case: load account + program, create instance, call
// the entry point, collect attributes, recurse into submessages.
func (ec *execContext) execute(sender types.Address, msg *types.MsgExecute) ([]types.Event, error) {
	var events []types.Event
	if !msg.Funds.IsEmpty() {
		fundsEvents, err := ec.moveFunds(sender, msg.Contract, msg.Funds)
		if err != nil {
			return nil, err
		}
		events = append(events, fundsEvents...)
	}

	instance, _, err := ec.loadInstance(msg.Contract)
	if err != nil {
		return nil, err
	}
	resp, err := instance.Execute(ec.contextFor(msg.Contract, &sender, msg.Funds), msg.Msg)
	if err != nil {
		return nil, err
	}
	callEvents, err := ec.finishCall(msg.Contract, "execute", resp)
	if err != nil {
		return nil, err
	}
	return append(events, callEvents...), nil
}

// migrate swaps a contract's code_hash: only the account's admin may
// migrate it, the new code must already be uploaded, the account record is
// updated atomically before the new code's migrate entry point runs.
func (ec *execContext) migrate(sender types.Address, msg *types.MsgMigrate) ([]types.Event, error) {
	_, account, err := ec.loadInstance(msg.Contract)
	if err != nil {
		return nil, err
	}
	if account.Admin == nil || *account.Admin != sender {
		return nil, errors.Unauthorized("execution: %s is not the admin of %s", sender, msg.Contract)
	}
	if !ec.exec.stores.Codes.Has(ec.store, msg.NewCodeHash) {
		return nil, errors.NotFound("execution: no code uploaded for hash %s", msg.NewCodeHash)
	}

	account.CodeHash = msg.NewCodeHash
	if err := ec.exec.stores.Accounts.Save(ec.store, msg.Contract, &account); err != nil {
		return nil, errors.Internal("execution: saving migrated account: %v", err)
	}

	instance, _, err := ec.loadInstance(msg.Contract)
	if err != nil {
		return nil, err
	}
	resp, err := instance.Migrate(ec.contextFor(msg.Contract, &sender, nil), msg.Msg)
	if err != nil {
		return nil, err
	}
	callEvents, err := ec.finishCall(msg.Contract, "migrate", resp)
	if err != nil {
		return nil, err
	}
	return append([]types.Event{migrateEvent(msg.Contract, msg.NewCodeHash)}, callEvents...), nil
}

// receive invokes contractAddr's receive entry point, used when a plain
// transfer's recipient should be notified of incoming funds.
func (ec *execContext) receive(contractAddr, sender types.Address, funds types.Coins) ([]types.Event, error) {
	instance, _, err := ec.loadInstance(contractAddr)
	if err != nil {
		return nil, err
	}
	resp, err := instance.Receive(ec.contextFor(contractAddr, &sender, funds))
	if err != nil {
		return nil, err
	}
	return ec.finishCall(contractAddr, "receive", resp)
}

// finishCall turns an entry point's Response into events -- its own
// reported attributes, then its submessages' events in execution order --
// shared by execute, migrate, receive, instantiate and reply dispatch.
func (ec *execContext) finishCall(contractAddr types.Address, kind string, resp *types.Response) ([]types.Event, error) {
	events := []types.Event{attributesToEvent(contractAddr, kind, resp.Attributes)}
	subEvents, err := ec.handleSubmessages(contractAddr, resp)
	if err != nil {
		return nil, err
	}
	return append(events, subEvents...), nil
}
