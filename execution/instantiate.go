package execution

import (
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/types"
)

// instantiate implements "Instantiate" steps 1-8 in order.
func (ec *execContext) instantiate(sender types.Address, msg *types.MsgInstantiate) ([]types.Event, error) {
	config, err := ec.exec.stores.Config.Load(ec.store)
	if err != nil {
		return nil, errors.Internal("execution: loading config: %v", err)
	}
	if !config.Permissions.Instantiate.Allows(config.Owner, sender) {
		return nil, errors.Unauthorized("execution: %s is not permitted to instantiate contracts", sender)
	}
	if !ec.exec.stores.Codes.Has(ec.store, msg.CodeHash) {
		return nil, errors.NotFound("execution: no code uploaded for hash %s", msg.CodeHash)
	}

	addr := types.ComputeAddress(sender, msg.CodeHash, msg.Salt)
	if ec.exec.stores.Accounts.Has(ec.store, addr) {
		return nil, errors.AlreadyExists("execution: account already exists at %s", addr)
	}

	account := types.Account{CodeHash: msg.CodeHash, Admin: msg.Admin}
	if err := ec.exec.stores.Accounts.Save(ec.store, addr, &account); err != nil {
		return nil, errors.Internal("execution: saving account: %v", err)
	}

	var events []types.Event
	if !msg.Funds.IsEmpty() {
		fundsEvents, err := ec.moveFunds(sender, addr, msg.Funds)
		if err != nil {
			return nil, err
		}
		events = append(events, fundsEvents...)
	}

	instance, _, err := ec.loadInstance(addr)
	if err != nil {
		return nil, err
	}
	resp, err := instance.Instantiate(ec.contextFor(addr, &sender, msg.Funds), msg.Msg)
	if err != nil {
		return nil, err
	}

	callEvents, err := ec.finishCall(addr, "instantiate", resp)
	if err != nil {
		return nil, err
	}
	events = append(events, callEvents...)
	events = append(events, instantiateEvent(addr, msg.CodeHash))
	return events, nil
}
