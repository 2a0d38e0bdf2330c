package execution

import (
	"encoding/json"

	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/types"
)

// bankTransferMsg is the payload the distinguished bank contract's execute
// entry point receives for a value movement ("Transfer"): all
// balance mutation happens inside that contract's own state, the core
// never touches balances directly.
type bankTransferMsg struct {
	Transfer struct {
		From  types.Address `json:"from"`
		To    types.Address `json:"to"`
		Funds types.Coins   `json:"funds"`
	} `json:"transfer"`
}

// transfer implements a plain MsgTransfer: route the movement through the
// bank contract for accounting, then -- only when the recipient is itself
// an instantiated account -- notify it via its receive entry point. A
// transfer to a plain address that has never been instantiated (the
// common case for an ordinary value transfer between signers) has no
// program to invoke and must not fail merely because nothing is there to
// notify; only funds attached to instantiate/execute, where the call
// itself is the notification, require an account to already exist.
func (ec *execContext) transfer(sender types.Address, msg *types.MsgTransfer) ([]types.Event, error) {
	events, err := ec.moveFunds(sender, msg.To, msg.Funds)
	if err != nil {
		return nil, err
	}
	if !ec.exec.stores.Accounts.Has(ec.store, msg.To) {
		return events, nil
	}
	receiveEvents, err := ec.receive(msg.To, sender, msg.Funds)
	if err != nil {
		return nil, err
	}
	return append(events, receiveEvents...), nil
}

// moveFunds routes a value movement through CONFIG.bank, used both by
// plain transfers and by the funds accompanying an instantiate/execute
// call. A no-op (nil events, nil error) when funds is empty.
func (ec *execContext) moveFunds(from, to types.Address, funds types.Coins) ([]types.Event, error) {
	if funds.IsEmpty() {
		return nil, nil
	}
	config, err := ec.exec.stores.Config.Load(ec.store)
	if err != nil {
		return nil, errors.Internal("execution: loading config: %v", err)
	}
	if config.Bank == nil {
		return nil, errors.Internal("execution: no bank contract configured")
	}

	var payload bankTransferMsg
	payload.Transfer.From = from
	payload.Transfer.To = to
	payload.Transfer.Funds = funds
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Internal("execution: encoding transfer payload: %v", err)
	}

	callEvents, err := ec.execute(from, &types.MsgExecute{Contract: *config.Bank, Msg: raw})
	if err != nil {
		return nil, err
	}
	return append([]types.Event{transferEvent(from, to, funds)}, callEvents...), nil
}
