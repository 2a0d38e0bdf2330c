package execution

import (
	"github.com/grugnet/core/types"
)

// RunTx implements "Authentication": before_tx, then every
// message in order, then after_tx, all inside one cache frame. Either hook
// failing -- or any message -- aborts the whole transaction, rolling back
// every write it produced; other transactions in
// the same block are unaffected.
func (ec *execContext) RunTx(tx types.Tx, simulate bool) ([]types.Event, error) {
	child, finish := ec.child()
	events, err := child.runTx(tx, simulate)
	if err != nil {
		finish(false)
		return nil, err
	}
	finish(true)
	return events, nil
}

func (ec *execContext) runTx(tx types.Tx, simulate bool) ([]types.Event, error) {
	instance, _, err := ec.loadInstance(tx.Sender)
	if err != nil {
		return nil, err
	}

	ctx := ec.contextFor(tx.Sender, nil, nil)
	ctx.Simulate = &simulate

	beforeResp, err := instance.BeforeTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	events, err := ec.finishCall(tx.Sender, "before_tx", beforeResp)
	if err != nil {
		return nil, err
	}

	for _, msg := range tx.Msgs {
		msgEvents, err := ec.ProcessMsg(tx.Sender, msg)
		if err != nil {
			return nil, err
		}
		events = append(events, msgEvents...)
	}

	// before_tx and the messages may have mutated the sender's own storage
	// (its sequence, most notably); entry points are stateless between
	// calls, so after_tx runs against a freshly loaded instance.
	afterInstance, _, err := ec.loadInstance(tx.Sender)
	if err != nil {
		return nil, err
	}
	afterResp, err := afterInstance.AfterTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	afterEvents, err := ec.finishCall(tx.Sender, "after_tx", afterResp)
	if err != nil {
		return nil, err
	}
	return append(events, afterEvents...), nil
}
