package execution

import (
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/types"
)

// ProcessMsg is the single dispatch point every message variant flows
// through ("Message dispatch"): a pure function of
// (store, block, sender, msg) to (events, error). sender is the invoking
// account, not necessarily the transaction originator -- it is threaded
// through unchanged across nested calls so permission checks stay local to
// whoever actually issued the message.
func (ec *execContext) ProcessMsg(sender types.Address, msg types.Message) ([]types.Event, error) {
	switch msg.Kind {
	case types.MessageKindUpload:
		return ec.upload(sender, msg.Upload)
	case types.MessageKindInstantiate:
		return ec.instantiate(sender, msg.Instantiate)
	case types.MessageKindExecute:
		return ec.execute(sender, msg.Execute)
	case types.MessageKindMigrate:
		return ec.migrate(sender, msg.Migrate)
	case types.MessageKindTransfer:
		return ec.transfer(sender, msg.Transfer)
	default:
		return nil, errors.BadInput("execution: unknown message kind %q", msg.Kind)
	}
}
