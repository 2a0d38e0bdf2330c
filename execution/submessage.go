package execution

import (
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/types"
)

// handleSubmessages runs resp's submessages in declared order per the
// reply table below, returning every event produced (a submessage's own
// events, then -- where triggered -- its reply's events) in execution
// order.
func (ec *execContext) handleSubmessages(contractAddr types.Address, resp *types.Response) ([]types.Event, error) {
	var events []types.Event
	for _, sub := range resp.Submsgs {
		subEvents, err := ec.runSubmessage(contractAddr, sub)
		if err != nil {
			return nil, err
		}
		events = append(events, subEvents...)
	}
	return events, nil
}

// runSubmessage executes one submessage in its own cache frame and applies
// the reply_on × result dispatch table:
//
//	reply_on   | Ok(events)                              | Err(e)
//	Never      | commit; append events                   | abort: propagate e
//	Success    | commit; append events; reply(Ok)         | abort: propagate e
//	Error      | commit; append events                   | discard; reply(Err); continue
//	Always     | commit; append events; reply(Ok)         | discard; reply(Err); continue
func (ec *execContext) runSubmessage(contractAddr types.Address, sub types.SubMessage) ([]types.Event, error) {
	child, finish := ec.child()
	innerEvents, innerErr := child.ProcessMsg(contractAddr, sub.Msg)

	switch sub.ReplyOn.Kind {
	case types.ReplyOnNever:
		if innerErr != nil {
			finish(false)
			return nil, innerErr
		}
		finish(true)
		return innerEvents, nil

	case types.ReplyOnSuccess:
		if innerErr != nil {
			finish(false)
			return nil, innerErr
		}
		finish(true)
		return ec.replyAndMerge(contractAddr, sub.ReplyOn.Payload, types.SubMsgResultOk(innerEvents), innerEvents)

	case types.ReplyOnError:
		if innerErr != nil {
			finish(false)
			return ec.invokeReply(contractAddr, sub.ReplyOn.Payload, types.SubMsgResultErr(innerErr.Error()))
		}
		finish(true)
		return innerEvents, nil

	case types.ReplyOnAlways:
		if innerErr != nil {
			finish(false)
			return ec.invokeReply(contractAddr, sub.ReplyOn.Payload, types.SubMsgResultErr(innerErr.Error()))
		}
		finish(true)
		return ec.replyAndMerge(contractAddr, sub.ReplyOn.Payload, types.SubMsgResultOk(innerEvents), innerEvents)

	default:
		finish(false)
		return nil, errors.BadInput("execution: unknown reply_on kind %q", sub.ReplyOn.Kind)
	}
}

// replyAndMerge invokes reply on an Ok result and prepends the triggering
// submessage's own events ahead of reply's, as "events of the
// parent and the reply are concatenated in execution order" describes.
func (ec *execContext) replyAndMerge(contractAddr types.Address, payload []byte, result types.SubMsgResult, innerEvents []types.Event) ([]types.Event, error) {
	replyEvents, err := ec.invokeReply(contractAddr, payload, result)
	if err != nil {
		return nil, err
	}
	return append(append([]types.Event{}, innerEvents...), replyEvents...), nil
}

func (ec *execContext) invokeReply(contractAddr types.Address, payload []byte, result types.SubMsgResult) ([]types.Event, error) {
	instance, _, err := ec.loadInstance(contractAddr)
	if err != nil {
		return nil, err
	}
	resp, err := instance.Reply(ec.contextFor(contractAddr, nil, nil), payload, result)
	if err != nil {
		return nil, err
	}
	return ec.finishCall(contractAddr, "reply", resp)
}
