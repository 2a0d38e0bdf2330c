package execution

import (
	"github.com/grugnet/core/execution/errors"
	"github.com/grugnet/core/types"
)

// upload implements "Upload": permission-check, reject a
// duplicate code_hash, persist, emit.
func (ec *execContext) upload(sender types.Address, msg *types.MsgUpload) ([]types.Event, error) {
	config, err := ec.exec.stores.Config.Load(ec.store)
	if err != nil {
		return nil, errors.Internal("execution: loading config: %v", err)
	}
	if !config.Permissions.Upload.Allows(config.Owner, sender) {
		return nil, errors.Unauthorized("execution: %s is not permitted to upload code", sender)
	}

	codeHash := msg.Code.Hash()
	if ec.exec.stores.Codes.Has(ec.store, codeHash) {
		return nil, errors.AlreadyExists("execution: code %s already uploaded", codeHash)
	}
	if err := ec.exec.stores.Codes.Save(ec.store, codeHash, &msg.Code); err != nil {
		return nil, errors.Internal("execution: saving code: %v", err)
	}
	return []types.Event{uploadEvent(codeHash)}, nil
}
