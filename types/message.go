package types

import "encoding/json"

// MessageKind tags the variant carried by a Message.
type MessageKind string

const (
	MessageKindTransfer    MessageKind = "transfer"
	MessageKindUpload      MessageKind = "upload"
	MessageKindInstantiate MessageKind = "instantiate"
	MessageKindExecute     MessageKind = "execute"
	MessageKindMigrate     MessageKind = "migrate"
)

// Message is a tagged union of the top-level message variants a
// transaction can carry. Exactly one of the pointer fields matching Kind
// is populated -- one concrete type per message kind, collapsed into a
// single struct because Go lacks sum types.
type Message struct {
	Kind        MessageKind      `json:"kind"`
	Transfer    *MsgTransfer    `json:"transfer,omitempty"`
	Upload      *MsgUpload      `json:"upload,omitempty"`
	Instantiate *MsgInstantiate `json:"instantiate,omitempty"`
	Execute     *MsgExecute     `json:"execute,omitempty"`
	Migrate     *MsgMigrate     `json:"migrate,omitempty"`
}

type MsgTransfer struct {
	To    Address `json:"to"`
	Funds Coins   `json:"funds"`
}

type MsgUpload struct {
	Code Code `json:"code"`
}

type MsgInstantiate struct {
	CodeHash Hash            `json:"code_hash"`
	Msg      json.RawMessage `json:"msg"`
	Salt     []byte          `json:"salt"`
	Funds    Coins           `json:"funds"`
	Admin    *Address        `json:"admin,omitempty"`
}

type MsgExecute struct {
	Contract Address         `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    Coins           `json:"funds"`
}

type MsgMigrate struct {
	Contract Address         `json:"contract"`
	NewCodeHash Hash         `json:"new_code_hash"`
	Msg      json.RawMessage `json:"msg"`
}

func NewTransferMsg(to Address, funds Coins) Message {
	return Message{Kind: MessageKindTransfer, Transfer: &MsgTransfer{To: to, Funds: funds}}
}

func NewUploadMsg(code Code) Message {
	return Message{Kind: MessageKindUpload, Upload: &MsgUpload{Code: code}}
}

func NewInstantiateMsg(codeHash Hash, msg json.RawMessage, salt []byte, funds Coins, admin *Address) Message {
	return Message{
		Kind: MessageKindInstantiate,
		Instantiate: &MsgInstantiate{
			CodeHash: codeHash,
			Msg:      msg,
			Salt:     salt,
			Funds:    funds,
			Admin:    admin,
		},
	}
}

func NewExecuteMsg(contract Address, msg json.RawMessage, funds Coins) Message {
	return Message{Kind: MessageKindExecute, Execute: &MsgExecute{Contract: contract, Msg: msg, Funds: funds}}
}

func NewMigrateMsg(contract Address, newCodeHash Hash, msg json.RawMessage) Message {
	return Message{
		Kind:    MessageKindMigrate,
		Migrate: &MsgMigrate{Contract: contract, NewCodeHash: newCodeHash, Msg: msg},
	}
}
