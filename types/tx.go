package types

// Tx is a signed transaction: an ordered batch of messages submitted by a
// single sender, authenticated by a single credential (
// "Transaction").
type Tx struct {
	Sender     Address   `json:"sender"`
	Msgs       []Message `json:"msgs"`
	Credential []byte    `json:"credential"`
}

// Context is passed to every sandboxed entry point.
// Sender and Funds are only populated where applicable: both are absent
// for reply/before_tx/after_tx.
type Context struct {
	ChainID        string
	BlockHeight    uint64
	BlockTimestamp int64
	BlockHash      Hash
	Contract       Address
	Sender         *Address
	Funds          Coins
	Simulate       *bool
}
