package types

import "fmt"

// Coin is a single denom/amount pair.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount"`
}

// Coins is an ordered list of coins attached to a message as funds.
// Ordering is significant: it is part of what gets hashed into the
// canonical JSON of a message, so callers must keep it sorted by denom to
// produce reproducible sign-bytes.
type Coins []Coin

func (cs Coins) IsEmpty() bool {
	for _, c := range cs {
		if c.Amount > 0 {
			return false
		}
	}
	return true
}

func (cs Coins) String() string {
	return fmt.Sprintf("%v", []Coin(cs))
}

func (cs Coins) AmountOf(denom string) uint64 {
	for _, c := range cs {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return 0
}
