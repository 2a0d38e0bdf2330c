package execution

import (
	"fmt"

	"github.com/grugnet/core/types"
)

func uploadEvent(codeHash types.Hash) types.Event {
	return types.NewEvent("upload").WithAttribute("code_hash", codeHash.String())
}

func instantiateEvent(addr types.Address, codeHash types.Hash) types.Event {
	return types.NewEvent("instantiate").
		WithAttribute("contract", addr.String()).
		WithAttribute("code_hash", codeHash.String())
}

func migrateEvent(addr types.Address, newCodeHash types.Hash) types.Event {
	return types.NewEvent("migrate").
		WithAttribute("contract", addr.String()).
		WithAttribute("new_code_hash", newCodeHash.String())
}

func transferEvent(from, to types.Address, funds types.Coins) types.Event {
	e := types.NewEvent("transfer").
		WithAttribute("from", from.String()).
		WithAttribute("to", to.String())
	for _, c := range funds {
		e = e.WithAttribute("funds_"+c.Denom, fmt.Sprintf("%d", c.Amount))
	}
	return e
}

// attributesToEvent turns an entry point's Response attributes into an
// event scoped to the contract that produced them (the Response
// shape), the uniform way execute/migrate/receive/reply call sites report
// contract-reported attributes alongside the core's own named events.
func attributesToEvent(addr types.Address, kind string, attrs []types.Attribute) types.Event {
	e := types.NewEvent(kind).WithAttribute("contract", addr.String())
	for _, a := range attrs {
		e = e.WithAttribute(a.Key, a.Value)
	}
	return e
}
