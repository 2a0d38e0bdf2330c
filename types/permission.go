package types

// PermissionKind enumerates the chain-level permission variants. The
// grammar is intentionally small: Nobody, Everybody, or an explicit set
// -- matching the account permission model any Burrow-derived account
// system expects, narrowed to the two gated actions this framework cares
// about (code upload, contract instantiation).
type PermissionKind int

const (
	PermissionNobody PermissionKind = iota
	PermissionEverybody
	PermissionSomebodies
)

// Permission gates a single privileged action.
type Permission struct {
	Kind       PermissionKind
	Somebodies map[Address]struct{} `json:",omitempty"`
}

func Nobody() Permission { return Permission{Kind: PermissionNobody} }

func Everybody() Permission { return Permission{Kind: PermissionEverybody} }

func Somebodies(addrs ...Address) Permission {
	set := make(map[Address]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}
	return Permission{Kind: PermissionSomebodies, Somebodies: set}
}

// Allows reports whether sender may perform the gated action, given the
// chain owner (who is always permitted, same as this codebase's global
// permissions account being the implicit super-admin).
func (p Permission) Allows(owner *Address, sender Address) bool {
	if owner != nil && *owner == sender {
		return true
	}
	switch p.Kind {
	case PermissionEverybody:
		return true
	case PermissionSomebodies:
		_, ok := p.Somebodies[sender]
		return ok
	default:
		return false
	}
}

// Permissions bundles the chain's gated actions.
type Permissions struct {
	Upload      Permission
	Instantiate Permission
}

// Config is the chain-wide, singleton configuration record.
type Config struct {
	Owner       *Address
	Permissions Permissions
	// Bank is the distinguished contract address that all Transfer
	// messages are routed through ("Transfer").
	Bank *Address
}
