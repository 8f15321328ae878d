package domain

import "fmt"

// ListKind identifies one of the two remote lists kept per profile.
type ListKind uint8

const (
	// Denylist is the remote list of actively blocked domains.
	Denylist ListKind = iota
	// Allowlist is the remote list of always-permitted domains.
	Allowlist
)

// String returns the endpoint path segment for the list.
func (k ListKind) String() string {
	switch k {
	case Denylist:
		return "denylist"
	case Allowlist:
		return "allowlist"
	default:
		return fmt.Sprintf("ListKind(%d)", uint8(k))
	}
}
