package domain

import (
	"fmt"
	"time"
)

// ActionKind identifies a corrective list operation.
type ActionKind uint8

const (
	// ActionBlock adds a domain to the denylist.
	ActionBlock ActionKind = iota
	// ActionUnblock removes a domain from the denylist.
	ActionUnblock
	// ActionAllow adds a domain to the allowlist.
	ActionAllow
	// ActionDisallow removes a domain from the allowlist.
	ActionDisallow
)

// String returns a stable string representation of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionBlock:
		return "block"
	case ActionUnblock:
		return "unblock"
	case ActionAllow:
		return "allow"
	case ActionDisallow:
		return "disallow"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// SyncAction is the atomic unit of reconciliation output: one corrective
// operation for one domain. In dry-run mode actions are emitted with
// Applied=false and no remote call is made.
type SyncAction struct {
	Domain  string
	Kind    ActionKind
	Reason  string // e.g. "schedule", "protected"
	Applied bool
	Err     error // nil unless the apply failed
}

// Report is the structured outcome of one reconciliation pass.
// Rendering (CLI output, notifications) happens outside the core.
type Report struct {
	PassID    string
	StartedAt time.Time
	DryRun    bool
	Actions   []SyncAction

	Blocked   int
	Unblocked int
	Allowed   int
	Unchanged int
	Failed    int

	// Success is false if any individual list operation failed.
	// A failed domain never aborts the rest of the pass.
	Success bool
}

// Changed returns the number of actions that were actually applied.
func (r Report) Changed() int {
	return r.Blocked + r.Unblocked + r.Allowed
}
