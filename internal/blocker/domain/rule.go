package domain

import (
	"fmt"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/validate"
)

// DomainRule is one configured denylist entry.
//
// A nil Schedule means the domain is always blocked. Protected domains
// ignore their schedule entirely: the reconciler keeps them blocked and
// never unblocks them.
type DomainRule struct {
	Name      string
	Schedule  *WeeklySchedule
	Protected bool
}

// NewDomainRule constructs a DomainRule with a canonicalized name and
// validates its fields.
func NewDomainRule(name string, schedule *WeeklySchedule, protected bool) (DomainRule, error) {
	r := DomainRule{
		Name:      validate.CanonicalDomain(name),
		Schedule:  schedule,
		Protected: protected,
	}
	if err := r.Validate(); err != nil {
		return DomainRule{}, err
	}
	return r, nil
}

// Validate checks the rule name and schedule.
func (r DomainRule) Validate() error {
	if !validate.Domain(r.Name) {
		return fmt.Errorf("invalid domain name: %q", r.Name)
	}
	if err := r.Schedule.Validate(); err != nil {
		return fmt.Errorf("domain %q: %w", r.Name, err)
	}
	return nil
}

// AlwaysBlocked returns true if the rule has no availability windows.
func (r DomainRule) AlwaysBlocked() bool {
	return r.Schedule == nil || len(r.Schedule.Blocks) == 0
}

// AllowlistEntry is a domain kept permanently reachable. Allowlist
// entries carry no schedule; they are always active.
type AllowlistEntry struct {
	Name string
}

// NewAllowlistEntry constructs an AllowlistEntry with a canonicalized
// name and validates it.
func NewAllowlistEntry(name string) (AllowlistEntry, error) {
	e := AllowlistEntry{Name: validate.CanonicalDomain(name)}
	if err := e.Validate(); err != nil {
		return AllowlistEntry{}, err
	}
	return e, nil
}

// Validate checks the entry name.
func (e AllowlistEntry) Validate() error {
	if !validate.Domain(e.Name) {
		return fmt.Errorf("invalid allowlist domain: %q", e.Name)
	}
	return nil
}
