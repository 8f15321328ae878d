// Package listcache holds a short-lived snapshot of remote list
// membership so one reconciliation pass does not refetch the same list
// for every domain.
package listcache

import (
	"time"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/clock"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
)

// DefaultTTL is how long a fetched snapshot counts as authoritative.
const DefaultTTL = 60 * time.Second

// Cache is a TTL snapshot of one remote list's membership. Two
// independent instances exist per run, one per list kind; they never
// interact. The cache is only touched by the single reconciler
// goroutine, so it carries no lock.
type Cache struct {
	kind      domain.ListKind
	ttl       time.Duration
	clock     clock.Clock
	members   map[string]struct{}
	fetchedAt time.Time
	populated bool
}

// New creates an empty (cold) cache for the given list kind.
// A zero ttl selects DefaultTTL; a nil clk selects the real clock.
func New(kind domain.ListKind, ttl time.Duration, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Cache{kind: kind, ttl: ttl, clock: clk}
}

// Kind returns the list kind this cache snapshots.
func (c *Cache) Kind() domain.ListKind {
	return c.kind
}

// valid reports whether the snapshot is present and inside its TTL.
func (c *Cache) valid() bool {
	return c.populated && c.clock.Now().Sub(c.fetchedAt) < c.ttl
}

// Get returns the cached membership and true while the snapshot is
// fresh. After the TTL elapses it returns (nil, false): the caller must
// refetch rather than assume an answer.
func (c *Cache) Get() ([]string, bool) {
	if !c.valid() {
		return nil, false
	}
	members := make([]string, 0, len(c.members))
	for m := range c.members {
		members = append(members, m)
	}
	return members, true
}

// Contains answers membership for one domain. The second return value
// is false when the snapshot is stale or absent, in which case the
// membership answer carries no meaning.
func (c *Cache) Contains(name string) (member bool, known bool) {
	if !c.valid() {
		return false, false
	}
	_, member = c.members[name]
	return member, true
}

// Set replaces the snapshot with a freshly fetched membership set and
// restarts the TTL.
func (c *Cache) Set(members []string) {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	c.members = set
	c.fetchedAt = c.clock.Now()
	c.populated = true
}

// Invalidate discards the snapshot entirely.
func (c *Cache) Invalidate() {
	c.members = nil
	c.fetchedAt = time.Time{}
	c.populated = false
}

// Add records a domain as a member after a successful remote write.
// The fetch timestamp is left untouched: optimistic updates ride on the
// original snapshot's TTL, and the next natural expiry reconciles the
// cache with ground truth regardless.
func (c *Cache) Add(name string) {
	if !c.populated {
		return
	}
	c.members[name] = struct{}{}
}

// Remove drops a domain from the membership after a successful remote
// delete. Like Add, it never touches the fetch timestamp.
func (c *Cache) Remove(name string) {
	if !c.populated {
		return
	}
	delete(c.members, name)
}

// Len returns the number of cached members (0 when cold or expired).
func (c *Cache) Len() int {
	if !c.valid() {
		return 0
	}
	return len(c.members)
}
