// Package nextdns implements the remote list gateway: a rate-limited,
// cache-aware HTTP client for the NextDNS profile denylist and
// allowlist endpoints.
package nextdns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/log"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/ratelimit"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/validate"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/repos/listcache"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/services/reconciler"
)

const (
	// DefaultBaseURL is the NextDNS API root.
	DefaultBaseURL = "https://api.nextdns.io"
	// DefaultTimeout is the per-HTTP-call timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultRetries is the number of additional attempts on transient faults.
	DefaultRetries = 3
	// BackoffBase is the first retry delay; doubled per attempt.
	BackoffBase = 1 * time.Second
	// BackoffCap bounds the retry delay.
	BackoffCap = 30 * time.Second
)

var (
	// ErrInvalidDomain is returned before any network activity when a
	// domain argument fails syntax validation.
	ErrInvalidDomain = errors.New("invalid domain name")
	// ErrRequestFailed is returned when an operation exhausted its
	// retries or hit a permanent remote error.
	ErrRequestFailed = errors.New("request failed")
)

// Client talks to the remote list API for one profile. Every network
// call passes through the rate limiter; reads go through the per-list
// caches. All expected remote faults surface as returned errors, never
// panics.
type Client struct {
	apiKey    string
	profileID string
	baseURL   string
	retries   int

	http        *http.Client
	limiter     *ratelimit.Limiter
	denyCache   *listcache.Cache
	allowCache  *listcache.Cache
	logger      log.Logger
	sleep       ratelimit.SleepFunc
	backoffBase time.Duration
	backoffCap  time.Duration
}

// Options configures a Client. APIKey and ProfileID are required;
// everything else has defaults.
type Options struct {
	APIKey    string
	ProfileID string
	BaseURL   string
	Timeout   time.Duration
	// Retries is the number of additional attempts on transient faults.
	// Zero selects DefaultRetries; a negative value disables retries.
	Retries int

	Limiter    *ratelimit.Limiter
	DenyCache  *listcache.Cache
	AllowCache *listcache.Cache
	Logger     log.Logger

	// injectable for testing
	HTTPClient *http.Client
	Sleep      ratelimit.SleepFunc
}

// New constructs a Client. Caches are explicit instances owned by the
// client, never package-level state.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if opts.ProfileID == "" {
		return nil, errors.New("profile id is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	} else if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.Options{})
	}
	if opts.DenyCache == nil {
		opts.DenyCache = listcache.New(domain.Denylist, 0, nil)
	}
	if opts.AllowCache == nil {
		opts.AllowCache = listcache.New(domain.Allowlist, 0, nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Client{
		apiKey:      opts.APIKey,
		profileID:   opts.ProfileID,
		baseURL:     opts.BaseURL,
		retries:     opts.Retries,
		http:        opts.HTTPClient,
		limiter:     opts.Limiter,
		denyCache:   opts.DenyCache,
		allowCache:  opts.AllowCache,
		logger:      opts.Logger,
		sleep:       opts.Sleep,
		backoffBase: BackoffBase,
		backoffCap:  BackoffCap,
	}, nil
}

// listEntry is the wire shape of one remote list item.
type listEntry struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// listResponse is the wire shape of a list read.
type listResponse struct {
	Data []listEntry `json:"data"`
}

// backoff returns the delay before retry number attempt (0-indexed),
// capped exponential: min(base * 2^attempt, cap).
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.backoffBase << attempt
	if delay > c.backoffCap || delay <= 0 {
		delay = c.backoffCap
	}
	return delay
}

// request runs one API operation with rate limiting, retry, and
// backoff. Returns the response body on success, or a definite error
// after a permanent fault or retry exhaustion.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var res attemptResult
	for attempt := 0; attempt <= c.retries; attempt++ {
		// Every attempt consumes a rate-limit slot, retries included.
		if waited := c.limiter.Acquire(); waited > 0 {
			c.logger.Debug(map[string]any{"waited": waited.String()}, "rate limit reached")
		}

		res = c.doAttempt(ctx, method, path, payload)
		switch res.outcome {
		case outcomeOK:
			return res.body, nil
		case outcomePermanent:
			c.logger.Error(map[string]any{
				"method": method,
				"path":   path,
				"status": res.status,
				"error":  res.err,
			}, "permanent API error")
			return nil, fmt.Errorf("%w: %w", ErrRequestFailed, res.err)
		case outcomeRetryable:
			if attempt < c.retries {
				delay := c.backoff(attempt)
				c.logger.Warn(map[string]any{
					"method":  method,
					"path":    path,
					"status":  res.status,
					"attempt": attempt + 1,
					"delay":   delay.String(),
					"error":   res.err,
				}, "transient API error, retrying")
				c.sleep(delay)
			}
		}
	}
	c.logger.Error(map[string]any{
		"method":  method,
		"path":    path,
		"retries": c.retries,
		"error":   res.err,
	}, "API retries exhausted")
	return nil, fmt.Errorf("%w after %d retries: %w", ErrRequestFailed, c.retries, res.err)
}

// cacheFor returns the cache backing the given list.
func (c *Client) cacheFor(kind domain.ListKind) *listcache.Cache {
	if kind == domain.Allowlist {
		return c.allowCache
	}
	return c.denyCache
}

// listPath returns the endpoint path for a whole list.
func (c *Client) listPath(kind domain.ListKind) string {
	return fmt.Sprintf("/profiles/%s/%s", c.profileID, kind)
}

// entryPath returns the endpoint path for a single list entry.
func (c *Client) entryPath(kind domain.ListKind, name string) string {
	return fmt.Sprintf("/profiles/%s/%s/%s", c.profileID, kind, url.PathEscape(name))
}

// fetchList reads list membership, serving from the cache while fresh
// unless bypassed. A successful remote read fully replaces the cache.
func (c *Client) fetchList(ctx context.Context, kind domain.ListKind, useCache bool) ([]string, error) {
	cache := c.cacheFor(kind)
	if useCache {
		if members, ok := cache.Get(); ok {
			c.logger.Debug(map[string]any{"list": kind.String()}, "serving list from cache")
			return members, nil
		}
	}

	body, err := c.request(ctx, http.MethodGet, c.listPath(kind), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: decode response: %w", kind, err)
	}

	members := make([]string, 0, len(resp.Data))
	for _, entry := range resp.Data {
		if entry.ID != "" {
			members = append(members, entry.ID)
		}
	}
	cache.Set(members)
	return members, nil
}

// contains answers membership for one domain, reading through the cache.
func (c *Client) contains(ctx context.Context, kind domain.ListKind, name string) (bool, error) {
	if member, known := c.cacheFor(kind).Contains(name); known {
		return member, nil
	}
	members, err := c.fetchList(ctx, kind, false)
	if err != nil {
		return false, err
	}
	for _, m := range members {
		if m == name {
			return true, nil
		}
	}
	return false, nil
}

// add inserts a domain into a list. Adding an already-present domain is
// a no-op success with no network call.
func (c *Client) add(ctx context.Context, kind domain.ListKind, name string) error {
	name, err := c.checkDomain(name)
	if err != nil {
		return err
	}
	present, err := c.contains(ctx, kind, name)
	if err != nil {
		return err
	}
	if present {
		c.logger.Debug(map[string]any{"list": kind.String(), "domain": name}, "already present, skipping")
		return nil
	}
	payload := listEntry{ID: name, Active: true}
	if _, err := c.request(ctx, http.MethodPost, c.listPath(kind), payload); err != nil {
		return fmt.Errorf("add %s to %s: %w", name, kind, err)
	}
	c.cacheFor(kind).Add(name)
	c.logger.Info(map[string]any{"list": kind.String(), "domain": name}, "added to list")
	return nil
}

// remove deletes a domain from a list. Removing an absent domain is a
// no-op success with no network call.
func (c *Client) remove(ctx context.Context, kind domain.ListKind, name string) error {
	name, err := c.checkDomain(name)
	if err != nil {
		return err
	}
	present, err := c.contains(ctx, kind, name)
	if err != nil {
		return err
	}
	if !present {
		c.logger.Debug(map[string]any{"list": kind.String(), "domain": name}, "not present, skipping")
		return nil
	}
	if _, err := c.request(ctx, http.MethodDelete, c.entryPath(kind, name), nil); err != nil {
		return fmt.Errorf("remove %s from %s: %w", name, kind, err)
	}
	c.cacheFor(kind).Remove(name)
	c.logger.Info(map[string]any{"list": kind.String(), "domain": name}, "removed from list")
	return nil
}

// checkDomain validates and canonicalizes a domain argument before any
// network activity or rate-limit slot is consumed.
func (c *Client) checkDomain(name string) (string, error) {
	canonical := validate.CanonicalDomain(name)
	if !validate.Domain(canonical) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, name)
	}
	return canonical, nil
}

// Denylist returns the current denylist membership, cache-first.
func (c *Client) Denylist(ctx context.Context) ([]string, error) {
	return c.fetchList(ctx, domain.Denylist, true)
}

// Allowlist returns the current allowlist membership, cache-first.
func (c *Client) Allowlist(ctx context.Context) ([]string, error) {
	return c.fetchList(ctx, domain.Allowlist, true)
}

// IsBlocked reports whether a domain is currently on the denylist.
func (c *Client) IsBlocked(ctx context.Context, name string) (bool, error) {
	name, err := c.checkDomain(name)
	if err != nil {
		return false, err
	}
	return c.contains(ctx, domain.Denylist, name)
}

// IsAllowed reports whether a domain is currently on the allowlist.
func (c *Client) IsAllowed(ctx context.Context, name string) (bool, error) {
	name, err := c.checkDomain(name)
	if err != nil {
		return false, err
	}
	return c.contains(ctx, domain.Allowlist, name)
}

// Block adds a domain to the denylist.
func (c *Client) Block(ctx context.Context, name string) error {
	return c.add(ctx, domain.Denylist, name)
}

// Unblock removes a domain from the denylist.
func (c *Client) Unblock(ctx context.Context, name string) error {
	return c.remove(ctx, domain.Denylist, name)
}

// Allow adds a domain to the allowlist.
func (c *Client) Allow(ctx context.Context, name string) error {
	return c.add(ctx, domain.Allowlist, name)
}

// Disallow removes a domain from the allowlist.
func (c *Client) Disallow(ctx context.Context, name string) error {
	return c.remove(ctx, domain.Allowlist, name)
}

// RefreshDenylist drops the denylist cache and refetches it.
func (c *Client) RefreshDenylist(ctx context.Context) error {
	c.denyCache.Invalidate()
	_, err := c.fetchList(ctx, domain.Denylist, false)
	return err
}

// RefreshAllowlist drops the allowlist cache and refetches it.
func (c *Client) RefreshAllowlist(ctx context.Context) error {
	c.allowCache.Invalidate()
	_, err := c.fetchList(ctx, domain.Allowlist, false)
	return err
}

var _ reconciler.ListClient = (*Client)(nil)
