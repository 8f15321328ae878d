package nextdns

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/ratelimit"
)

// step is one scripted transport response. A non-nil err simulates a
// connection-level failure.
type step struct {
	status int
	body   string
	err    error
}

// scriptedTransport replays a fixed sequence of responses and records
// every request it sees.
type scriptedTransport struct {
	steps    []step
	requests []string
	bodies   []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req.Method+" "+req.URL.Path)
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(raw))
	} else {
		s.bodies = append(s.bodies, "")
	}

	if len(s.steps) == 0 {
		return nil, errors.New("scripted transport exhausted")
	}
	next := s.steps[0]
	s.steps = s.steps[1:]

	if next.err != nil {
		return nil, next.err
	}
	return &http.Response{
		StatusCode: next.status,
		Body:       io.NopCloser(strings.NewReader(next.body)),
		Header:     make(http.Header),
	}, nil
}

func ok(body string) step       { return step{status: http.StatusOK, body: body} }
func httpError(status int) step { return step{status: status, body: "{}"} }
func connError(msg string) step { return step{err: errors.New(msg)} }
func emptyList() step           { return ok(`{"data":[]}`) }
func listOf(ids ...string) step {
	entries := make([]string, len(ids))
	for i, id := range ids {
		entries[i] = `{"id":"` + id + `","active":true}`
	}
	return ok(`{"data":[` + strings.Join(entries, ",") + `]}`)
}

func newTestClient(t *testing.T, steps ...step) (*Client, *scriptedTransport, *[]time.Duration) {
	t.Helper()
	transport := &scriptedTransport{steps: steps}
	var slept []time.Duration
	c, err := New(Options{
		APIKey:     "test-key",
		ProfileID:  "abc123",
		HTTPClient: &http.Client{Transport: transport},
		Sleep: func(d time.Duration) {
			slept = append(slept, d)
		},
	})
	require.NoError(t, err)
	return c, transport, &slept
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{ProfileID: "abc123"})
	assert.ErrorContains(t, err, "api key")

	_, err = New(Options{APIKey: "k"})
	assert.ErrorContains(t, err, "profile id")
}

func TestRetryDefaults(t *testing.T) {
	c, _, _ := newTestClient(t)
	assert.Equal(t, DefaultRetries, c.retries)

	c, err := New(Options{APIKey: "k", ProfileID: "p", Retries: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, c.retries)

	// Negative disables retries entirely.
	c, err = New(Options{APIKey: "k", ProfileID: "p", Retries: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, c.retries)
}

func TestDisabledRetriesFailOnFirstTransientFault(t *testing.T) {
	transport := &scriptedTransport{steps: []step{
		connError("connection refused"),
		emptyList(),
	}}
	var slept []time.Duration
	c, err := New(Options{
		APIKey:     "test-key",
		ProfileID:  "abc123",
		Retries:    -1,
		HTTPClient: &http.Client{Transport: transport},
		Sleep: func(d time.Duration) {
			slept = append(slept, d)
		},
	})
	require.NoError(t, err)

	_, err = c.Denylist(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Len(t, transport.requests, 1)
	assert.Empty(t, slept)
}

func TestBackoff(t *testing.T) {
	c, _, _ := newTestClient(t)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestRequestHeaders(t *testing.T) {
	transport := &scriptedTransport{steps: []step{emptyList()}}
	var gotKey, gotType string
	wrapped := &headerCapture{inner: transport, onRequest: func(req *http.Request) {
		gotKey = req.Header.Get("X-Api-Key")
		gotType = req.Header.Get("Content-Type")
	}}
	c, err := New(Options{
		APIKey:     "test-key",
		ProfileID:  "abc123",
		HTTPClient: &http.Client{Transport: wrapped},
	})
	require.NoError(t, err)

	_, err = c.Denylist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotType)
}

type headerCapture struct {
	inner     http.RoundTripper
	onRequest func(*http.Request)
}

func (h *headerCapture) RoundTrip(req *http.Request) (*http.Response, error) {
	h.onRequest(req)
	return h.inner.RoundTrip(req)
}

func TestTransientFaultsAreRetried(t *testing.T) {
	c, transport, slept := newTestClient(t,
		connError("connection refused"),
		httpError(http.StatusServiceUnavailable),
		listOf("a.example.com"),
	)

	members, err := c.Denylist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com"}, members)

	assert.Len(t, transport.requests, 3)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestRetriesExhausted(t *testing.T) {
	c, transport, slept := newTestClient(t,
		httpError(http.StatusInternalServerError),
		httpError(http.StatusInternalServerError),
		httpError(http.StatusInternalServerError),
		httpError(http.StatusInternalServerError),
	)

	_, err := c.Denylist(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)

	// Initial attempt plus DefaultRetries, with backoff between them
	// but not after the last.
	assert.Len(t, transport.requests, 1+DefaultRetries)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, *slept)
}

func TestRateLimitedResponsesAreRetried(t *testing.T) {
	c, transport, _ := newTestClient(t,
		httpError(http.StatusTooManyRequests),
		emptyList(),
	)

	_, err := c.Denylist(context.Background())
	require.NoError(t, err)
	assert.Len(t, transport.requests, 2)
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	c, transport, slept := newTestClient(t,
		httpError(http.StatusForbidden),
	)

	_, err := c.Denylist(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Len(t, transport.requests, 1)
	assert.Empty(t, *slept)
}

func TestEveryAttemptConsumesARateLimitSlot(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Options{MaxRequests: 10, Window: time.Minute})
	transport := &scriptedTransport{steps: []step{
		httpError(http.StatusInternalServerError),
		httpError(http.StatusInternalServerError),
		emptyList(),
	}}
	c, err := New(Options{
		APIKey:     "test-key",
		ProfileID:  "abc123",
		Limiter:    limiter,
		HTTPClient: &http.Client{Transport: transport},
		Sleep:      func(time.Duration) {},
	})
	require.NoError(t, err)

	_, err = c.Denylist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, limiter.Pending())
}

func TestDenylistServesFromCache(t *testing.T) {
	c, transport, _ := newTestClient(t, listOf("a.example.com"))

	_, err := c.Denylist(context.Background())
	require.NoError(t, err)

	// Second read inside the TTL hits the cache, not the network.
	members, err := c.Denylist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com"}, members)
	assert.Len(t, transport.requests, 1)
}

func TestIsBlockedReadsThroughCache(t *testing.T) {
	c, transport, _ := newTestClient(t, listOf("blocked.example.com"))

	blocked, err := c.IsBlocked(context.Background(), "blocked.example.com")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = c.IsBlocked(context.Background(), "other.example.com")
	require.NoError(t, err)
	assert.False(t, blocked)

	assert.Equal(t, []string{"GET /profiles/abc123/denylist"}, transport.requests)
}

func TestBlockPostsAndUpdatesCache(t *testing.T) {
	c, transport, _ := newTestClient(t,
		emptyList(),
		ok("{}"),
	)

	require.NoError(t, c.Block(context.Background(), "New.Example.COM"))

	require.Len(t, transport.requests, 2)
	assert.Equal(t, "GET /profiles/abc123/denylist", transport.requests[0])
	assert.Equal(t, "POST /profiles/abc123/denylist", transport.requests[1])
	assert.JSONEq(t, `{"id":"new.example.com","active":true}`, transport.bodies[1])

	// The optimistic cache update answers the follow-up read without
	// touching the network.
	blocked, err := c.IsBlocked(context.Background(), "new.example.com")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.Len(t, transport.requests, 2)
}

func TestBlockAlreadyPresentIsNoOp(t *testing.T) {
	c, transport, _ := newTestClient(t, listOf("a.example.com"))

	require.NoError(t, c.Block(context.Background(), "a.example.com"))
	assert.Len(t, transport.requests, 1)
}

func TestUnblockDeletesAndUpdatesCache(t *testing.T) {
	c, transport, _ := newTestClient(t,
		listOf("gone.example.com"),
		ok("{}"),
	)

	require.NoError(t, c.Unblock(context.Background(), "gone.example.com"))

	require.Len(t, transport.requests, 2)
	assert.Equal(t, "DELETE /profiles/abc123/denylist/gone.example.com", transport.requests[1])

	blocked, err := c.IsBlocked(context.Background(), "gone.example.com")
	require.NoError(t, err)
	assert.False(t, blocked)
	assert.Len(t, transport.requests, 2)
}

func TestUnblockAbsentIsNoOp(t *testing.T) {
	c, transport, _ := newTestClient(t, emptyList())

	require.NoError(t, c.Unblock(context.Background(), "absent.example.com"))
	assert.Len(t, transport.requests, 1)
}

func TestAllowlistOperationsUseAllowlistEndpoint(t *testing.T) {
	c, transport, _ := newTestClient(t,
		emptyList(),
		ok("{}"),
	)

	require.NoError(t, c.Allow(context.Background(), "docs.example.com"))

	require.Len(t, transport.requests, 2)
	assert.Equal(t, "GET /profiles/abc123/allowlist", transport.requests[0])
	assert.Equal(t, "POST /profiles/abc123/allowlist", transport.requests[1])
}

func TestInvalidDomainRejectedBeforeNetwork(t *testing.T) {
	c, transport, _ := newTestClient(t)

	err := c.Block(context.Background(), "-bad.example.com")
	assert.ErrorIs(t, err, ErrInvalidDomain)

	_, err = c.IsBlocked(context.Background(), "no spaces.example.com")
	assert.ErrorIs(t, err, ErrInvalidDomain)

	assert.Empty(t, transport.requests)
}

func TestRefreshDenylistBypassesCache(t *testing.T) {
	c, transport, _ := newTestClient(t,
		listOf("a.example.com"),
		listOf("a.example.com", "b.example.com"),
	)

	_, err := c.Denylist(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.RefreshDenylist(context.Background()))
	assert.Len(t, transport.requests, 2)

	members, err := c.Denylist(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.example.com", "b.example.com"}, members)
	assert.Len(t, transport.requests, 2)
}

func TestContextCancellationIsPermanent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, transport, slept := newTestClient(t, emptyList())

	_, err := c.Denylist(ctx)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, transport.requests)
	assert.Empty(t, *slept)
}
