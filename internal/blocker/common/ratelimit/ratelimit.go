// Package ratelimit provides sliding-window admission control for
// outbound API requests.
package ratelimit

import (
	"time"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/clock"
)

const (
	// DefaultMaxRequests is the request budget per window.
	DefaultMaxRequests = 30
	// DefaultWindow is the sliding window length.
	DefaultWindow = 60 * time.Second
)

// SleepFunc suspends the caller; injectable so tests don't sleep.
type SleepFunc func(time.Duration)

// Limiter admits at most maxRequests calls per sliding window,
// blocking the caller until the oldest retained request leaves the
// window. It must be consulted before every outbound request,
// including retries. Not safe for concurrent use; a reconciliation
// pass runs on a single goroutine.
type Limiter struct {
	maxRequests int
	window      time.Duration
	clock       clock.Clock
	sleep       SleepFunc
	requests    []time.Time
}

// Options configures a Limiter. Zero values select defaults.
type Options struct {
	MaxRequests int
	Window      time.Duration
	// injectable for testing
	Clock clock.Clock
	Sleep SleepFunc
}

// New creates a Limiter with the given options.
func New(opts Options) *Limiter {
	if opts.MaxRequests <= 0 {
		opts.MaxRequests = DefaultMaxRequests
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Limiter{
		maxRequests: opts.MaxRequests,
		window:      opts.Window,
		clock:       opts.Clock,
		sleep:       opts.Sleep,
	}
}

// Acquire blocks until a request slot is available, records the request,
// and returns how long the caller waited (zero if no wait was needed).
func (l *Limiter) Acquire() time.Duration {
	now := l.clock.Now()
	l.prune(now)

	var waited time.Duration
	if len(l.requests) >= l.maxRequests {
		// Wait until the oldest retained request exits the window.
		wait := l.requests[0].Add(l.window).Sub(now)
		if wait > 0 {
			l.sleep(wait)
			waited = wait
			now = l.clock.Now()
			l.prune(now)
		}
	}

	l.requests = append(l.requests, now)
	return waited
}

// Pending returns the number of requests currently inside the window.
func (l *Limiter) Pending() int {
	l.prune(l.clock.Now())
	return len(l.requests)
}

// prune drops request timestamps older than the window.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.requests) && !l.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.requests = append(l.requests[:0], l.requests[i:]...)
	}
}
