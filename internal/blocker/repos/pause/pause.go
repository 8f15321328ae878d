// Package pause manages the pause flag file that temporarily suspends
// reconciliation. The flag outlives the process: each sync invocation
// checks it before doing any work.
package pause

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/clock"
)

const flagFile = ".paused"

// Flag reads and writes the pause-until timestamp file.
type Flag struct {
	path  string
	clock clock.Clock
}

// New creates a Flag stored under dir.
func New(dir string, clk clock.Clock) *Flag {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Flag{path: filepath.Join(dir, flagFile), clock: clk}
}

// Set pauses reconciliation for the given duration and returns the
// instant it resumes.
func (f *Flag) Set(d time.Duration) (time.Time, error) {
	until := f.clock.Now().Add(d).Truncate(time.Second)
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return time.Time{}, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(until.Format(time.RFC3339)), 0o600); err != nil {
		return time.Time{}, fmt.Errorf("write pause flag: %w", err)
	}
	return until, nil
}

// Clear removes the flag. Returns true if a pause was active.
func (f *Flag) Clear() (bool, error) {
	wasPaused := f.Active()
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("clear pause flag: %w", err)
	}
	return wasPaused, nil
}

// Active reports whether a pause is currently in effect. An expired or
// unreadable flag counts as not paused.
func (f *Flag) Active() bool {
	until, ok := f.until()
	return ok && f.clock.Now().Before(until)
}

// Remaining returns the time left on an active pause, or zero.
func (f *Flag) Remaining() time.Duration {
	until, ok := f.until()
	if !ok {
		return 0
	}
	remaining := until.Sub(f.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// until parses the flag file's timestamp.
func (f *Flag) until() (time.Time, bool) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return time.Time{}, false
	}
	until, err := time.Parse(time.RFC3339, strings.TrimSpace(string(raw)))
	if err != nil {
		return time.Time{}, false
	}
	return until, true
}
