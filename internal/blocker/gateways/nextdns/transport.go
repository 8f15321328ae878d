package nextdns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// outcome classifies a transport attempt. Transient remote faults are an
// expected, frequent condition, so they travel as values through the
// retry loop instead of as errors.
type outcome uint8

const (
	outcomeOK outcome = iota
	outcomeRetryable
	outcomePermanent
)

// String returns a stable label for logging.
func (o outcome) String() string {
	switch o {
	case outcomeOK:
		return "ok"
	case outcomeRetryable:
		return "retryable"
	case outcomePermanent:
		return "permanent"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// attemptResult is the tagged result of a single HTTP attempt.
type attemptResult struct {
	outcome outcome
	status  int
	body    []byte
	err     error // underlying cause for non-ok outcomes
}

// doAttempt performs one HTTP request and classifies the result:
// timeouts and connection errors are retryable, 429 and 5xx are
// retryable, any other non-2xx is permanent.
func (c *Client) doAttempt(ctx context.Context, method, path string, payload any) attemptResult {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return attemptResult{outcome: outcomePermanent, err: fmt.Errorf("encode request body: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return attemptResult{outcome: outcomePermanent, err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	// Caller cancellation is not a remote fault; surface it before the
	// attempt rather than relying on the transport to notice.
	if err := ctx.Err(); err != nil {
		return attemptResult{outcome: outcomePermanent, err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Caller cancellation is not a remote fault; don't retry it.
			return attemptResult{outcome: outcomePermanent, err: ctx.Err()}
		}
		// Timeouts and connection-level failures are transient.
		return attemptResult{outcome: outcomeRetryable, err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{outcome: outcomeRetryable, status: resp.StatusCode, err: fmt.Errorf("read response body: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return attemptResult{outcome: outcomeOK, status: resp.StatusCode, body: raw}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return attemptResult{
			outcome: outcomeRetryable,
			status:  resp.StatusCode,
			err:     fmt.Errorf("HTTP %d for %s %s", resp.StatusCode, method, path),
		}
	default:
		return attemptResult{
			outcome: outcomePermanent,
			status:  resp.StatusCode,
			err:     fmt.Errorf("HTTP %d for %s %s", resp.StatusCode, method, path),
		}
	}
}
