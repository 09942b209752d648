package resilience

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"
)

// Client wraps an http.Client with retries and an optional circuit breaker.
// Only idempotent calls should go through it; the payroll API dedupes on the
// Idempotency-Key header, which makes retrying a credit safe.
type Client struct {
	Base        *http.Client
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
}

// Do executes the request, retrying network errors and 5xx responses. The
// body is buffered so each attempt replays it from the start.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	base := c.Base
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	ctx := req.Context()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.Breaker != nil && !c.Breaker.Allow() {
			return nil, ErrOpenCircuit
		}
		attemptReq := req.Clone(ctx)
		if body != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err := base.Do(attemptReq)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			c.report(true)
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.New(resp.Status)
			_ = resp.Body.Close()
		}
		c.report(false)
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(c.BaseBackoff, attempt, c.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) report(success bool) {
	if c.Breaker != nil {
		c.Breaker.Report(success)
	}
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}
