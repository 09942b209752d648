package payroll

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Doer executes an HTTP request. Satisfied by *http.Client and by the
// resilience wrapper that adds retries and a circuit breaker.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPClient talks to the payroll service over its JSON API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    Doer
}

var _ Client = HTTPClient{}

type creditRequest struct {
	AgentID        string `json:"agentId"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type creditResponse struct {
	Reference string `json:"reference"`
	Duplicate bool   `json:"duplicate"`
	Error     string `json:"error"`
}

// CreditAgent posts a credit instruction. A 409 means the idempotency key was
// already processed; the payroll service echoes the original reference and we
// surface it as a duplicate rather than an error.
func (c HTTPClient) CreditAgent(ctx context.Context, agentID string, amount decimal.Decimal, idempotencyKey string) (CreditRef, error) {
	if strings.TrimSpace(agentID) == "" {
		return CreditRef{}, fmt.Errorf("%w: agent id is required", ErrCreditFailed)
	}
	body, err := json.Marshal(creditRequest{
		AgentID:        agentID,
		Amount:         amount.StringFixed(2),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return CreditRef{}, fmt.Errorf("%w: encode request: %v", ErrCreditFailed, err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/v1/credits"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return CreditRef{}, fmt.Errorf("%w: build request: %v", ErrCreditFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return CreditRef{}, fmt.Errorf("%w: %v", ErrCreditFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CreditRef{}, fmt.Errorf("%w: read response: %v", ErrCreditFailed, err)
	}
	var decoded creditResponse
	if len(payload) > 0 {
		_ = json.Unmarshal(payload, &decoded)
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return CreditRef{Reference: decoded.Reference, Duplicate: true}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return CreditRef{Reference: decoded.Reference, Duplicate: decoded.Duplicate}, nil
	default:
		msg := decoded.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return CreditRef{}, fmt.Errorf("%w: status %d: %s", ErrCreditFailed, resp.StatusCode, msg)
	}
}

func (c HTTPClient) httpClient() Doer {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
