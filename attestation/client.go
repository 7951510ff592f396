// Package attestation polls the external attestation service for burn
// proofs. The service indexes burn transactions asynchronously, so a 404
// means "not yet indexed", not an error.
package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/types"
)

// RetryPolicy bounds the polling loop. The budget is attempt-count based:
// transport errors and non-success statuses consume attempts the same way
// pending responses do.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultRetryPolicy gives the attestation service a 10-minute ceiling.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 120,
	Interval:    5 * time.Second,
}

// Client fetches attestation messages over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// NewClient creates an attestation client for the given service base URL.
func NewClient(baseURL string, log logger.Logger) *Client {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type messagesResponse struct {
	Messages []types.AttestationMessage `json:"messages"`
}

// Fetch performs one probe for the burn's attestation. It returns nil with
// no error while the message is pending or not yet indexed.
func (c *Client) Fetch(ctx context.Context, sourceDomain uint32, burnTxHash string) (*types.AttestationMessage, error) {
	url := fmt.Sprintf("%s/v2/messages/%d?transactionHash=%s", c.baseURL, sourceDomain, burnTxHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attestation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attestation service error: %d", resp.StatusCode)
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode attestation response: %w", err)
	}

	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	if msg.Status != types.AttestationComplete {
		return nil, nil
	}
	return &msg, nil
}

// Wait polls until the burn's attestation is complete or the policy budget
// is spent. Individual probe failures are logged and retried; only the
// exhausted budget escalates, as ErrAttestationWait. The burn itself is
// irreversible, so the caller keeps the burn hash for a later resume.
func (c *Client) Wait(ctx context.Context, sourceDomain uint32, burnTxHash string, policy RetryPolicy) (*types.AttestationMessage, error) {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		msg, err := c.Fetch(ctx, sourceDomain, burnTxHash)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log.Warn("attestation probe failed", map[string]any{
				"attempt": attempt,
				"error":   err.Error(),
			})
		} else if msg != nil {
			c.log.Info("attestation complete", map[string]any{
				"burnTxHash": burnTxHash,
				"attempts":   attempt,
			})
			return msg, nil
		} else {
			c.log.Debug("attestation pending", map[string]any{
				"attempt": attempt,
				"max":     policy.MaxAttempts,
			})
		}

		if attempt == policy.MaxAttempts {
			break
		}
		if err := sleep(ctx, policy.Interval); err != nil {
			return nil, err
		}
	}

	return nil, types.NewError(types.ErrAttestationWait, "attestation timeout: retry budget exceeded")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
