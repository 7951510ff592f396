// Package relayer talks to the privileged settlement endpoint that submits
// the mint transaction on the destination chain. The relayer holds the
// signing authority for the message-receiving contract; the end user's
// wallet is never involved in this step.
package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/types"
)

// Client posts attestation artifacts to the relayer.
type Client struct {
	url  string
	http *http.Client
	log  logger.Logger
}

// NewClient creates a relayer client for the given settlement endpoint.
func NewClient(url string, log logger.Logger) *Client {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Client{
		url:  url,
		http: &http.Client{Timeout: 60 * time.Second},
		log:  log,
	}
}

type settleRequest struct {
	Message     hexutil.Bytes `json:"message"`
	Attestation hexutil.Bytes `json:"attestation"`
}

type settleResponse struct {
	Status     string `json:"status"`
	MintTxHash string `json:"mintTxHash,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Settle hands the burn proof to the relayer and returns the mint
// transaction hash. Any relayer-reported failure becomes
// ErrSettlementFailed; the caller's burn is not undone.
func (c *Client) Settle(ctx context.Context, msg *types.AttestationMessage) (string, error) {
	body, err := json.Marshal(settleRequest{
		Message:     msg.Message,
		Attestation: msg.Attestation,
	})
	if err != nil {
		return "", types.NewError(types.ErrSettlementFailed, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewError(types.ErrSettlementFailed, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrSettlementFailed, "relayer request failed: "+err.Error())
	}
	defer resp.Body.Close()

	var out settleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewError(types.ErrSettlementFailed, fmt.Sprintf("bad relayer response (%d): %v", resp.StatusCode, err))
	}

	if resp.StatusCode != http.StatusOK || out.Status == "failed" {
		reason := out.Error
		if reason == "" {
			reason = fmt.Sprintf("relayer returned status %d", resp.StatusCode)
		}
		return "", types.NewError(types.ErrSettlementFailed, reason)
	}

	c.log.Info("settlement submitted", map[string]any{"mintTxHash": out.MintTxHash})
	return out.MintTxHash, nil
}
