// Package ledger defines the transaction-history collaborator contract:
// create a payment record as pending, then update its status and hash on
// the terminal outcome. Persistence schema design is out of scope; the
// in-memory store backs tests and single-process use.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Mode distinguishes the instant off-chain path from the on-chain path.
type Mode string

const (
	ModeFast    Mode = "fast"
	ModeOnChain Mode = "onchain"
)

// Status is the lifecycle state of a payment record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Payment is one persisted payment record.
type Payment struct {
	ID               string    `json:"id"`
	RecipientAddress string    `json:"recipientAddress"`
	Amount           string    `json:"amount"`
	Mode             Mode      `json:"mode"`
	Status           Status    `json:"status"`
	TxHash           string    `json:"txHash,omitempty"`
	Chain            string    `json:"chain,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ErrNotFound is returned when no payment exists for an id.
var ErrNotFound = errors.New("payment not found")

// Store persists payment records.
type Store interface {
	Create(ctx context.Context, p Payment) error
	UpdateStatus(ctx context.Context, id string, status Status, txHash string) error
	Get(ctx context.Context, id string) (Payment, error)
}
