package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransferStatus is the terminal state of an off-chain transfer.
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferComplete TransferStatus = "complete"
	TransferFailed   TransferStatus = "failed"
)

// Transfer is one instant off-chain payment. Once a terminal status is
// assigned the value is never mutated.
type Transfer struct {
	TransferID  string         `json:"transferId"`
	Destination string         `json:"destination"`
	Asset       string         `json:"asset"`
	Amount      *big.Int       `json:"amount"`
	Status      TransferStatus `json:"status"`
}

// Asset describes one entry of the supported-asset catalog served by the
// off-chain ledger.
type Asset struct {
	Symbol   string `json:"symbol"`
	Token    string `json:"token,omitempty"`
	Decimals int32  `json:"decimals"`
}

// Balance is one ledger balance line.
type Balance struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// Allowance is one asset the session key is allowed to move.
type Allowance struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// BridgeRequest describes one cross-chain settlement attempt. It is
// immutable once the burn transaction has been submitted.
type BridgeRequest struct {
	Amount            string `json:"amount" validate:"required"`
	Destination       string `json:"destination" validate:"required,eth_addr"`
	SourceDomain      uint32 `json:"sourceDomain"`
	DestinationDomain uint32 `json:"destinationDomain"`
}

// AttestationStatus is the indexing state of a burn message at the
// attestation service.
type AttestationStatus string

const (
	AttestationPending  AttestationStatus = "pending"
	AttestationComplete AttestationStatus = "complete"
)

// AttestationMessage is the proof artifact returned by the attestation
// service for a burn transaction. Message and Attestation are opaque to the
// pipeline and handed to the relayer as-is.
type AttestationMessage struct {
	Message     hexutil.Bytes     `json:"message"`
	Attestation hexutil.Bytes     `json:"attestation"`
	Status      AttestationStatus `json:"status"`
}

// BridgeResultStatus is the terminal outcome of a bridge attempt.
type BridgeResultStatus string

const (
	BridgeSuccess BridgeResultStatus = "success"
	BridgeFailed  BridgeResultStatus = "failed"
)

// BridgeResult is the outcome of a BridgeRequest. A non-empty BurnTxHash on
// a failed result means funds were burned but not settled; the caller can
// resume settlement with that hash instead of burning again. ErrorCode is
// the code of the stage that failed, so a clean pre-burn abort is
// distinguishable from a failed settlement.
type BridgeResult struct {
	Status     BridgeResultStatus `json:"status"`
	BurnTxHash string             `json:"burnTxHash,omitempty"`
	MintTxHash string             `json:"mintTxHash,omitempty"`
	Error      string             `json:"error,omitempty"`
	ErrorCode  string             `json:"errorCode,omitempty"`
}

// Burned reports whether the attempt got as far as an irreversible burn.
func (r *BridgeResult) Burned() bool {
	return r.BurnTxHash != ""
}

// Err returns the failure as a typed error, or nil for a successful result.
func (r *BridgeResult) Err() error {
	if r.Status == BridgeSuccess {
		return nil
	}
	code := r.ErrorCode
	if code == "" {
		code = ErrSettlementFailed
	}
	return NewError(code, r.Error)
}
