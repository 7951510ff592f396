// Package wallet defines the signing collaborator the pipeline depends on.
// The pipeline never needs the user's private key directly: it asks a
// Signer for one typed-data signature during channel authentication, and a
// TxSender to submit the approve/burn transactions.
package wallet

import (
	"context"
	"errors"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer produces structured-data signatures with the user's primary key.
type Signer interface {
	Address() common.Address
	SignTypedData(td apitypes.TypedData) ([]byte, error)
}

// TxSender additionally signs and submits raw transactions.
type TxSender interface {
	Signer
	SendTransaction(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (common.Hash, error)
}

// Backend is the subset of an Ethereum RPC client the wallet and the bridge
// need. *ethclient.Client satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// receiptPollInterval paces WaitMined. Confirmation latency on testnets is
// seconds, so one-second polling is plenty.
const receiptPollInterval = time.Second

// WaitMined blocks until the transaction is mined or ctx expires.
func WaitMined(ctx context.Context, backend Backend, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
