package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// LocalWallet signs with an in-memory secp256k1 key. Suited to tests and
// server-side holders; interactive wallets implement the same interfaces
// behind their own prompt flow.
type LocalWallet struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	backend Backend
}

var _ TxSender = (*LocalWallet)(nil)

// NewLocalWallet wraps a hex-encoded private key. backend may be nil when
// the wallet is only used for typed-data signatures.
func NewLocalWallet(hexKey string, chainID *big.Int, backend Backend) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalWallet{key: key, chainID: chainID, backend: backend}, nil
}

// NewLocalWalletFromKey wraps an existing key.
func NewLocalWalletFromKey(key *ecdsa.PrivateKey, chainID *big.Int, backend Backend) *LocalWallet {
	return &LocalWallet{key: key, chainID: chainID, backend: backend}
}

func (w *LocalWallet) Address() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

// SignTypedData hashes the typed data per EIP-712 and signs the digest,
// returning a 65-byte signature with v in {27, 28}.
func (w *LocalWallet) SignTypedData(td apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}

	sig[64] += 27
	return sig, nil
}

// SendTransaction builds, signs and submits a legacy transaction carrying
// data to the contract at to.
func (w *LocalWallet) SendTransaction(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (common.Hash, error) {
	if w.backend == nil {
		return common.Hash{}, fmt.Errorf("wallet has no chain backend")
	}

	nonce, err := w.backend.PendingNonceAt(ctx, w.Address())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash(), nil
}
