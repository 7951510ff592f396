// Package bridge drives the four-stage burn-and-mint flow across two
// chains: approve the messenger to move the token, burn on the source
// chain, wait for the external attestation, and hand the proof to the
// relayer that mints on the destination chain.
package bridge

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/arcpay/arcpay/attestation"
	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/metrics"
	"github.com/arcpay/arcpay/relayer"
	"github.com/arcpay/arcpay/types"
	"github.com/arcpay/arcpay/wallet"
)

const erc20ABI = `
[
  {
    "name": "approve",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "spender", "type": "address" },
      { "name": "amount", "type": "uint256" }
    ],
    "outputs": [{ "name": "", "type": "bool" }]
  }
]
`

const messengerABI = `
[
  {
    "name": "depositForBurn",
    "type": "function",
    "stateMutability": "nonpayable",
    "inputs": [
      { "name": "amount", "type": "uint256" },
      { "name": "destinationDomain", "type": "uint32" },
      { "name": "mintRecipient", "type": "bytes32" },
      { "name": "burnToken", "type": "address" },
      { "name": "destinationCaller", "type": "bytes32" },
      { "name": "maxFee", "type": "uint256" },
      { "name": "minFinalityThreshold", "type": "uint32" }
    ],
    "outputs": []
  }
]
`

// Defaults tuned for fast (soft-finality) stablecoin transfers.
const (
	DefaultMaxFee          = 500
	DefaultMinFinality     = 1000
	DefaultApproveGasLimit = 100_000
	DefaultBurnGasLimit    = 300_000
)

// Bridge orchestrates one settlement attempt at a time. It holds no state
// between invocations beyond what it returns; resumability rests entirely
// on the burn hash carried in the result.
type Bridge struct {
	cfg     types.BridgeConfig
	wallet  wallet.TxSender
	backend wallet.Backend
	dest    wallet.Backend

	att    *attestation.Client
	rel    *relayer.Client
	policy attestation.RetryPolicy

	token     abi.ABI
	messenger abi.ABI

	observers []Observer
	log       logger.Logger
	mtr       metrics.Recorder
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(b *Bridge) { b.mtr = r }
}

// WithObserver registers a stage-transition observer.
func WithObserver(o Observer) Option {
	return func(b *Bridge) { b.observers = append(b.observers, o) }
}

// WithRetryPolicy replaces the attestation polling policy. Tests inject a
// zero-delay policy here.
func WithRetryPolicy(p attestation.RetryPolicy) Option {
	return func(b *Bridge) { b.policy = p }
}

// WithDestinationBackend enables mint-receipt confirmation on the
// destination chain. Without it the relayer's reported status is final.
func WithDestinationBackend(backend wallet.Backend) Option {
	return func(b *Bridge) { b.dest = backend }
}

// New creates a bridge orchestrator. w submits the approve and burn
// transactions; backend waits for source-chain receipts.
func New(cfg types.BridgeConfig, w wallet.TxSender, backend wallet.Backend, opts ...Option) (*Bridge, error) {
	if cfg.MaxFee == 0 {
		cfg.MaxFee = DefaultMaxFee
	}
	if cfg.MinFinalityThreshold == 0 {
		cfg.MinFinalityThreshold = DefaultMinFinality
	}
	if cfg.ApproveGasLimit == 0 {
		cfg.ApproveGasLimit = DefaultApproveGasLimit
	}
	if cfg.BurnGasLimit == 0 {
		cfg.BurnGasLimit = DefaultBurnGasLimit
	}

	tokenABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, err
	}
	messengerParsed, err := abi.JSON(strings.NewReader(messengerABI))
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		cfg:       cfg,
		wallet:    w,
		backend:   backend,
		policy:    attestation.DefaultRetryPolicy,
		token:     tokenABI,
		messenger: messengerParsed,
		log:       logger.NoopLogger{},
		mtr:       metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}

	b.att = attestation.NewClient(cfg.AttestationURL, b.log)
	b.rel = relayer.NewClient(cfg.RelayerURL, b.log)
	return b, nil
}

// Run executes one full bridge attempt. The returned result is terminal:
// either success with both hashes, or failure carrying whatever hashes
// exist. A failure after the burn is a partial outcome: funds are burned
// and settlement can be resumed with the retained burn hash. Run never
// rolls a burn back and never retries an on-chain submission.
func (b *Bridge) Run(ctx context.Context, req types.BridgeRequest) *types.BridgeResult {
	started := time.Now()

	if err := types.ValidateRequest(&req); err != nil {
		return b.fail("", "", err)
	}

	amount, err := types.ToMinorUnits(req.Amount, types.USDCDecimals)
	if err != nil {
		return b.fail("", "", types.NewError(types.ErrInvalidRequest, err.Error()))
	}

	if err := b.approve(ctx, amount); err != nil {
		return b.fail("", "", err)
	}

	burnTxHash, err := b.burn(ctx, amount, req)
	if err != nil {
		return b.fail("", "", err)
	}

	result := b.settleFrom(ctx, burnTxHash)
	if result.Status == types.BridgeSuccess {
		b.mtr.ObserveLatency("bridge", time.Since(started), nil)
	}
	return result
}

// Resume re-enters the flow at the attestation stage for a burn that was
// already submitted. It never re-submits a burn for the same hash.
func (b *Bridge) Resume(ctx context.Context, burnTxHash string) *types.BridgeResult {
	if burnTxHash == "" {
		return b.fail("", "", types.NewError(types.ErrInvalidRequest, "burn transaction hash is required"))
	}
	return b.settleFrom(ctx, burnTxHash)
}

// approve authorizes the messenger to move amount of the token and waits
// for on-chain confirmation. No funds are at risk if this aborts.
func (b *Bridge) approve(ctx context.Context, amount *big.Int) error {
	b.emit(StageEvent{Stage: StageApproving, At: time.Now()})

	data, err := b.token.Pack("approve", common.HexToAddress(b.cfg.TokenMessenger), amount)
	if err != nil {
		return types.NewError(types.ErrApprovalFailed, err.Error())
	}

	txHash, err := b.wallet.SendTransaction(ctx, common.HexToAddress(b.cfg.TokenAddress), data, b.cfg.ApproveGasLimit)
	if err != nil {
		return types.NewError(types.ErrApprovalFailed, "approval submission failed: "+err.Error())
	}

	receipt, err := wallet.WaitMined(ctx, b.backend, txHash)
	if err != nil {
		return types.NewError(types.ErrApprovalFailed, "approval confirmation failed: "+err.Error())
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return types.NewError(types.ErrApprovalFailed, "approval transaction reverted")
	}

	b.log.Info("approval confirmed", map[string]any{"txHash": txHash.Hex()})
	return nil
}

// burn submits depositForBurn and returns the transaction hash without
// waiting for confirmation; the attestation service is the next
// synchronization point.
func (b *Bridge) burn(ctx context.Context, amount *big.Int, req types.BridgeRequest) (string, error) {
	b.emit(StageEvent{Stage: StageBurning, At: time.Now()})

	var mintRecipient, destinationCaller [32]byte
	copy(mintRecipient[:], common.LeftPadBytes(common.HexToAddress(req.Destination).Bytes(), 32))

	data, err := b.messenger.Pack(
		"depositForBurn",
		amount,
		req.DestinationDomain,
		mintRecipient,
		common.HexToAddress(b.cfg.TokenAddress),
		destinationCaller,
		new(big.Int).SetUint64(b.cfg.MaxFee),
		b.cfg.MinFinalityThreshold,
	)
	if err != nil {
		return "", types.NewError(types.ErrBurnFailed, err.Error())
	}

	txHash, err := b.wallet.SendTransaction(ctx, common.HexToAddress(b.cfg.TokenMessenger), data, b.cfg.BurnGasLimit)
	if err != nil {
		return "", types.NewError(types.ErrBurnFailed, "burn submission failed: "+err.Error())
	}

	b.log.Info("burn submitted", map[string]any{"txHash": txHash.Hex(), "amount": amount.String()})
	return txHash.Hex(), nil
}

// settleFrom runs the attestation wait and the relayer mint for an
// already-submitted burn.
func (b *Bridge) settleFrom(ctx context.Context, burnTxHash string) *types.BridgeResult {
	b.emit(StageEvent{Stage: StageWaitingAttestation, BurnTxHash: burnTxHash, At: time.Now()})

	msg, err := b.att.Wait(ctx, b.cfg.SourceDomain, burnTxHash, b.policy)
	if err != nil {
		return b.fail(burnTxHash, "", err)
	}

	b.emit(StageEvent{Stage: StageSettling, BurnTxHash: burnTxHash, At: time.Now()})

	mintTxHash, err := b.rel.Settle(ctx, msg)
	if err != nil {
		return b.fail(burnTxHash, "", err)
	}

	// Success is classified by the mint receipt's status field when a
	// destination backend is available, not merely by inclusion.
	if b.dest != nil && mintTxHash != "" {
		receipt, err := wallet.WaitMined(ctx, b.dest, common.HexToHash(mintTxHash))
		if err != nil {
			return b.fail(burnTxHash, mintTxHash, types.NewError(types.ErrSettlementFailed, "mint confirmation failed: "+err.Error()))
		}
		if receipt.Status != ethtypes.ReceiptStatusSuccessful {
			return b.fail(burnTxHash, mintTxHash, types.NewError(types.ErrSettlementFailed, "mint transaction reverted"))
		}
	}

	b.emit(StageEvent{Stage: StageComplete, BurnTxHash: burnTxHash, At: time.Now()})
	b.mtr.IncCounter("bridge_complete", map[string]string{"operation": "bridge"})

	return &types.BridgeResult{
		Status:     types.BridgeSuccess,
		BurnTxHash: burnTxHash,
		MintTxHash: mintTxHash,
	}
}

func (b *Bridge) fail(burnTxHash, mintTxHash string, err error) *types.BridgeResult {
	b.emit(StageEvent{Stage: StageFailed, BurnTxHash: burnTxHash, Error: err.Error(), At: time.Now()})
	b.mtr.IncCounter("bridge_failed", map[string]string{"operation": "bridge"})
	b.log.Warn("bridge attempt failed", map[string]any{
		"burnTxHash": burnTxHash,
		"error":      err.Error(),
	})

	return &types.BridgeResult{
		Status:     types.BridgeFailed,
		BurnTxHash: burnTxHash,
		MintTxHash: mintTxHash,
		Error:      err.Error(),
		ErrorCode:  types.CodeOf(err),
	}
}

func (b *Bridge) emit(e StageEvent) {
	for _, o := range b.observers {
		o.BridgeStage(e)
	}
}
