// Package arcpay wires the off-chain channel client, the burn-and-mint
// bridge orchestrator, and the payment ledger into one pipeline. The
// pipeline is caller-owned: construct as many as needed, each with its own
// connection, wallet, and ledger.
package arcpay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/arcpay/arcpay/bridge"
	"github.com/arcpay/arcpay/channel"
	"github.com/arcpay/arcpay/ledger"
	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/metrics"
	"github.com/arcpay/arcpay/types"
	"github.com/arcpay/arcpay/wallet"
)

// DefaultAsset is the settlement asset for instant transfers.
const DefaultAsset = "usdc"

// Pipeline composes the fast off-chain path and the on-chain bridge path
// behind one payment API, recording every attempt in the ledger.
type Pipeline struct {
	cfg    *types.Config
	wallet wallet.TxSender

	channel *channel.Client
	bridge  *bridge.Bridge
	store   ledger.Store

	log logger.Logger
	mtr metrics.Recorder
}

// New validates cfg and builds a pipeline. w signs the bridge transactions
// and the channel authentication challenge; backend waits for source-chain
// receipts.
func New(cfg *types.Config, w wallet.TxSender, backend wallet.Backend, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		wallet: w,
		store:  ledger.NewMemoryStore(),
		mtr:    metrics.NoopRecorder{},
	}

	var settings options
	for _, opt := range opts {
		opt(&settings)
	}

	p.log = settings.log
	if p.log == nil {
		p.log = logger.NewZapLogger(cfg.LogLevel)
	}
	if settings.mtr != nil {
		p.mtr = settings.mtr
	} else if cfg.EnableMetrics {
		p.mtr = metrics.NewPrometheusRecorder()
	}
	if settings.store != nil {
		p.store = settings.store
	}

	channelOpts := append([]channel.Option{
		channel.WithLogger(p.log),
		channel.WithMetrics(p.mtr),
	}, settings.channelOpts...)
	p.channel = channel.NewClient(cfg.Channel, channelOpts...)

	bridgeOpts := append([]bridge.Option{
		bridge.WithLogger(p.log),
		bridge.WithMetrics(p.mtr),
	}, settings.bridgeOpts...)
	b, err := bridge.New(cfg.Bridge, w, backend, bridgeOpts...)
	if err != nil {
		return nil, types.NewError(types.ErrConfig, "failed to build bridge: "+err.Error())
	}
	p.bridge = b

	return p, nil
}

// Channel exposes the underlying channel client for direct use.
func (p *Pipeline) Channel() *channel.Client {
	return p.channel
}

// Bridge exposes the underlying bridge orchestrator for direct use.
func (p *Pipeline) Bridge() *bridge.Bridge {
	return p.bridge
}

// Ledger exposes the payment store.
func (p *Pipeline) Ledger() ledger.Store {
	return p.store
}

// Start connects to the clearnode and authenticates the channel session.
// The bridge path works without it; only instant transfers require it.
func (p *Pipeline) Start(ctx context.Context) error {
	if err := p.channel.Connect(ctx); err != nil {
		return err
	}
	return p.channel.Authenticate(ctx, p.wallet.Address(), p.wallet)
}

// Close tears down the channel session. It is safe to call at any time.
func (p *Pipeline) Close() {
	p.channel.Disconnect()
}

// PayInstant sends amount to recipient over the off-chain channel. The
// ledger records the payment before the attempt and its terminal status
// after; a failed transfer is reported through the returned error.
func (p *Pipeline) PayInstant(ctx context.Context, recipient common.Address, amount string) (*ledger.Payment, *types.Transfer, error) {
	payment := p.record(ctx, recipient, amount, ledger.ModeFast)

	transfer, err := p.channel.Transfer(ctx, recipient, amount, DefaultAsset)
	if err != nil {
		p.finish(ctx, payment, ledger.StatusFailed, "")
		return payment, nil, err
	}
	if transfer.Status != types.TransferComplete {
		p.finish(ctx, payment, ledger.StatusFailed, "")
		return payment, transfer, types.NewError(types.ErrTransferFailed, "transfer was rejected")
	}

	p.finish(ctx, payment, ledger.StatusSuccess, "")
	return payment, transfer, nil
}

// PayOnChain settles amount to recipient through the burn-and-mint bridge.
// The result is always returned, including partial failures that carry a
// burn hash for later resumption.
func (p *Pipeline) PayOnChain(ctx context.Context, recipient common.Address, amount string) (*ledger.Payment, *types.BridgeResult, error) {
	payment := p.record(ctx, recipient, amount, ledger.ModeOnChain)

	result := p.bridge.Run(ctx, types.BridgeRequest{
		Amount:            amount,
		Destination:       recipient.Hex(),
		SourceDomain:      p.cfg.Bridge.SourceDomain,
		DestinationDomain: p.cfg.Bridge.DestinationDomain,
	})

	if result.Status == types.BridgeSuccess {
		p.finish(ctx, payment, ledger.StatusSuccess, bestHash(result))
		return payment, result, nil
	}

	p.finish(ctx, payment, ledger.StatusFailed, bestHash(result))
	return payment, result, result.Err()
}

// PayAndSettle executes the composed flow: an instant off-chain transfer
// followed by an on-chain bridge settlement of the same value. A transfer
// failure aborts before any funds are burned. A bridge failure after a
// successful transfer still returns the completed transfer so callers can
// surface the transfer id while resuming settlement separately.
func (p *Pipeline) PayAndSettle(ctx context.Context, recipient common.Address, amount string) (*ledger.Payment, *types.Transfer, *types.BridgeResult, error) {
	payment := p.record(ctx, recipient, amount, ledger.ModeFast)

	transfer, err := p.channel.Transfer(ctx, recipient, amount, DefaultAsset)
	if err != nil {
		p.finish(ctx, payment, ledger.StatusFailed, "")
		return payment, nil, nil, err
	}
	if transfer.Status != types.TransferComplete {
		p.finish(ctx, payment, ledger.StatusFailed, "")
		return payment, transfer, nil, types.NewError(types.ErrTransferFailed, "transfer was rejected")
	}

	result := p.bridge.Run(ctx, types.BridgeRequest{
		Amount:            amount,
		Destination:       recipient.Hex(),
		SourceDomain:      p.cfg.Bridge.SourceDomain,
		DestinationDomain: p.cfg.Bridge.DestinationDomain,
	})

	if result.Status != types.BridgeSuccess {
		// The off-chain leg completed; the record keeps its success status
		// and the bridge outcome travels back beside it.
		p.finish(ctx, payment, ledger.StatusSuccess, bestHash(result))
		return payment, transfer, result, result.Err()
	}

	p.finish(ctx, payment, ledger.StatusSuccess, bestHash(result))
	return payment, transfer, result, nil
}

// ResumeSettlement re-enters the bridge flow at the attestation stage for
// an already-submitted burn.
func (p *Pipeline) ResumeSettlement(ctx context.Context, burnTxHash string) *types.BridgeResult {
	return p.bridge.Resume(ctx, burnTxHash)
}

func (p *Pipeline) record(ctx context.Context, recipient common.Address, amount string, mode ledger.Mode) *ledger.Payment {
	payment := &ledger.Payment{
		ID:               uuid.NewString(),
		RecipientAddress: recipient.Hex(),
		Amount:           amount,
		Mode:             mode,
		Status:           ledger.StatusPending,
		CreatedAt:        time.Now(),
	}
	if err := p.store.Create(ctx, *payment); err != nil {
		p.log.Warn("failed to record payment", map[string]any{"id": payment.ID, "error": err.Error()})
	}
	return payment
}

func (p *Pipeline) finish(ctx context.Context, payment *ledger.Payment, status ledger.Status, txHash string) {
	payment.Status = status
	if txHash != "" {
		payment.TxHash = txHash
	}
	if err := p.store.UpdateStatus(ctx, payment.ID, status, txHash); err != nil {
		p.log.Warn("failed to update payment", map[string]any{"id": payment.ID, "error": err.Error()})
	}
}

// bestHash prefers the mint hash and falls back to the burn hash, so a
// partial failure still leaves a usable reference in the ledger.
func bestHash(r *types.BridgeResult) string {
	if r.MintTxHash != "" {
		return r.MintTxHash
	}
	return r.BurnTxHash
}
