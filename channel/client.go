// Package channel implements the off-chain channel client: one
// authenticated duplex connection to the clearnode ledger, instant balance
// transfers signed with an ephemeral session key, and best-effort balance
// queries.
package channel

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/metrics"
	"github.com/arcpay/arcpay/types"
	"github.com/arcpay/arcpay/wallet"
	"github.com/arcpay/arcpay/wsrpc"
)

// State is the client's connection lifecycle stage.
type State string

const (
	StateDisconnected   State = "disconnected"
	StateConnecting     State = "connecting"
	StateConnected      State = "connected"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// DefaultSessionTTL bounds the ephemeral session key lifetime.
const DefaultSessionTTL = 24 * time.Hour

// fallbackAsset is the stablecoin alias used when the requested symbol is
// absent from the catalog.
const fallbackAsset = "usdc"

// Client owns one connection and one ephemeral session key at a time. It is
// constructed once by the application wiring and passed by reference to
// every consumer.
type Client struct {
	cfg  types.ChannelConfig
	dial wsrpc.Dialer
	rpc  *wsrpc.Correlator
	log  logger.Logger
	mtr  metrics.Recorder

	// dialMu serializes Connect so a concurrent caller returns only after
	// the in-flight dial has finished.
	dialMu sync.Mutex

	mu         sync.Mutex
	state      State
	userAddr   common.Address
	sessionKey *ecdsa.PrivateKey
	expiry     time.Time
	assets     []types.Asset
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) { c.mtr = r }
}

// WithDialer replaces the websocket dialer. Used by tests.
func WithDialer(d wsrpc.Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// NewClient creates a disconnected channel client.
func NewClient(cfg types.ChannelConfig, opts ...Option) *Client {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}

	c := &Client{
		cfg:   cfg,
		dial:  wsrpc.Dial,
		log:   logger.NoopLogger{},
		mtr:   metrics.NoopRecorder{},
		state: StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rpc = wsrpc.NewCorrelator(cfg.RequestTimeout, c.log)
	return c
}

// State returns the current lifecycle stage.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticated reports whether transfers are currently allowed.
func (c *Client) Authenticated() bool {
	return c.State() == StateAuthenticated
}

// Assets returns the catalog fetched during authentication.
func (c *Client) Assets() []types.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Asset, len(c.assets))
	copy(out, c.assets)
	return out
}

// Connect opens the duplex connection. It is idempotent: repeat and
// concurrent calls return nil once a connection is open, and a call racing
// an in-flight dial waits for that dial instead of returning early.
func (c *Client) Connect(ctx context.Context) error {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()

	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, err := c.dial(ctx, c.cfg.URL, c.rpc.Dispatch, c.handleClose)
	if err != nil {
		c.setState(StateDisconnected)
		return types.NewError(types.ErrConnection, "failed to connect: "+err.Error())
	}

	c.rpc.Bind(conn)
	c.setState(StateConnected)
	c.log.Info("connected to clearnode", map[string]any{"url": c.cfg.URL})
	return nil
}

type authRequestParams struct {
	Address    string            `json:"address"`
	SessionKey string            `json:"session_key"`
	AppName    string            `json:"app_name"`
	Expire     int64             `json:"expire"`
	Allowances []types.Allowance `json:"allowances"`
}

type authChallengeParams struct {
	Challenge string `json:"challenge_message"`
}

type authVerifyParams struct {
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

type authResultParams struct {
	Success bool `json:"success"`
}

// Authenticate performs the challenge/response handshake. The user's wallet
// signs a single domain-separated statement over the server challenge;
// afterwards every request is signed with the fresh ephemeral session key,
// so no further wallet prompts are needed for the session's lifetime.
func (c *Client) Authenticate(ctx context.Context, userAddress common.Address, signer wallet.Signer) error {
	c.mu.Lock()
	if c.state != StateConnected && c.state != StateAuthenticated {
		c.mu.Unlock()
		return types.NewError(types.ErrAuthentication, "not connected")
	}
	c.state = StateAuthenticating
	c.mu.Unlock()

	started := time.Now()
	err := c.authenticate(ctx, userAddress, signer)
	if err != nil {
		c.setState(StateConnected)
		c.mtr.IncCounter("auth_failed", map[string]string{"operation": "authenticate"})
		return err
	}

	c.mtr.ObserveLatency("authenticate", time.Since(started), nil)
	return nil
}

func (c *Client) authenticate(ctx context.Context, userAddress common.Address, signer wallet.Signer) error {
	// Catalog fetch is best-effort: a failure falls back to an empty
	// allowance set instead of aborting the handshake.
	assets := c.fetchAssets(ctx)

	sessionKey, err := crypto.GenerateKey()
	if err != nil {
		return types.NewError(types.ErrAuthentication, "failed to generate session key: "+err.Error())
	}
	participant := crypto.PubkeyToAddress(sessionKey.PublicKey)

	allowances := make([]types.Allowance, 0, len(assets))
	for _, a := range assets {
		allowances = append(allowances, types.Allowance{Asset: a.Symbol, Amount: "0"})
	}

	expiry := time.Now().Add(c.cfg.SessionTTL)

	res, err := c.rpc.Call(ctx, "auth_request", authRequestParams{
		Address:    userAddress.Hex(),
		SessionKey: participant.Hex(),
		AppName:    c.cfg.AppName,
		Expire:     expiry.Unix(),
		Allowances: allowances,
	})
	if err != nil {
		return types.NewError(types.ErrAuthentication, "auth request failed: "+err.Error())
	}

	var challenge authChallengeParams
	if err := res.Decode(&challenge); err != nil {
		return types.NewError(types.ErrAuthentication, "bad auth challenge: "+err.Error())
	}

	td := challengeTypedData(c.cfg.AppName, challenge.Challenge, userAddress, participant, expiry.Unix(), allowances)
	sig, err := signer.SignTypedData(td)
	if err != nil {
		return types.NewError(types.ErrAuthentication, "wallet signature failed: "+err.Error())
	}

	res, err = c.rpc.Call(ctx, "auth_verify", authVerifyParams{
		Challenge: challenge.Challenge,
		Signature: hexutil.Encode(sig),
	})
	if err != nil {
		return types.NewError(types.ErrAuthentication, "auth verify failed: "+err.Error())
	}

	var ack authResultParams
	if err := res.Decode(&ack); err != nil || !ack.Success {
		return types.NewError(types.ErrAuthentication, "server rejected authentication")
	}

	c.rpc.SetSigner(sessionSigner(sessionKey))

	c.mu.Lock()
	c.state = StateAuthenticated
	c.userAddr = userAddress
	c.sessionKey = sessionKey
	c.expiry = expiry
	c.assets = assets
	c.mu.Unlock()

	c.log.Info("channel session authenticated", map[string]any{
		"address":     userAddress.Hex(),
		"participant": participant.Hex(),
		"expire":      expiry.Unix(),
	})
	return nil
}

type assetsParams struct {
	Assets []types.Asset `json:"assets"`
}

func (c *Client) fetchAssets(ctx context.Context) []types.Asset {
	res, err := c.rpc.Call(ctx, "get_assets", nil)
	if err != nil {
		c.log.Warn("asset catalog fetch failed", map[string]any{"error": err.Error()})
		return nil
	}

	var out assetsParams
	if err := res.Decode(&out); err != nil {
		c.log.Warn("asset catalog decode failed", map[string]any{"error": err.Error()})
		return nil
	}
	return out.Assets
}

type transferParams struct {
	Destination string          `json:"destination"`
	Allocations []transferAlloc `json:"allocations"`
}

type transferAlloc struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

type transferResultParams struct {
	TransferID string `json:"transferId"`
}

// Transfer executes one instant off-chain payment. RPC failures are folded
// into a failed Transfer value rather than an error: callers must check
// Status. Calling before a successful Authenticate fails closed without any
// network I/O.
func (c *Client) Transfer(ctx context.Context, destination common.Address, amount, asset string) (*types.Transfer, error) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return nil, types.NewError(types.ErrAuthentication, "not authenticated")
	}
	resolved := c.resolveAssetLocked(asset)
	c.mu.Unlock()

	minor, err := types.ToMinorUnits(amount, resolved.Decimals)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, err.Error())
	}

	started := time.Now()
	res, err := c.rpc.Call(ctx, "transfer", transferParams{
		Destination: destination.Hex(),
		Allocations: []transferAlloc{{Asset: resolved.Symbol, Amount: minor.String()}},
	})

	transfer := &types.Transfer{
		Destination: destination.Hex(),
		Asset:       resolved.Symbol,
		Amount:      minor,
	}

	if err == nil && res.Err != nil {
		err = res.Err
	}
	if err != nil {
		c.log.Warn("transfer failed", map[string]any{"asset": resolved.Symbol, "error": err.Error()})
		c.mtr.IncCounter("transfer_failed", map[string]string{"operation": "transfer"})
		transfer.TransferID = uuid.NewString()
		transfer.Status = types.TransferFailed
		return transfer, nil
	}

	var out transferResultParams
	if decodeErr := res.Decode(&out); decodeErr == nil && out.TransferID != "" {
		transfer.TransferID = out.TransferID
	} else {
		transfer.TransferID = uuid.NewString()
	}
	transfer.Status = types.TransferComplete

	c.mtr.IncCounter("transfer_complete", map[string]string{"operation": "transfer"})
	c.mtr.ObserveLatency("transfer", time.Since(started), nil)
	return transfer, nil
}

type balancesParams struct {
	Participant string `json:"participant"`
}

type balancesResultParams struct {
	Balances []types.Balance `json:"ledger_balances"`
}

// GetBalances returns the ledger balances for the authenticated user.
// Balance display is best-effort, so RPC failures yield an empty list, not
// an error. Calling before authentication fails closed.
func (c *Client) GetBalances(ctx context.Context) ([]types.Balance, error) {
	c.mu.Lock()
	if c.state != StateAuthenticated {
		c.mu.Unlock()
		return nil, types.NewError(types.ErrAuthentication, "not authenticated")
	}
	participant := c.userAddr
	c.mu.Unlock()

	res, err := c.rpc.Call(ctx, "get_ledger_balances", balancesParams{Participant: participant.Hex()})
	if err != nil {
		c.log.Warn("balance fetch failed", map[string]any{"error": err.Error()})
		return []types.Balance{}, nil
	}

	var out balancesResultParams
	if err := res.Decode(&out); err != nil {
		c.log.Warn("balance decode failed", map[string]any{"error": err.Error()})
		return []types.Balance{}, nil
	}
	return out.Balances, nil
}

// Disconnect closes the connection and clears all session state, rejecting
// pending requests. A second call is a no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.clearSessionLocked()
	c.mu.Unlock()

	c.rpc.Reset(types.NewError(types.ErrConnection, "client disconnected"))
	c.log.Info("disconnected from clearnode", nil)
}

// handleClose runs when the underlying connection drops. The session key
// never outlives its connection.
func (c *Client) handleClose(err error) {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.clearSessionLocked()
	c.mu.Unlock()

	reason := types.NewError(types.ErrConnection, "connection closed")
	if err != nil {
		reason = types.NewError(types.ErrConnection, "connection closed: "+err.Error())
		c.log.Warn("connection lost", map[string]any{"error": err.Error()})
	}
	c.rpc.Reset(reason)
}

func (c *Client) clearSessionLocked() {
	c.state = StateDisconnected
	c.sessionKey = nil
	c.userAddr = common.Address{}
	c.assets = nil
	c.expiry = time.Time{}
}

func (c *Client) resolveAssetLocked(symbol string) types.Asset {
	for _, a := range c.assets {
		if strings.EqualFold(a.Symbol, symbol) {
			return a
		}
	}
	for _, a := range c.assets {
		if strings.EqualFold(a.Symbol, fallbackAsset) {
			return a
		}
	}
	return types.Asset{Symbol: fallbackAsset, Decimals: types.USDCDecimals}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
