package adapters

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcpay/arcpay/channel"
	"github.com/arcpay/arcpay/wallet"
)

// ChannelTracker wraps a channel client with derived booleans and a
// start/reset pair.
type ChannelTracker struct {
	client *channel.Client

	mu      sync.Mutex
	lastErr error
}

// NewChannelTracker wraps an existing client; the tracker does not own its
// lifecycle beyond Start and Reset.
func NewChannelTracker(client *channel.Client) *ChannelTracker {
	return &ChannelTracker{client: client}
}

// Start connects and authenticates in one step, recording any failure.
func (t *ChannelTracker) Start(ctx context.Context, userAddress common.Address, signer wallet.Signer) error {
	t.setErr(nil)

	if err := t.client.Connect(ctx); err != nil {
		t.setErr(err)
		return err
	}
	if err := t.client.Authenticate(ctx, userAddress, signer); err != nil {
		t.setErr(err)
		return err
	}
	return nil
}

// Reset disconnects and clears the recorded error.
func (t *ChannelTracker) Reset() {
	t.client.Disconnect()
	t.setErr(nil)
}

// Connecting reports whether a connect or authenticate is in flight.
func (t *ChannelTracker) Connecting() bool {
	s := t.client.State()
	return s == channel.StateConnecting || s == channel.StateAuthenticating
}

// Connected reports whether the duplex connection is open.
func (t *ChannelTracker) Connected() bool {
	return t.client.State() != channel.StateDisconnected && t.client.State() != channel.StateConnecting
}

// Authenticated reports whether transfers are allowed.
func (t *ChannelTracker) Authenticated() bool {
	return t.client.Authenticated()
}

// Err returns the last start failure, or nil.
func (t *ChannelTracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

func (t *ChannelTracker) setErr(err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
}
