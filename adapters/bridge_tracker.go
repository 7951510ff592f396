// Package adapters exposes the channel client and the bridge orchestrator
// as observable state machines: a current stage enum, the last error, and a
// start/reset pair, with no logic beyond mapping events to readable state.
package adapters

import (
	"errors"
	"sync"

	"github.com/arcpay/arcpay/bridge"
)

// BridgeTracker records the latest stage transition of a bridge run.
type BridgeTracker struct {
	mu         sync.Mutex
	stage      bridge.Stage
	lastErr    error
	burnTxHash string
}

var _ bridge.Observer = (*BridgeTracker)(nil)

// NewBridgeTracker starts in the idle stage.
func NewBridgeTracker() *BridgeTracker {
	return &BridgeTracker{stage: bridge.StageIdle}
}

// BridgeStage implements bridge.Observer.
func (t *BridgeTracker) BridgeStage(e bridge.StageEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stage = e.Stage
	if e.BurnTxHash != "" {
		t.burnTxHash = e.BurnTxHash
	}
	if e.Stage == bridge.StageFailed {
		t.lastErr = errors.New(e.Error)
	}
}

// Stage returns the current stage.
func (t *BridgeTracker) Stage() bridge.Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stage
}

// Err returns the last failure, or nil.
func (t *BridgeTracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// BurnTxHash returns the burn hash of the tracked run, if one was
// submitted. It survives a failed settlement so the caller can resume.
func (t *BridgeTracker) BurnTxHash() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.burnTxHash
}

// Reset returns the tracker to idle.
func (t *BridgeTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = bridge.StageIdle
	t.lastErr = nil
	t.burnTxHash = ""
}
