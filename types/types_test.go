package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeResultErr(t *testing.T) {
	ok := &BridgeResult{Status: BridgeSuccess, BurnTxHash: "0xburn", MintTxHash: "0xmint"}
	assert.NoError(t, ok.Err())

	aborted := &BridgeResult{Status: BridgeFailed, Error: "approval transaction reverted", ErrorCode: ErrApprovalFailed}
	err := aborted.Err()
	require.Error(t, err)
	assert.Equal(t, ErrApprovalFailed, CodeOf(err))
	assert.Equal(t, "approval transaction reverted", err.Error())

	// An untagged failure still surfaces as a settlement error.
	unknown := &BridgeResult{Status: BridgeFailed, Error: "boom"}
	assert.Equal(t, ErrSettlementFailed, CodeOf(unknown.Err()))
}

func TestBridgeResultBurned(t *testing.T) {
	assert.False(t, (&BridgeResult{Status: BridgeFailed}).Burned())
	assert.True(t, (&BridgeResult{Status: BridgeFailed, BurnTxHash: "0xburn"}).Burned())
}
