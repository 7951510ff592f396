package relayer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcpay/arcpay/types"
)

func attestationMsg() *types.AttestationMessage {
	return &types.AttestationMessage{
		Message:     hexutil.MustDecode("0xdeadbeef"),
		Attestation: hexutil.MustDecode("0xcafe"),
		Status:      types.AttestationComplete,
	}
}

func TestSettleSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Message     hexutil.Bytes `json:"message"`
			Attestation hexutil.Bytes `json:"attestation"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "0xdeadbeef", body.Message.String())
		assert.Equal(t, "0xcafe", body.Attestation.String())

		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":     "success",
			"mintTxHash": "0xmint",
		})
	}))
	defer srv.Close()

	hash, err := NewClient(srv.URL, nil).Settle(context.Background(), attestationMsg())
	require.NoError(t, err)
	assert.Equal(t, "0xmint", hash)
}

func TestSettleRelayerReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "failed",
			"error":  "nonce already used",
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Settle(context.Background(), attestationMsg())
	require.Error(t, err)
	assert.Equal(t, types.ErrSettlementFailed, types.CodeOf(err))
	assert.Contains(t, err.Error(), "nonce already used")
}

func TestSettleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Settle(context.Background(), attestationMsg())
	require.Error(t, err)
	assert.Equal(t, types.ErrSettlementFailed, types.CodeOf(err))
}

func TestSettleUnreachableRelayer(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:0", nil).Settle(context.Background(), attestationMsg())
	require.Error(t, err)
	assert.Equal(t, types.ErrSettlementFailed, types.CodeOf(err))
}
