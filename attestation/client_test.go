package attestation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcpay/arcpay/types"
)

func completeMessage() map[string]any {
	return map[string]any{
		"messages": []map[string]any{{
			"message":     "0xdeadbeef",
			"attestation": "0xcafe",
			"status":      "complete",
		}},
	}
}

func TestFetchNotIndexedYet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL, nil).Fetch(context.Background(), 0, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestFetchPendingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]any{{"status": "pending"}},
		})
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL, nil).Fetch(context.Background(), 0, "0xabc")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestFetchComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/messages/3", r.URL.Path)
		assert.Equal(t, "0xabc", r.URL.Query().Get("transactionHash"))
		_ = json.NewEncoder(w).Encode(completeMessage())
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL, nil).Fetch(context.Background(), 3, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, types.AttestationComplete, msg.Status)
	assert.Equal(t, "0xdeadbeef", msg.Message.String())
	assert.Equal(t, "0xcafe", msg.Attestation.String())
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Fetch(context.Background(), 0, "0xabc")
	assert.Error(t, err)
}

func TestWaitCompletesAfterPendingPolls(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(completeMessage())
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL, nil).Wait(context.Background(), 0, "0xabc", RetryPolicy{MaxAttempts: 10, Interval: time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, int64(3), calls.Load())
}

func TestWaitExhaustsBudget(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Wait(context.Background(), 0, "0xabc", RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, types.ErrAttestationWait, types.CodeOf(err))
	// Every attempt in the budget is spent, no more, no fewer.
	assert.Equal(t, int64(5), calls.Load())
}

func TestWaitRetriesProbeErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(completeMessage())
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL, nil).Wait(context.Background(), 0, "0xabc", RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, int64(2), calls.Load())
}

func TestWaitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, nil).Wait(ctx, 0, "0xabc", RetryPolicy{MaxAttempts: 100, Interval: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
}
