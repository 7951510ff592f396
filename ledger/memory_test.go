package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p := Payment{
		ID:               "p-1",
		RecipientAddress: "0xabc",
		Amount:           "1.5",
		Mode:             ModeFast,
		Status:           StatusPending,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, s.Create(ctx, p))

	got, err := s.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	require.NoError(t, s.UpdateStatus(ctx, "p-1", StatusSuccess, "0xhash"))

	got, err = s.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "0xhash", got.TxHash)
}

func TestMemoryStoreUpdateKeepsHashWhenEmpty(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, Payment{ID: "p-1", Status: StatusPending}))
	require.NoError(t, s.UpdateStatus(ctx, "p-1", StatusSuccess, "0xhash"))
	require.NoError(t, s.UpdateStatus(ctx, "p-1", StatusFailed, ""))

	got, err := s.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "0xhash", got.TxHash)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateStatus(ctx, "missing", StatusSuccess, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
