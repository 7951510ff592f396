package ledger

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	payments map[string]Payment
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payments: make(map[string]Payment)}
}

// Create stores a new payment record.
func (s *MemoryStore) Create(_ context.Context, p Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

// UpdateStatus sets the terminal status and transaction hash of a payment.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status Status, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return ErrNotFound
	}

	p.Status = status
	if txHash != "" {
		p.TxHash = txHash
	}
	s.payments[id] = p
	return nil
}

// Get returns the payment with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}
