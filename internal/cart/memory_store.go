package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps encoded cart snapshots in process memory. Used by tests
// and DB-less dev runs; the encode/decode round-trip keeps its isolation
// semantics identical to the redis store.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[uuid.UUID][]byte
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[uuid.UUID][]byte{}}
}

// Save encodes and stores the cart snapshot.
func (m *MemoryStore) Save(ctx context.Context, cart *Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.ID] = data
	return nil
}

// Find decodes the stored snapshot for the given id.
func (m *MemoryStore) Find(ctx context.Context, id uuid.UUID) (*Cart, error) {
	m.mu.RLock()
	data, ok := m.carts[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCartNotFound
	}
	return decodeCart(data)
}

// Delete removes the snapshot if present.
func (m *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}
