package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCartNotFound is returned by stores when a cart id does not resolve.
var ErrCartNotFound = errors.New("cart not found")

// Store persists cart session state between requests. Implementations
// serialize individual reads and writes but perform no cross-request
// locking: a cart has one logical owner, and the surrounding service is
// responsible for not sharing it between concurrent callers.
type Store interface {
	Save(ctx context.Context, cart *Cart) error
	Find(ctx context.Context, id uuid.UUID) (*Cart, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
