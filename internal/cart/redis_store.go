package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/retailcart/cart-service/pkg/redis"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(cartID string) string
}

// RedisStore keeps cart snapshots in redis with a sliding TTL, so abandoned
// carts expire on their own when the session ends.
type RedisStore struct {
	kv  kvStore
	ttl time.Duration
}

// NewRedisStore wires the store to a redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{kv: client, ttl: ttl}, nil
}

// Save encodes the cart and writes it under its namespaced key, refreshing
// the TTL.
func (r *RedisStore) Save(ctx context.Context, cart *Cart) error {
	data, err := encodeCart(cart)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, r.kv.CartKey(cart.ID.String()), data, r.ttl); err != nil {
		return fmt.Errorf("saving cart %s: %w", cart.ID, err)
	}
	return nil
}

// Find loads and decodes the snapshot for the given id.
func (r *RedisStore) Find(ctx context.Context, id uuid.UUID) (*Cart, error) {
	data, err := r.kv.Get(ctx, r.kv.CartKey(id.String()))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("loading cart %s: %w", id, err)
	}
	return decodeCart([]byte(data))
}

// Delete removes the snapshot.
func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.kv.Del(ctx, r.kv.CartKey(id.String())); err != nil {
		return fmt.Errorf("deleting cart %s: %w", id, err)
	}
	return nil
}
