// Package cart stores per-user shopping carts in Redis as a hash of
// product id -> quantity.
package cart

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the minimal client surface used by the store.
type RedisClient interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Store struct {
	client    RedisClient
	keyPrefix string
}

func NewStore(client RedisClient) *Store {
	return &Store{client: client, keyPrefix: "cart:"}
}

func (s *Store) key(userID string) string { return s.keyPrefix + userID }

// Add increments the quantity of a product in the user's cart.
func (s *Store) Add(ctx context.Context, userID, productID string, qty int) error {
	return s.client.HIncrBy(ctx, s.key(userID), productID, int64(qty)).Err()
}

// Items returns the cart contents as product id -> quantity.
func (s *Store) Items(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for productID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil {
			continue // skip corrupt fields rather than failing the read
		}
		out[productID] = qty
	}
	return out, nil
}

// Clear drops the user's cart. Invoked by the order coordinator after a
// committed placement.
func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
