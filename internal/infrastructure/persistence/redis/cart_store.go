package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
)

// CartStore keeps one cart payload per key. Entries never expire; the cart
// outlives the browser tab just like the local storage it replaces.
type CartStore struct {
	client *redis.Client
}

func NewCartStore(conn *Connection) *CartStore {
	return &CartStore{
		client: monitoring.InstrumentRedisClient(conn.GetClient()),
	}
}

func (s *CartStore) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	}
	return payload, nil
}

func (s *CartStore) Save(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", key, err)
	}
	return nil
}
