package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// DefaultTTL сколько помним примененное уведомление
	DefaultTTL = 24 * time.Hour

	keyPrefix = "notification:applied:"
)

// Redis часть клиента go-redis, используемая кэшем
type Redis interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Cache помнит ключи уже примененных уведомлений шлюзов.
// Это только быстрый путь: источник истины - статус платежа в хранилище.
type Cache struct {
	rdb Redis
	ttl time.Duration
}

// New создает кэш уведомлений
func New(rdb Redis, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Seen сообщает, применялось ли уведомление с таким ключом
func (c *Cache) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("notifications cache: exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Remember запоминает ключ примененного уведомления
func (c *Cache) Remember(ctx context.Context, key string) error {
	if err := c.rdb.SetNX(ctx, keyPrefix+key, time.Now().Unix(), c.ttl).Err(); err != nil {
		return fmt.Errorf("notifications cache: set %s: %w", key, err)
	}
	return nil
}
