package presence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"userhive/backend/internal/models"
)

// Cache is the presence key-value store. Get returns (nil, nil) on a miss;
// GetMany skips missing keys.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Status, error)
	Set(ctx context.Context, key string, status *models.Status, ttl time.Duration) error
	GetMany(ctx context.Context, keys []string) ([]*models.Status, error)
}

// RedisCache stores presence records as JSON values with a per-key TTL.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructor
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.Status, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status models.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, status *models.Status, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) GetMany(ctx context.Context, keys []string) ([]*models.Status, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	statuses := make([]*models.Status, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var status models.Status
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			continue
		}
		statuses = append(statuses, &status)
	}
	return statuses, nil
}
