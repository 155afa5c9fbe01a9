package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"evmap/backend/services/stations-service/internal/models"
)

const (
	fieldRaw       = "raw"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps each vendor payload in a hash with its timestamp.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore returns a store; ttl <= 0 keeps entries until overwritten.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "stations"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(vendor models.Brand) string {
	return fmt.Sprintf("%s:raw:%s", s.prefix, vendor.Key())
}

// Load fetches the vendor hash.
func (s *RedisStore) Load(ctx context.Context, vendor models.Brand) (Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(vendor)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("cache: redis load: %w", err)
	}
	raw, ok := fields[fieldRaw]
	if !ok {
		return Entry{}, ErrNotFound
	}
	entry := Entry{Vendor: vendor, Raw: []byte(raw)}
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err == nil {
		entry.UpdatedAt = ts
	}
	return entry, nil
}

// Save replaces the hash atomically in a MULTI/EXEC block.
func (s *RedisStore) Save(ctx context.Context, vendor models.Brand, raw []byte, at time.Time) error {
	key := s.key(vendor)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldRaw, raw, fieldUpdatedAt, at.UTC().Format(time.RFC3339Nano))
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: redis save: %w", err)
	}
	return nil
}
