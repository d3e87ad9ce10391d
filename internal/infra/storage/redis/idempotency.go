package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"stayrates/internal/app/middleware"
)

const idempotencyKeyPrefix = "pricing:idem:"

// IdempotencyStore persists replay records in Redis with a TTL so retried
// edits return the original result across instances and restarts.
type IdempotencyStore struct {
	Client *goredis.Client
	TTL    time.Duration
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.Client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err == goredis.Nil {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec middleware.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return s.Client.Set(ctx, idempotencyKeyPrefix+rec.Key, raw, ttl).Err()
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
