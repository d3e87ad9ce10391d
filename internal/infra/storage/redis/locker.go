package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"stayrates/internal/app/middleware"
)

// releaseScript deletes the lock only when the caller still owns it, so a
// lock that expired and was re-acquired by another editor is never released
// by the first one.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements the per-property edit lock on Redis SET NX with a TTL,
// making the serialization hold across service instances.
type Locker struct {
	Client *goredis.Client
	TTL    time.Duration
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, middleware.ErrPropertyLocked
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.Client, []string{key}, token).Err()
	}
	return release, nil
}

var _ middleware.Locker = (*Locker)(nil)
