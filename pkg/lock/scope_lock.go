package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ScopeLock serializes allocation runs per exam scope. Two interleaved runs
// against the same scope could both pass the capacity gate on stale state,
// so only one holder per scope key is allowed at a time.
type ScopeLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScopeLock builds a lock manager with the given hold TTL.
func NewScopeLock(client *redis.Client, ttl time.Duration) *ScopeLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &ScopeLock{client: client, ttl: ttl}
}

// Handle identifies one acquired lock so only its owner can release it.
type Handle struct {
	key   string
	token string
}

// Acquire takes the lock for the scope, returning ok=false when another
// run already holds it.
func (l *ScopeLock) Acquire(ctx context.Context, scopeKey string) (*Handle, bool, error) {
	key := "allocation:scope:" + scopeKey
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return &Handle{key: key, token: token}, true, nil
}

// Release frees the lock if the handle still owns it.
func (l *ScopeLock) Release(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{h.key}, h.token).Err()
}
