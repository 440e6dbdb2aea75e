package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when another structural write holds the lock past the wait budget.
var ErrLockBusy = errors.New("problem collection is being modified, try again")

const lockPollInterval = 100 * time.Millisecond

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// MutationLock serializes create/update/delete plus the renumbering pass that
// follows them across every API instance. It is a single Redis key set with
// NX and an expiry, so a crashed holder frees it after ttl.
type MutationLock struct {
	rdb      *redis.Client
	ttl      time.Duration
	wait     time.Duration
	newToken func() string
}

// NewMutationLock creates a lock that expires after ttl and waits up to wait to acquire.
func NewMutationLock(rdb *redis.Client, ttl, wait time.Duration) *MutationLock {
	return &MutationLock{
		rdb:      rdb,
		ttl:      ttl,
		wait:     wait,
		newToken: uuid.NewString,
	}
}

// Lock blocks until the lock is held, ctx is done, or the wait budget runs out.
// The returned func releases the lock.
func (l *MutationLock) Lock(ctx context.Context) (func(), error) {
	key := config.CacheKey.ResequenceLockKey()
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire mutation lock: %w", err)
		}
		if ok {
			return func() {
				// Release must not depend on the request context.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
