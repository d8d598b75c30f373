package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Only delete the lock if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a best-effort lease held in Redis so that only one process
// runs a job at a time. The lease expires after ttl if the holder dies.
type Lock struct {
	rc    *RedisClient
	key   string
	ttl   time.Duration
	token string
}

func NewLock(rc *RedisClient, key string, ttl time.Duration) *Lock {
	return &Lock{rc: rc, key: key, ttl: ttl}
}

// TryLock acquires the lease, returning false when another holder has it
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.rc.SetNX(ctx, l.key, token, l.ttl)
	if err != nil || !ok {
		return false, err
	}
	l.token = token
	return true, nil
}

// Unlock releases the lease if it is still ours
func (l *Lock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	err := releaseScript.Run(ctx, l.rc.client, []string{l.key}, l.token).Err()
	l.token = ""
	if IsMiss(err) {
		return nil
	}
	return err
}
