package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockNotHeld is returned by Release when the lock expired or was taken over
var ErrLockNotHeld = errors.New("redis lock not held")

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Locker is a distributed mutex over SET NX PX. Each holder writes a random
// token and releases only if the key still carries it.
type Locker struct {
	client       *Client
	ttl          time.Duration
	pollInterval time.Duration
}

// NewLocker creates a Locker. A zero ttl uses TTLLock.
func NewLocker(client *Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = TTLLock
	}
	return &Locker{client: client, ttl: ttl, pollInterval: 50 * time.Millisecond}
}

// Acquire blocks until the lock for key is held or ctx ends. The returned
// function releases it and is safe to call more than once.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.client.KeyBuilder.KeyHackathonLock(key)
	token := uuid.NewString()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			released := false
			return func() {
				if released {
					return
				}
				released = true
				// The caller's context may already be done; release on its own deadline.
				relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := l.release(relCtx, redisKey, token); err != nil {
					l.client.log.Warn("redis lock release failed",
						zap.String("key_prefix", prefixForLog(redisKey)),
						zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Locker) release(ctx context.Context, redisKey, token string) error {
	res, err := l.client.Eval(ctx, releaseScript, []string{redisKey}, token)
	if err != nil {
		return err
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
