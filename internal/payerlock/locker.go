// Package payerlock serializes payment creation per payer. The daily-limit
// check reads the payer's running total and then inserts as two statements,
// so two concurrent creations can both pass the check; holding this lock for
// the duration of the transaction closes that window. The lock is optional:
// without a configured redis the check stays best effort.
package payerlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/payline/internal/config"
)

const lockKeyPattern = "payline:payer:lock:%s"

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type Locker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
}

// New returns a Locker backed by the configured redis, or nil when no
// redis address is set.
func New(cfg config.Config) *Locker {
	if cfg.Lock.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Lock.RedisAddr,
		Password: cfg.Lock.RedisPassword,
		DB:       cfg.Lock.RedisDB,
	})
	ttl := cfg.Lock.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
	}
}

// TryAcquire attempts a single non-blocking acquisition for the payer.
func (l *Locker) TryAcquire(ctx context.Context, payerID uuid.UUID) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}

	token := uuid.NewString()
	key := fmt.Sprintf(lockKeyPattern, payerID)
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Acquire retries until the payer lock is held, the context ends, or the
// retry budget runs out.
func (l *Locker) Acquire(ctx context.Context, payerID uuid.UUID) (string, error) {
	const (
		attempts = 40
		backoff  = 25 * time.Millisecond
	)
	for i := 0; i < attempts; i++ {
		token, ok, err := l.TryAcquire(ctx, payerID)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", errors.New("payer lock contended")
}

// Release drops the payer lock only when the token still owns it.
func (l *Locker) Release(ctx context.Context, payerID uuid.UUID, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if token == "" {
		return nil
	}
	key := fmt.Sprintf(lockKeyPattern, payerID)
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}
