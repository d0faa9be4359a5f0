package lock

import (
	"context"
	"errors"
	"time"

	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	releaseTimeout    = 2 * time.Second
	defaultLockTTL    = 15 * time.Second
	defaultRetryEvery = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retryEvery time.Duration
}

func NewRedisLocker(client *redis.Client, cfg *config.Redis) Locker {
	l := &redisLocker{
		client:     client,
		ttl:        time.Duration(cfg.LockTTLMs) * time.Millisecond,
		retryEvery: time.Duration(cfg.LockRetryMs) * time.Millisecond,
	}
	if l.ttl <= 0 {
		l.ttl = defaultLockTTL
	}
	if l.retryEvery <= 0 {
		l.retryEvery = defaultRetryEvery
	}
	return l
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, models.ErrLockTimeout
			}
			logrus.WithError(err).WithField("key", key).Error("Failed to acquire lock")
			return nil, errors.Join(models.ErrLockAcquire, err)
		}
		if ok {
			logrus.WithField("key", key).Debug("Lock acquired")
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			logrus.WithField("key", key).Warn("Timed out waiting for lock")
			return nil, models.ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// release runs on its own context because the request context may already be
// cancelled; the TTL bounds the damage if this fails.
func (l *redisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Error(models.ErrLockRelease.Error())
		return
	}
	logrus.WithField("key", key).Debug("Lock released")
}
