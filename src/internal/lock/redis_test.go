package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLockConfig = &config.Redis{LockTTLMs: 1500, LockRetryMs: 5}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisLocker_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	l := NewRedisLocker(client, &config.Redis{}).(*redisLocker)
	assert.Equal(t, defaultLockTTL, l.ttl)
	assert.Equal(t, defaultRetryEvery, l.retryEvery)

	l = NewRedisLocker(client, &config.Redis{LockTTLMs: 1500, LockRetryMs: 10}).(*redisLocker)
	assert.Equal(t, 1500*time.Millisecond, l.ttl)
	assert.Equal(t, 10*time.Millisecond, l.retryEvery)
}

func TestRedisLocker_AcquireSetsKeyWithTTL(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)

	release, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)

	assert.True(t, mr.Exists(UserKey(1)))
	assert.Equal(t, 1500*time.Millisecond, mr.TTL(UserKey(1)))

	release()
	assert.False(t, mr.Exists(UserKey(1)))
}

func TestRedisLocker_TimesOutWhileHeld(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)

	release, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, UserKey(1))
	assert.ErrorIs(t, err, models.ErrLockTimeout)

	// Other users are not blocked.
	other, err := locker.Acquire(context.Background(), UserKey(2))
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(UserKey(1)))

	again, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)
	again()
}

func TestRedisLocker_WaiterAcquiresAfterRelease(t *testing.T) {
	_, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)

	release, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		waiterRelease, err := locker.Acquire(ctx, UserKey(1))
		if err == nil {
			waiterRelease()
		}
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	_, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)

	var (
		wg      sync.WaitGroup
		active  int32
		maxSeen int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			release, err := locker.Acquire(ctx, UserKey(7))
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				seen := atomic.LoadInt32(&maxSeen)
				if n <= seen || atomic.CompareAndSwapInt32(&maxSeen, seen, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestRedisLocker_ReleaseKeepsOtherHoldersToken(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)

	release, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)

	require.NoError(t, mr.Set(UserKey(1), "another-holder"))
	release()

	value, err := mr.Get(UserKey(1))
	require.NoError(t, err)
	assert.Equal(t, "another-holder", value)
}

func TestRedisLocker_ExpiredLockCanBeTaken(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)

	stale, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists(UserKey(1)))

	current, err := locker.Acquire(context.Background(), UserKey(1))
	require.NoError(t, err)

	// The stale holder must not free the new holder's lock.
	stale()
	assert.True(t, mr.Exists(UserKey(1)))

	current()
	assert.False(t, mr.Exists(UserKey(1)))
}

func TestRedisLocker_BackendDown(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewRedisLocker(client, testLockConfig)
	mr.Close()

	release, err := locker.Acquire(context.Background(), UserKey(1))
	assert.Nil(t, release)
	assert.ErrorIs(t, err, models.ErrLockAcquire)
	assert.NotErrorIs(t, err, models.ErrLockTimeout)
}
