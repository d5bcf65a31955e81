package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, zap.NewNop()), mr
}

func TestRedisLocker_AcquireAndContend(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "autogen", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, release)

	assert.True(t, mr.Exists(keyPrefix+"autogen"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"autogen"))

	again, ok, err := locker.TryLock(ctx, "autogen", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, again)

	// other names are independent
	other, ok, err := locker.TryLock(ctx, "cleanup", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	other()
}

func TestRedisLocker_ReleaseAllowsReacquire(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	release, ok, err := locker.TryLock(ctx, "autogen", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	assert.False(t, mr.Exists(keyPrefix+"autogen"))

	_, ok, err = locker.TryLock(ctx, "autogen", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_StaleReleaseKeepsNewHolder(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	staleRelease, ok, err := locker.TryLock(ctx, "autogen", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists(keyPrefix+"autogen"))

	_, ok, err = locker.TryLock(ctx, "autogen", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	holder, err := mr.Get(keyPrefix + "autogen")
	require.NoError(t, err)

	staleRelease()

	current, err := mr.Get(keyPrefix + "autogen")
	require.NoError(t, err)
	assert.Equal(t, holder, current)
}

func TestRedisLocker_ServerDown(t *testing.T) {
	locker, mr := newTestLocker(t)
	mr.Close()

	release, ok, err := locker.TryLock(context.Background(), "autogen", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, release)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	rdb, err := NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer rdb.Close()

	mr.Close()
	_, err = NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
