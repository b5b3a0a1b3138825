package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/cache"
)

func TestAcquireAndRelease(t *testing.T) {
	m := New(cache.NewInMemory())
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "second acquire of a held key must fail")

	released, err := m.Release(ctx, "k")
	require.NoError(t, err)
	require.True(t, released)

	ok, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestAcquireExpires(t *testing.T) {
	m := New(cache.NewInMemory())
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired key should be free again")
}

func TestGuardBothSucceed(t *testing.T) {
	m := New(cache.NewInMemory())
	ctx := context.Background()

	g, err := m.Guard(ctx, "give", "ruleA", "user-1", time.Minute, time.Minute)
	require.NoError(t, err)
	require.True(t, g.Acquired)
	require.NotEmpty(t, g.GlobalKey)
	require.NotEmpty(t, g.UserKey)
}

func TestGuardGlobalFailsShortCircuits(t *testing.T) {
	m := New(cache.NewInMemory())
	ctx := context.Background()

	_, err := m.Guard(ctx, "give", "ruleA", "user-1", time.Minute, time.Minute)
	require.NoError(t, err)

	g, err := m.Guard(ctx, "give", "ruleA", "user-2", time.Minute, time.Minute)
	require.NoError(t, err)
	require.False(t, g.Acquired)
}

func TestGuardUserFailureRollsBackGlobal(t *testing.T) {
	store := cache.NewInMemory()
	m := New(store)
	ctx := context.Background()

	userKey := RateLimitKey("give", "ruleA", "user-1")
	_, err := store.Set(ctx, userKey, "1", time.Minute, true)
	require.NoError(t, err)

	g, err := m.Guard(ctx, "give", "ruleA", "user-1", time.Minute, time.Minute)
	require.NoError(t, err)
	require.False(t, g.Acquired)

	globalKey := RateLimitKey("give", "ruleA", "")
	ok, err := store.Set(ctx, globalKey, "1", time.Minute, true)
	require.NoError(t, err)
	require.True(t, ok, "global lock must have been released after the user lock failed")
}

func TestGuardSkipsUnconfiguredLimits(t *testing.T) {
	m := New(cache.NewInMemory())
	ctx := context.Background()

	g, err := m.Guard(ctx, "give", "ruleA", "user-1", 0, 0)
	require.NoError(t, err)
	require.True(t, g.Acquired)
	require.Empty(t, g.GlobalKey)
	require.Empty(t, g.UserKey)
}

func TestRollbackIsSafeOnUnacquiredGuard(t *testing.T) {
	m := New(cache.NewInMemory())
	m.Rollback(context.Background(), Guard{})
}
