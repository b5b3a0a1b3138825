// Package lock provides distributed mutual exclusion over the cache
// actor's Store, plus the two-key rate-limit composition rules declare.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/kelpbot/engine/cache"
)

// Manager acquires and releases short-lived keys on top of a cache.Store.
// It holds no state of its own: every lock is just a conditional key in
// the shared store, so any number of Managers over the same store agree
// on the same locks.
type Manager struct {
	store cache.Store
}

// New wraps a cache.Store (either the Redis-backed actor or the in-memory
// test double) in a Manager.
func New(store cache.Store) *Manager {
	return &Manager{store: store}
}

// Acquire tries to take key for ttl, returning true if it was free. It
// never blocks: a caller that gets false should treat itself as
// rate-limited rather than retry.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return m.store.Set(ctx, key, "1", ttl, true)
}

// Release frees key early, returning whether it was held.
func (m *Manager) Release(ctx context.Context, key string) (bool, error) {
	return m.store.Del(ctx, key)
}

// Guard is the outcome of composing a global and a per-user rate limit for
// one invocation of a guarded command.
type Guard struct {
	// Acquired is true when the invocation is allowed to proceed.
	Acquired bool
	// GlobalKey and UserKey are the keys this Guard touched, so a caller
	// that wants to release early (e.g. a command that turned out to be
	// a no-op) can call Rollback.
	GlobalKey, UserKey string
}

// Rollback releases whichever of Guard's keys were actually acquired. It
// is safe to call on a Guard that failed to acquire.
func (m *Manager) Rollback(ctx context.Context, g Guard) {
	if g.GlobalKey != "" {
		_, _ = m.Release(ctx, g.GlobalKey)
	}
	if g.UserKey != "" {
		_, _ = m.Release(ctx, g.UserKey)
	}
}

// RateLimitKey renders the `rate_<cmd>_<name>[_<user>]` key shape every
// guarded command shares.
func RateLimitKey(cmd, name, userID string) string {
	if userID == "" {
		return fmt.Sprintf("rate_%s_%s", cmd, name)
	}
	return fmt.Sprintf("rate_%s_%s_%s", cmd, name, userID)
}

// Guard composes a command's global and per-user rate limits: the global
// key is attempted first (when globalTTL > 0), then the per-user key (when
// userTTL > 0). If the per-user acquisition fails after the global one
// succeeded, the global lock is released immediately rather than left held
// for its full ttl on a request that didn't go through.
func (m *Manager) Guard(ctx context.Context, cmd, name, userID string, globalTTL, userTTL time.Duration) (Guard, error) {
	var g Guard

	if globalTTL > 0 {
		key := RateLimitKey(cmd, name, "")
		ok, err := m.Acquire(ctx, key, globalTTL)
		if err != nil {
			return Guard{}, err
		}
		if !ok {
			return Guard{Acquired: false}, nil
		}
		g.GlobalKey = key
	}

	if userTTL > 0 {
		key := RateLimitKey(cmd, name, userID)
		ok, err := m.Acquire(ctx, key, userTTL)
		if err != nil {
			m.Rollback(ctx, g)
			return Guard{}, err
		}
		if !ok {
			m.Rollback(ctx, g)
			return Guard{Acquired: false}, nil
		}
		g.UserKey = key
	}

	g.Acquired = true
	return g, nil
}
