// Package cache provides the engine's sole path to shared state: a Redis-
// backed actor for production, and an in-memory double for tests and
// dry-run mode, both implementing the same Store interface.
package cache

import (
	"context"
	"time"
)

// ScoredMember is one entry of a sorted-set range, paired with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the set of cache operations rules and the rate limiter depend
// on. Both the Redis-backed Actor and the in-memory test double implement
// it, so callers never know which one they're talking to.
type Store interface {
	// Incr atomically adds delta to key, resetting its expiry to expire
	// when expire > 0, and returns the new value.
	Incr(ctx context.Context, key string, delta int64, expire time.Duration) (int64, error)
	// Del deletes key, returning whether it existed.
	Del(ctx context.Context, key string) (bool, error)
	// Get returns key's value, or "" with a non-nil error if it is unset.
	Get(ctx context.Context, key string) (string, error)
	// GetDel atomically reads and deletes key.
	GetDel(ctx context.Context, key string) (string, error)
	// Set writes key=value, applying expire when > 0 and refusing to
	// overwrite an existing key when nx is set.
	Set(ctx context.Context, key, value string, expire time.Duration, nx bool) (bool, error)
	// SetGet atomically writes key=value and returns the previous value.
	SetGet(ctx context.Context, key, value string, expire time.Duration) (string, error)
	// HSet sets field=value on the hash at key. When exclusive is set it
	// behaves like HSETNX: it only writes if the field is unset.
	HSet(ctx context.Context, key, field, value string, exclusive bool) (bool, error)
	// HGetAll returns every field/value pair in the hash at key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// ZAdd adds member to the sorted set at key with the given score.
	ZAdd(ctx context.Context, key string, score float64, member string) (bool, error)
	// ZRemRangeByScore removes members of the sorted set at key whose
	// score falls within [min, max].
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) (bool, error)
	// ZRange returns members of the sorted set at key between the given
	// rank bounds (inclusive, Redis-style negative indices allowed).
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// ZRangeWithScores is ZRange plus each member's score.
	ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	// ZPopMax removes and returns the count highest-scored members.
	ZPopMax(ctx context.Context, key string, count int64) ([]ScoredMember, error)
}
