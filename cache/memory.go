package cache

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	gocache "github.com/patrickmn/go-cache"
)

// InMemory is the non-Redis Store used by engine/rule tests and dry-run
// mode. Scalar keys live in a patrickmn/go-cache instance (which already
// gives us per-key TTLs for free); sorted sets need their own structure
// since go-cache has no ordered type.
type InMemory struct {
	scalars *gocache.Cache
	hashes  sync.Map // key -> *sync.Map (field -> value)

	mu    sync.Mutex
	zsets map[string][]ScoredMember
}

// NewInMemory returns a ready-to-use in-memory Store.
func NewInMemory() *InMemory {
	return &InMemory{
		scalars: gocache.New(gocache.NoExpiration, time.Minute),
		zsets:   make(map[string][]ScoredMember),
	}
}

var _ Store = (*InMemory)(nil)

func (m *InMemory) Incr(_ context.Context, key string, delta int64, expire time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, _ := m.scalars.Get(key)
	n, _ := cur.(int64)
	n += delta
	m.scalars.Set(key, n, ttlOrForever(expire))
	return n, nil
}

func (m *InMemory) Del(_ context.Context, key string) (bool, error) {
	_, existed := m.scalars.Get(key)
	m.scalars.Delete(key)
	m.hashes.Delete(key)
	m.mu.Lock()
	_, hadZSet := m.zsets[key]
	delete(m.zsets, key)
	m.mu.Unlock()
	return existed || hadZSet, nil
}

func (m *InMemory) Get(_ context.Context, key string) (string, error) {
	v, ok := m.scalars.Get(key)
	if !ok {
		return "", errors.New("key not found")
	}
	return toString(v), nil
}

func (m *InMemory) GetDel(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.Get(ctx, key)
	if err != nil {
		return "", err
	}
	m.scalars.Delete(key)
	return v, nil
}

func (m *InMemory) Set(_ context.Context, key, value string, expire time.Duration, nx bool) (bool, error) {
	if nx {
		if _, ok := m.scalars.Get(key); ok {
			return false, nil
		}
	}
	m.scalars.Set(key, value, ttlOrForever(expire))
	return true, nil
}

func (m *InMemory) SetGet(_ context.Context, key, value string, expire time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, _ := m.scalars.Get(key)
	m.scalars.Set(key, value, ttlOrForever(expire))
	return toString(prev), nil
}

func (m *InMemory) HSet(_ context.Context, key, field, value string, exclusive bool) (bool, error) {
	raw, _ := m.hashes.LoadOrStore(key, &sync.Map{})
	h := raw.(*sync.Map)
	if exclusive {
		if _, loaded := h.LoadOrStore(field, value); loaded {
			return false, nil
		}
		return true, nil
	}
	h.Store(field, value)
	return true, nil
}

func (m *InMemory) HGetAll(_ context.Context, key string) (map[string]string, error) {
	out := map[string]string{}
	raw, ok := m.hashes.Load(key)
	if !ok {
		return out, nil
	}
	raw.(*sync.Map).Range(func(k, v any) bool {
		out[k.(string)] = v.(string)
		return true
	})
	return out, nil
}

func (m *InMemory) ZAdd(_ context.Context, key string, score float64, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.zsets[key]
	for i, sm := range set {
		if sm.Member == member {
			set[i].Score = score
			m.zsets[key] = set
			return false, nil
		}
	}
	m.zsets[key] = append(set, ScoredMember{Member: member, Score: score})
	return true, nil
}

func (m *InMemory) ZRemRangeByScore(_ context.Context, key string, min, max float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.zsets[key]
	kept := set[:0]
	removed := false
	for _, sm := range set {
		if sm.Score >= min && sm.Score <= max {
			removed = true
			continue
		}
		kept = append(kept, sm)
	}
	m.zsets[key] = kept
	return removed, nil
}

func (m *InMemory) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	scored, err := m.ZRangeWithScores(ctx, key, start, stop)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(scored))
	for _, sm := range scored {
		out = append(out, sm.Member)
	}
	return out, nil
}

func (m *InMemory) ZRangeWithScores(_ context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := sortedCopy(m.zsets[key])
	lo, hi := sliceBounds(len(sorted), start, stop)
	if lo >= hi {
		return []ScoredMember{}, nil
	}
	return append([]ScoredMember{}, sorted[lo:hi]...), nil
}

func (m *InMemory) ZPopMax(_ context.Context, key string, count int64) ([]ScoredMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sorted := sortedCopy(m.zsets[key])
	if count <= 0 || int64(len(sorted)) < count {
		count = int64(len(sorted))
	}
	popped := make([]ScoredMember, count)
	for i := range popped {
		popped[i] = sorted[len(sorted)-1-i]
	}

	remaining := make(map[string]bool, count)
	for _, p := range popped {
		remaining[p.Member] = true
	}
	kept := sorted[:0]
	for _, sm := range sorted {
		if !remaining[sm.Member] {
			kept = append(kept, sm)
		}
	}
	m.zsets[key] = kept
	return popped, nil
}

func sortedCopy(set []ScoredMember) []ScoredMember {
	out := append([]ScoredMember{}, set...)
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

// sliceBounds converts Redis-style (possibly negative) start/stop indices
// into a half-open [lo, hi) slice range.
func sliceBounds(length int, start, stop int64) (int, int) {
	norm := func(i int64) int {
		if i < 0 {
			i += int64(length)
		}
		if i < 0 {
			i = 0
		}
		if i > int64(length) {
			i = int64(length)
		}
		return int(i)
	}
	lo := norm(start)
	hi := norm(stop) + 1
	if hi > length {
		hi = length
	}
	return lo, hi
}

func ttlOrForever(d time.Duration) time.Duration {
	if d <= 0 {
		return gocache.NoExpiration
	}
	return d
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
