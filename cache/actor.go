package cache

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/kelpbot/engine/common"
	"github.com/kelpbot/engine/common/logger"
)

// request is the unit of work the cache actor's mailbox carries.
type request struct {
	op    func(ctx context.Context, rdb redis.Cmdable) (any, error)
	reply chan result
}

type result struct {
	val any
	err error
}

// Actor serializes access to a Redis client behind a mailbox, the way the
// teacher's equivalent handle serialized access to its connection pool.
type Actor struct {
	rdb     redis.Cmdable
	mailbox chan request
}

// New dials Redis (direct or sentinel, per cacheURL's scheme) and returns
// an Actor ready to have Run started on it.
func New(ctx context.Context, cacheURL string) (*Actor, error) {
	rdb, err := common.NewRedisClient(ctx, cacheURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial cache")
	}
	return &Actor{rdb: rdb, mailbox: make(chan request, 32)}, nil
}

// Run owns the mailbox loop until ctx is cancelled.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-a.mailbox:
			if !ok {
				return
			}
			go a.dispatch(ctx, req)
		}
	}
}

func (a *Actor) dispatch(ctx context.Context, req request) {
	val, err := req.op(ctx, a.rdb)
	if err != nil {
		logger.Logger.Debug("cache actor operation failed", zap.Error(err))
	}
	req.reply <- result{val: val, err: err}
}

// request submits op to the mailbox and blocks for its reply.
func (a *Actor) request(ctx context.Context, op func(ctx context.Context, rdb redis.Cmdable) (any, error)) (any, error) {
	reply := make(chan result, 1)
	select {
	case a.mailbox <- request{op: op, reply: reply}:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "submit cache request")
	}

	select {
	case res := <-reply:
		return res.val, res.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "await cache reply")
	}
}

var _ Store = (*Actor)(nil)

func (a *Actor) Incr(ctx context.Context, key string, delta int64, expire time.Duration) (int64, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		pipe := rdb.TxPipeline()
		incr := pipe.IncrBy(ctx, key, delta)
		if expire > 0 {
			pipe.Expire(ctx, key, expire)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, errors.Wrap(err, "incr")
		}
		return incr.Val(), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (a *Actor) Del(ctx context.Context, key string) (bool, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		n, err := rdb.Del(ctx, key).Result()
		return n > 0, errors.Wrap(err, "del")
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *Actor) Get(ctx context.Context, key string) (string, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		s, err := rdb.Get(ctx, key).Result()
		return s, errors.Wrap(err, "get")
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Actor) GetDel(ctx context.Context, key string) (string, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		s, err := rdb.GetDel(ctx, key).Result()
		return s, errors.Wrap(err, "getdel")
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Actor) Set(ctx context.Context, key, value string, expire time.Duration, nx bool) (bool, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		if nx {
			ok, err := rdb.SetNX(ctx, key, value, expire).Result()
			return ok, errors.Wrap(err, "setnx")
		}
		_, err := rdb.Set(ctx, key, value, expire).Result()
		return true, errors.Wrap(err, "set")
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *Actor) SetGet(ctx context.Context, key, value string, expire time.Duration) (string, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		prev, err := rdb.GetSet(ctx, key, value).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return "", errors.Wrap(err, "setget")
		}
		if expire > 0 {
			if err := rdb.Expire(ctx, key, expire).Err(); err != nil {
				return "", errors.Wrap(err, "setget expire")
			}
		}
		return prev, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *Actor) HSet(ctx context.Context, key, field, value string, exclusive bool) (bool, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		if exclusive {
			ok, err := rdb.HSetNX(ctx, key, field, value).Result()
			return ok, errors.Wrap(err, "hsetnx")
		}
		_, err := rdb.HSet(ctx, key, field, value).Result()
		return true, errors.Wrap(err, "hset")
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *Actor) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		m, err := rdb.HGetAll(ctx, key).Result()
		return m, errors.Wrap(err, "hgetall")
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]string), nil
}

func (a *Actor) ZAdd(ctx context.Context, key string, score float64, member string) (bool, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		n, err := rdb.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Result()
		return n > 0, errors.Wrap(err, "zadd")
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *Actor) ZRemRangeByScore(ctx context.Context, key string, min, max float64) (bool, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		n, err := rdb.ZRemRangeByScore(ctx, key, formatScore(min), formatScore(max)).Result()
		return n > 0, errors.Wrap(err, "zremrangebyscore")
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (a *Actor) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		members, err := rdb.ZRange(ctx, key, start, stop).Result()
		return members, errors.Wrap(err, "zrange")
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (a *Actor) ZRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		zs, err := rdb.ZRangeWithScores(ctx, key, start, stop).Result()
		if err != nil {
			return nil, errors.Wrap(err, "zrangewithscores")
		}
		return toScoredMembers(zs), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ScoredMember), nil
}

func (a *Actor) ZPopMax(ctx context.Context, key string, count int64) ([]ScoredMember, error) {
	v, err := a.request(ctx, func(ctx context.Context, rdb redis.Cmdable) (any, error) {
		zs, err := rdb.ZPopMax(ctx, key, count).Result()
		if err != nil {
			return nil, errors.Wrap(err, "zpopmax")
		}
		return toScoredMembers(zs), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ScoredMember), nil
}

func toScoredMembers(zs []redis.Z) []ScoredMember {
	out := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, ScoredMember{Member: member, Score: z.Score})
	}
	return out
}
