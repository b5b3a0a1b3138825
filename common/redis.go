package common

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/kelpbot/engine/common/config"
	"github.com/kelpbot/engine/common/logger"
)

// NewRedisClient builds a go-redis client from a connection string: a bare
// URL opens a single client, while config.CacheMasterName set alongside a
// comma-separated address list opens a sentinel-aware universal client. It
// pings with a 5s timeout before returning so callers fail fast on
// misconfiguration instead of discovering it on the first cache request.
func NewRedisClient(ctx context.Context, cacheURL string) (redis.UniversalClient, error) {
	var client redis.UniversalClient
	if config.CacheMasterName == "" {
		opt, err := redis.ParseURL(cacheURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse cache connection string")
		}
		if config.CachePassword != "" {
			opt.Password = config.CachePassword
		}
		client = redis.NewClient(opt)
	} else {
		logger.Logger.Info("cache sentinel mode enabled", zap.String("master_name", config.CacheMasterName))
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:      strings.Split(cacheURL, ","),
			Password:   config.CachePassword,
			MasterName: config.CacheMasterName,
		})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Ping(pingCtx).Result(); err != nil {
		return nil, errors.Wrap(err, "ping cache backend")
	}

	return client, nil
}
