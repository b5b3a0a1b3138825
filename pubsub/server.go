// Package pubsub bridges the engine's internal message flow to Redis
// pub/sub, so multiple engine instances (or an external publisher) can
// exchange chat and outbound events over the same channel pair.
package pubsub

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/kelpbot/engine/common"
	"github.com/kelpbot/engine/common/logger"
)

// Server owns one Redis subscription and one Redis publisher, bridging
// them to Go channels the rest of the engine reads from and writes to.
type Server struct {
	rdb      redis.UniversalClient
	pubChan  string
	subChan  string
	inbound  chan<- string
	outbound <-chan string

	restarts atomic.Int64
}

// New dials Redis and wires up a Server. inbound receives every message
// published on subChan; outbound is drained and republished on pubChan.
func New(ctx context.Context, cacheURL, pubChan, subChan string, inbound chan<- string, outbound <-chan string) (*Server, error) {
	rdb, err := common.NewRedisClient(ctx, cacheURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial pubsub backend")
	}
	return &Server{rdb: rdb, pubChan: pubChan, subChan: subChan, inbound: inbound, outbound: outbound}, nil
}

// Start launches the subscribe and publish loops in the background. Both
// run until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	logger.Logger.Info("starting pub-sub bridge", zap.String("sub_chan", s.subChan), zap.String("pub_chan", s.pubChan))
	go s.subLoop(ctx)
	go s.pubLoop(ctx)
}

// Restarts reports how many times the subscribe loop has had to
// reconnect, for metrics/diagnostics.
func (s *Server) Restarts() int64 {
	return s.restarts.Load()
}

// subLoop holds a Redis subscription open and forwards every message it
// receives to inbound, reconnecting with backoff if the connection drops
// (Redis closes idle pub/sub connections, so this is the normal case, not
// an error path).
func (s *Server) subLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := s.subscribeOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Logger.Warn("pubsub subscription ended, reconnecting", zap.Error(err))
			s.restarts.Add(1)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) subscribeOnce(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, s.subChan)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			select {
			case s.inbound <- msg.Payload:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// pubLoop drains outbound and republishes each message on pubChan,
// fanning each publish onto its own goroutine so a slow publish never
// blocks the drain of the next outbound message.
func (s *Server) pubLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.outbound:
			if !ok {
				return
			}
			go func(msg string) {
				if err := s.rdb.Publish(ctx, s.pubChan, msg).Err(); err != nil {
					logger.Logger.Error("failed to publish pubsub message", zap.Error(err))
				}
			}(msg)
		}
	}
}
