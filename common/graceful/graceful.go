package graceful

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
)

// Lifecycle manager for graceful shutdown and session draining.

var (
	inFlightSessions int64
	draining         atomic.Bool

	wg sync.WaitGroup
)

// BeginSession increments the in-flight session counter and returns a
// function to decrement it. Use with `defer` around a gateway session's
// read/write pump or a background task's run loop.
func BeginSession() func() {
	atomic.AddInt64(&inFlightSessions, 1)
	return func() {
		atomic.AddInt64(&inFlightSessions, -1)
	}
}

// GoCritical runs fn in a tracked goroutine and decrements when done.
// Use for post-event critical work like moderation-action persistence and
// pub/sub publish confirmation that must finish before shutdown completes.
func GoCritical(ctx context.Context, name string, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		logger.Logger.Debug("critical task start", zap.String("name", name))
		fn(ctx)
		logger.Logger.Debug("critical task done", zap.String("name", name), zap.Duration("elapsed", time.Since(start)))
	}()
}

// Drain waits for all tracked critical tasks to finish, bounded by ctx deadline.
// It also waits for in-flight sessions to reach zero after the gateway stops
// accepting new connections and existing read/write pumps return.
func Drain(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	// Wait for critical tasks via WaitGroup in a separate goroutine
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			// Timeout: report remaining tasks/sessions and return
			logger.Logger.Error("graceful drain timeout",
				zap.Int64("in_flight_sessions", atomic.LoadInt64(&inFlightSessions)))
			return ctx.Err()
		case <-done:
			// All critical tasks finished; check in-flight sessions
			if n := atomic.LoadInt64(&inFlightSessions); n != 0 {
				// Spin until they drop to zero or ctx timeout
				for {
					select {
					case <-ctx.Done():
						logger.Logger.Error("graceful drain timeout (sessions not zero)", zap.Int64("in_flight_sessions", n))
						return ctx.Err()
					case <-ticker.C:
						n = atomic.LoadInt64(&inFlightSessions)
						if n == 0 {
							logger.Logger.Info("graceful drain complete: no in-flight sessions")
							return nil
						}
					}
				}
			}
			logger.Logger.Info("graceful drain complete")
			return nil
		case <-ticker.C:
			// Periodic log for visibility during long drains
			logger.Logger.Debug("draining...",
				zap.Int64("in_flight_sessions", atomic.LoadInt64(&inFlightSessions)))
		}
	}
}

// SetDraining flips the draining flag to true.
func SetDraining() { draining.Store(true) }

// IsDraining returns whether the process is currently draining.
func IsDraining() bool { return draining.Load() }
