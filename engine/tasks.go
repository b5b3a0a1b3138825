package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/rules"
)

// tickInterval is how often the supervisor re-checks every installed
// Timer rule's Due clock and sweeps every installed Log rule.
const tickInterval = time.Second

// supervisor owns the background goroutines driving Timer and LogSource
// rule kinds. On every successful configuration install the engine calls
// respawn, which cancels whatever generation of tasks was running and
// starts a fresh one against the new rule set.
type supervisor struct {
	mu     sync.Mutex
	cancel chan struct{}
}

func newSupervisor() *supervisor {
	return &supervisor{}
}

// respawn fires the previous generation's cancellation signal (if any),
// then starts one goroutine per Timer instance and one per Log instance
// against e's current registry.
func (s *supervisor) respawn(e *Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		close(s.cancel)
	}
	done := make(chan struct{})
	s.cancel = done

	for _, inst := range e.Registry.All() {
		switch inst.Kind {
		case kindTimer:
			if timer, ok := inst.Rule.(rules.Timer); ok {
				go runTimerLoop(done, e, timer)
			}
		case kindLog:
			if src, ok := inst.Rule.(rules.LogSource); ok {
				go runLogSweep(done, e, inst.Name, src)
			}
		}
	}
}

func (s *supervisor) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
}

// runTimerLoop fires timer's rotating message whenever it reports itself
// due, re-checking the cancellation signal before every tick so a
// configuration swap stops this generation promptly.
func runTimerLoop(done <-chan struct{}, e *Engine, timer rules.Timer) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			if !timer.Due(now) {
				continue
			}
			for _, resp := range timer.Fire(context.Background(), e.rc, now) {
				if e.Egress == nil {
					continue
				}
				select {
				case e.Egress <- resp:
				case <-done:
					return
				}
			}
		}
	}
}

// logSweepInterval is how often a log rule's retained chat is swept for
// entries older than its configured keep_for window.
const logSweepInterval = tickInterval * 5

// runLogSweep periodically evicts entries older than the log rule's
// keep_for window from its sorted sets.
func runLogSweep(done <-chan struct{}, e *Engine, name string, src rules.LogSource) {
	ticker := time.NewTicker(logSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := src.Sweep(context.Background(), e.rc); err != nil {
				logger.Logger.Warn("log sweep failed", zap.String("name", name), zap.Error(err))
			}
		}
	}
}
