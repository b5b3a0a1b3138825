package rules

import (
	"context"
	"time"

	"github.com/kelpbot/engine/msg"
)

// Timer is implemented by rule kinds the background task supervisor
// drives on a fixed interval instead of in response to an invocation. Fire
// is handed rc so a msg_count-gated timer can consult the chat counter
// RunChat has been accumulating since the last firing.
type Timer interface {
	Due(now time.Time) bool
	Fire(ctx context.Context, rc *Context, now time.Time) []msg.Response
}

// LogSource is implemented by rule kinds that retain chat history in the
// shared cache for the operator-facing log dump and the background
// sweep's age-based eviction.
type LogSource interface {
	Dump(ctx context.Context, rc *Context, selected msg.Platform) ([]LogEntry, error)
	Sweep(ctx context.Context, rc *Context) error
}

var (
	_ Timer     = (*timerRule)(nil)
	_ LogSource = (*logRule)(nil)
)
