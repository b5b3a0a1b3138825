package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/msg"
)

// LogEntry is one recorded chat line, as retained in the per-platform
// sorted set a "log" rule instance writes to.
type LogEntry struct {
	At   time.Time
	User string
	Text string
}

// LogSchema describes the "log" rule: retains chat on a configured set of
// platforms, each in its own Redis sorted set keyed by unix-millisecond
// timestamp, for a keep_for window of later inspection via the operator
// log dump.
func LogSchema() Schema {
	return Schema{
		Kind:        "log",
		Description: "retains recent chat per platform for the operator log dump",
		Fields: []Field{
			{Name: "platforms", Kind: KindPlatforms, Required: false,
				Default:     &Value{Kind: KindPlatforms, Platforms: msg.Chat},
				Description: "platforms whose chat is retained"},
			{Name: "keep_for", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 10},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 10, Max: 3600},
				Description: "seconds a retained chat line survives before the sweep evicts it"},
		},
	}
}

type logRule struct {
	platforms msg.Platform
	keepFor   time.Duration
}

func newLogRule(values map[string]Value) (Rule, error) {
	l := &logRule{platforms: msg.Chat, keepFor: 10 * time.Second}
	if v, ok := values["platforms"]; ok {
		l.platforms = v.Platforms
	}
	if v, ok := values["keep_for"]; ok {
		l.keepFor = time.Duration(v.I64) * time.Second
	}
	return l, nil
}

// logEntryWire is the JSON shape stored as a sorted-set member, the
// timestamp embedded alongside the chat line itself so two identical
// messages at different times never collide as members.
type logEntryWire struct {
	At   int64  `json:"at"`
	User string `json:"user"`
	Text string `json:"text"`
}

func logKey(platform msg.Platform) string {
	return fmt.Sprintf("log_%s", platform.String())
}

func (l *logRule) RunInvocation(context.Context, *Context, *msg.Invocation) (RunResult, error) {
	return Noop(), nil
}

// RunChat appends event to the chat's own platform's sorted set, scored
// by the current unix-millisecond timestamp, when this instance retains
// that platform.
func (l *logRule) RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error) {
	if !l.platforms.Has(event.Platform) {
		return Noop(), nil
	}

	name := ""
	if event.User != nil {
		name = event.User.Name
	}
	now := time.Now()
	member, err := json.Marshal(logEntryWire{At: now.UnixMilli(), User: name, Text: event.Text})
	if err != nil {
		return RunResult{}, errors.Wrap(err, "marshal log entry")
	}

	if _, err := rc.Cache.ZAdd(ctx, logKey(event.Platform), float64(now.UnixMilli()), string(member)); err != nil {
		return RunResult{}, errors.Wrap(err, "append log entry")
	}
	return Noop(), nil
}

// Sweep evicts every entry older than keep_for from every platform this
// instance retains. The background task supervisor calls this on a fixed
// tick for every installed log instance.
func (l *logRule) Sweep(ctx context.Context, rc *Context) error {
	cutoff := float64(time.Now().Add(-l.keepFor).UnixMilli())
	for _, p := range []msg.Platform{msg.YouTube, msg.Twitch, msg.Discord, msg.Web} {
		if !l.platforms.Has(p) {
			continue
		}
		if _, err := rc.Cache.ZRemRangeByScore(ctx, logKey(p), math.Inf(-1), cutoff); err != nil {
			return errors.Wrap(err, "sweep log entries")
		}
	}
	return nil
}

// Dump returns every entry currently retained on the platforms this
// instance watches that are also selected by the caller, per-platform
// oldest first.
func (l *logRule) Dump(ctx context.Context, rc *Context, selected msg.Platform) ([]LogEntry, error) {
	var out []LogEntry
	for _, p := range []msg.Platform{msg.YouTube, msg.Twitch, msg.Discord, msg.Web} {
		if !l.platforms.Has(p) || !selected.Any(p) {
			continue
		}
		members, err := rc.Cache.ZRange(ctx, logKey(p), 0, -1)
		if err != nil {
			return nil, errors.Wrap(err, "range log entries")
		}
		for _, member := range members {
			var wire logEntryWire
			if err := json.Unmarshal([]byte(member), &wire); err != nil {
				continue
			}
			out = append(out, LogEntry{At: time.UnixMilli(wire.At), User: wire.User, Text: wire.Text})
		}
	}
	return out, nil
}

func init() {
	registerBuiltin(LogSchema(), newLogRule)
}
