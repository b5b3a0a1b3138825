package rules

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/kelpbot/engine/common/random"
	"github.com/kelpbot/engine/msg"
)

// TimerSchema describes the "timer" rule: broadcasts a rotating message on
// a fixed interval, plus a random jitter, and optionally skips a firing
// that saw fewer than msg_count chat messages since the last one. It has
// no command surface; the background task supervisor drives it via
// Due/Fire.
func TimerSchema() Schema {
	return Schema{
		Kind:        "timer",
		Description: "broadcasts a rotating message on a fixed, jittered interval",
		Fields: []Field{
			{Name: "interval_seconds", Kind: KindI64, Required: true,
				Constraint:  Constraint{Kind: ConstraintRange, Min: 10, Max: 86400},
				Description: "seconds between broadcasts"},
			{Name: "jitter_seconds", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 0},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 0, Max: 3600},
				Description: "extra random delay, 0..jitter, added to every firing"},
			{Name: "msg_count", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 1},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 0, Max: 1000000},
				Description: "minimum chat messages required since the last firing; 0 disables the check"},
			{Name: "messages", Kind: KindStrList, Required: true,
				Constraint:  Constraint{Kind: ConstraintNonEmpty},
				Description: "messages to rotate through, one per firing"},
			{Name: "platforms", Kind: KindPlatforms, Required: false,
				Default:     &Value{Kind: KindPlatforms, Platforms: msg.Chat},
				Description: "platforms the broadcast is sent to"},
		},
	}
}

type timerRule struct {
	interval  time.Duration
	jitter    time.Duration
	msgCount  int64
	messages  []string
	platforms msg.Platform

	// countKey namespaces this instance's chat counter in the shared
	// cache. Rule instances aren't told their own configuration name, so
	// a random id struck at construction keeps separately-installed
	// timers from sharing a counter.
	countKey string

	mu     sync.Mutex
	next   time.Time
	cursor int
}

func newTimerRule(values map[string]Value) (Rule, error) {
	t := &timerRule{
		interval:  time.Duration(values["interval_seconds"].I64) * time.Second,
		messages:  values["messages"].StrList,
		platforms: msg.Chat,
		msgCount:  1,
		countKey:  fmt.Sprintf("timer_count_%s", random.GetUUID()),
	}
	if v, ok := values["jitter_seconds"]; ok {
		t.jitter = time.Duration(v.I64) * time.Second
	}
	if v, ok := values["msg_count"]; ok {
		t.msgCount = v.I64
	}
	if v, ok := values["platforms"]; ok {
		t.platforms = v.Platforms
	}
	first := t.interval
	if t.jitter > 0 {
		first += time.Duration(rand.Int64N(int64(t.jitter) + 1))
	}
	t.next = time.Now().Add(first)
	return t, nil
}

func (t *timerRule) RunInvocation(context.Context, *Context, *msg.Invocation) (RunResult, error) {
	return Noop(), nil
}

// RunChat increments this timer's chat counter, which Fire consults and
// resets on every firing. A msg_count of 0 disables the check entirely,
// so there's no counter to maintain.
func (t *timerRule) RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error) {
	if t.msgCount == 0 || !t.platforms.Has(event.Platform) {
		return Noop(), nil
	}
	if _, err := rc.Cache.Incr(ctx, t.countKey, 1, 0); err != nil {
		return RunResult{}, err
	}
	return Noop(), nil
}

// Due reports whether the timer's interval plus its jittered delay has
// elapsed as of now.
func (t *timerRule) Due(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !now.Before(t.next)
}

// Fire advances the timer and returns the responses to broadcast for
// every platform this timer targets, or nil if msg_count gates this
// firing out because too few chat messages arrived since the last one.
func (t *timerRule) Fire(ctx context.Context, rc *Context, now time.Time) []msg.Response {
	t.mu.Lock()
	text := t.messages[t.cursor%len(t.messages)]
	t.cursor++
	delay := t.interval
	if t.jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(t.jitter) + 1))
	}
	t.next = now.Add(delay)
	t.mu.Unlock()

	if t.msgCount > 0 {
		prev, err := rc.Cache.SetGet(ctx, t.countKey, "0", 0)
		if err != nil {
			return nil
		}
		count, _ := strconv.ParseInt(prev, 10, 64)
		if count < t.msgCount {
			return nil
		}
	}

	var responses []msg.Response
	for _, p := range []msg.Platform{msg.YouTube, msg.Twitch, msg.Discord, msg.Web} {
		if t.platforms.Has(p) {
			responses = append(responses, msg.Response{
				Platform: p,
				Payload:  msg.Payload{Kind: msg.PayloadMessage, Data: msg.MessagePayload{Text: text}},
				At:       now,
			})
		}
	}
	return responses
}

func init() {
	registerBuiltin(TimerSchema(), newTimerRule)
}
