package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/msg"
)

// levenshteinLockTTL bounds the critical section guarding one user's
// prev-message/trip-count pair against a concurrent chat line from the
// same user.
const levenshteinLockTTL = 5 * time.Second

// LevenshteinFilterSchema describes the "levenshtein_filter" rule: trips
// when a user posts min_times+1 consecutive messages that are all within
// min_dist edit distance of the one before it, catching spam bursts that
// repeat a message with minor variations.
func LevenshteinFilterSchema() Schema {
	return Schema{
		Kind:        "levenshtein_filter",
		Description: "applies a moderation action to a burst of near-identical consecutive messages from one user",
		Fields: []Field{
			{Name: "min_dist", Kind: KindI64, Required: true,
				Constraint:  Constraint{Kind: ConstraintRange, Min: 0, Max: 1000},
				Description: "messages under this edit distance from the previous one count as similar"},
			{Name: "min_times", Kind: KindI64, Required: true,
				Constraint:  Constraint{Kind: ConstraintRange, Min: 1, Max: 1000},
				Description: "consecutive similar messages required before the filter trips"},
			{Name: "burst_rate", Kind: KindI64, Required: true,
				Constraint:  Constraint{Kind: ConstraintRange, Min: 1, Max: 86400},
				Description: "seconds a streak survives without a qualifying follow-up message"},
			{Name: "action", Kind: KindModAction, Required: true,
				Description: "moderation action to apply once the streak trips"},
		},
	}
}

type levenshteinFilterRule struct {
	minDist   int
	minTimes  int64
	burstRate time.Duration
	action    msg.ModAction
}

func newLevenshteinFilterRule(values map[string]Value) (Rule, error) {
	l := &levenshteinFilterRule{action: values["action"].Action}
	if v, ok := values["min_dist"]; ok {
		l.minDist = int(v.I64)
	}
	if v, ok := values["min_times"]; ok {
		l.minTimes = v.I64
	}
	if v, ok := values["burst_rate"]; ok {
		l.burstRate = time.Duration(v.I64) * time.Second
	}
	return l, nil
}

func (l *levenshteinFilterRule) RunInvocation(context.Context, *Context, *msg.Invocation) (RunResult, error) {
	return Noop(), nil
}

// RunChat swaps in the current lowercased message for the user's previous
// one and measures their edit distance. A run of more than min_times
// consecutive similar messages trips the filter and resets the streak; a
// dissimilar message breaks the streak without tripping.
func (l *levenshteinFilterRule) RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error) {
	if event.User == nil {
		return Noop(), nil
	}

	userLockKey := fmt.Sprintf("levenshtein_lock_%s", event.User.ID)
	acquired, err := rc.Locks.Acquire(ctx, userLockKey, levenshteinLockTTL)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "acquire levenshtein lock")
	}
	if !acquired {
		return Noop(), nil
	}
	defer func() { _, _ = rc.Locks.Release(ctx, userLockKey) }()

	current := strings.ToLower(event.Text)
	msgKey := fmt.Sprintf("levenshtein_msg_%s", event.User.ID)
	prev, err := rc.Cache.SetGet(ctx, msgKey, current, l.burstRate)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "swap previous message")
	}

	countKey := fmt.Sprintf("levenshtein_count_%s", event.User.ID)
	if levenshtein(prev, current) >= l.minDist {
		if _, err := rc.Cache.Del(ctx, countKey); err != nil {
			return RunResult{}, errors.Wrap(err, "reset trip count")
		}
		return Noop(), nil
	}

	tripCount, err := rc.Cache.Incr(ctx, countKey, 1, l.burstRate)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "increment trip count")
	}
	if tripCount <= l.minTimes {
		return Noop(), nil
	}

	if _, err := rc.Cache.Del(ctx, countKey); err != nil {
		return RunResult{}, errors.Wrap(err, "reset trip count")
	}
	return Filtered(l.action), nil
}

func init() {
	registerBuiltin(LevenshteinFilterSchema(), newLevenshteinFilterRule)
}
