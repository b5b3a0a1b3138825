package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/msg"
)

// PointsSchema describes the "points" command: reports the invoking user's
// balance on the platform the command came from, and accumulates points on
// every chat line per points_per_chat/update_rate. Balances held on the
// user's other linked platforms are not included in the reply.
func PointsSchema() Schema {
	return Schema{
		Kind:        "points",
		Description: "reports the invoking user's point balance and accumulates points on chat",
		Fields: []Field{
			{Name: "template", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: "%s has %d points"},
				Description: "reply template; %s is the user's name, %d is the balance for their platform"},
			{Name: "points_per_chat", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 5},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 0, Max: 100000},
				Description: "points awarded per qualifying chat message; zero disables accumulation"},
			{Name: "update_rate", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 60},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 0, Max: 86400},
				Description: "seconds a user must wait between point-awarding chat messages"},
		},
	}
}

type pointsRule struct {
	template      string
	pointsPerChat int64
	updateRate    time.Duration
}

func newPointsRule(values map[string]Value) (Rule, error) {
	p := &pointsRule{template: "%s has %d points", pointsPerChat: 5, updateRate: 60 * time.Second}
	if v, ok := values["template"]; ok {
		p.template = v.Str
	}
	if v, ok := values["points_per_chat"]; ok {
		p.pointsPerChat = v.I64
	}
	if v, ok := values["update_rate"]; ok {
		p.updateRate = time.Duration(v.I64) * time.Second
	}
	return p, nil
}

func (p *pointsRule) RunInvocation(ctx context.Context, rc *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	platform := inv.Platform
	triple, err := rc.DB.GetPoints(ctx, toModelPlatform(platform), inv.User.ID)
	if err != nil {
		return RunResult{}, errors.Wrap(err, "fetch points")
	}

	var balance int64
	switch platform {
	case msg.YouTube:
		if triple.YouTube != nil {
			balance = *triple.YouTube
		}
	case msg.Twitch:
		if triple.Twitch != nil {
			balance = *triple.Twitch
		}
	default:
		if triple.Guild != nil {
			balance = *triple.Guild
		}
	}

	text := fmt.Sprintf(p.template, inv.User.Name, balance)
	return Ok(replyResponse(platform, inv.User, text, inv.Meta)), nil
}

// RunChat quietly accumulates points on every qualifying chat message,
// cooled down per user by updateRate. It never replies; the points
// command itself is how a user checks the result.
func (p *pointsRule) RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error) {
	if p.pointsPerChat <= 0 || event.User == nil {
		return Noop(), nil
	}

	if p.updateRate > 0 {
		key := lock.RateLimitKey("points", "update", fmt.Sprintf("%d_%s", event.Platform, event.User.ID))
		ok, err := rc.Locks.Acquire(ctx, key, p.updateRate)
		if err != nil {
			return RunResult{}, errors.Wrap(err, "acquire points cooldown")
		}
		if !ok {
			return Ratelimited(false), nil
		}
	}

	if _, err := rc.DB.UpsertPoints(ctx, toModelPlatform(event.Platform), event.User.ID, event.User.Name, p.pointsPerChat); err != nil {
		return RunResult{}, errors.Wrap(err, "accumulate points")
	}
	return Noop(), nil
}

func replyResponse(platform msg.Platform, user *msg.User, text string, meta msg.ChatMeta) msg.Response {
	return msg.Response{
		Platform: platform,
		Payload: msg.Payload{
			Kind: msg.PayloadMessage,
			Data: msg.MessagePayload{User: user, Text: text, Meta: meta},
		},
	}
}

func init() {
	registerBuiltin(PointsSchema(), newPointsRule)
}

var builtinRegistrations []func(r *Registry)

// registerBuiltin queues a rule kind's schema/factory pair for
// registration against every new Registry. Built-in kinds self-register
// via init() in their own file so adding a kind never requires editing a
// central list.
func registerBuiltin(schema Schema, factory Factory) {
	builtinRegistrations = append(builtinRegistrations, func(r *Registry) {
		r.RegisterKind(schema, factory)
	})
}

// NewRegistryWithBuiltins builds a Registry with every built-in rule kind
// already registered, ready for configuration installs.
func NewRegistryWithBuiltins() *Registry {
	r := NewRegistry()
	for _, register := range builtinRegistrations {
		register(r)
	}
	return r
}
