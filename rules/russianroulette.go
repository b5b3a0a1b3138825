package rules

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/kelpbot/engine/msg"
)

// RussianRouletteSchema describes the "russian_roulette" command: a
// chance-based self-timeout game.
func RussianRouletteSchema() Schema {
	return Schema{
		Kind:        "russian_roulette",
		Description: "times the invoker out with a configured probability",
		Fields: []Field{
			{Name: "odds", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 6},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 2, Max: 1000},
				Description: "one in this many invocations results in a timeout"},
			{Name: "timeout_seconds", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 60},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 1, Max: 86400},
				Description: "timeout duration on a loss"},
		},
	}
}

type russianRouletteRule struct {
	odds    int64
	timeout uint32
}

func newRussianRouletteRule(values map[string]Value) (Rule, error) {
	r := &russianRouletteRule{odds: 6, timeout: 60}
	if v, ok := values["odds"]; ok {
		r.odds = v.I64
	}
	if v, ok := values["timeout_seconds"]; ok {
		r.timeout = uint32(v.I64)
	}
	return r, nil
}

func (r *russianRouletteRule) RunInvocation(_ context.Context, _ *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	if rand.Int64N(r.odds) != 0 {
		return Ok(replyResponse(inv.Platform, inv.User, fmt.Sprintf("%s survives", inv.User.Name), inv.Meta)), nil
	}

	action := msg.ModAction{Kind: msg.ActionTimeout, Seconds: r.timeout}
	text := fmt.Sprintf("%s loses the roulette and is timed out", inv.User.Name)
	responses := []msg.Response{
		replyResponse(inv.Platform, inv.User, text, inv.Meta),
		{
			Platform: inv.Platform,
			Payload:  msg.Payload{Kind: msg.PayloadModAction, Data: msg.ModActionPayload{User: inv.User, Action: action, Reason: "russian roulette"}},
		},
	}
	return Ok(responses...), nil
}

func (r *russianRouletteRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(RussianRouletteSchema(), newRussianRouletteRule)
}
