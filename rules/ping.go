package rules

import (
	"context"
	"fmt"

	"github.com/kelpbot/engine/msg"
)

// PingSchema describes the "ping" command: notifies another user,
// possibly on a different platform, with a short message.
func PingSchema() Schema {
	return Schema{
		Kind:        "ping",
		Description: "delivers a cross-platform notification to a named user",
	}
}

type pingRule struct{}

func newPingRule(map[string]Value) (Rule, error) { return &pingRule{}, nil }

func (p *pingRule) RunInvocation(_ context.Context, _ *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	pingee, ok := inv.Args["user"]
	if !ok || pingee == "" {
		return InvalidArgs(), nil
	}
	text := inv.Args["message"]

	payload := msg.PingPayload{
		Pinger: inv.User,
		Pingee: &msg.User{Name: pingee},
		Text:   text,
	}
	response := msg.Response{
		Platform: inv.Platform,
		Payload:  msg.Payload{Kind: msg.PayloadPing, Data: payload},
	}
	confirmation := fmt.Sprintf("pinged %s", pingee)
	return Ok(response, replyResponse(inv.Platform, inv.User, confirmation, inv.Meta)), nil
}

func (p *pingRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(PingSchema(), newPingRule)
}
