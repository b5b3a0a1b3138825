package rules

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// StreamlabsSchema describes the "streamlabs" rule: a donation reaches it
// as an Invoke dispatch carrying donor/amount/currency args; this rule
// announces it and awards the donor bonus points per configured unit.
func StreamlabsSchema() Schema {
	return Schema{
		Kind:        "streamlabs",
		Description: "announces donations and awards bonus points",
		Fields: []Field{
			{Name: "points_per_unit", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 10},
				Description: "points awarded per whole currency unit donated"},
			{Name: "template", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: "%s donated %s %s!"},
				Description: "announcement template: name, amount, currency"},
		},
	}
}

type streamlabsRule struct {
	pointsPerUnit int64
	template      string
}

func newStreamlabsRule(values map[string]Value) (Rule, error) {
	s := &streamlabsRule{pointsPerUnit: 10, template: "%s donated %s %s!"}
	if v, ok := values["points_per_unit"]; ok {
		s.pointsPerUnit = v.I64
	}
	if v, ok := values["template"]; ok {
		s.template = v.Str
	}
	return s, nil
}

func (s *streamlabsRule) RunInvocation(ctx context.Context, rc *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	donor := inv.Args["donor"]
	amount, err := parseInt(inv.Args["amount"])
	if donor == "" || err != nil {
		return InvalidArgs(), nil
	}
	currency := inv.Args["currency"]

	bonus := amount * s.pointsPerUnit
	if bonus > 0 {
		op := model.GiveOp{
			From: model.GiveFrom{Kind: model.GiveFromNone},
			To:   model.GiveTo{Kind: model.GiveToName, Platform: toModelPlatform(inv.Platform), DisplayName: donor},
			Amount: bonus, Min: 0, Max: 0,
		}
		if _, err := rc.DB.Give(ctx, op); err != nil && !errors.Is(err, model.ErrDeposit) {
			return RunResult{}, errors.Wrap(err, "award donation bonus")
		}
	}

	text := fmt.Sprintf(s.template, donor, inv.Args["amount"], currency)
	var responses []msg.Response
	for _, p := range []msg.Platform{msg.YouTube, msg.Twitch, msg.Discord} {
		responses = append(responses, msg.Response{
			Platform: p,
			Payload:  msg.Payload{Kind: msg.PayloadMessage, Data: msg.MessagePayload{Text: text}},
		})
	}
	return Ok(responses...), nil
}

func (s *streamlabsRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(StreamlabsSchema(), newStreamlabsRule)
}
