package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// giveChatPattern matches a chat-text give command: a command token, an
// optional @-prefixed recipient name, and an amount or the literal "all".
var giveChatPattern = regexp.MustCompile(`^(\S+)\s+@?(\S+)\s+(\d+|all)\s*$`)

// GiveSchema describes the "give" command: transfers points from the
// invoking user to a named recipient, subject to a configured minimum and
// an optional cap. It is dual-dispatched: a structured Invocation carries
// "to"/"amount" args directly, while a plain chat line is parsed against
// prefix per giveChatPattern.
func GiveSchema() Schema {
	return Schema{
		Kind:        "give",
		Description: "transfers points from the invoker to a named recipient",
		Fields: []Field{
			{Name: "min", Kind: KindI64, Required: false, Default: &Value{Kind: KindI64, I64: 1},
				Description: "smallest transfer this rule will perform"},
			{Name: "max", Kind: KindI64, Required: false, Default: &Value{Kind: KindI64, I64: 0},
				Description: "largest transfer this rule will perform; zero means uncapped"},
			{Name: "prefix", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: "!give"},
				Description: "command token a chat line must start with to be parsed as a give"},
		},
	}
}

type giveRule struct {
	min, max int64
	prefix   string
}

func newGiveRule(values map[string]Value) (Rule, error) {
	g := &giveRule{min: 1, prefix: "!give"}
	if v, ok := values["min"]; ok {
		g.min = v.I64
	}
	if v, ok := values["max"]; ok {
		g.max = v.I64
	}
	if v, ok := values["prefix"]; ok {
		g.prefix = v.Str
	}
	return g, nil
}

func (g *giveRule) RunInvocation(ctx context.Context, rc *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	recipient, ok := inv.Args["to"]
	if !ok || recipient == "" {
		return InvalidArgs(), nil
	}
	amount := int64(-1)
	if raw, ok := inv.Args["amount"]; ok {
		n, err := parseInt(raw)
		if err != nil {
			return InvalidArgs(), nil
		}
		amount = n
	}

	effective, err := g.transfer(ctx, rc, inv.Platform, inv.User.ID, recipient, amount)
	switch {
	case err == errGiveNoOp:
		return InvalidArgs(), nil
	case err != nil:
		return RunResult{}, errors.Wrap(err, "give points")
	}

	return OkTo(msg.Broadcast, replyResponse(inv.Platform, inv.User, giveText(recipient, effective), inv.Meta)), nil
}

// RunChat parses a plain "!give <name> <amount|all>" chat line, mirroring
// RunInvocation's transfer logic so the command works identically whether
// dispatched structurally or typed directly into chat.
func (g *giveRule) RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error) {
	if event.User == nil {
		return Noop(), nil
	}
	matches := giveChatPattern.FindStringSubmatch(event.Text)
	if matches == nil {
		return Noop(), nil
	}
	if !strings.EqualFold(matches[1], g.prefix) {
		return Noop(), nil
	}
	recipient := matches[2]
	if strings.EqualFold(recipient, event.User.Name) {
		return Noop(), nil
	}

	amount := int64(-1)
	if !strings.EqualFold(matches[3], "all") {
		n, err := parseInt(matches[3])
		if err != nil {
			return Noop(), nil
		}
		amount = n
	}

	effective, err := g.transfer(ctx, rc, event.Platform, event.User.ID, recipient, amount)
	switch {
	case err == errGiveNoOp:
		return Noop(), nil
	case err != nil:
		return RunResult{}, errors.Wrap(err, "give points")
	}

	return OkTo(msg.Broadcast, replyResponse(event.Platform, event.User, giveText(recipient, effective), event.Meta)), nil
}

// errGiveNoOp marks a transfer rejection the caller should swallow as a
// silent no-op rather than surface as an error.
var errGiveNoOp = errors.New("give rejected")

func (g *giveRule) transfer(ctx context.Context, rc *Context, platform msg.Platform, fromID, toName string, amount int64) (int64, error) {
	modelPlatform := toModelPlatform(platform)
	op := model.GiveOp{
		From:   model.GiveFrom{Kind: model.GiveFromID, Platform: modelPlatform, UserID: fromID},
		To:     model.GiveTo{Kind: model.GiveToName, Platform: modelPlatform, DisplayName: toName},
		Amount: amount, Min: g.min, Max: g.max,
	}

	effective, err := rc.DB.Give(ctx, op)
	switch {
	case errors.Is(err, model.ErrAmountBelowMin), errors.Is(err, model.ErrDeduct), errors.Is(err, model.ErrDeposit):
		return 0, errGiveNoOp
	case err != nil:
		return 0, err
	}
	return effective, nil
}

func giveText(recipient string, amount int64) string {
	plural := "s"
	if amount == 1 {
		plural = ""
	}
	return fmt.Sprintf("gave %s %d point%s", recipient, amount, plural)
}

func parseInt(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func init() {
	registerBuiltin(GiveSchema(), newGiveRule)
}
