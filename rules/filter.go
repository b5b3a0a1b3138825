package rules

import (
	"context"
	"strings"

	"github.com/kelpbot/engine/msg"
)

// FilterSchema describes the "filter" rule: independently-optional
// substring tests over a chat event's lowercased username, user id, and
// message text, all of which must match (the ones that are configured)
// for the rule to trip. A field left empty is not tested at all, so a
// filter with only msg_contains set behaves as a plain message filter.
func FilterSchema() Schema {
	return Schema{
		Kind:        "filter",
		Description: "applies a moderation action when every configured substring test matches",
		Fields: []Field{
			{Name: "user_contains", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: ""},
				Description: "substring the lowercased username must contain; empty disables this test"},
			{Name: "id_contains", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: ""},
				Description: "substring the lowercased user id must contain; empty disables this test"},
			{Name: "msg_contains", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: ""},
				Description: "substring the lowercased message text must contain; empty disables this test"},
			{Name: "action", Kind: KindModAction, Required: true,
				Description: "moderation action to apply on a match"},
		},
	}
}

type filterRule struct {
	userContains string
	idContains   string
	msgContains  string
	action       msg.ModAction
}

func newFilterRule(values map[string]Value) (Rule, error) {
	f := &filterRule{action: values["action"].Action}
	if v, ok := values["user_contains"]; ok {
		f.userContains = strings.ToLower(v.Str)
	}
	if v, ok := values["id_contains"]; ok {
		f.idContains = strings.ToLower(v.Str)
	}
	if v, ok := values["msg_contains"]; ok {
		f.msgContains = strings.ToLower(v.Str)
	}
	return f, nil
}

func (f *filterRule) RunInvocation(context.Context, *Context, *msg.Invocation) (RunResult, error) {
	return Noop(), nil
}

// RunChat ANDs together every field the rule has configured: each one
// that is non-empty must match its lowercased counterpart, and a rule
// with nothing configured never trips.
func (f *filterRule) RunChat(_ context.Context, _ *Context, event *msg.ChatEvent) (RunResult, error) {
	userName, userID := "", ""
	if event.User != nil {
		userName = strings.ToLower(event.User.Name)
		userID = strings.ToLower(event.User.ID)
	}
	text := strings.ToLower(event.Text)

	tripped := false
	if f.userContains != "" {
		if !strings.Contains(userName, f.userContains) {
			return Noop(), nil
		}
		tripped = true
	}
	if f.idContains != "" {
		if !strings.Contains(userID, f.idContains) {
			return Noop(), nil
		}
		tripped = true
	}
	if f.msgContains != "" {
		if !strings.Contains(text, f.msgContains) {
			return Noop(), nil
		}
		tripped = true
	}

	if !tripped {
		return Noop(), nil
	}
	return Filtered(f.action), nil
}

func init() {
	registerBuiltin(FilterSchema(), newFilterRule)
}
