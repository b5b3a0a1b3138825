package rules

import (
	"context"
	"regexp"

	"github.com/kelpbot/engine/msg"
)

// RegexFilterSchema describes the "regex_filter" rule: the same
// independently-optional three-field AND composition as "filter", but
// matching raw (non-lowercased) username/user-id/message text against
// compiled regular expressions instead of plain substrings.
func RegexFilterSchema() Schema {
	return Schema{
		Kind:        "regex_filter",
		Description: "applies a moderation action when every configured regular expression matches",
		Fields: []Field{
			{Name: "user_pattern", Kind: KindRegex, Required: false,
				Description: "regex the raw username must match; unset disables this test"},
			{Name: "id_pattern", Kind: KindRegex, Required: false,
				Description: "regex the raw user id must match; unset disables this test"},
			{Name: "msg_pattern", Kind: KindRegex, Required: false,
				Description: "regex the raw message text must match; unset disables this test"},
			{Name: "action", Kind: KindModAction, Required: true,
				Description: "moderation action to apply on a match"},
		},
	}
}

type regexFilterRule struct {
	userPattern *regexp.Regexp
	idPattern   *regexp.Regexp
	msgPattern  *regexp.Regexp
	action      msg.ModAction
}

func newRegexFilterRule(values map[string]Value) (Rule, error) {
	r := &regexFilterRule{action: values["action"].Action}
	if v, ok := values["user_pattern"]; ok {
		r.userPattern = v.Regex
	}
	if v, ok := values["id_pattern"]; ok {
		r.idPattern = v.Regex
	}
	if v, ok := values["msg_pattern"]; ok {
		r.msgPattern = v.Regex
	}
	return r, nil
}

func (r *regexFilterRule) RunInvocation(context.Context, *Context, *msg.Invocation) (RunResult, error) {
	return Noop(), nil
}

// RunChat ANDs together every pattern the rule has configured, matched
// against the raw (non-lowercased) fields, unlike the plain "filter" kind.
func (r *regexFilterRule) RunChat(_ context.Context, _ *Context, event *msg.ChatEvent) (RunResult, error) {
	userName, userID := "", ""
	if event.User != nil {
		userName, userID = event.User.Name, event.User.ID
	}

	tripped := false
	if r.userPattern != nil {
		if !r.userPattern.MatchString(userName) {
			return Noop(), nil
		}
		tripped = true
	}
	if r.idPattern != nil {
		if !r.idPattern.MatchString(userID) {
			return Noop(), nil
		}
		tripped = true
	}
	if r.msgPattern != nil {
		if !r.msgPattern.MatchString(event.Text) {
			return Noop(), nil
		}
		tripped = true
	}

	if !tripped {
		return Noop(), nil
	}
	return Filtered(r.action), nil
}

func init() {
	registerBuiltin(RegexFilterSchema(), newRegexFilterRule)
}
