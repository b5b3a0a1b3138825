package rules

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/msg"
)

func TestRegexFilterMatchesRawFields(t *testing.T) {
	rule, err := newRegexFilterRule(map[string]Value{
		"user_pattern": RegexValue(mustCompile(t, "^Spam")),
		"action":       ModActionValue(msg.ModAction{Kind: msg.ActionBan}),
	})
	require.NoError(t, err)

	// A lowercase username wouldn't satisfy ^Spam if the field were
	// lowercased first; it must be tested raw.
	event := &msg.ChatEvent{Text: "hi", User: &msg.User{Name: "Spammer99", ID: "1"}}
	result, err := rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultFiltered, result.Kind)

	event.User.Name = "spammer99"
	result, err = rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, result.Kind)
}

func TestRegexFilterRequiresEveryConfiguredPattern(t *testing.T) {
	rule, err := newRegexFilterRule(map[string]Value{
		"id_pattern":  RegexValue(mustCompile(t, `^\d+$`)),
		"msg_pattern": RegexValue(mustCompile(t, `(?i)free`)),
		"action":      ModActionValue(msg.ModAction{Kind: msg.ActionBan}),
	})
	require.NoError(t, err)

	event := &msg.ChatEvent{Text: "not a match", User: &msg.User{Name: "x", ID: "12345"}}
	result, err := rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, result.Kind)

	event.Text = "FREE stuff here"
	result, err = rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultFiltered, result.Kind)
}

func mustCompile(t *testing.T, pattern string) *regexp.Regexp {
	t.Helper()
	re, err := compileRegex(pattern)
	require.NoError(t, err)
	return re
}
