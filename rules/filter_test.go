package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/msg"
)

func TestFilterRuleUserContainsTrips(t *testing.T) {
	rule, err := newFilterRule(map[string]Value{
		"user_contains": StrValue("spam"),
		"action":        ModActionValue(msg.ModAction{Kind: msg.ActionRemove}),
	})
	require.NoError(t, err)

	event := &msg.ChatEvent{Text: "hi", User: &msg.User{Name: "SpAmBot", ID: "1"}}
	result, err := rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultFiltered, result.Kind)
	assert.Equal(t, msg.ActionRemove, result.Action.Kind)
}

func TestFilterRuleRequiresEveryConfiguredField(t *testing.T) {
	rule, err := newFilterRule(map[string]Value{
		"user_contains": StrValue("spam"),
		"msg_contains":  StrValue("buy now"),
		"action":        ModActionValue(msg.ModAction{Kind: msg.ActionRemove}),
	})
	require.NoError(t, err)

	// Only the username matches; msg_contains doesn't, so the AND fails.
	event := &msg.ChatEvent{Text: "hello there", User: &msg.User{Name: "SpAmBot", ID: "1"}}
	result, err := rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, result.Kind)

	// Both match.
	event.Text = "BUY NOW"
	result, err = rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultFiltered, result.Kind)
}

func TestFilterRuleWithNoFieldsConfiguredNeverTrips(t *testing.T) {
	rule, err := newFilterRule(map[string]Value{
		"action": ModActionValue(msg.ModAction{Kind: msg.ActionRemove}),
	})
	require.NoError(t, err)

	event := &msg.ChatEvent{Text: "anything at all", User: &msg.User{Name: "whoever", ID: "1"}}
	result, err := rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, result.Kind)
}

func TestLevenshteinFilterTripsOnConsecutiveSimilarMessages(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store, Locks: lock.New(store)}

	rule, err := newLevenshteinFilterRule(map[string]Value{
		"min_dist":   I64Value(2),
		"min_times":  I64Value(2),
		"burst_rate": I64Value(60),
		"action":     ModActionValue(msg.ModAction{Kind: msg.ActionWarn}),
	})
	require.NoError(t, err)

	user := &msg.User{ID: "alice", Name: "alice"}
	texts := []string{"aaaa", "aaab", "aaac", "aaad"}
	var last RunResult
	for _, text := range texts {
		last, err = rule.RunChat(context.Background(), rc, &msg.ChatEvent{User: user, Text: text})
		require.NoError(t, err)
	}
	assert.Equal(t, ResultFiltered, last.Kind)
	assert.Equal(t, msg.ActionWarn, last.Action.Kind)
}

func TestLevenshteinFilterResetsOnDissimilarMessage(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store, Locks: lock.New(store)}

	rule, err := newLevenshteinFilterRule(map[string]Value{
		"min_dist":   I64Value(2),
		"min_times":  I64Value(2),
		"burst_rate": I64Value(60),
		"action":     ModActionValue(msg.ModAction{Kind: msg.ActionWarn}),
	})
	require.NoError(t, err)

	user := &msg.User{ID: "bob", Name: "bob"}
	texts := []string{"aaaa", "aaab", "completely different message", "aaad"}
	var last RunResult
	for _, text := range texts {
		last, err = rule.RunChat(context.Background(), rc, &msg.ChatEvent{User: user, Text: text})
		require.NoError(t, err)
	}
	assert.Equal(t, ResultNoop, last.Kind)
}
