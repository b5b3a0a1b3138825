package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/msg"
)

func TestLogRuleRoundTripsThroughCache(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store}

	rule, err := newLogRule(map[string]Value{
		"platforms": PlatformsValue(msg.Discord),
	})
	require.NoError(t, err)
	lr := rule.(*logRule)

	_, err = lr.RunChat(context.Background(), rc, &msg.ChatEvent{
		Platform: msg.Discord,
		User:     &msg.User{Name: "alice"},
		Text:     "hello",
	})
	require.NoError(t, err)

	entries, err := lr.Dump(context.Background(), rc, msg.Discord)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].User)
	assert.Equal(t, "hello", entries[0].Text)
}

func TestLogRuleIgnoresUnretainedPlatform(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store}

	rule, err := newLogRule(map[string]Value{
		"platforms": PlatformsValue(msg.Discord),
	})
	require.NoError(t, err)
	lr := rule.(*logRule)

	_, err = lr.RunChat(context.Background(), rc, &msg.ChatEvent{Platform: msg.Twitch, Text: "ignored"})
	require.NoError(t, err)

	entries, err := lr.Dump(context.Background(), rc, msg.Chat)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogRuleSweepEvictsExpiredEntries(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store}

	rule, err := newLogRule(map[string]Value{
		"platforms": PlatformsValue(msg.Discord),
		"keep_for":  I64Value(10),
	})
	require.NoError(t, err)
	lr := rule.(*logRule)
	lr.keepFor = 0

	_, err = lr.RunChat(context.Background(), rc, &msg.ChatEvent{Platform: msg.Discord, Text: "stale"})
	require.NoError(t, err)

	require.NoError(t, lr.Sweep(context.Background(), rc))

	entries, err := lr.Dump(context.Background(), rc, msg.Discord)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
