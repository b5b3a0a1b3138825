package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

func TestPointsRuleAccumulatesOnChat(t *testing.T) {
	actor := setupTestActor(t)
	store := cache.NewInMemory()
	rc := &Context{DB: actor, Cache: store, Locks: lock.New(store)}

	rule, err := newPointsRule(map[string]Value{
		"points_per_chat": I64Value(5),
		"update_rate":     I64Value(0),
	})
	require.NoError(t, err)

	event := &msg.ChatEvent{Platform: msg.Discord, User: &msg.User{ID: "alice", Name: "alice"}, Text: "hi"}
	result, err := rule.RunChat(context.Background(), rc, event)
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, result.Kind)

	triple, err := actor.GetPoints(context.Background(), model.PlatformDiscord, "alice")
	require.NoError(t, err)
	require.NotNil(t, triple.Guild)
	assert.EqualValues(t, 5, *triple.Guild)
}

func TestPointsRuleRateLimitsAccumulation(t *testing.T) {
	actor := setupTestActor(t)
	store := cache.NewInMemory()
	rc := &Context{DB: actor, Cache: store, Locks: lock.New(store)}

	rule, err := newPointsRule(map[string]Value{
		"points_per_chat": I64Value(5),
		"update_rate":     I64Value(60),
	})
	require.NoError(t, err)

	event := &msg.ChatEvent{Platform: msg.Discord, User: &msg.User{ID: "bob", Name: "bob"}, Text: "hi"}
	_, err = rule.RunChat(context.Background(), rc, event)
	require.NoError(t, err)
	result, err := rule.RunChat(context.Background(), rc, event)
	require.NoError(t, err)
	assert.Equal(t, ResultRatelimited, result.Kind)

	triple, err := actor.GetPoints(context.Background(), model.PlatformDiscord, "bob")
	require.NoError(t, err)
	require.NotNil(t, triple.Guild)
	assert.EqualValues(t, 5, *triple.Guild)
}
