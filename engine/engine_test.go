package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/lock"
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
	"github.com/kelpbot/engine/rules"
)

func setupTestActor(t *testing.T) *model.Actor {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Points{}, &model.Link{}, &model.Hours{}, &model.ModActionRecord{}))
	actor := model.NewActor(db)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go actor.Run(ctx)
	return actor
}

func newTestEngine(t *testing.T) *Engine {
	actor := setupTestActor(t)
	store := cache.NewInMemory()
	locks := lock.New(store)

	registry := rules.NewRegistryWithBuiltins()
	require.NoError(t, registry.Install("bad-words", "filter", msg.Chat, msg.PermNone, map[string]rules.Value{
		"msg_contains": rules.StrValue("spam"),
		"action":       rules.ModActionValue(msg.ModAction{Kind: msg.ActionTimeout, Seconds: 60}),
	}))
	require.NoError(t, registry.Install("points", "points", msg.Chat, msg.PermNone, map[string]rules.Value{
		"template": rules.StrValue("%s has %d points"),
	}))

	return New("testchannel", registry, actor, store, locks, nil)
}

func TestHandleChatFiltersMessageAndPersistsModAction(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	event := &msg.ChatEvent{
		Platform: msg.Discord,
		User:     &msg.User{ID: "u1", Name: "troll", Permission: msg.PermNone},
		Text:     "buy my SPAM now",
		Meta:     msg.DiscordMeta{ChannelID: "c1"},
	}

	out := e.HandleChat(ctx, event, msg.Pubsub)
	require.Len(t, out, 1)
	assert.Equal(t, msg.LocationBroadcast, out[0].Location.Kind)
	assert.Equal(t, msg.PayloadModAction, out[0].Response.Payload.Kind)

	payload, ok := out[0].Response.Payload.Data.(msg.ModActionPayload)
	require.True(t, ok)
	assert.Equal(t, msg.ActionTimeout, payload.Action.Kind)
	assert.Equal(t, "bad-words", payload.Reason)

	records, err := e.DumpModActions(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, "bad-words", records[0].Reason)
}

func TestHandleChatForwardsCleanMessage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	event := &msg.ChatEvent{
		Platform: msg.Discord,
		User:     &msg.User{ID: "u2", Name: "regular", Permission: msg.PermMember},
		Text:     "hello there",
		Meta:     msg.DiscordMeta{ChannelID: "c1"},
	}

	out := e.HandleChat(ctx, event, msg.Pubsub)
	require.NotEmpty(t, out)
	last := out[len(out)-1]
	assert.Equal(t, msg.PayloadChat, last.Response.Payload.Kind)
}

func TestHandleInvocationDispatchesByCommandName(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.rc.DB.UpsertPoints(ctx, model.PlatformDiscord, "u3", "regular", 42)
	require.NoError(t, err)

	inv := &msg.Invocation{
		Platform: msg.Discord,
		User:     &msg.User{ID: "u3", Name: "regular", Permission: msg.PermMember},
		Command:  "points",
		Kind:     msg.KindInvoke,
	}
	out := e.HandleInvocation(ctx, inv, msg.Pubsub)
	require.Len(t, out, 1)
	assert.Equal(t, msg.LocationPubsub, out[0].Location.Kind)
	assert.Equal(t, msg.PayloadMessage, out[0].Response.Payload.Kind)
}

func TestHandleInvocationSkipsUnmatchedCommandName(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	inv := &msg.Invocation{
		Platform: msg.Discord,
		User:     &msg.User{ID: "u4", Name: "regular", Permission: msg.PermMember},
		Command:  "not-a-real-command",
		Kind:     msg.KindInvoke,
	}
	out := e.HandleInvocation(ctx, inv, msg.Pubsub)
	assert.Empty(t, out)
}
