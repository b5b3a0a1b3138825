package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
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

func TestGiveRuleTransfersPoints(t *testing.T) {
	actor := setupTestActor(t)
	ctx := context.Background()

	_, err := actor.UpsertPoints(ctx, model.PlatformDiscord, "alice", "alice", 100)
	require.NoError(t, err)
	_, err = actor.UpsertPoints(ctx, model.PlatformDiscord, "bob", "bob", 0)
	require.NoError(t, err)

	rule, err := newGiveRule(map[string]Value{"min": I64Value(1), "max": I64Value(0)})
	require.NoError(t, err)

	inv := &msg.Invocation{
		Platform: msg.Discord,
		User:     &msg.User{ID: "alice", Name: "alice"},
		Args:     map[string]string{"to": "bob", "amount": "30"},
	}
	result, err := rule.RunInvocation(ctx, &Context{DB: actor}, inv)
	require.NoError(t, err)
	assert.Equal(t, ResultOk, result.Kind)

	triple, err := actor.GetPoints(ctx, model.PlatformDiscord, "bob")
	require.NoError(t, err)
	require.NotNil(t, triple.Guild)
	assert.EqualValues(t, 30, *triple.Guild)
}

func TestGiveRuleInvalidArgs(t *testing.T) {
	rule, err := newGiveRule(nil)
	require.NoError(t, err)

	result, err := rule.RunInvocation(context.Background(), &Context{}, &msg.Invocation{
		User: &msg.User{ID: "alice"},
		Args: map[string]string{},
	})
	require.NoError(t, err)
	assert.Equal(t, ResultInvalidArgs, result.Kind)
}

func TestGiveRuleParsesChatText(t *testing.T) {
	actor := setupTestActor(t)
	ctx := context.Background()

	_, err := actor.UpsertPoints(ctx, model.PlatformDiscord, "alice", "alice", 500)
	require.NoError(t, err)
	_, err = actor.UpsertPoints(ctx, model.PlatformDiscord, "bob", "bob", 0)
	require.NoError(t, err)

	rule, err := newGiveRule(map[string]Value{
		"min":    I64Value(10),
		"max":    I64Value(10000),
		"prefix": StrValue("!give"),
	})
	require.NoError(t, err)

	event := &msg.ChatEvent{
		Platform: msg.Discord,
		User:     &msg.User{ID: "alice", Name: "alice"},
		Text:     "!give bob 50",
	}
	result, err := rule.RunChat(ctx, &Context{DB: actor}, event)
	require.NoError(t, err)
	require.Equal(t, ResultOk, result.Kind)
	require.NotNil(t, result.Location)
	assert.Equal(t, msg.Broadcast, *result.Location)
	require.Len(t, result.Responses, 1)
	payload := result.Responses[0].Payload.Data.(msg.MessagePayload)
	assert.Equal(t, "gave bob 50 points", payload.Text)

	triple, err := actor.GetPoints(ctx, model.PlatformDiscord, "bob")
	require.NoError(t, err)
	require.NotNil(t, triple.Guild)
	assert.EqualValues(t, 50, *triple.Guild)
}

func TestGiveRuleChatIgnoresSelfGive(t *testing.T) {
	rule, err := newGiveRule(nil)
	require.NoError(t, err)

	event := &msg.ChatEvent{
		Platform: msg.Discord,
		User:     &msg.User{ID: "alice", Name: "alice"},
		Text:     "!give alice 50",
	}
	result, err := rule.RunChat(context.Background(), &Context{}, event)
	require.NoError(t, err)
	assert.Equal(t, ResultNoop, result.Kind)
}
