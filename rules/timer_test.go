package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/msg"
)

func TestTimerSkipsFiringBelowMsgCount(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store}

	rule, err := newTimerRule(map[string]Value{
		"interval_seconds": I64Value(10),
		"msg_count":        I64Value(3),
		"messages":         StrListValue([]string{"hello"}),
	})
	require.NoError(t, err)
	tr := rule.(*timerRule)

	now := time.Now()
	_, err = tr.RunChat(context.Background(), rc, &msg.ChatEvent{Platform: msg.Discord})
	require.NoError(t, err)
	_, err = tr.RunChat(context.Background(), rc, &msg.ChatEvent{Platform: msg.Discord})
	require.NoError(t, err)

	assert.Empty(t, tr.Fire(context.Background(), rc, now))
}

func TestTimerFiresOnceMsgCountReached(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store}

	rule, err := newTimerRule(map[string]Value{
		"interval_seconds": I64Value(10),
		"msg_count":        I64Value(2),
		"messages":         StrListValue([]string{"hello"}),
		"platforms":        PlatformsValue(msg.Discord),
	})
	require.NoError(t, err)
	tr := rule.(*timerRule)

	now := time.Now()
	_, _ = tr.RunChat(context.Background(), rc, &msg.ChatEvent{Platform: msg.Discord})
	_, _ = tr.RunChat(context.Background(), rc, &msg.ChatEvent{Platform: msg.Discord})

	responses := tr.Fire(context.Background(), rc, now)
	require.Len(t, responses, 1)
	assert.Equal(t, "hello", responses[0].Payload.Data.(msg.MessagePayload).Text)
}

func TestTimerWithZeroMsgCountAlwaysFires(t *testing.T) {
	store := cache.NewInMemory()
	rc := &Context{Cache: store}

	rule, err := newTimerRule(map[string]Value{
		"interval_seconds": I64Value(10),
		"msg_count":        I64Value(0),
		"messages":         StrListValue([]string{"hi"}),
		"platforms":        PlatformsValue(msg.Discord),
	})
	require.NoError(t, err)
	tr := rule.(*timerRule)

	assert.NotEmpty(t, tr.Fire(context.Background(), rc, time.Now()))
}
