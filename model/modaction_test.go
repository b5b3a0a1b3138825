package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndDumpModActions(t *testing.T) {
	db := setupTestDB(t)
	a := NewActor(db)
	startActor(t, a)

	require.NoError(t, a.AppendModAction(context.Background(), PlatformTwitch, "alice", "Alice", "timeout", "spam"))
	require.NoError(t, a.AppendModAction(context.Background(), PlatformTwitch, "bob", "", "ban", "abuse"))
	require.NoError(t, a.AppendModAction(context.Background(), PlatformDiscord, "carol", "Carol", "warn", "language"))

	dump, err := a.DumpModActions(context.Background())
	require.NoError(t, err)
	require.Len(t, dump, 2)

	var twitch ModActionDump
	for _, d := range dump {
		if d.Platform == PlatformTwitch {
			twitch = d
		}
	}
	require.Len(t, twitch.Actions, 2)
	require.NotNil(t, twitch.Actions[0].DisplayName)
	require.Equal(t, "Alice", *twitch.Actions[0].DisplayName)
	require.Nil(t, twitch.Actions[1].DisplayName)
}
