package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelpbot/engine/cache"
)

func TestAuthenticatorListUsers(t *testing.T) {
	auth := NewAuthenticator(cache.NewInMemory(), UserDirectory{
		"alice": {DiscordID: "d1", CodeTTL: time.Minute},
	}, nil)

	resp, err := auth.Handle(context.Background(), "1.2.3.4", AuthMsg{Kind: AuthListUsers})
	require.NoError(t, err)
	assert.Equal(t, AuthRespUsers, resp.Kind)
	assert.Equal(t, []string{"alice"}, resp.Users)
}

func TestAuthenticatorFullLoginFlow(t *testing.T) {
	var pinged string
	auth := NewAuthenticator(cache.NewInMemory(), UserDirectory{
		"alice": {DiscordID: "d1", CodeTTL: time.Minute},
	}, func(_ context.Context, discordID, code string) {
		pinged = discordID + ":" + code
	})
	ctx := context.Background()

	resp, err := auth.Handle(ctx, "1.2.3.4", AuthMsg{Kind: AuthRequestCode, User: "alice"})
	require.NoError(t, err)
	assert.Equal(t, AuthRespCodeReady, resp.Kind)
	require.NotEmpty(t, pinged)

	code := pinged[len("d1:"):]

	resp, err = auth.Handle(ctx, "1.2.3.4", AuthMsg{Kind: AuthLogin, User: "alice", Code: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, AuthRespFail, resp.Kind)

	resp, err = auth.Handle(ctx, "1.2.3.4", AuthMsg{Kind: AuthLogin, User: "alice", Code: code})
	require.NoError(t, err)
	assert.Equal(t, AuthRespSuccess, resp.Kind)
	assert.Equal(t, "alice", resp.User)
}

func TestAuthenticatorUnknownUser(t *testing.T) {
	auth := NewAuthenticator(cache.NewInMemory(), UserDirectory{}, nil)
	resp, err := auth.Handle(context.Background(), "1.2.3.4", AuthMsg{Kind: AuthRequestCode, User: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, AuthRespInvalidUser, resp.Kind)
}

func TestAuthenticatorRatelimitsRepeatedAttempts(t *testing.T) {
	auth := NewAuthenticator(cache.NewInMemory(), UserDirectory{}, nil)
	ctx := context.Background()

	var last AuthResp
	for i := 0; i < maxAuthAttempts+2; i++ {
		resp, err := auth.Handle(ctx, "9.9.9.9", AuthMsg{Kind: AuthListUsers})
		require.NoError(t, err)
		last = resp
	}
	assert.Equal(t, AuthRespRatelimited, last.Kind)
}
