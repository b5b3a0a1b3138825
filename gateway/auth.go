// Package gateway implements the authenticated WebSocket session layer:
// origin-checked upgrades, a code-based login handshake, a heartbeat
// protocol, and the session fan-out table command responses are
// delivered through.
package gateway

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/cache"
	"github.com/kelpbot/engine/common/config"
	"github.com/kelpbot/engine/common/random"
)

// UserDirectory maps an operator username to the Discord id a login code
// is delivered to, and the TTL that code stays valid for.
type UserDirectory map[string]UserEntry

type UserEntry struct {
	DiscordID     string
	CodeTTL       time.Duration
}

// AuthMsgKind tags the inbound auth handshake messages a session can send
// before it is authenticated.
type AuthMsgKind int

const (
	AuthListUsers AuthMsgKind = iota
	AuthRequestCode
	AuthLogin
)

type AuthMsg struct {
	Kind AuthMsgKind
	User string
	Code string
}

// AuthRespKind tags the handshake's possible responses.
type AuthRespKind int

const (
	AuthRespUsers AuthRespKind = iota
	AuthRespInvalidUser
	AuthRespCodeReady
	AuthRespCodeExpired
	AuthRespSuccess
	AuthRespFail
	AuthRespRatelimited
	AuthRespServerError
)

type AuthResp struct {
	Kind  AuthRespKind
	Users []string
	User  string
}

var (
	maxAuthAttempts     = config.AuthRateLimitMax
	authRateLimitWindow = time.Duration(config.AuthRateLimitWindowSeconds) * time.Second
)

// Authenticator runs the ListUsers/RequestCode/Login handshake a session
// must complete before it is admitted to the fan-out table. Every call is
// rate-limited per peer IP, mirroring the original's ratelimit-then-route
// handler.
type Authenticator struct {
	store     cache.Store
	directory UserDirectory
	ping      func(ctx context.Context, discordID, code string)
}

func NewAuthenticator(store cache.Store, directory UserDirectory, ping func(ctx context.Context, discordID, code string)) *Authenticator {
	return &Authenticator{store: store, directory: directory, ping: ping}
}

func rateLimitKey(peerIP string) string { return "gateway_login_rl_" + peerIP }
func codeKey(user string) string        { return "gateway_login_code_" + user }

// Handle processes one handshake message from peerIP and returns the
// response to send back. A nil error with AuthRespSuccess means the
// session is now authenticated as resp.User.
func (a *Authenticator) Handle(ctx context.Context, peerIP string, in AuthMsg) (AuthResp, error) {
	count, err := a.store.Incr(ctx, rateLimitKey(peerIP), 1, authRateLimitWindow)
	if err != nil {
		return AuthResp{}, errors.Wrap(err, "check auth ratelimit")
	}
	if count > int64(maxAuthAttempts) {
		return AuthResp{Kind: AuthRespRatelimited}, nil
	}

	switch in.Kind {
	case AuthListUsers:
		names := make([]string, 0, len(a.directory))
		for name := range a.directory {
			names = append(names, name)
		}
		return AuthResp{Kind: AuthRespUsers, Users: names}, nil

	case AuthRequestCode:
		entry, ok := a.directory[in.User]
		if !ok {
			return AuthResp{Kind: AuthRespInvalidUser}, nil
		}
		code := random.GetLoginCode()
		if err := a.store.Set(ctx, codeKey(in.User), code, entry.CodeTTL, false); err != nil {
			return AuthResp{Kind: AuthRespServerError}, nil
		}
		if a.ping != nil {
			a.ping(ctx, entry.DiscordID, code)
		}
		return AuthResp{Kind: AuthRespCodeReady}, nil

	case AuthLogin:
		if _, ok := a.directory[in.User]; !ok {
			return AuthResp{Kind: AuthRespFail}, nil
		}
		stored, err := a.store.Get(ctx, codeKey(in.User))
		if err != nil {
			// No code on file reads the same as an expired one: either
			// none was ever requested or it has already timed out.
			return AuthResp{Kind: AuthRespCodeExpired}, nil
		}
		if stored != in.Code {
			if count == int64(maxAuthAttempts) {
				return AuthResp{Kind: AuthRespRatelimited}, nil
			}
			return AuthResp{Kind: AuthRespFail}, nil
		}

		_ = a.store.Del(ctx, rateLimitKey(peerIP))
		return AuthResp{Kind: AuthRespSuccess, User: in.User}, nil

	default:
		return AuthResp{Kind: AuthRespFail}, nil
	}
}
