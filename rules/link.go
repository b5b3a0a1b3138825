package rules

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/common/random"
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// LinkSchema describes the "link" command: issues a short-lived code on
// the secondary platform that, when entered on Discord, associates the
// two identities.
func LinkSchema() Schema {
	return Schema{
		Kind:        "link",
		Description: "links a secondary-platform identity to a Discord account via a one-time code",
		Fields: []Field{
			{Name: "code_ttl_seconds", Kind: KindI64, Required: false,
				Default: &Value{Kind: KindI64, I64: 300},
				Description: "how long an issued code stays valid"},
		},
	}
}

type linkCode struct {
	platform   msg.Platform
	userID     string
	issuedAt   time.Time
}

type linkRule struct {
	ttl   time.Duration
	mu    sync.Mutex
	codes map[string]linkCode
}

func newLinkRule(values map[string]Value) (Rule, error) {
	ttl := 300 * time.Second
	if v, ok := values["code_ttl_seconds"]; ok {
		ttl = time.Duration(v.I64) * time.Second
	}
	return &linkRule{ttl: ttl, codes: make(map[string]linkCode)}, nil
}

// RunInvocation issues a code when invoked from a non-Discord platform,
// and consumes a code to complete the link when invoked from Discord with
// a "code" argument.
func (l *linkRule) RunInvocation(ctx context.Context, rc *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	if inv.Platform == msg.Discord {
		code, ok := inv.Args["code"]
		if !ok || code == "" {
			return InvalidArgs(), nil
		}
		l.mu.Lock()
		pending, ok := l.codes[code]
		delete(l.codes, code)
		l.mu.Unlock()
		if !ok {
			return RunResult{}, errors.Wrap(model.ErrInvalidCode, "consume link code")
		}
		if time.Since(pending.issuedAt) > l.ttl {
			return RunResult{}, errors.Wrap(model.ErrCodeExpired, "consume link code")
		}

		op := model.LinkOp{
			Platform:    toModelPlatform(pending.platform),
			PrimaryID:   inv.User.ID,
			SecondaryID: pending.userID,
		}
		if err := rc.DB.Link(ctx, op); err != nil {
			return RunResult{}, errors.Wrap(err, "link identities")
		}
		text := fmt.Sprintf("linked your %s account", pending.platform)
		return Ok(replyResponse(inv.Platform, inv.User, text, inv.Meta)), nil
	}

	code := random.GetLinkCode()
	l.mu.Lock()
	l.codes[code] = linkCode{platform: inv.Platform, userID: inv.User.ID, issuedAt: time.Now()}
	l.mu.Unlock()
	text := fmt.Sprintf("reply on Discord with /link code:%s to finish linking", code)
	return Ok(replyResponse(inv.Platform, inv.User, text, inv.Meta)), nil
}

func (l *linkRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(LinkSchema(), newLinkRule)
}
