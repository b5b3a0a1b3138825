package rules

import (
	"context"

	"github.com/kelpbot/engine/msg"
)

// ReactionRoleSchema describes the "reaction_role" rule: toggles a Discord
// role when a user reacts to a configured message with a configured
// emoji.
func ReactionRoleSchema() Schema {
	return Schema{
		Kind:        "reaction_role",
		Description: "toggles a Discord role on reaction to a configured message",
		Fields: []Field{
			{Name: "message_id", Kind: KindStr, Required: true,
				Constraint: Constraint{Kind: ConstraintNonEmpty}},
			{Name: "emoji", Kind: KindStr, Required: true,
				Constraint: Constraint{Kind: ConstraintNonEmpty}},
			{Name: "role_id", Kind: KindStr, Required: true,
				Constraint: Constraint{Kind: ConstraintNonEmpty}},
		},
	}
}

type reactionRoleRule struct {
	messageID, emoji, roleID string
}

func newReactionRoleRule(values map[string]Value) (Rule, error) {
	return &reactionRoleRule{
		messageID: values["message_id"].Str,
		emoji:     values["emoji"].Str,
		roleID:    values["role_id"].Str,
	}, nil
}

func (r *reactionRoleRule) RunInvocation(_ context.Context, _ *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindReaction || inv.ReactionMsgID != r.messageID || inv.ReactionEmoji != r.emoji {
		return Noop(), nil
	}
	response := msg.Response{
		Platform: msg.Discord,
		Payload: msg.Payload{
			Kind: msg.PayloadDiscordAction,
			Data: map[string]string{"action": "toggle_role", "user_id": inv.User.ID, "role_id": r.roleID},
		},
	}
	return Ok(response), nil
}

func (r *reactionRoleRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(ReactionRoleSchema(), newReactionRoleRule)
}
