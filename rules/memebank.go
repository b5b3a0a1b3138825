package rules

import (
	"context"
	"math/rand/v2"

	"github.com/kelpbot/engine/msg"
)

// MemeBankSchema describes the "meme_bank" command: returns a random entry
// from a curated list of meme text/image URLs. Entries carry no tags, and
// no filtering is applied to the pick.
func MemeBankSchema() Schema {
	return Schema{
		Kind:        "meme_bank",
		Description: "returns a random entry from a curated meme list",
		Fields: []Field{
			{Name: "entries", Kind: KindStrList, Required: true,
				Constraint:  Constraint{Kind: ConstraintNonEmpty},
				Description: "meme text/URL entries to choose from"},
		},
	}
}

type memeBankRule struct {
	entries []string
}

func newMemeBankRule(values map[string]Value) (Rule, error) {
	return &memeBankRule{entries: values["entries"].StrList}, nil
}

func (m *memeBankRule) RunInvocation(_ context.Context, _ *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	if len(m.entries) == 0 {
		return InvalidArgs(), nil
	}
	pick := m.entries[rand.IntN(len(m.entries))]
	return Ok(replyResponse(inv.Platform, inv.User, pick, inv.Meta)), nil
}

func (m *memeBankRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(MemeBankSchema(), newMemeBankRule)
}
