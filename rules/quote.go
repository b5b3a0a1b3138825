package rules

import (
	"context"
	"sync"

	"github.com/kelpbot/engine/msg"
)

// QuoteSchema describes the "quote" command: an operator-curated list of
// canned lines, looked up by index or, when no index is given, returned in
// rotation (each such call takes the next line in list order).
func QuoteSchema() Schema {
	return Schema{
		Kind:        "quote",
		Description: "returns a curated quote by index, or the next one in rotation",
		Fields: []Field{
			{Name: "quotes", Kind: KindStrList, Required: true,
				Constraint:  Constraint{Kind: ConstraintNonEmpty},
				Description: "the curated quote list"},
		},
	}
}

type quoteRule struct {
	mu     sync.Mutex
	quotes []string
	cursor int
}

func newQuoteRule(values map[string]Value) (Rule, error) {
	return &quoteRule{quotes: values["quotes"].StrList}, nil
}

func (q *quoteRule) RunInvocation(_ context.Context, _ *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	if len(q.quotes) == 0 {
		return InvalidArgs(), nil
	}

	if raw, ok := inv.Args["index"]; ok {
		n, err := parseInt(raw)
		if err != nil || n < 0 || int(n) >= len(q.quotes) {
			return InvalidArgs(), nil
		}
		return Ok(replyResponse(inv.Platform, inv.User, q.quotes[n], inv.Meta)), nil
	}

	q.mu.Lock()
	text := q.quotes[q.cursor%len(q.quotes)]
	q.cursor++
	q.mu.Unlock()
	return Ok(replyResponse(inv.Platform, inv.User, text, inv.Meta)), nil
}

func (q *quoteRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(QuoteSchema(), newQuoteRule)
}
