package rules

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"

	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// HoursSchema describes the "hours" command: reports accumulated
// watchtime and, via RunChat, accumulates it on every message seen.
func HoursSchema() Schema {
	return Schema{
		Kind:        "hours",
		Description: "accumulates and reports per-user watchtime",
		Fields: []Field{
			{Name: "max_gap_seconds", Kind: KindI64, Required: false,
				Default:     &Value{Kind: KindI64, I64: 900},
				Constraint:  Constraint{Kind: ConstraintRange, Min: 0, Max: 86400},
				Description: "gaps between messages longer than this are not counted as watchtime"},
		},
	}
}

type hoursRule struct {
	maxGap int64
}

func newHoursRule(values map[string]Value) (Rule, error) {
	gap := int64(900)
	if v, ok := values["max_gap_seconds"]; ok {
		gap = v.I64
	}
	return &hoursRule{maxGap: gap}, nil
}

func (h *hoursRule) op(platform msg.Platform, userID string) model.HoursOp {
	return model.HoursOp{Platform: toModelPlatform(platform), UserID: userID, MaxGap: h.maxGap}
}

func (h *hoursRule) RunInvocation(ctx context.Context, rc *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindInvoke {
		return Noop(), nil
	}
	watchtime, err := rc.DB.Hours(ctx, h.op(inv.Platform, inv.User.ID))
	if err != nil {
		return RunResult{}, errors.Wrap(err, "fetch hours")
	}
	text := fmt.Sprintf("%s has watched for %s", inv.User.Name, formatDuration(watchtime))
	return Ok(replyResponse(inv.Platform, inv.User, text, inv.Meta)), nil
}

func (h *hoursRule) RunChat(ctx context.Context, rc *Context, event *msg.ChatEvent) (RunResult, error) {
	if _, err := rc.DB.Hours(ctx, h.op(event.Platform, event.User.ID)); err != nil {
		return RunResult{}, errors.Wrap(err, "accumulate hours")
	}
	return Noop(), nil
}

func formatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

func init() {
	registerBuiltin(HoursSchema(), newHoursRule)
}
