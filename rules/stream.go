package rules

import (
	"context"
	"fmt"

	"github.com/kelpbot/engine/msg"
)

// StreamSchema describes the "stream" rule: announces stream start/stop
// lifecycle events to the configured platforms.
func StreamSchema() Schema {
	return Schema{
		Kind:        "stream",
		Description: "announces stream start/stop events",
		Fields: []Field{
			{Name: "start_template", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: "stream is live: %s"},
				Description: "template for the start announcement; %s is the stream URL"},
			{Name: "stop_template", Kind: KindStr, Required: false,
				Default:     &Value{Kind: KindStr, Str: "stream has ended"},
				Description: "template for the stop announcement"},
			{Name: "announce_platforms", Kind: KindPlatforms, Required: false,
				Default:     &Value{Kind: KindPlatforms, Platforms: msg.Announce},
				Description: "platforms the announcement is broadcast to"},
		},
	}
}

type streamRule struct {
	startTemplate, stopTemplate string
	announce                    msg.Platform
}

func newStreamRule(values map[string]Value) (Rule, error) {
	s := &streamRule{
		startTemplate: "stream is live: %s",
		stopTemplate:  "stream has ended",
		announce:      msg.Announce,
	}
	if v, ok := values["start_template"]; ok {
		s.startTemplate = v.Str
	}
	if v, ok := values["stop_template"]; ok {
		s.stopTemplate = v.Str
	}
	if v, ok := values["announce_platforms"]; ok {
		s.announce = v.Platforms
	}
	return s, nil
}

func (s *streamRule) RunInvocation(_ context.Context, _ *Context, inv *msg.Invocation) (RunResult, error) {
	if inv.Kind != msg.KindStreamEvent || inv.Stream == nil {
		return Noop(), nil
	}

	var text string
	switch inv.Stream.Kind {
	case msg.StreamStarted:
		text = fmt.Sprintf(s.startTemplate, inv.Stream.URL)
	case msg.StreamStopped:
		text = s.stopTemplate
	default:
		return Noop(), nil
	}

	var responses []msg.Response
	for _, p := range []msg.Platform{msg.YouTube, msg.Twitch, msg.Discord, msg.Web} {
		if s.announce.Has(p) {
			responses = append(responses, msg.Response{
				Platform: p,
				Payload:  msg.Payload{Kind: msg.PayloadStreamAnnounce, Data: msg.MessagePayload{Text: text}},
			})
		}
	}
	return Ok(responses...), nil
}

func (s *streamRule) RunChat(context.Context, *Context, *msg.ChatEvent) (RunResult, error) {
	return Noop(), nil
}

func init() {
	registerBuiltin(StreamSchema(), newStreamRule)
}
