package engine

import (
	"context"
	"fmt"

	"github.com/Laisky/zap"

	"github.com/kelpbot/engine/common/logger"
	"github.com/kelpbot/engine/msg"
)

// HandleStreamEvent handles stream lifecycle notifications. Started/Stopped events are
// deduplicated through the cache (a platform poller may report the same
// live stream id repeatedly) before they trigger the Stream rule's
// announcement; DetectStart/DetectStop are broadcast immediately as a
// StreamSignal with no further processing.
func (e *Engine) HandleStreamEvent(ctx context.Context, platform msg.Platform, channel string, ev msg.StreamEvent) []Outbound {
	switch ev.Kind {
	case msg.StreamDetectStart, msg.StreamDetectStop:
		return []Outbound{{
			Location: msg.Broadcast,
			Response: msg.Response{
				Platform: platform,
				Channel:  channel,
				Payload:  msg.Payload{Kind: msg.PayloadStreamSignal, Data: ev},
			},
		}}

	case msg.StreamStarted:
		if err := e.setStreamURL(ctx, channel, platform, ev.URL); err != nil {
			logger.Logger.Warn("failed to record stream url", zap.Error(err))
		}
		changed, err := e.streamIDChanged(ctx, channel, platform, ev.ID)
		if err != nil {
			logger.Logger.Warn("failed to check stream id", zap.Error(err))
			return nil
		}
		if !changed {
			return nil
		}
		return e.HandleInvocation(ctx, &msg.Invocation{
			Platform: platform,
			Command:  "@stream_event",
			Kind:     msg.KindStreamEvent,
			Stream:   &ev,
		}, msg.Broadcast)

	case msg.StreamStopped:
		return e.HandleInvocation(ctx, &msg.Invocation{
			Platform: platform,
			Command:  "@stream_event",
			Kind:     msg.KindStreamEvent,
			Stream:   &ev,
		}, msg.Broadcast)
	}
	return nil
}

func (e *Engine) setStreamURL(ctx context.Context, channel string, platform msg.Platform, url string) error {
	_, err := e.rc.Cache.Set(ctx, streamURLKey(channel, platform), url, 0, false)
	return err
}

// streamIDChanged atomically swaps in the new stream id and reports
// whether it differs from whatever (if anything) was stored before, so a
// repeated poll of the same live stream doesn't re-fire the announcement.
func (e *Engine) streamIDChanged(ctx context.Context, channel string, platform msg.Platform, id string) (bool, error) {
	prev, err := e.rc.Cache.SetGet(ctx, streamIDKey(channel, platform), id, 0)
	if err != nil {
		return false, err
	}
	return prev != id, nil
}

func streamURLKey(channel string, platform msg.Platform) string {
	return fmt.Sprintf("streamurl_%s_%s", channel, platform)
}

func streamIDKey(channel string, platform msg.Platform) string {
	return fmt.Sprintf("streamid_%s_%s", channel, platform)
}
