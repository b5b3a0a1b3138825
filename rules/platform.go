package rules

import (
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// toModelPlatform converts the engine-facing platform bitset to the
// model package's independent (narrower) platform tag. The two enums
// share bit values by construction; this keeps that fact in one place
// instead of relying on callers to cast correctly.
func toModelPlatform(p msg.Platform) model.Platform {
	switch p {
	case msg.YouTube:
		return model.PlatformYouTube
	case msg.Twitch:
		return model.PlatformTwitch
	case msg.Web:
		return model.PlatformWeb
	default:
		return model.PlatformDiscord
	}
}
