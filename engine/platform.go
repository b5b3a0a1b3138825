package engine

import (
	"github.com/kelpbot/engine/model"
	"github.com/kelpbot/engine/msg"
)

// toModelPlatform maps a msg.Platform bit to the model package's own
// Platform type. The two share bit values by construction (model cannot
// import msg without creating a cycle back through rules), so this is a
// direct translation, not a lookup.
func toModelPlatform(p msg.Platform) model.Platform {
	switch {
	case p.Has(msg.YouTube):
		return model.PlatformYouTube
	case p.Has(msg.Twitch):
		return model.PlatformTwitch
	case p.Has(msg.Web):
		return model.PlatformWeb
	default:
		return model.PlatformDiscord
	}
}
