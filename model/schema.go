package model

import "time"

// Platform identifies which chat platform a row belongs to. It mirrors the
// engine package's bitset tag but is kept as an independent, narrower type
// here so model never imports engine (engine imports model, not the other
// way around).
type Platform uint8

const (
	PlatformYouTube Platform = 1 << iota
	PlatformTwitch
	PlatformDiscord
	PlatformWeb
)

func (p Platform) String() string {
	switch p {
	case PlatformYouTube:
		return "youtube"
	case PlatformTwitch:
		return "twitch"
	case PlatformDiscord:
		return "discord"
	case PlatformWeb:
		return "web"
	default:
		return "unknown"
	}
}

// Points records a user's point balance on a single platform. Platform and
// UserID together form the natural key; DisplayName is kept alongside for
// the SetPoints bot-scrape path, which only ever has a name to key on.
type Points struct {
	ID          uint64   `gorm:"primaryKey;autoIncrement"`
	Platform    Platform `gorm:"index:idx_points_user,unique"`
	UserID      string   `gorm:"index:idx_points_user,unique"`
	DisplayName string
	Balance     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Points) TableName() string { return "points" }

// Link associates a secondary platform identity (YouTube or Twitch) with
// the Discord identity that owns it. PrimaryID is always a Discord user ID;
// SecondaryID is the user's ID on Platform.
type Link struct {
	ID          uint64   `gorm:"primaryKey;autoIncrement"`
	Platform    Platform `gorm:"uniqueIndex:idx_link_platform_primary"`
	PrimaryID   string   `gorm:"uniqueIndex:idx_link_platform_primary"`
	SecondaryID string   `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Link) TableName() string { return "links" }

// Hours tracks accumulated watchtime per platform identity.
type Hours struct {
	ID        uint64   `gorm:"primaryKey;autoIncrement"`
	Platform  Platform `gorm:"index:idx_hours_user,unique"`
	UserID    string   `gorm:"index:idx_hours_user,unique"`
	LastSeen  time.Time
	Watchtime int64
}

func (Hours) TableName() string { return "hours" }

// ModActionRecord is an append-only log of moderation actions taken against
// a user, surfaced to operators via DumpModActions.
type ModActionRecord struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Platform    Platform `gorm:"index"`
	UserID      string
	DisplayName string
	Action      string
	Reason      string
	At          time.Time
}

func (ModActionRecord) TableName() string { return "mod_actions" }
