package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
)

// resolveIdentities walks the links table outward from (platform, userID)
// and returns every platform identity known to belong to the same person,
// keyed by platform. The Discord identity acts as the hub: a non-Discord
// lookup resolves to its Discord primary id first, then fans back out to
// that id's other linked platforms.
func resolveIdentities(tx *gorm.DB, platform Platform, userID string) (map[Platform]string, error) {
	ids := map[Platform]string{platform: userID}

	discordID := userID
	if platform != PlatformDiscord {
		var link Link
		err := tx.Where("platform = ? AND secondary_id = ?", platform, userID).First(&link).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ids, nil
		case err != nil:
			return nil, errors.Wrap(err, "load link by secondary id")
		}
		discordID = link.PrimaryID
	}
	ids[PlatformDiscord] = discordID

	var links []Link
	if err := tx.Where("primary_id = ?", discordID).Find(&links).Error; err != nil {
		return nil, errors.Wrap(err, "load links by primary id")
	}
	for _, l := range links {
		ids[l.Platform] = l.SecondaryID
	}

	return ids, nil
}

// upsertPointsDelta adds delta to the balance of (platform, userID), creating
// the row if it does not exist yet. displayName is only written when the row
// is created or when non-empty, so callers that don't know a name (e.g. a
// Linked deposit) don't clobber one that's already on file.
func upsertPointsDelta(tx *gorm.DB, platform Platform, userID, displayName string, delta int64) error {
	var row Points
	err := tx.Where("platform = ? AND user_id = ?", platform, userID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = Points{Platform: platform, UserID: userID, DisplayName: displayName, Balance: delta}
		return errors.Wrap(tx.Create(&row).Error, "create points row")
	case err != nil:
		return errors.Wrap(err, "load points row")
	}

	updates := map[string]any{"balance": gorm.Expr("balance + ?", delta)}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	return errors.Wrap(
		tx.Model(&Points{}).Where("platform = ? AND user_id = ?", platform, userID).Updates(updates).Error,
		"update points row")
}

// UpsertPoints adds delta to a user's balance, creating their row on first
// sight. It returns the resulting balance.
func (a *Actor) UpsertPoints(ctx context.Context, platform Platform, userID, displayName string, delta int64) (int64, error) {
	v, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		var balance int64
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := upsertPointsDelta(tx, platform, userID, displayName, delta); err != nil {
				return err
			}
			var row Points
			if err := tx.Where("platform = ? AND user_id = ?", platform, userID).First(&row).Error; err != nil {
				return errors.Wrap(err, "reload points row")
			}
			balance = row.Balance
			return nil
		})
		return balance, err
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// SetPoints overwrites a balance looked up by display name rather than user
// id, for the bot-scrape ingestion path where only a name is on hand. A
// name with no matching row is a silent no-op: there is no id to create one
// against.
func (a *Actor) SetPoints(ctx context.Context, platform Platform, displayName string, value int64) error {
	_, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		err := db.Model(&Points{}).
			Where("platform = ? AND LOWER(display_name) = LOWER(?)", platform, displayName).
			Update("balance", value).Error
		return nil, errors.WithStack(err)
	})
	return err
}

// PointsTriple is the YouTube/Discord/Twitch balance triple GetPoints
// returns; a nil field means that platform has no linked identity or no
// points row yet.
type PointsTriple struct {
	YouTube *int64
	Guild   *int64
	Twitch  *int64
}

// GetPoints resolves every platform identity linked to (platform, userID)
// and returns the balance on each one.
func (a *Actor) GetPoints(ctx context.Context, platform Platform, userID string) (PointsTriple, error) {
	v, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		var triple PointsTriple
		err := db.Transaction(func(tx *gorm.DB) error {
			ids, err := resolveIdentities(tx, platform, userID)
			if err != nil {
				return errors.Wrap(err, "resolve linked identities")
			}

			fetch := func(p Platform) (*int64, error) {
				id, ok := ids[p]
				if !ok || id == "" {
					return nil, nil
				}
				var row Points
				err := tx.Where("platform = ? AND user_id = ?", p, id).First(&row).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				balance := row.Balance
				return &balance, nil
			}

			if triple.YouTube, err = fetch(PlatformYouTube); err != nil {
				return errors.Wrap(err, "fetch youtube balance")
			}
			if triple.Guild, err = fetch(PlatformDiscord); err != nil {
				return errors.Wrap(err, "fetch discord balance")
			}
			if triple.Twitch, err = fetch(PlatformTwitch); err != nil {
				return errors.Wrap(err, "fetch twitch balance")
			}
			return nil
		})
		return triple, err
	})
	if err != nil {
		return PointsTriple{}, err
	}
	return v.(PointsTriple), nil
}
