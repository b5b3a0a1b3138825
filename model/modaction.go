package model

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
)

// AppendModAction records a moderation action taken against a user. The log
// is append-only; nothing is ever updated or deleted from it.
func (a *Actor) AppendModAction(ctx context.Context, platform Platform, userID, displayName, action, reason string) error {
	_, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		rec := ModActionRecord{
			Platform:    platform,
			UserID:      userID,
			DisplayName: displayName,
			Action:      action,
			Reason:      reason,
			At:          time.Now(),
		}
		return nil, errors.WithStack(db.Create(&rec).Error)
	})
	return err
}

// ModActionEntry is a single logged moderation action, shaped for dump
// output rather than for the database row it came from.
type ModActionEntry struct {
	DisplayName *string
	UserID      string
	Action      string
	Reason      string
	AtUnix      int64
}

// ModActionDump groups an operator's moderation history by platform.
type ModActionDump struct {
	Platform Platform
	Actions  []ModActionEntry
}

// DumpModActions returns the full moderation log, grouped by platform in
// the order platforms were first seen.
func (a *Actor) DumpModActions(ctx context.Context) ([]ModActionDump, error) {
	v, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		var rows []ModActionRecord
		if err := db.Order("platform, at").Find(&rows).Error; err != nil {
			return nil, errors.Wrap(err, "load mod actions")
		}

		byPlatform := map[Platform][]ModActionEntry{}
		var order []Platform
		for _, r := range rows {
			if _, ok := byPlatform[r.Platform]; !ok {
				order = append(order, r.Platform)
			}
			var name *string
			if r.DisplayName != "" {
				n := r.DisplayName
				name = &n
			}
			byPlatform[r.Platform] = append(byPlatform[r.Platform], ModActionEntry{
				DisplayName: name,
				UserID:      r.UserID,
				Action:      r.Action,
				Reason:      r.Reason,
				AtUnix:      r.At.Unix(),
			})
		}

		dump := make([]ModActionDump, 0, len(order))
		for _, p := range order {
			dump = append(dump, ModActionDump{Platform: p, Actions: byPlatform[p]})
		}
		return dump, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ModActionDump), nil
}
