package model

import (
	"context"
	"math"
	"time"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HoursOp is the input to Hours. MaxGap is the longest absence, in seconds,
// that still counts as continuous watching; zero or negative disables the
// cap entirely.
type HoursOp struct {
	Platform Platform
	UserID   string
	MaxGap   int64
}

// Hours advances a user's watchtime by the time elapsed since they were
// last seen, unless that gap exceeds MaxGap (they were away, so the gap
// itself doesn't count). It returns the resulting watchtime.
func (a *Actor) Hours(ctx context.Context, op HoursOp) (int64, error) {
	v, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		var watchtime int64
		err := db.Transaction(func(tx *gorm.DB) error {
			now := time.Now()

			var row Hours
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("platform = ? AND user_id = ?", op.Platform, op.UserID).
				First(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row = Hours{Platform: op.Platform, UserID: op.UserID, LastSeen: now, Watchtime: 0}
				if err := tx.Create(&row).Error; err != nil {
					return errors.Wrap(err, "create hours row")
				}
				watchtime = row.Watchtime
				return nil
			case err != nil:
				return errors.Wrap(err, "lock hours row")
			}

			delta := now.Sub(row.LastSeen)
			if delta < 0 {
				delta = 0
			}
			deltaSeconds := int64(delta.Seconds())
			if deltaSeconds > math.MaxInt32 {
				deltaSeconds = math.MaxInt32
			}

			newWatchtime := row.Watchtime
			if op.MaxGap <= 0 || deltaSeconds < op.MaxGap {
				newWatchtime += deltaSeconds
			}

			if err := tx.Model(&Hours{}).
				Where("platform = ? AND user_id = ?", op.Platform, op.UserID).
				Updates(map[string]any{"last_seen": now, "watchtime": newWatchtime}).Error; err != nil {
				return errors.Wrap(err, "update hours row")
			}
			watchtime = newWatchtime
			return nil
		})
		return watchtime, err
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
