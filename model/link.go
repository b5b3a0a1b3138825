package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkOp associates a Discord identity (PrimaryID) with an identity on a
// secondary platform (Platform, SecondaryID).
type LinkOp struct {
	Platform    Platform
	PrimaryID   string
	SecondaryID string
}

// Link replaces any existing link for (Platform, PrimaryID) with the one
// described by op. A user can only have one active link per platform, so
// the prior row on that platform is deleted before the new one is written.
func (a *Actor) Link(ctx context.Context, op LinkOp) error {
	_, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("platform = ? AND primary_id = ?", op.Platform, op.PrimaryID).
				Delete(&Link{}).Error; err != nil {
				return errors.Wrap(err, "delete prior link")
			}

			link := Link{Platform: op.Platform, PrimaryID: op.PrimaryID, SecondaryID: op.SecondaryID}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "platform"}, {Name: "primary_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"secondary_id", "updated_at"}),
			}).Create(&link).Error
			return errors.Wrap(err, "upsert link")
		})
		return nil, err
	})
	return err
}
