package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GiveFromKind selects how Give resolves the source of a transfer.
type GiveFromKind int

const (
	// GiveFromID deducts directly from (Platform, UserID)'s own balance.
	GiveFromID GiveFromKind = iota
	// GiveFromLinked deducts from the balance the acting identity
	// (OriginPlatform, UserID) has linked on SourcePlatform.
	GiveFromLinked
	// GiveFromNone marks a deposit-only transfer with no source row to
	// touch (e.g. an operator grant).
	GiveFromNone
)

// GiveFrom describes the source side of a Give.
type GiveFrom struct {
	Kind GiveFromKind

	// Platform and UserID identify the source row directly when Kind is
	// GiveFromID.
	Platform Platform
	UserID   string

	// OriginPlatform and UserID identify the acting identity, and
	// SourcePlatform the platform whose linked balance is drawn from,
	// when Kind is GiveFromLinked.
	OriginPlatform Platform
	SourcePlatform Platform
}

// GiveToKind selects how Give resolves the destination of a transfer.
type GiveToKind int

const (
	// GiveToName deposits into the balance matching DisplayName, for
	// platforms where only a scraped name is known.
	GiveToName GiveToKind = iota
	// GiveToUser deposits into (Platform, UserID), creating the row if
	// it doesn't exist yet.
	GiveToUser
	// GiveToLinked deposits into the balance the Give's source identity
	// has linked on Platform.
	GiveToLinked
	// GiveToSpend consumes the transfer with no deposit at all.
	GiveToSpend
)

// GiveTo describes the destination side of a Give.
type GiveTo struct {
	Kind        GiveToKind
	Platform    Platform
	UserID      string
	DisplayName string
}

// GiveOp is the input to Give. Amount of -1 means "transfer the entirety of
// the resolved source balance."
type GiveOp struct {
	From   GiveFrom
	To     GiveTo
	Amount int64
	Min    int64
	Max    int64
}

// Give moves points from From to To inside a single transaction, enforcing
// the rule's min/max bounds and resolving "give everything" (-1) against a
// row-locked read of the source balance.
func (a *Actor) Give(ctx context.Context, op GiveOp) (int64, error) {
	v, err := a.call(ctx, func(db *gorm.DB) (any, error) {
		var effective int64
		err := db.Transaction(func(tx *gorm.DB) error {
			sourcePlatform := op.From.Platform
			sourceUserID := op.From.UserID
			var targetPlatform Platform
			var targetUserID string
			linkedTarget := false

			switch {
			case op.From.Kind == GiveFromLinked && op.To.Kind == GiveToLinked:
				if op.From.SourcePlatform == op.To.Platform {
					return ErrSamePlatform
				}
				ids, err := resolveIdentities(tx, op.From.OriginPlatform, op.From.UserID)
				if err != nil {
					return errors.Wrap(err, "resolve linked identities")
				}
				sourcePlatform = op.From.SourcePlatform
				sourceUserID = ids[sourcePlatform]
				targetPlatform = op.To.Platform
				targetUserID = ids[targetPlatform]
				linkedTarget = true
			case op.From.Kind == GiveFromLinked:
				ids, err := resolveIdentities(tx, op.From.OriginPlatform, op.From.UserID)
				if err != nil {
					return errors.Wrap(err, "resolve linked identities")
				}
				sourcePlatform = op.From.SourcePlatform
				sourceUserID = ids[sourcePlatform]
			}

			amount := op.Amount
			if op.From.Kind != GiveFromNone {
				if amount == -1 {
					var row Points
					err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
						Where("platform = ? AND user_id = ?", sourcePlatform, sourceUserID).
						First(&row).Error
					if err != nil {
						return errors.Wrap(err, "lock source balance")
					}
					amount = row.Balance
				}

				if amount < op.Min {
					return ErrAmountBelowMin
				}
				if op.Max > 0 && amount > op.Max {
					amount = op.Max
				}

				res := tx.Model(&Points{}).
					Where("platform = ? AND user_id = ? AND balance >= ?", sourcePlatform, sourceUserID, amount).
					Update("balance", gorm.Expr("balance - ?", amount))
				if res.Error != nil {
					return errors.Wrap(res.Error, "deduct source balance")
				}
				if res.RowsAffected == 0 {
					return ErrDeduct
				}
			}

			if op.To.Kind != GiveToSpend {
				switch op.To.Kind {
				case GiveToName:
					res := tx.Model(&Points{}).
						Where("platform = ? AND LOWER(display_name) = LOWER(?)", op.To.Platform, op.To.DisplayName).
						Update("balance", gorm.Expr("balance + ?", amount))
					if res.Error != nil {
						return errors.Wrap(res.Error, "deposit destination balance")
					}
					if res.RowsAffected == 0 {
						return ErrDeposit
					}
				case GiveToUser:
					if err := upsertPointsDelta(tx, op.To.Platform, op.To.UserID, op.To.DisplayName, amount); err != nil {
						return errors.Wrap(err, "deposit destination balance")
					}
				case GiveToLinked:
					if !linkedTarget || targetUserID == "" {
						return ErrDeposit
					}
					if err := upsertPointsDelta(tx, targetPlatform, targetUserID, "", amount); err != nil {
						return errors.Wrap(err, "deposit destination balance")
					}
				}
			}

			effective = amount
			return nil
		})
		return effective, err
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
