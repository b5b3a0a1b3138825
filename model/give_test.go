package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Points{}, &Link{}, &Hours{}, &ModActionRecord{}))
	return db
}

func TestGiveDirectTransfer(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "alice", Balance: 100}).Error)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "bob", Balance: 10}).Error)

	a := NewActor(db)
	startActor(t, a)
	amount, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromID, Platform: PlatformTwitch, UserID: "alice"},
		To:   GiveTo{Kind: GiveToUser, Platform: PlatformTwitch, UserID: "bob"},
		Amount: 30, Min: 0, Max: 0,
	})
	require.NoError(t, err)
	require.EqualValues(t, 30, amount)

	var alice, bob Points
	require.NoError(t, db.Where("user_id = ?", "alice").First(&alice).Error)
	require.NoError(t, db.Where("user_id = ?", "bob").First(&bob).Error)
	require.EqualValues(t, 70, alice.Balance)
	require.EqualValues(t, 40, bob.Balance)
}

func TestGiveAllResolvesSourceBalance(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "alice", Balance: 55}).Error)

	a := NewActor(db)
	startActor(t, a)
	amount, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromID, Platform: PlatformTwitch, UserID: "alice"},
		To:   GiveTo{Kind: GiveToSpend},
		Amount: -1, Min: 0, Max: 0,
	})
	require.NoError(t, err)
	require.EqualValues(t, 55, amount)

	var alice Points
	require.NoError(t, db.Where("user_id = ?", "alice").First(&alice).Error)
	require.EqualValues(t, 0, alice.Balance)
}

func TestGiveBelowMinFails(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "alice", Balance: 5}).Error)

	a := NewActor(db)
	startActor(t, a)
	_, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromID, Platform: PlatformTwitch, UserID: "alice"},
		To:   GiveTo{Kind: GiveToSpend},
		Amount: 5, Min: 10, Max: 0,
	})
	require.ErrorIs(t, err, ErrAmountBelowMin)
}

func TestGiveClampsToMax(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "alice", Balance: 1000}).Error)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "bob", Balance: 0}).Error)

	a := NewActor(db)
	startActor(t, a)
	amount, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromID, Platform: PlatformTwitch, UserID: "alice"},
		To:   GiveTo{Kind: GiveToUser, Platform: PlatformTwitch, UserID: "bob"},
		Amount: 500, Min: 0, Max: 100,
	})
	require.NoError(t, err)
	require.EqualValues(t, 100, amount)
}

func TestGiveInsufficientBalanceFailsDeduct(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "alice", Balance: 10}).Error)

	a := NewActor(db)
	startActor(t, a)
	_, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromID, Platform: PlatformTwitch, UserID: "alice"},
		To:   GiveTo{Kind: GiveToSpend},
		Amount: 50, Min: 0, Max: 0,
	})
	require.ErrorIs(t, err, ErrDeduct)
}

func TestGiveLinkedToLinkedTransfersAcrossPlatforms(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Link{Platform: PlatformYouTube, PrimaryID: "discord-1", SecondaryID: "yt-1"}).Error)
	require.NoError(t, db.Create(&Link{Platform: PlatformTwitch, PrimaryID: "discord-1", SecondaryID: "tw-1"}).Error)
	require.NoError(t, db.Create(&Points{Platform: PlatformYouTube, UserID: "yt-1", Balance: 80}).Error)
	require.NoError(t, db.Create(&Points{Platform: PlatformTwitch, UserID: "tw-1", Balance: 0}).Error)

	a := NewActor(db)
	startActor(t, a)
	amount, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromLinked, OriginPlatform: PlatformDiscord, UserID: "discord-1", SourcePlatform: PlatformYouTube},
		To:   GiveTo{Kind: GiveToLinked, Platform: PlatformTwitch},
		Amount: 20, Min: 0, Max: 0,
	})
	require.NoError(t, err)
	require.EqualValues(t, 20, amount)

	var yt, tw Points
	require.NoError(t, db.Where("user_id = ?", "yt-1").First(&yt).Error)
	require.NoError(t, db.Where("user_id = ?", "tw-1").First(&tw).Error)
	require.EqualValues(t, 60, yt.Balance)
	require.EqualValues(t, 20, tw.Balance)
}

func TestGiveLinkedToLinkedSamePlatformFails(t *testing.T) {
	db := setupTestDB(t)
	a := NewActor(db)
	startActor(t, a)
	_, err := a.Give(context.Background(), GiveOp{
		From: GiveFrom{Kind: GiveFromLinked, OriginPlatform: PlatformDiscord, UserID: "discord-1", SourcePlatform: PlatformYouTube},
		To:   GiveTo{Kind: GiveToLinked, Platform: PlatformYouTube},
		Amount: 10, Min: 0, Max: 0,
	})
	require.ErrorIs(t, err, ErrSamePlatform)
}
