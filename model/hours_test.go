package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHoursCreatesRowOnFirstSight(t *testing.T) {
	db := setupTestDB(t)
	a := NewActor(db)
	startActor(t, a)

	watchtime, err := a.Hours(context.Background(), HoursOp{Platform: PlatformTwitch, UserID: "alice", MaxGap: 60})
	require.NoError(t, err)
	require.EqualValues(t, 0, watchtime)

	var row Hours
	require.NoError(t, db.Where("user_id = ?", "alice").First(&row).Error)
}

func TestHoursAccumulatesWithinGap(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Hours{
		Platform: PlatformTwitch, UserID: "alice",
		LastSeen: time.Now().Add(-10 * time.Second), Watchtime: 100,
	}).Error)

	a := NewActor(db)
	startActor(t, a)
	watchtime, err := a.Hours(context.Background(), HoursOp{Platform: PlatformTwitch, UserID: "alice", MaxGap: 60})
	require.NoError(t, err)
	require.GreaterOrEqual(t, watchtime, int64(109))
	require.LessOrEqual(t, watchtime, int64(111))
}

func TestHoursDropsGapExceedingMaxGap(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Hours{
		Platform: PlatformTwitch, UserID: "alice",
		LastSeen: time.Now().Add(-1 * time.Hour), Watchtime: 100,
	}).Error)

	a := NewActor(db)
	startActor(t, a)
	watchtime, err := a.Hours(context.Background(), HoursOp{Platform: PlatformTwitch, UserID: "alice", MaxGap: 60})
	require.NoError(t, err)
	require.EqualValues(t, 100, watchtime)
}

func TestHoursUnlimitedGapWhenMaxGapZero(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&Hours{
		Platform: PlatformTwitch, UserID: "alice",
		LastSeen: time.Now().Add(-1 * time.Hour), Watchtime: 100,
	}).Error)

	a := NewActor(db)
	startActor(t, a)
	watchtime, err := a.Hours(context.Background(), HoursOp{Platform: PlatformTwitch, UserID: "alice", MaxGap: 0})
	require.NoError(t, err)
	require.Greater(t, watchtime, int64(3500))
}
