package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkCreatesNewLink(t *testing.T) {
	db := setupTestDB(t)
	a := NewActor(db)
	startActor(t, a)

	require.NoError(t, a.Link(context.Background(), LinkOp{
		Platform: PlatformYouTube, PrimaryID: "discord-1", SecondaryID: "yt-1",
	}))

	var link Link
	require.NoError(t, db.Where("platform = ? AND primary_id = ?", PlatformYouTube, "discord-1").First(&link).Error)
	require.Equal(t, "yt-1", link.SecondaryID)
}

func TestLinkReplacesPriorLinkOnSamePlatform(t *testing.T) {
	db := setupTestDB(t)
	a := NewActor(db)
	startActor(t, a)

	require.NoError(t, a.Link(context.Background(), LinkOp{
		Platform: PlatformYouTube, PrimaryID: "discord-1", SecondaryID: "yt-old",
	}))
	require.NoError(t, a.Link(context.Background(), LinkOp{
		Platform: PlatformYouTube, PrimaryID: "discord-1", SecondaryID: "yt-new",
	}))

	var links []Link
	require.NoError(t, db.Where("platform = ? AND primary_id = ?", PlatformYouTube, "discord-1").Find(&links).Error)
	require.Len(t, links, 1)
	require.Equal(t, "yt-new", links[0].SecondaryID)
}

func TestLinkDoesNotTouchOtherPlatformLinks(t *testing.T) {
	db := setupTestDB(t)
	a := NewActor(db)
	startActor(t, a)

	require.NoError(t, a.Link(context.Background(), LinkOp{
		Platform: PlatformTwitch, PrimaryID: "discord-1", SecondaryID: "tw-1",
	}))
	require.NoError(t, a.Link(context.Background(), LinkOp{
		Platform: PlatformYouTube, PrimaryID: "discord-1", SecondaryID: "yt-1",
	}))

	var links []Link
	require.NoError(t, db.Where("primary_id = ?", "discord-1").Find(&links).Error)
	require.Len(t, links, 2)
}
