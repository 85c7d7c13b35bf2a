package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepLeagueAPI/internal/share"
	"stepLeagueAPI/internal/steps"
)

func TestResolveRange(t *testing.T) {
	start, end, err := resolveRange("2026-08-01", "2026-08-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", start.Format("2006-01-02"))
	assert.Equal(t, "2026-08-15", end.Format("2006-01-02"))

	_, _, err = resolveRange("2026-08-15", "2026-08-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start_date")

	_, _, err = resolveRange("15.08.2026", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid start_date")

	start, end, err = resolveRange("", "")
	require.NoError(t, err)
	assert.Equal(t, 6, int(end.Sub(start).Hours()/24))
}

func newShareFixture(t *testing.T) (*ShareService, *StepsService, *UserService) {
	pool := setupTestDB(t)
	userService := NewUserService(pool, nil)
	stepsService := NewStepsService(pool, userService, nil)
	leagueService := NewLeagueService(pool, userService)
	shareService := NewShareService(pool, userService, stepsService, leagueService, "https://stepleague.app")
	return shareService, stepsService, userService
}

func TestShareOptions_ReflectsLoggedSteps(t *testing.T) {
	shareService, stepsService, userService := newShareFixture(t)
	u := seedTestUser(t, shareService.db, userService)
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i, count := range []int{8000, 12000, 9500} {
		_, err := stepsService.AddSteps(ctx, u.ClerkID, &steps.AddStepsRequest{
			EntryDate: today.AddDate(0, 0, -i).Format("2006-01-02"),
			Steps:     count,
		})
		require.NoError(t, err)
	}

	opts, err := shareService.ShareOptions(ctx, u.ClerkID, share.ContextWeeklySummary, today.AddDate(0, 0, -6), today)
	require.NoError(t, err)

	require.NotNil(t, opts.Data.TotalSteps)
	assert.Equal(t, 29500, *opts.Data.TotalSteps)
	require.NotNil(t, opts.Data.BestDay)
	assert.Equal(t, 12000, opts.Data.BestDay.Steps)

	assert.Contains(t, opts.Available, share.BlockTotalSteps)
	assert.Contains(t, opts.Available, share.BlockBestDay)
	// No league membership, so rank cannot be offered.
	assert.NotContains(t, opts.Available, share.BlockRank)
	assert.Len(t, opts.Blocks, len(share.AllBlocks()))
}

func TestBuildShareMessage_EndToEnd(t *testing.T) {
	shareService, stepsService, userService := newShareFixture(t)
	u := seedTestUser(t, shareService.db, userService)
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	_, err := stepsService.AddSteps(ctx, u.ClerkID, &steps.AddStepsRequest{
		EntryDate: today.Format("2006-01-02"),
		Steps:     11234,
	})
	require.NoError(t, err)

	resp, err := shareService.BuildShareMessage(ctx, u.ClerkID, &BuildMessageRequest{
		Context:        share.ContextWeeklySummary,
		Blocks:         []share.ContentBlock{share.BlockTotalSteps},
		Platform:       share.PlatformTwitter,
		IncludeHashtag: true,
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Message, "11,234")
	assert.LessOrEqual(t, resp.Length, resp.MaxLength)
	assert.Equal(t, share.PlatformTwitter.MaxLength(), resp.MaxLength)
	assert.Equal(t, []share.ContentBlock{share.BlockTotalSteps}, resp.Blocks)
}

func TestBuildShareMessage_UnknownBlock(t *testing.T) {
	shareService, _, userService := newShareFixture(t)
	u := seedTestUser(t, shareService.db, userService)

	_, err := shareService.BuildShareMessage(context.Background(), u.ClerkID, &BuildMessageRequest{
		Blocks:   []share.ContentBlock{"step_art"},
		Platform: share.PlatformTwitter,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content block")
}

func TestShareCard(t *testing.T) {
	shareService, _, userService := newShareFixture(t)
	u := seedTestUser(t, shareService.db, userService)

	card, err := shareService.ShareCard(context.Background(), u.ClerkID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(card.ShareURL, "https://stepleague.app/u/"))
	png, err := base64.StdEncoding.DecodeString(card.QrCodeBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
