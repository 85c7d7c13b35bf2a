package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepLeagueAPI/internal/analytics"
)

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *UserService) {
	pool := setupTestDB(t)
	userService := NewUserService(pool, nil)
	return NewAnalyticsService(pool, userService), userService
}

func TestTrackEvent_RequiresName(t *testing.T) {
	svc, userService := newAnalyticsFixture(t)
	u := seedTestUser(t, svc.db, userService)

	err := svc.TrackEvent(context.Background(), u.ClerkID, &analytics.TrackEventRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestPresenceLifecycle(t *testing.T) {
	svc, userService := newAnalyticsFixture(t)
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	err := svc.UpdatePresence(ctx, u.ClerkID, map[string]string{
		"app_version": "1.4.0",
		"platform":    "android",
	})
	require.NoError(t, err)

	active, err := svc.GetActiveUsers(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, active, 1)

	require.NoError(t, svc.SetUserInactive(ctx, u.ClerkID))

	var isActive bool
	err = svc.db.QueryRow(ctx, `SELECT is_active FROM user_presence WHERE user_id = $1`, u.ID).Scan(&isActive)
	require.NoError(t, err)
	assert.False(t, isActive)
}

func TestGetSummary(t *testing.T) {
	svc, userService := newAnalyticsFixture(t)
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	require.NoError(t, svc.TrackEvent(ctx, u.ClerkID, &analytics.TrackEventRequest{
		Name:       "share_message_built",
		Properties: map[string]any{"platform": "twitter", "blocks": 3},
	}))

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.EventsToday, 1)
	assert.Contains(t, summary.TopEvents, "share_message_built")
}
