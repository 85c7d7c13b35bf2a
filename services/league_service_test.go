package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepLeagueAPI/internal/league"
	"stepLeagueAPI/internal/steps"
)

func newLeagueFixture(t *testing.T) (*LeagueService, *StepsService, *UserService) {
	pool := setupTestDB(t)
	userService := NewUserService(pool, nil)
	stepsService := NewStepsService(pool, userService, nil)
	return NewLeagueService(pool, userService), stepsService, userService
}

func createTestLeague(t *testing.T, svc *LeagueService, clerkID, name string) *league.League {
	t.Helper()
	l, err := svc.CreateLeague(context.Background(), clerkID, &league.CreateLeagueRequest{Name: name})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		svc.db.Exec(ctx, "DELETE FROM league_members WHERE league_id = $1", l.ID)
		svc.db.Exec(ctx, "DELETE FROM leagues WHERE id = $1", l.ID)
	})
	return l
}

func TestCreateLeague(t *testing.T) {
	svc, _, userService := newLeagueFixture(t)
	u := seedTestUser(t, svc.db, userService)

	l := createTestLeague(t, svc, u.ClerkID, "Office Warriors")

	assert.Equal(t, "Office Warriors", l.Name)
	assert.NotEmpty(t, l.InviteCode)
	assert.Equal(t, 1, l.MemberCount, "owner joins on creation")
}

func TestCreateLeague_NameTooShort(t *testing.T) {
	svc, _, userService := newLeagueFixture(t)
	u := seedTestUser(t, svc.db, userService)

	_, err := svc.CreateLeague(context.Background(), u.ClerkID, &league.CreateLeagueRequest{Name: "ab"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 3 characters")
}

func TestJoinLeague(t *testing.T) {
	svc, _, userService := newLeagueFixture(t)
	owner := seedTestUser(t, svc.db, userService)
	joiner := seedTestUser(t, svc.db, userService)
	l := createTestLeague(t, svc, owner.ClerkID, "Morning Milers")
	ctx := context.Background()

	joined, err := svc.JoinLeague(ctx, joiner.ClerkID, l.ID.String(), l.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.MemberCount)

	// Joining again is a no-op.
	joined, err = svc.JoinLeague(ctx, joiner.ClerkID, l.ID.String(), l.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, 2, joined.MemberCount)
}

func TestJoinLeague_WrongInviteCode(t *testing.T) {
	svc, _, userService := newLeagueFixture(t)
	owner := seedTestUser(t, svc.db, userService)
	joiner := seedTestUser(t, svc.db, userService)
	l := createTestLeague(t, svc, owner.ClerkID, "Morning Milers")

	_, err := svc.JoinLeague(context.Background(), joiner.ClerkID, l.ID.String(), "WRONG1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid invite code")
}

func TestLeaveLeague(t *testing.T) {
	svc, _, userService := newLeagueFixture(t)
	owner := seedTestUser(t, svc.db, userService)
	l := createTestLeague(t, svc, owner.ClerkID, "Morning Milers")
	ctx := context.Background()

	require.NoError(t, svc.LeaveLeague(ctx, owner.ClerkID, l.ID.String()))

	err := svc.LeaveLeague(ctx, owner.ClerkID, l.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "membership not found")
}

func TestLeagueLeaderboard(t *testing.T) {
	svc, stepsService, userService := newLeagueFixture(t)
	owner := seedTestUser(t, svc.db, userService)
	rival := seedTestUser(t, svc.db, userService)
	l := createTestLeague(t, svc, owner.ClerkID, "Weekend Striders")
	ctx := context.Background()

	_, err := svc.JoinLeague(ctx, rival.ClerkID, l.ID.String(), l.InviteCode)
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	_, err = stepsService.AddSteps(ctx, owner.ClerkID, &steps.AddStepsRequest{EntryDate: today, Steps: 4000})
	require.NoError(t, err)
	_, err = stepsService.AddSteps(ctx, rival.ClerkID, &steps.AddStepsRequest{EntryDate: today, Steps: 9000})
	require.NoError(t, err)

	board, err := svc.GetLeagueLeaderboard(ctx, owner.ClerkID, l.ID.String())
	require.NoError(t, err)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, rival.Username, board.Entries[0].Username)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, 9000, board.Entries[0].StepsThisWeek)

	require.NotNil(t, board.UserPosition)
	assert.Equal(t, owner.Username, board.UserPosition.Username)
	assert.Equal(t, 2, board.UserPosition.Rank)
	assert.Equal(t, 2, board.TotalUsers)
	assert.Equal(t, 6500, board.LeagueAverage)
}

func TestLeagueLeaderboard_NonMember(t *testing.T) {
	svc, _, userService := newLeagueFixture(t)
	owner := seedTestUser(t, svc.db, userService)
	outsider := seedTestUser(t, svc.db, userService)
	l := createTestLeague(t, svc, owner.ClerkID, "Weekend Striders")

	_, err := svc.GetLeagueLeaderboard(context.Background(), outsider.ClerkID, l.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
