package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepLeagueAPI/internal/feedback"
)

func newFeedbackFixture(t *testing.T) (*FeedbackService, *UserService) {
	pool := setupTestDB(t)
	userService := NewUserService(pool, nil)
	return NewFeedbackService(pool, userService), userService
}

func createTestFeedback(t *testing.T, svc *FeedbackService, clerkID, title string) *feedback.Item {
	t.Helper()
	item, err := svc.CreateFeedback(context.Background(), clerkID, &feedback.CreateRequest{
		Title:    title,
		Body:     "Steps from my watch never sync before noon.",
		Category: feedback.CategoryBug,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		svc.db.Exec(context.Background(), "DELETE FROM feedback_items WHERE id = $1", item.ID)
	})
	return item
}

func TestCreateFeedback_Defaults(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)

	item := createTestFeedback(t, svc, u.ClerkID, "Watch sync is late")

	assert.Equal(t, feedback.StatusNew, item.Status)
	assert.Equal(t, feedback.VisibilityHidden, item.Visibility)
	assert.Zero(t, item.Priority)
	assert.Nil(t, item.ResolvedAt)
}

func TestCreateFeedback_RequiresTitleAndBody(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)

	_, err := svc.CreateFeedback(context.Background(), u.ClerkID, &feedback.CreateRequest{Title: "no body"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestMoveStatus_StampsResolvedAt(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)
	item := createTestFeedback(t, svc, u.ClerkID, "Streak lost after DST change")
	ctx := context.Background()

	moved, err := svc.MoveStatus(ctx, item.ID.String(), feedback.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, feedback.StatusDone, moved.Status)
	require.NotNil(t, moved.ResolvedAt)

	// Moving back out of done clears the stamp.
	moved, err = svc.MoveStatus(ctx, item.ID.String(), feedback.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, feedback.StatusInProgress, moved.Status)
	assert.Nil(t, moved.ResolvedAt)
}

func TestMoveStatus_RejectsUnknownColumn(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)
	item := createTestFeedback(t, svc, u.ClerkID, "Any")

	_, err := svc.MoveStatus(context.Background(), item.ID.String(), feedback.Status("triage"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestGetBoard_AllColumnsPresent(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)
	item := createTestFeedback(t, svc, u.ClerkID, "Board smoke test")

	board, err := svc.GetBoard(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Columns, len(feedback.BoardColumns))
	for _, col := range feedback.BoardColumns {
		_, ok := board.Columns[col]
		assert.True(t, ok, "missing column %s", col)
	}

	found := false
	for _, it := range board.Columns[feedback.StatusNew] {
		if it.ID == item.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestChangelog_OnlyPublicDoneItems(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)
	item := createTestFeedback(t, svc, u.ClerkID, "Shipped: monthly calendar view")
	ctx := context.Background()

	entries, err := svc.Changelog(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, item.ID, e.ID, "hidden item leaked into changelog")
	}

	_, err = svc.MoveStatus(ctx, item.ID.String(), feedback.StatusDone)
	require.NoError(t, err)
	_, err = svc.SetVisibility(ctx, item.ID.String(), feedback.VisibilityPublic)
	require.NoError(t, err)

	entries, err = svc.Changelog(ctx)
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if e.ID == item.ID {
			found = true
			assert.NotNil(t, e.ResolvedAt)
		}
	}
	assert.True(t, found)
}

func TestExportCSV(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)
	item := createTestFeedback(t, svc, u.ClerkID, "CSV export check")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "status", records[0][5])

	found := false
	for _, rec := range records[1:] {
		if rec[0] == item.ID.String() {
			found = true
			assert.Equal(t, "CSV export check", rec[2])
			assert.Equal(t, "bug", rec[4])
			assert.Equal(t, "new", rec[5])
		}
	}
	assert.True(t, found)
}

func TestUpdateFeedback_PartialPatch(t *testing.T) {
	svc, userService := newFeedbackFixture(t)
	u := seedTestUser(t, svc.db, userService)
	item := createTestFeedback(t, svc, u.ClerkID, "Original title")
	ctx := context.Background()

	priority := 3
	notes := "repro confirmed on android 14"
	updated, err := svc.UpdateFeedback(ctx, item.ID.String(), &feedback.UpdateRequest{
		Priority:   &priority,
		AdminNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Original title", updated.Title)
	assert.Equal(t, 3, updated.Priority)
	require.NotNil(t, updated.AdminNotes)
	assert.Equal(t, notes, *updated.AdminNotes)
}
