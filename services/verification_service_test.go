package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepLeagueAPI/internal/steps"
	"stepLeagueAPI/internal/verification"
)

// fakeVerifier returns a canned detection result.
type fakeVerifier struct {
	detected int
	err      error
}

func (f fakeVerifier) Detect(_ context.Context, _ string, _ int) (int, error) {
	return f.detected, f.err
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		attempts int
		want     int
	}{
		{0, 2},
		{1, 4},
		{2, 8},
		{3, 16},
		{4, 30},
		{9, 30},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfterSeconds(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestTrustingVerifier(t *testing.T) {
	detected, err := TrustingVerifier{}.Detect(context.Background(), "https://example.com/shot.png", 12345)
	require.NoError(t, err)
	assert.Equal(t, 12345, detected)
}

func TestNewVerificationService_DefaultsToTrusting(t *testing.T) {
	svc := NewVerificationService(nil, nil, nil, nil, nil)
	_, ok := svc.verifier.(TrustingVerifier)
	assert.True(t, ok)
}

func newVerificationFixture(t *testing.T, verifier StepVerifier) (*VerificationService, *UserService) {
	pool := setupTestDB(t)
	userService := NewUserService(pool, nil)
	stepsService := NewStepsService(pool, userService, nil)
	svc := NewVerificationService(pool, userService, stepsService, nil, verifier)
	return svc, userService
}

func TestVerificationLifecycle_Verified(t *testing.T) {
	svc, userService := newVerificationFixture(t, fakeVerifier{detected: 10450})
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	resp, err := svc.CreateSubmission(ctx, u.ClerkID, &verification.CreateSubmissionRequest{
		EntryDate:    "2026-08-20",
		ImageURL:     "https://cdn.example.com/screens/today.png",
		ClaimedSteps: 10000,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Submission)
	assert.Equal(t, verification.StatusPending, resp.Submission.Status)
	assert.Equal(t, 2, resp.RetryAfter)

	sub := resp.Submission
	svc.processSubmission(ctx, sub.ID, sub.UserID, sub.EntryDate, sub.ImageURL, sub.ClaimedSteps, sub.Attempts)

	got, err := svc.GetSubmission(ctx, u.ClerkID, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, verification.StatusVerified, got.Submission.Status)
	require.NotNil(t, got.Submission.DetectedSteps)
	assert.Equal(t, 10450, *got.Submission.DetectedSteps)
	assert.Equal(t, 1, got.Submission.Attempts)
	assert.Zero(t, got.RetryAfter)

	// The detected count, not the claimed one, lands in the step log.
	var loggedSteps int
	var source steps.EntrySource
	err = svc.db.QueryRow(ctx, `
		SELECT steps, source FROM step_entries
		WHERE user_id = $1 AND entry_date = $2`, sub.UserID, sub.EntryDate).Scan(&loggedSteps, &source)
	require.NoError(t, err)
	assert.Equal(t, 10450, loggedSteps)
	assert.Equal(t, steps.SourceImageVerified, source)
}

func TestVerificationLifecycle_RejectedOutsideTolerance(t *testing.T) {
	svc, userService := newVerificationFixture(t, fakeVerifier{detected: 5000})
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	resp, err := svc.CreateSubmission(ctx, u.ClerkID, &verification.CreateSubmissionRequest{
		EntryDate:    "2026-08-20",
		ImageURL:     "https://cdn.example.com/screens/today.png",
		ClaimedSteps: 10000,
	})
	require.NoError(t, err)

	sub := resp.Submission
	svc.processSubmission(ctx, sub.ID, sub.UserID, sub.EntryDate, sub.ImageURL, sub.ClaimedSteps, sub.Attempts)

	got, err := svc.GetSubmission(ctx, u.ClerkID, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, verification.StatusFailed, got.Submission.Status)
	require.NotNil(t, got.Submission.FailureReason)
	assert.Contains(t, *got.Submission.FailureReason, "detected 5000")

	// No entry gets logged for a rejected submission.
	var count int
	err = svc.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM step_entries WHERE user_id = $1`, sub.UserID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestVerification_DetectErrorBumpsAttempts(t *testing.T) {
	svc, userService := newVerificationFixture(t, fakeVerifier{err: fmt.Errorf("vision backend unavailable")})
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	resp, err := svc.CreateSubmission(ctx, u.ClerkID, &verification.CreateSubmissionRequest{
		EntryDate:    "2026-08-20",
		ImageURL:     "https://cdn.example.com/screens/today.png",
		ClaimedSteps: 8000,
	})
	require.NoError(t, err)

	sub := resp.Submission
	svc.processSubmission(ctx, sub.ID, sub.UserID, sub.EntryDate, sub.ImageURL, sub.ClaimedSteps, sub.Attempts)

	got, err := svc.GetSubmission(ctx, u.ClerkID, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, verification.StatusPending, got.Submission.Status)
	assert.Equal(t, 1, got.Submission.Attempts)
	assert.Equal(t, 4, got.RetryAfter)
}

func TestVerification_GivesUpAfterMaxAttempts(t *testing.T) {
	svc, userService := newVerificationFixture(t, fakeVerifier{err: fmt.Errorf("vision backend unavailable")})
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	resp, err := svc.CreateSubmission(ctx, u.ClerkID, &verification.CreateSubmissionRequest{
		EntryDate:    "2026-08-20",
		ImageURL:     "https://cdn.example.com/screens/today.png",
		ClaimedSteps: 8000,
	})
	require.NoError(t, err)

	sub := resp.Submission
	svc.processSubmission(ctx, sub.ID, sub.UserID, sub.EntryDate, sub.ImageURL, sub.ClaimedSteps, verification.MaxAttempts-1)

	got, err := svc.GetSubmission(ctx, u.ClerkID, sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, verification.StatusFailed, got.Submission.Status)
	require.NotNil(t, got.Submission.FailureReason)
	assert.Contains(t, *got.Submission.FailureReason, "gave up")
}

func TestGetSubmission_OwnerScoped(t *testing.T) {
	svc, userService := newVerificationFixture(t, fakeVerifier{detected: 9000})
	owner := seedTestUser(t, svc.db, userService)
	stranger := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	resp, err := svc.CreateSubmission(ctx, owner.ClerkID, &verification.CreateSubmissionRequest{
		EntryDate:    "2026-08-20",
		ImageURL:     "https://cdn.example.com/screens/today.png",
		ClaimedSteps: 9000,
	})
	require.NoError(t, err)

	_, err = svc.GetSubmission(ctx, stranger.ClerkID, resp.Submission.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCreateSubmission_Validation(t *testing.T) {
	svc, userService := newVerificationFixture(t, nil)
	u := seedTestUser(t, svc.db, userService)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *verification.CreateSubmissionRequest
		wantErr string
	}{
		{
			"bad date",
			&verification.CreateSubmissionRequest{EntryDate: "20-08-2026", ImageURL: "https://x/y.png", ClaimedSteps: 100},
			"entry_date",
		},
		{
			"missing image",
			&verification.CreateSubmissionRequest{EntryDate: "2026-08-20", ClaimedSteps: 100},
			"image_url",
		},
		{
			"zero steps",
			&verification.CreateSubmissionRequest{EntryDate: "2026-08-20", ImageURL: "https://x/y.png"},
			"claimed_steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSubmission(ctx, u.ClerkID, tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVerificationService_StartStop(t *testing.T) {
	pool := setupTestDB(t)
	userService := NewUserService(pool, nil)
	stepsService := NewStepsService(pool, userService, nil)
	svc := NewVerificationService(pool, userService, stepsService, nil, TrustingVerifier{})
	svc.sweepInterval = 10 * time.Millisecond

	svc.Start()
	time.Sleep(50 * time.Millisecond)
	svc.Stop()
	svc.Stop() // second Stop is a no-op
}
