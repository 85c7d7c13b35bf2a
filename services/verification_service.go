package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stepLeagueAPI/internal/notification"
	"stepLeagueAPI/internal/steps"
	"stepLeagueAPI/internal/verification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StepVerifier extracts a step count from a submitted screenshot. The
// production implementation calls an external vision endpoint; tests plug in
// a fake.
type StepVerifier interface {
	Detect(ctx context.Context, imageURL string, claimedSteps int) (int, error)
}

// TrustingVerifier accepts the claimed count as detected. Used until a real
// OCR backend is configured.
type TrustingVerifier struct{}

func (TrustingVerifier) Detect(_ context.Context, _ string, claimedSteps int) (int, error) {
	return claimedSteps, nil
}

// toleranceRatio is how far the detected count may deviate from the claimed
// count before a submission is rejected.
const toleranceRatio = 0.1

type VerificationService struct {
	db                  *pgxpool.Pool
	userService         *UserService
	stepsService        *StepsService
	notificationService *NotificationService
	verifier            StepVerifier

	sweepInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

func NewVerificationService(db *pgxpool.Pool, userService *UserService, stepsService *StepsService, notificationService *NotificationService, verifier StepVerifier) *VerificationService {
	if verifier == nil {
		verifier = TrustingVerifier{}
	}
	return &VerificationService{
		db:                  db,
		userService:         userService,
		stepsService:        stepsService,
		notificationService: notificationService,
		verifier:            verifier,
		sweepInterval:       2 * time.Second,
		stopChan:            make(chan struct{}),
	}
}

// Start launches the background sweeper that drains pending submissions.
func (s *VerificationService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *VerificationService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *VerificationService) CreateSubmission(ctx context.Context, clerkID string, req *verification.CreateSubmissionRequest) (*verification.StatusResponse, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid entry_date, expected YYYY-MM-DD")
	}
	if req.ImageURL == "" {
		return nil, fmt.Errorf("image_url is required")
	}
	if req.ClaimedSteps <= 0 {
		return nil, fmt.Errorf("claimed_steps must be positive")
	}

	sub := &verification.Submission{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO step_submissions (id, user_id, entry_date, image_url, claimed_steps, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
		RETURNING id, user_id, entry_date, image_url, claimed_steps, detected_steps, status, attempts, failure_reason, created_at, updated_at`,
		uuid.New(), userID, entryDate, req.ImageURL, req.ClaimedSteps, verification.StatusPending).Scan(
		&sub.ID, &sub.UserID, &sub.EntryDate, &sub.ImageURL, &sub.ClaimedSteps,
		&sub.DetectedSteps, &sub.Status, &sub.Attempts, &sub.FailureReason,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return &verification.StatusResponse{
		Submission: sub,
		RetryAfter: retryAfterSeconds(sub.Attempts),
	}, nil
}

// GetSubmission is the poll endpoint's backend. Only the owner may poll.
func (s *VerificationService) GetSubmission(ctx context.Context, clerkID, submissionID string) (*verification.StatusResponse, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(submissionID)
	if err != nil {
		return nil, fmt.Errorf("invalid submission id")
	}

	sub := &verification.Submission{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, entry_date, image_url, claimed_steps, detected_steps, status, attempts, failure_reason, created_at, updated_at
		FROM step_submissions
		WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&sub.ID, &sub.UserID, &sub.EntryDate, &sub.ImageURL, &sub.ClaimedSteps,
		&sub.DetectedSteps, &sub.Status, &sub.Attempts, &sub.FailureReason,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("submission not found")
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	resp := &verification.StatusResponse{Submission: sub}
	if sub.Status == verification.StatusPending {
		resp.RetryAfter = retryAfterSeconds(sub.Attempts)
	}
	return resp, nil
}

// retryAfterSeconds is the hint handed to polling clients: 2s doubling per
// completed attempt, capped at 30s.
func retryAfterSeconds(attempts int) int {
	after := 2
	for i := 0; i < attempts && after < 30; i++ {
		after *= 2
	}
	if after > 30 {
		after = 30
	}
	return after
}

// sweep processes one batch of pending submissions. Each pass bumps the
// attempt counter; a submission that survives MaxAttempts passes without a
// verdict is marked failed.
func (s *VerificationService) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, entry_date, image_url, claimed_steps, attempts
		FROM step_submissions
		WHERE status = $1
		ORDER BY created_at
		LIMIT 50`, verification.StatusPending)
	if err != nil {
		log.Printf("Verification sweep query failed: %v", err)
		return
	}

	type pendingRow struct {
		id        uuid.UUID
		userID    uuid.UUID
		entryDate time.Time
		imageURL  string
		claimed   int
		attempts  int
	}
	var pending []pendingRow
	for rows.Next() {
		var p pendingRow
		if err := rows.Scan(&p.id, &p.userID, &p.entryDate, &p.imageURL, &p.claimed, &p.attempts); err != nil {
			rows.Close()
			log.Printf("Verification sweep scan failed: %v", err)
			return
		}
		pending = append(pending, p)
	}
	rows.Close()

	for _, p := range pending {
		s.processSubmission(ctx, p.id, p.userID, p.entryDate, p.imageURL, p.claimed, p.attempts)
	}
}

func (s *VerificationService) processSubmission(ctx context.Context, id, userID uuid.UUID, entryDate time.Time, imageURL string, claimed, attempts int) {
	attempts++

	detected, err := s.verifier.Detect(ctx, imageURL, claimed)
	if err != nil {
		if attempts >= verification.MaxAttempts {
			s.markFailed(ctx, id, userID, attempts, fmt.Sprintf("verification gave up after %d attempts: %v", attempts, err))
			return
		}
		_, uerr := s.db.Exec(ctx, `
			UPDATE step_submissions SET attempts = $2, updated_at = NOW() WHERE id = $1`, id, attempts)
		if uerr != nil {
			log.Printf("Failed to bump attempts for submission %s: %v", id, uerr)
		}
		return
	}

	deviation := float64(detected-claimed) / float64(claimed)
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > toleranceRatio {
		s.markFailed(ctx, id, userID, attempts,
			fmt.Sprintf("detected %d steps, claimed %d", detected, claimed))
		return
	}

	_, err = s.db.Exec(ctx, `
		UPDATE step_submissions
		SET status = $2, detected_steps = $3, attempts = $4, updated_at = NOW()
		WHERE id = $1`, id, verification.StatusVerified, detected, attempts)
	if err != nil {
		log.Printf("Failed to mark submission %s verified: %v", id, err)
		return
	}

	if _, err := s.stepsService.upsertEntry(ctx, userID, entryDate, detected, steps.SourceImageVerified); err != nil {
		log.Printf("Failed to record verified steps for submission %s: %v", id, err)
	}

	s.notify(userID, notification.TypeSubmissionVerified, map[string]any{
		"submission_id": id.String(),
		"steps":         detected,
		"entry_date":    entryDate.Format("2006-01-02"),
	})
}

func (s *VerificationService) markFailed(ctx context.Context, id, userID uuid.UUID, attempts int, reason string) {
	_, err := s.db.Exec(ctx, `
		UPDATE step_submissions
		SET status = $2, attempts = $3, failure_reason = $4, updated_at = NOW()
		WHERE id = $1`, id, verification.StatusFailed, attempts, reason)
	if err != nil {
		log.Printf("Failed to mark submission %s failed: %v", id, err)
		return
	}

	s.notify(userID, notification.TypeSubmissionFailed, map[string]any{
		"submission_id": id.String(),
		"reason":        reason,
	})
}

func (s *VerificationService) notify(userID uuid.UUID, notifType notification.Type, data map[string]any) {
	if s.notificationService == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := s.notificationService.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notifType,
			Priority: notification.PriorityNormal,
			Data:     data,
		})
		if err != nil {
			log.Printf("Failed to create %s notification: %v", notifType, err)
		}
	}()
}
