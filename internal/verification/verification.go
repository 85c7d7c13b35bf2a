package verification

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusVerified SubmissionStatus = "verified"
	StatusFailed   SubmissionStatus = "failed"
)

// MaxAttempts caps how many verification sweeps may touch a submission
// before it is marked failed. Matches the client's 10-poll giveup.
const MaxAttempts = 10

type Submission struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	EntryDate     time.Time        `json:"entry_date" db:"entry_date"`
	ImageURL      string           `json:"image_url" db:"image_url"`
	ClaimedSteps  int              `json:"claimed_steps" db:"claimed_steps"`
	DetectedSteps *int             `json:"detected_steps,omitempty" db:"detected_steps"`
	Status        SubmissionStatus `json:"status" db:"status"`
	Attempts      int              `json:"attempts" db:"attempts"`
	FailureReason *string          `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

type CreateSubmissionRequest struct {
	EntryDate    string `json:"entry_date" validate:"required"` // YYYY-MM-DD
	ImageURL     string `json:"image_url" validate:"required,url"`
	ClaimedSteps int    `json:"claimed_steps" validate:"required,min=1"`
}

// StatusResponse is what pollers get back. RetryAfter is the server's hint,
// in seconds, for when to ask again; zero once the submission is terminal.
type StatusResponse struct {
	Submission *Submission `json:"submission"`
	RetryAfter int         `json:"retry_after,omitempty"`
}
