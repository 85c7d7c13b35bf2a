package steps

import (
	"time"

	"github.com/google/uuid"
)

// EntrySource records how a day's step count got into the system.
type EntrySource string

const (
	SourceManual        EntrySource = "manual"
	SourceImageVerified EntrySource = "image_verified"
)

type StepEntry struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	EntryDate time.Time   `json:"entry_date" db:"entry_date"`
	Steps     int         `json:"steps" db:"steps"`
	Source    EntrySource `json:"source" db:"source"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

type AddStepsRequest struct {
	EntryDate string `json:"entry_date" validate:"required"` // YYYY-MM-DD
	Steps     int    `json:"steps" validate:"required,min=0"`
}

type CalendarDay struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

type Calendar struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}
