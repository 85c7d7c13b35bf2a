package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Status doubles as the kanban board column the item sits in.
type Status string

const (
	StatusNew        Status = "new"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// BoardColumns lists the statuses in board order.
var BoardColumns = []Status{StatusNew, StatusPlanned, StatusInProgress, StatusDone, StatusArchived}

func ValidStatus(s Status) bool {
	for _, c := range BoardColumns {
		if c == s {
			return true
		}
	}
	return false
}

type Visibility string

const (
	VisibilityPublic Visibility = "public"
	VisibilityHidden Visibility = "hidden"
)

type Category string

const (
	CategoryBug     Category = "bug"
	CategoryIdea    Category = "idea"
	CategoryPraise  Category = "praise"
	CategoryGeneral Category = "general"
)

type Item struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Title      string     `json:"title" db:"title"`
	Body       string     `json:"body" db:"body"`
	Category   Category   `json:"category" db:"category"`
	Status     Status     `json:"status" db:"status"`
	Visibility Visibility `json:"visibility" db:"visibility"`
	Priority   int        `json:"priority" db:"priority"`
	Votes      int        `json:"votes" db:"votes"`
	AdminNotes *string    `json:"admin_notes,omitempty" db:"admin_notes"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

type CreateRequest struct {
	Title    string   `json:"title" validate:"required,max=120"`
	Body     string   `json:"body" validate:"required"`
	Category Category `json:"category"`
}

type UpdateRequest struct {
	Title      *string `json:"title,omitempty"`
	Body       *string `json:"body,omitempty"`
	Priority   *int    `json:"priority,omitempty"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

type StatusPatch struct {
	Status Status `json:"status" validate:"required"`
}

type VisibilityPatch struct {
	Visibility Visibility `json:"visibility" validate:"required"`
}

// Board is the admin kanban view: every column present, even when empty.
type Board struct {
	Columns map[Status][]*Item `json:"columns"`
}

// ChangelogEntry is the public projection of a done+public item.
type ChangelogEntry struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Category   Category   `json:"category"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
