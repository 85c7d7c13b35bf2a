package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeLeagueOvertake      Type = "league_overtake"
	TypeStreakRisk          Type = "streak_risk"
	TypeStreakMilestone     Type = "streak_milestone"
	TypeSubmissionVerified  Type = "submission_verified"
	TypeSubmissionFailed    Type = "submission_failed"
	TypeFriendRequest       Type = "friend_request"
	TypeFeedbackStatusMoved Type = "feedback_status_moved"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

type Notification struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	Type          Type           `json:"type" db:"type"`
	Priority      Priority       `json:"priority" db:"priority"`
	Status        Status         `json:"status" db:"status"`
	Title         string         `json:"title" db:"title"`
	Body          string         `json:"body" db:"body"`
	Data          map[string]any `json:"data,omitempty" db:"data"`
	ActorID       *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	IsRead        bool           `json:"is_read" db:"is_read"`
	SentAt        *time.Time     `json:"sent_at,omitempty" db:"sent_at"`
	FailureReason *string        `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

type Preferences struct {
	UserID       uuid.UUID       `json:"user_id" db:"user_id"`
	PushEnabled  bool            `json:"push_enabled" db:"push_enabled"`
	InAppEnabled bool            `json:"in_app_enabled" db:"in_app_enabled"`
	EnabledTypes map[string]bool `json:"enabled_types"`
	DeviceTokens []DeviceToken   `json:"device_tokens,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
