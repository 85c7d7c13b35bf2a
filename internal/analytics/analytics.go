package analytics

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	UserID     uuid.UUID      `json:"user_id" db:"user_id"`
	Name       string         `json:"name" db:"name"`
	Properties map[string]any `json:"properties,omitempty" db:"properties"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

type TrackEventRequest struct {
	Name       string         `json:"name" validate:"required"`
	Properties map[string]any `json:"properties,omitempty"`
}

type HeartbeatRequest struct {
	AppVersion  string `json:"app_version"`
	Platform    string `json:"platform"`
	OSVersion   string `json:"os_version"`
	DeviceModel string `json:"device_model"`
}

type CrashReport struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	ErrorType   string         `json:"error_type"`
	ErrorMsg    string         `json:"error_message"`
	StackTrace  string         `json:"stack_trace"`
	AppVersion  string         `json:"app_version"`
	Platform    string         `json:"platform"`
	OSVersion   string         `json:"os_version"`
	DeviceModel string         `json:"device_model"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Summary struct {
	ActiveUsers     int            `json:"active_users"`
	EventsToday     int            `json:"events_today"`
	TopEvents       map[string]int `json:"top_events"`
	CrashesThisWeek int            `json:"crashes_this_week"`
}
