package league

import (
	"time"

	"github.com/google/uuid"
)

type League struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	InviteCode  string    `json:"invite_code" db:"invite_code"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateLeagueRequest struct {
	Name string `json:"name" validate:"required,min=3,max=60"`
}

type JoinLeagueRequest struct {
	InviteCode string `json:"invite_code"`
}

type LeaderboardEntry struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Username      string    `json:"username" db:"username"`
	ImageURL      *string   `json:"image_url" db:"image_url"`
	StepsThisWeek int       `json:"steps_this_week" db:"steps_this_week"`
	CurrentStreak int       `json:"current_streak" db:"current_streak"`
	Rank          int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Entries       []*LeaderboardEntry `json:"entries"`
	UserPosition  *LeaderboardEntry   `json:"user_position"`
	TotalUsers    int                 `json:"total_users"`
	LeagueAverage int                 `json:"league_average"`
}
