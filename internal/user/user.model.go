package user

import "time"

type User struct {
	ID            string    `json:"id"`
	ClerkID       string    `json:"clerkId"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	TotalSteps    int       `json:"total_steps"`
	ActiveDays    int       `json:"active_days"`
}

type PublicProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	ImageURL      string `json:"imageUrl,omitempty"`
	TotalSteps    int    `json:"total_steps"`
	ActiveDays    int    `json:"active_days"`
	CurrentStreak int    `json:"current_streak"`
	FriendsCount  int    `json:"friends_count"`
}
