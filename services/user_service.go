package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stepLeagueAPI/internal/notification"
	"stepLeagueAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db                  *pgxpool.Pool
	notificationService *NotificationService
}

func NewUserService(db *pgxpool.Pool, notificationService *NotificationService) *UserService {
	return &UserService{db: db, notificationService: notificationService}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT u.id, u.clerk_id, u.email, u.username, u.first_name, u.last_name, u.image_url,
	       u.email_verified, u.created_at, u.updated_at,
	       COALESCE(SUM(se.steps), 0) AS total_steps,
	       COUNT(se.id) AS active_days
	FROM users u
	LEFT JOIN step_entries se ON se.user_id = u.id
	WHERE u.clerk_id = $1
	GROUP BY u.id
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.TotalSteps,
		&u.ActiveDays,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// userIDByClerkID resolves the internal UUID for an authenticated Clerk
// identity. Every service method keyed by clerk_id funnels through here.
func (s *UserService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET username = COALESCE(NULLIF($2, ''), username),
	    first_name = COALESCE(NULLIF($3, ''), first_name),
	    last_name = COALESCE(NULLIF($4, ''), last_name),
	    image_url = COALESCE(NULLIF($5, ''), image_url),
	    updated_at = NOW()
	WHERE clerk_id = $1
	`

	tag, err := s.db.Exec(ctx, query, clerkID, req.Username, req.FirstName, req.LastName, req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("user not found")
	}

	return s.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	log.Printf("Deleted account for clerk_id %s", clerkID)
	return nil
}

func (s *UserService) DeleteUserByClerkIDFromWebhook(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user from webhook: %w", err)
	}
	return nil
}

func (s *UserService) UpdateUserFromClerk(ctx context.Context, clerkID, email, username, firstName, lastName, imageURL string) error {
	query := `
	UPDATE users
	SET email = COALESCE(NULLIF($2, ''), email),
	    username = COALESCE(NULLIF($3, ''), username),
	    first_name = $4,
	    last_name = $5,
	    image_url = COALESCE(NULLIF($6, ''), image_url),
	    updated_at = NOW()
	WHERE clerk_id = $1
	`
	_, err := s.db.Exec(ctx, query, clerkID, email, username, firstName, lastName, imageURL)
	if err != nil {
		return fmt.Errorf("failed to sync user from clerk: %w", err)
	}
	return nil
}

func (s *UserService) GetFriends(ctx context.Context, clerkID string) ([]*user.PublicProfile, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT u.id, u.username, COALESCE(u.image_url, ''),
	       COALESCE(SUM(se.steps), 0) AS total_steps,
	       COUNT(se.id) AS active_days,
	       COALESCE(st.current_streak, 0)
	FROM friendships f
	JOIN users u ON u.id = CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
	LEFT JOIN step_entries se ON se.user_id = u.id
	LEFT JOIN streaks st ON st.user_id = u.id
	WHERE f.user_id = $1 OR f.friend_id = $1
	GROUP BY u.id, st.current_streak
	ORDER BY total_steps DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	defer rows.Close()

	friends := []*user.PublicProfile{}
	for rows.Next() {
		p := &user.PublicProfile{}
		if err := rows.Scan(&p.ID, &p.Username, &p.ImageURL, &p.TotalSteps, &p.ActiveDays, &p.CurrentStreak); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, p)
	}

	return friends, rows.Err()
}

func (s *UserService) AddFriend(ctx context.Context, clerkID, friendID string) error {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	friendUUID, err := uuid.Parse(friendID)
	if err != nil {
		return fmt.Errorf("invalid friend id")
	}

	if friendUUID == userID {
		return fmt.Errorf("cannot add yourself as a friend")
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, friendUUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check friend: %w", err)
	}
	if !exists {
		return fmt.Errorf("friend user not found")
	}

	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)`, userID, friendUUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if exists {
		return fmt.Errorf("friendship already exists")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id, created_at)
		VALUES ($1, $2, NOW())`, userID, friendUUID)
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}

	if s.notificationService != nil {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_, err := s.notificationService.CreateNotification(bgCtx, &notification.CreateNotificationRequest{
				UserID:   friendUUID,
				Type:     notification.TypeFriendRequest,
				Priority: notification.PriorityNormal,
				ActorID:  &userID,
			})
			if err != nil {
				log.Printf("Failed to notify friend %s: %v", friendUUID, err)
			}
		}()
	}

	return nil
}

func (s *UserService) RemoveFriend(ctx context.Context, clerkID, friendID string) error {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	friendUUID, err := uuid.Parse(friendID)
	if err != nil {
		return fmt.Errorf("invalid friend id")
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)`,
		userID, friendUUID)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("friendship not found")
	}

	return nil
}

func (s *UserService) SearchUsers(ctx context.Context, clerkID, query string) ([]*user.PublicProfile, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	sql := `
	SELECT u.id, u.username, COALESCE(u.image_url, ''),
	       COALESCE(SUM(se.steps), 0) AS total_steps,
	       COUNT(se.id) AS active_days
	FROM users u
	LEFT JOIN step_entries se ON se.user_id = u.id
	WHERE u.id != $1 AND u.username ILIKE '%' || $2 || '%'
	GROUP BY u.id
	ORDER BY u.username
	LIMIT 20
	`

	rows, err := s.db.Query(ctx, sql, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	results := []*user.PublicProfile{}
	for rows.Next() {
		p := &user.PublicProfile{}
		if err := rows.Scan(&p.ID, &p.Username, &p.ImageURL, &p.TotalSteps, &p.ActiveDays); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		results = append(results, p)
	}

	return results, rows.Err()
}

func (s *UserService) GetPublicProfile(ctx context.Context, profileID string) (*user.PublicProfile, error) {
	profileUUID, err := uuid.Parse(profileID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id")
	}

	query := `
	SELECT u.id, u.username, COALESCE(u.image_url, ''),
	       COALESCE(SUM(se.steps), 0) AS total_steps,
	       COUNT(se.id) AS active_days,
	       COALESCE(st.current_streak, 0),
	       (SELECT COUNT(*) FROM friendships f WHERE f.user_id = u.id OR f.friend_id = u.id)
	FROM users u
	LEFT JOIN step_entries se ON se.user_id = u.id
	LEFT JOIN streaks st ON st.user_id = u.id
	WHERE u.id = $1
	GROUP BY u.id, st.current_streak
	`

	p := &user.PublicProfile{}
	err = s.db.QueryRow(ctx, query, profileUUID).Scan(
		&p.ID, &p.Username, &p.ImageURL, &p.TotalSteps, &p.ActiveDays, &p.CurrentStreak, &p.FriendsCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}
