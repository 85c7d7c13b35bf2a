package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"stepLeagueAPI/internal/league"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LeagueService struct {
	db          *pgxpool.Pool
	userService *UserService
}

func NewLeagueService(db *pgxpool.Pool, userService *UserService) *LeagueService {
	return &LeagueService{db: db, userService: userService}
}

func (s *LeagueService) CreateLeague(ctx context.Context, clerkID string, req *league.CreateLeagueRequest) (*league.League, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if len(req.Name) < 3 {
		return nil, fmt.Errorf("league name must be at least 3 characters")
	}

	inviteCode, err := newInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	l := &league.League{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO leagues (id, name, invite_code, owner_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, name, invite_code, owner_id, created_at`,
		uuid.New(), req.Name, inviteCode, userID).Scan(
		&l.ID, &l.Name, &l.InviteCode, &l.OwnerID, &l.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create league: %w", err)
	}

	// The owner is a member from the start.
	_, err = s.db.Exec(ctx, `
		INSERT INTO league_members (league_id, user_id, joined_at)
		VALUES ($1, $2, NOW())`, l.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner to league: %w", err)
	}

	l.MemberCount = 1
	return l, nil
}

func (s *LeagueService) GetLeague(ctx context.Context, leagueID string) (*league.League, error) {
	id, err := uuid.Parse(leagueID)
	if err != nil {
		return nil, fmt.Errorf("invalid league id")
	}

	l := &league.League{}
	err = s.db.QueryRow(ctx, `
		SELECT l.id, l.name, l.invite_code, l.owner_id, l.created_at,
		       (SELECT COUNT(*) FROM league_members m WHERE m.league_id = l.id)
		FROM leagues l WHERE l.id = $1`, id).Scan(
		&l.ID, &l.Name, &l.InviteCode, &l.OwnerID, &l.CreatedAt, &l.MemberCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("league not found")
		}
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return l, nil
}

// JoinLeague is idempotent: joining a league you are already in succeeds
// without a second membership row.
func (s *LeagueService) JoinLeague(ctx context.Context, clerkID, leagueID, inviteCode string) (*league.League, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	l, err := s.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	if inviteCode != "" && inviteCode != l.InviteCode {
		return nil, fmt.Errorf("invalid invite code")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO league_members (league_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (league_id, user_id) DO NOTHING`, l.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to join league: %w", err)
	}

	return s.GetLeague(ctx, leagueID)
}

func (s *LeagueService) LeaveLeague(ctx context.Context, clerkID, leagueID string) error {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(leagueID)
	if err != nil {
		return fmt.Errorf("invalid league id")
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM league_members WHERE league_id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to leave league: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("league membership not found")
	}
	return nil
}

// GetLeagueLeaderboard ranks members by steps this week, with the caller's
// own position pulled out separately so the UI can pin it.
func (s *LeagueService) GetLeagueLeaderboard(ctx context.Context, clerkID, leagueID string) (*league.Leaderboard, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(leagueID)
	if err != nil {
		return nil, fmt.Errorf("invalid league id")
	}

	var isMember bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM league_members WHERE league_id = $1 AND user_id = $2)`,
		id, userID).Scan(&isMember)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, fmt.Errorf("league membership not found")
	}

	query := `
	SELECT u.id, u.username, u.image_url,
	       COALESCE(w.total, 0) AS steps_this_week,
	       COALESCE(st.current_streak, 0) AS current_streak,
	       RANK() OVER (ORDER BY COALESCE(w.total, 0) DESC) AS rank
	FROM league_members m
	JOIN users u ON u.id = m.user_id
	LEFT JOIN (
		SELECT user_id, SUM(steps) AS total
		FROM step_entries
		WHERE entry_date >= date_trunc('week', CURRENT_DATE)
		GROUP BY user_id
	) w ON w.user_id = u.id
	LEFT JOIN streaks st ON st.user_id = u.id
	WHERE m.league_id = $1
	ORDER BY steps_this_week DESC, current_streak DESC
	`

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	board := &league.Leaderboard{Entries: []*league.LeaderboardEntry{}}
	total := 0
	for rows.Next() {
		entry := &league.LeaderboardEntry{}
		if err := rows.Scan(
			&entry.UserID, &entry.Username, &entry.ImageURL,
			&entry.StepsThisWeek, &entry.CurrentStreak, &entry.Rank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		board.Entries = append(board.Entries, entry)
		total += entry.StepsThisWeek
		if entry.UserID == userID {
			board.UserPosition = entry
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	board.TotalUsers = len(board.Entries)
	if board.TotalUsers > 0 {
		board.LeagueAverage = total / board.TotalUsers
	}
	return board, nil
}

func (s *LeagueService) GetGlobalLeaderboard(ctx context.Context, clerkID string) (*league.Leaderboard, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	WITH weekly AS (
		SELECT user_id, SUM(steps) AS total
		FROM step_entries
		WHERE entry_date >= date_trunc('week', CURRENT_DATE)
		GROUP BY user_id
	),
	ranked AS (
		SELECT u.id, u.username, u.image_url,
		       COALESCE(w.total, 0) AS steps_this_week,
		       COALESCE(st.current_streak, 0) AS current_streak,
		       RANK() OVER (ORDER BY COALESCE(w.total, 0) DESC) AS rank
		FROM users u
		LEFT JOIN weekly w ON w.user_id = u.id
		LEFT JOIN streaks st ON st.user_id = u.id
	)
	SELECT id, username, image_url, steps_this_week, current_streak, rank
	FROM ranked
	WHERE rank <= 100 OR id = $1
	ORDER BY rank
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get global leaderboard: %w", err)
	}
	defer rows.Close()

	board := &league.Leaderboard{Entries: []*league.LeaderboardEntry{}}
	for rows.Next() {
		entry := &league.LeaderboardEntry{}
		if err := rows.Scan(
			&entry.UserID, &entry.Username, &entry.ImageURL,
			&entry.StepsThisWeek, &entry.CurrentStreak, &entry.Rank,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if entry.UserID == userID {
			board.UserPosition = entry
		}
		if entry.Rank <= 100 {
			board.Entries = append(board.Entries, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&board.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	return board, nil
}

// UserLeagueStanding resolves a member's current league, rank, league size,
// and league average in one shot, for the share pipeline.
func (s *LeagueService) UserLeagueStanding(ctx context.Context, userID uuid.UUID) (name string, rank, totalRanked, avg int, err error) {
	var leagueID uuid.UUID
	err = s.db.QueryRow(ctx, `
		SELECT l.id, l.name
		FROM league_members m
		JOIN leagues l ON l.id = m.league_id
		WHERE m.user_id = $1
		ORDER BY m.joined_at DESC
		LIMIT 1`, userID).Scan(&leagueID, &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, 0, 0, fmt.Errorf("league membership not found")
		}
		return "", 0, 0, 0, fmt.Errorf("failed to resolve league: %w", err)
	}

	query := `
	WITH weekly AS (
		SELECT m.user_id, COALESCE(SUM(se.steps), 0) AS total
		FROM league_members m
		LEFT JOIN step_entries se
		  ON se.user_id = m.user_id AND se.entry_date >= date_trunc('week', CURRENT_DATE)
		WHERE m.league_id = $1
		GROUP BY m.user_id
	),
	ranked AS (
		SELECT user_id, total, RANK() OVER (ORDER BY total DESC) AS rank FROM weekly
	)
	SELECT
		(SELECT rank FROM ranked WHERE user_id = $2),
		(SELECT COUNT(*) FROM ranked),
		(SELECT COALESCE(AVG(total), 0)::int FROM ranked)
	`
	err = s.db.QueryRow(ctx, query, leagueID, userID).Scan(&rank, &totalRanked, &avg)
	if err != nil {
		return "", 0, 0, 0, fmt.Errorf("failed to compute standing: %w", err)
	}
	return name, rank, totalRanked, avg, nil
}

func newInviteCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
