package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stepLeagueAPI/internal/notification"
	"stepLeagueAPI/internal/stats"
	"stepLeagueAPI/internal/steps"
	"stepLeagueAPI/internal/streak"
	"stepLeagueAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// streakMilestones are the streak lengths that earn a celebration push.
var streakMilestones = map[int]bool{7: true, 14: true, 30: true, 50: true, 100: true, 365: true}

type StepsService struct {
	db                  *pgxpool.Pool
	userService         *UserService
	notificationService *NotificationService
}

func NewStepsService(db *pgxpool.Pool, userService *UserService, notificationService *NotificationService) *StepsService {
	return &StepsService{db: db, userService: userService, notificationService: notificationService}
}

// AddSteps upserts a day's step count. One row per user per date; a second
// submission for the same day overwrites the count.
func (s *StepsService) AddSteps(ctx context.Context, clerkID string, req *steps.AddStepsRequest) (*steps.StepEntry, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid entry_date, expected YYYY-MM-DD")
	}
	if entryDate.After(time.Now()) {
		return nil, fmt.Errorf("entry_date cannot be in the future")
	}
	if req.Steps < 0 {
		return nil, fmt.Errorf("steps cannot be negative")
	}

	entry, err := s.upsertEntry(ctx, userID, entryDate, req.Steps, steps.SourceManual)
	if err != nil {
		return nil, err
	}

	if s.notificationService != nil {
		go s.fireEntryNotifications(userID)
	}

	return entry, nil
}

// fireEntryNotifications runs after an entry lands: league-mates the user
// just passed get an overtake push, and milestone streaks get celebrated.
func (s *StepsService) fireEntryNotifications(userID uuid.UUID) {
	bgCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var username string
	if err := s.db.QueryRow(bgCtx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username); err != nil {
		log.Printf("Failed to resolve username for notifications: %v", err)
		return
	}

	utils.NotifyLeagueOvertakes(s.db, s.notificationService, userID, username)

	var current int
	if err := s.db.QueryRow(bgCtx, `SELECT current_streak FROM streaks WHERE user_id = $1`, userID).Scan(&current); err != nil {
		return
	}
	if streakMilestones[current] {
		_, err := s.notificationService.CreateNotification(bgCtx, &notification.CreateNotificationRequest{
			UserID:   userID,
			Type:     notification.TypeStreakMilestone,
			Priority: notification.PriorityNormal,
			Data:     map[string]any{"streak": current},
		})
		if err != nil {
			log.Printf("Failed to create streak milestone notification: %v", err)
		}
	}
}

func (s *StepsService) upsertEntry(ctx context.Context, userID uuid.UUID, entryDate time.Time, count int, source steps.EntrySource) (*steps.StepEntry, error) {
	query := `
	INSERT INTO step_entries (id, user_id, entry_date, steps, source, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id, entry_date)
	DO UPDATE SET steps = $4, source = $5, updated_at = NOW()
	RETURNING id, user_id, entry_date, steps, source, created_at, updated_at
	`

	entry := &steps.StepEntry{}
	err := s.db.QueryRow(ctx, query, uuid.New(), userID, entryDate, count, source).Scan(
		&entry.ID, &entry.UserID, &entry.EntryDate, &entry.Steps, &entry.Source,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert step entry: %w", err)
	}

	if err := s.recomputeStreak(ctx, userID); err != nil {
		log.Printf("Failed to recompute streak for user %s: %v", userID, err)
	}

	return entry, nil
}

// RemoveSteps deletes a day's entry and recomputes the streak, since a gap
// may have opened.
func (s *StepsService) RemoveSteps(ctx context.Context, clerkID, entryDate string) error {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	day, err := time.Parse("2006-01-02", entryDate)
	if err != nil {
		return fmt.Errorf("invalid entry_date, expected YYYY-MM-DD")
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM step_entries WHERE user_id = $1 AND entry_date = $2`, userID, day)
	if err != nil {
		return fmt.Errorf("failed to delete step entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("step entry not found")
	}

	if err := s.recomputeStreak(ctx, userID); err != nil {
		log.Printf("Failed to recompute streak for user %s: %v", userID, err)
	}
	return nil
}

// recomputeStreak rebuilds current and longest streak from the raw entries.
// The current streak counts back from today (or yesterday, so an unlogged
// today does not break it yet); the longest is over all history.
func (s *StepsService) recomputeStreak(ctx context.Context, userID uuid.UUID) error {
	query := `
	WITH days AS (
		SELECT entry_date::date AS d
		FROM step_entries
		WHERE user_id = $1 AND steps > 0
	),
	grouped AS (
		SELECT d, d - (ROW_NUMBER() OVER (ORDER BY d))::int AS grp
		FROM days
	),
	runs AS (
		SELECT MIN(d) AS run_start, MAX(d) AS run_end, COUNT(*) AS len
		FROM grouped
		GROUP BY grp
	)
	SELECT
		COALESCE((SELECT len FROM runs WHERE run_end >= CURRENT_DATE - 1 ORDER BY run_end DESC LIMIT 1), 0),
		COALESCE((SELECT MAX(len) FROM runs), 0),
		(SELECT MAX(d) FROM days)
	`

	var current, longest int
	var lastActive *time.Time
	if err := s.db.QueryRow(ctx, query, userID).Scan(&current, &longest, &lastActive); err != nil {
		return fmt.Errorf("failed to compute streak: %w", err)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_active_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET current_streak = $3, longest_streak = $4, last_active_date = $5, updated_at = NOW()`,
		uuid.New(), userID, current, longest, lastActive)
	if err != nil {
		return fmt.Errorf("failed to store streak: %w", err)
	}
	return nil
}

func (s *StepsService) GetStreak(ctx context.Context, clerkID string) (*streak.Streak, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	st := &streak.Streak{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, current_streak, longest_streak, last_active_date, created_at, updated_at
		FROM streaks WHERE user_id = $1`, userID).Scan(
		&st.ID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.LastActiveDate,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &streak.Streak{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return st, nil
}

func (s *StepsService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT
		COALESCE(SUM(steps) FILTER (WHERE entry_date = CURRENT_DATE), 0),
		COALESCE(SUM(steps) FILTER (WHERE entry_date >= date_trunc('week', CURRENT_DATE)), 0),
		COALESCE(SUM(steps) FILTER (WHERE entry_date >= date_trunc('month', CURRENT_DATE)), 0),
		COALESCE(SUM(steps) FILTER (WHERE entry_date >= date_trunc('year', CURRENT_DATE)), 0),
		COALESCE(SUM(steps), 0),
		COUNT(*) FILTER (WHERE steps > 0),
		COALESCE(MAX(steps), 0)
	FROM step_entries
	WHERE user_id = $1
	`

	st := &stats.UserStats{}
	var activeDays int
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.TodaySteps, &st.StepsThisWeek, &st.StepsThisMonth, &st.StepsThisYear,
		&st.TotalSteps, &activeDays, &st.BestDaySteps,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	st.ActiveDays = activeDays
	if activeDays > 0 {
		st.DailyAverage = st.TotalSteps / activeDays
	}

	if st.BestDaySteps > 0 {
		var bestDate time.Time
		err = s.db.QueryRow(ctx, `
			SELECT entry_date FROM step_entries
			WHERE user_id = $1 ORDER BY steps DESC, entry_date DESC LIMIT 1`, userID).Scan(&bestDate)
		if err == nil {
			formatted := bestDate.Format("2006-01-02")
			st.BestDayDate = &formatted
		}
	}

	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(current_streak, 0), COALESCE(longest_streak, 0)
		FROM streaks WHERE user_id = $1`, userID).Scan(&st.CurrentStreak, &st.LongestStreak)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get streak stats: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM friendships WHERE user_id = $1 OR friend_id = $1`, userID).Scan(&st.FriendsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends count: %w", err)
	}

	// Global weekly rank by steps this week.
	err = s.db.QueryRow(ctx, `
		WITH weekly AS (
			SELECT user_id, SUM(steps) AS total
			FROM step_entries
			WHERE entry_date >= date_trunc('week', CURRENT_DATE)
			GROUP BY user_id
		)
		SELECT COALESCE((
			SELECT rnk FROM (
				SELECT user_id, RANK() OVER (ORDER BY total DESC) AS rnk FROM weekly
			) ranked WHERE user_id = $1
		), 0)`, userID).Scan(&st.Rank)
	if err != nil {
		return nil, fmt.Errorf("failed to get rank: %w", err)
	}

	return st, nil
}

func (s *StepsService) GetPeriodStats(ctx context.Context, clerkID, period string) (*stats.PeriodStat, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var since string
	var totalDays int
	now := time.Now()
	switch period {
	case "week":
		since = "date_trunc('week', CURRENT_DATE)"
		totalDays = 7
	case "month":
		since = "date_trunc('month', CURRENT_DATE)"
		totalDays = time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	case "year":
		since = "date_trunc('year', CURRENT_DATE)"
		totalDays = 365
	case "all_time":
		since = "'epoch'::timestamp"
		totalDays = 0
	default:
		return nil, fmt.Errorf("invalid period: %s", period)
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(steps), 0), COUNT(*) FILTER (WHERE steps > 0)
		FROM step_entries
		WHERE user_id = $1 AND entry_date >= %s`, since)

	st := &stats.PeriodStat{Period: period, TotalDays: totalDays}
	if err := s.db.QueryRow(ctx, query, userID).Scan(&st.TotalSteps, &st.ActiveDays); err != nil {
		return nil, fmt.Errorf("failed to get %s stats: %w", period, err)
	}
	return st, nil
}

func (s *StepsService) GetCalendar(ctx context.Context, clerkID string, year, month int) (*steps.Calendar, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month: %d", month)
	}

	query := `
	SELECT entry_date, steps
	FROM step_entries
	WHERE user_id = $1
	  AND EXTRACT(YEAR FROM entry_date) = $2
	  AND EXTRACT(MONTH FROM entry_date) = $3
	ORDER BY entry_date
	`

	rows, err := s.db.Query(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}
	defer rows.Close()

	cal := &steps.Calendar{Year: year, Month: month, Days: []steps.CalendarDay{}}
	for rows.Next() {
		var d time.Time
		var count int
		if err := rows.Scan(&d, &count); err != nil {
			return nil, fmt.Errorf("failed to scan calendar day: %w", err)
		}
		cal.Days = append(cal.Days, steps.CalendarDay{Date: d.Format("2006-01-02"), Steps: count})
	}

	return cal, rows.Err()
}

// RangeBreakdown returns the per-day entries inside a date range, used by
// the share pipeline.
func (s *StepsService) RangeBreakdown(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]steps.StepEntry, error) {
	query := `
	SELECT id, user_id, entry_date, steps, source, created_at, updated_at
	FROM step_entries
	WHERE user_id = $1 AND entry_date BETWEEN $2 AND $3
	ORDER BY entry_date
	`

	rows, err := s.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get range breakdown: %w", err)
	}
	defer rows.Close()

	var entries []steps.StepEntry
	for rows.Next() {
		var e steps.StepEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.EntryDate, &e.Steps, &e.Source, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
