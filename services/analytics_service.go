package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stepLeagueAPI/internal/analytics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnalyticsService struct {
	db          *pgxpool.Pool
	userService *UserService
}

func NewAnalyticsService(db *pgxpool.Pool, userService *UserService) *AnalyticsService {
	return &AnalyticsService{db: db, userService: userService}
}

// TrackEvent records one client-side event. The facade is deliberately
// narrow: a name and a JSON property bag, nothing else.
func (s *AnalyticsService) TrackEvent(ctx context.Context, clerkID string, req *analytics.TrackEventRequest) error {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	if req.Name == "" {
		return fmt.Errorf("event name is required")
	}

	propsJSON, _ := json.Marshal(req.Properties)

	_, err = s.db.Exec(ctx, `
		INSERT INTO analytics_events (id, user_id, name, properties, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		uuid.New(), userID, req.Name, propsJSON)
	if err != nil {
		return fmt.Errorf("failed to track event: %w", err)
	}
	return nil
}

func (s *AnalyticsService) UpdatePresence(ctx context.Context, clerkID string, deviceInfo map[string]string) error {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	deviceInfoJSON, _ := json.Marshal(deviceInfo)

	query := `
		INSERT INTO user_presence (user_id, last_seen, is_active, device_info, app_version, platform)
		VALUES ($1, NOW(), true, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			last_seen = NOW(),
			is_active = true,
			device_info = $2,
			app_version = $3,
			platform = $4
	`

	_, err = s.db.Exec(ctx, query, userID, deviceInfoJSON,
		deviceInfo["app_version"], deviceInfo["platform"])
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

func (s *AnalyticsService) SetUserInactive(ctx context.Context, clerkID string) error {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `UPDATE user_presence SET is_active = false WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to set inactive: %w", err)
	}
	return nil
}

func (s *AnalyticsService) GetActiveUsers(ctx context.Context) (int, error) {
	var count int
	threshold := time.Now().Add(-2 * time.Minute)

	query := `
		SELECT COUNT(*)
		FROM user_presence
		WHERE is_active = true AND last_seen > $1
	`

	err := s.db.QueryRow(ctx, query, threshold).Scan(&count)
	return count, err
}

func (s *AnalyticsService) ReportCrash(ctx context.Context, clerkID string, report *analytics.CrashReport) error {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	metadataJSON, _ := json.Marshal(report.Metadata)

	query := `
		INSERT INTO crash_reports (
			id, user_id, error_type, error_message, stack_trace,
			app_version, platform, os_version, device_model, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`

	_, err = s.db.Exec(ctx, query, uuid.New(), userID, report.ErrorType, report.ErrorMsg,
		report.StackTrace, report.AppVersion, report.Platform,
		report.OSVersion, report.DeviceModel, metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to report crash: %w", err)
	}
	return nil
}

func (s *AnalyticsService) GetSummary(ctx context.Context) (*analytics.Summary, error) {
	summary := &analytics.Summary{TopEvents: map[string]int{}}

	activeUsers, err := s.GetActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	summary.ActiveUsers = activeUsers

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM analytics_events WHERE created_at >= CURRENT_DATE`).Scan(&summary.EventsToday)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT name, COUNT(*) AS c
		FROM analytics_events
		WHERE created_at >= CURRENT_DATE - 7
		GROUP BY name
		ORDER BY c DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to get top events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		summary.TopEvents[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM crash_reports WHERE created_at >= CURRENT_DATE - 7`).Scan(&summary.CrashesThisWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to count crashes: %w", err)
	}

	return summary, nil
}
