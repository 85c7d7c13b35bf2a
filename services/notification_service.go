package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stepLeagueAPI/internal/notification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{db: db}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the FCM provider. Kept off the constructor so the
// service works without push configured.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

func (s *NotificationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found")
	}
	return userID, nil
}

// CreateNotification renders the title and body for the given type, stores
// the row, and hands it to the dispatcher. Returns (nil, nil) when the user
// has disabled this type, so callers can fire and forget.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	title, body := renderNotification(req.Type, req.Data)
	if title == "" {
		return nil, fmt.Errorf("unknown notification type: %s", req.Type)
	}

	priority := req.Priority
	if priority == "" {
		priority = notification.PriorityNormal
	}

	prefs, err := s.PreferencesByUserID(ctx, req.UserID)
	if err != nil {
		prefs, err = s.createDefaultPreferences(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to create preferences: %w", err)
		}
	}

	if enabled, ok := prefs.EnabledTypes[string(req.Type)]; ok && !enabled {
		return nil, nil
	}

	dataJSON, _ := json.Marshal(req.Data)

	notif := &notification.Notification{}
	var dataStr []byte
	err = s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, priority, status, title, body, data, actor_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, NOW())
		RETURNING id, user_id, type, priority, status, title, body, data, actor_id, is_read, sent_at, failure_reason, created_at`,
		uuid.New(), req.UserID, req.Type, priority, notification.StatusPending,
		title, body, dataJSON, req.ActorID).Scan(
		&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
		&notif.Title, &notif.Body, &dataStr, &notif.ActorID, &notif.IsRead,
		&notif.SentAt, &notif.FailureReason, &notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	json.Unmarshal(dataStr, &notif.Data)

	go s.dispatcher.DispatchNotification(context.Background(), notif, prefs)

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int, unreadOnly bool) (*notification.ListResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	whereClause := "WHERE user_id = $1"
	if unreadOnly {
		whereClause += " AND is_read = false"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, type, priority, status, title, body, data, actor_id, is_read, sent_at, failure_reason, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, whereClause)

	rows, err := s.db.Query(ctx, query, userID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		notif := &notification.Notification{}
		var dataStr []byte
		if err := rows.Scan(
			&notif.ID, &notif.UserID, &notif.Type, &notif.Priority, &notif.Status,
			&notif.Title, &notif.Body, &dataStr, &notif.ActorID, &notif.IsRead,
			&notif.SentAt, &notif.FailureReason, &notif.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		json.Unmarshal(dataStr, &notif.Data)
		notifications = append(notifications, notif)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unreadCount, totalCount int
	s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false", userID).Scan(&unreadCount)
	s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE user_id = $1", userID).Scan(&totalCount)

	return &notification.ListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
		TotalCount:    totalCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2 AND is_read = false`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	return err
}

func (s *NotificationService) DeleteNotification(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		"DELETE FROM notifications WHERE id = $1 AND user_id = $2", notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) GetPreferences(ctx context.Context, clerkID string) (*notification.Preferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	prefs, err := s.PreferencesByUserID(ctx, userID)
	if err != nil {
		return s.createDefaultPreferences(ctx, userID)
	}
	return prefs, nil
}

func (s *NotificationService) PreferencesByUserID(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	prefs := &notification.Preferences{}
	var enabledTypesStr, deviceTokensStr []byte

	err := s.db.QueryRow(ctx, `
		SELECT user_id, push_enabled, in_app_enabled, enabled_types, device_tokens, updated_at
		FROM notification_preferences
		WHERE user_id = $1`, userID).Scan(
		&prefs.UserID, &prefs.PushEnabled, &prefs.InAppEnabled,
		&enabledTypesStr, &deviceTokensStr, &prefs.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("preferences not found")
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	json.Unmarshal(enabledTypesStr, &prefs.EnabledTypes)
	json.Unmarshal(deviceTokensStr, &prefs.DeviceTokens)
	return prefs, nil
}

func (s *NotificationService) UpdatePreferences(ctx context.Context, clerkID string, req *notification.UpdatePreferencesRequest) (*notification.Preferences, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if _, err := s.PreferencesByUserID(ctx, userID); err != nil {
		if _, err := s.createDefaultPreferences(ctx, userID); err != nil {
			return nil, err
		}
	}

	var enabledTypesJSON []byte
	if req.EnabledTypes != nil {
		enabledTypesJSON, _ = json.Marshal(req.EnabledTypes)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE notification_preferences
		SET push_enabled = COALESCE($2, push_enabled),
		    in_app_enabled = COALESCE($3, in_app_enabled),
		    enabled_types = COALESCE($4, enabled_types),
		    updated_at = NOW()
		WHERE user_id = $1`,
		userID, req.PushEnabled, req.InAppEnabled, enabledTypesJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return s.PreferencesByUserID(ctx, userID)
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	prefs, err := s.PreferencesByUserID(ctx, userID)
	if err != nil {
		prefs, err = s.createDefaultPreferences(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to create preferences: %w", err)
		}
	}

	exists := false
	for _, token := range prefs.DeviceTokens {
		if token.Token == req.Token {
			exists = true
			break
		}
	}
	if !exists {
		prefs.DeviceTokens = append(prefs.DeviceTokens, notification.DeviceToken{
			Token:    req.Token,
			Platform: req.Platform,
		})
	}

	tokensJSON, _ := json.Marshal(prefs.DeviceTokens)
	_, err = s.db.Exec(ctx,
		`UPDATE notification_preferences SET device_tokens = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, tokensJSON)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) createDefaultPreferences(ctx context.Context, userID uuid.UUID) (*notification.Preferences, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, push_enabled, in_app_enabled, enabled_types, device_tokens, updated_at)
		VALUES ($1, true, true, '{}', '[]', NOW())
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, err
	}
	return s.PreferencesByUserID(ctx, userID)
}

// renderNotification builds the user-facing text for each type. Data keys
// are set by the producing service.
func renderNotification(notifType notification.Type, data map[string]any) (title, body string) {
	switch notifType {
	case notification.TypeLeagueOvertake:
		return "You've been overtaken!",
			fmt.Sprintf("%v just passed you in %v. Time to get stepping.", str(data, "overtaker"), str(data, "league_name"))
	case notification.TypeStreakRisk:
		return "Your streak is at risk",
			fmt.Sprintf("Log your steps today to keep your %v-day streak alive.", str(data, "streak"))
	case notification.TypeStreakMilestone:
		return "Streak milestone!",
			fmt.Sprintf("You've hit a %v-day streak. Keep it going!", str(data, "streak"))
	case notification.TypeSubmissionVerified:
		return "Steps verified",
			fmt.Sprintf("Your screenshot checked out: %v steps recorded for %v.", str(data, "steps"), str(data, "entry_date"))
	case notification.TypeSubmissionFailed:
		return "Verification failed",
			fmt.Sprintf("We couldn't verify your screenshot: %v", str(data, "reason"))
	case notification.TypeFriendRequest:
		return "New friend",
			fmt.Sprintf("%v added you as a friend.", str(data, "username"))
	case notification.TypeFeedbackStatusMoved:
		return "Feedback update",
			fmt.Sprintf("Your feedback %q moved to %v.", str(data, "title"), str(data, "status"))
	}
	return "", ""
}

func str(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
