package utils

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepLeagueAPI/internal/notification"
)

// NotificationCreator is the slice of NotificationService this package needs.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// NotifyLeagueOvertakes tells every league-mate the actor just passed this
// week that they lost their spot. Call it after a step entry lands.
func NotifyLeagueOvertakes(db *pgxpool.Pool, notifier NotificationCreator, actorID uuid.UUID, actorName string) {
	bgCtx := context.Background()

	// League-mates whose weekly total now sits strictly below the actor's,
	// but was at or above it before the actor's latest entry.
	query := `
		WITH weekly AS (
			SELECT m.user_id, m.league_id, COALESCE(SUM(se.steps), 0) AS total
			FROM league_members m
			LEFT JOIN step_entries se
			  ON se.user_id = m.user_id AND se.entry_date >= date_trunc('week', CURRENT_DATE)
			WHERE m.league_id IN (SELECT league_id FROM league_members WHERE user_id = $1)
			GROUP BY m.user_id, m.league_id
		),
		actor AS (
			SELECT league_id, total FROM weekly WHERE user_id = $1
		),
		latest AS (
			SELECT COALESCE(steps, 0) AS steps
			FROM step_entries
			WHERE user_id = $1
			ORDER BY updated_at DESC
			LIMIT 1
		)
		SELECT DISTINCT w.user_id, l.name
		FROM weekly w
		JOIN actor a ON a.league_id = w.league_id
		JOIN leagues l ON l.id = w.league_id
		CROSS JOIN latest
		WHERE w.user_id <> $1
		  AND w.total < a.total
		  AND w.total >= a.total - latest.steps
	`

	rows, err := db.Query(bgCtx, query, actorID)
	if err != nil {
		log.Printf("Failed to find overtaken members: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var overtakenID uuid.UUID
		var leagueName string
		if err := rows.Scan(&overtakenID, &leagueName); err != nil {
			continue
		}

		req := &notification.CreateNotificationRequest{
			UserID:   overtakenID,
			Type:     notification.TypeLeagueOvertake,
			Priority: notification.PriorityHigh,
			ActorID:  &actorID,
			Data: map[string]any{
				"overtaker":   actorName,
				"league_name": leagueName,
			},
		}

		if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
			log.Printf("Failed to create overtake notification for %s: %v", overtakenID, err)
		}
	}
}
