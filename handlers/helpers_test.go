package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"stepLeagueAPI/internal/user"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"
)

// setupTestDB is the gate for handler tests that hit the database. Skips when
// no test database is configured.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	godotenv.Load("../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL and DATABASE_URL not set, skipping database test")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(context.Background()), "Failed to ping test database")

	t.Cleanup(pool.Close)
	return pool
}

func seedTestUser(t *testing.T, pool *pgxpool.Pool, userService *services.UserService) *user.User {
	t.Helper()

	suffix := uuid.New().String()[:8]
	created, err := userService.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:   "user_test_" + suffix,
		Email:     fmt.Sprintf("test_%s@example.com", suffix),
		Username:  "walker_" + suffix,
		FirstName: "Test",
		LastName:  "Walker",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{
			"notifications", "notification_preferences", "step_submissions",
			"step_entries", "streaks", "league_members", "feedback_items",
			"analytics_events", "user_presence", "crash_reports",
		} {
			pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", table), created.ID)
		}
		pool.Exec(ctx, "DELETE FROM friendships WHERE user_id = $1 OR friend_id = $1", created.ID)
		pool.Exec(ctx, "DELETE FROM users WHERE id = $1", created.ID)
	})

	return created
}

// authedRequest builds a request with the Clerk ID already in context, the
// shape ClerkAuthMiddleware leaves behind.
func authedRequest(method, target string, body io.Reader, clerkID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID)
	return req.WithContext(ctx)
}
