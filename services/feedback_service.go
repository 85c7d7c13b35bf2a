package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"stepLeagueAPI/internal/feedback"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FeedbackService struct {
	db          *pgxpool.Pool
	userService *UserService
}

func NewFeedbackService(db *pgxpool.Pool, userService *UserService) *FeedbackService {
	return &FeedbackService{db: db, userService: userService}
}

func (s *FeedbackService) CreateFeedback(ctx context.Context, clerkID string, req *feedback.CreateRequest) (*feedback.Item, error) {
	userID, err := s.userService.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Title == "" || req.Body == "" {
		return nil, fmt.Errorf("title and body are required")
	}
	category := req.Category
	if category == "" {
		category = feedback.CategoryGeneral
	}

	item := &feedback.Item{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO feedback_items (id, user_id, title, body, category, status, visibility, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW())
		RETURNING id, user_id, title, body, category, status, visibility, priority, votes, admin_notes, resolved_at, created_at, updated_at`,
		uuid.New(), userID, req.Title, req.Body, category, feedback.StatusNew, feedback.VisibilityHidden).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Body, &item.Category, &item.Status,
		&item.Visibility, &item.Priority, &item.Votes, &item.AdminNotes, &item.ResolvedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}
	return item, nil
}

func (s *FeedbackService) ListFeedback(ctx context.Context, status feedback.Status) ([]*feedback.Item, error) {
	query := `
	SELECT id, user_id, title, body, category, status, visibility, priority, votes, admin_notes, resolved_at, created_at, updated_at
	FROM feedback_items
	WHERE ($1 = '' OR status = $1)
	ORDER BY priority DESC, votes DESC, created_at DESC
	`

	rows, err := s.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	return scanFeedbackItems(rows)
}

// GetBoard groups feedback into kanban columns, one list per status, every
// column present even when empty.
func (s *FeedbackService) GetBoard(ctx context.Context) (*feedback.Board, error) {
	items, err := s.ListFeedback(ctx, "")
	if err != nil {
		return nil, err
	}

	board := &feedback.Board{Columns: make(map[feedback.Status][]*feedback.Item, len(feedback.BoardColumns))}
	for _, col := range feedback.BoardColumns {
		board.Columns[col] = []*feedback.Item{}
	}
	for _, item := range items {
		board.Columns[item.Status] = append(board.Columns[item.Status], item)
	}
	return board, nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id string) (*feedback.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid feedback id")
	}

	item := &feedback.Item{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, title, body, category, status, visibility, priority, votes, admin_notes, resolved_at, created_at, updated_at
		FROM feedback_items WHERE id = $1`, itemID).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Body, &item.Category, &item.Status,
		&item.Visibility, &item.Priority, &item.Votes, &item.AdminNotes, &item.ResolvedAt,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("feedback not found")
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return item, nil
}

func (s *FeedbackService) UpdateFeedback(ctx context.Context, id string, req *feedback.UpdateRequest) (*feedback.Item, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid feedback id")
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE feedback_items
		SET title = COALESCE($2, title),
		    body = COALESCE($3, body),
		    priority = COALESCE($4, priority),
		    admin_notes = COALESCE($5, admin_notes),
		    updated_at = NOW()
		WHERE id = $1`,
		itemID, req.Title, req.Body, req.Priority, req.AdminNotes)
	if err != nil {
		return nil, fmt.Errorf("failed to update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("feedback not found")
	}

	return s.GetFeedback(ctx, id)
}

// MoveStatus relocates a card to another board column. Moving into done
// stamps resolved_at; moving out clears it.
func (s *FeedbackService) MoveStatus(ctx context.Context, id string, status feedback.Status) (*feedback.Item, error) {
	if !feedback.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid feedback id")
	}

	var resolvedAt *time.Time
	if status == feedback.StatusDone {
		now := time.Now()
		resolvedAt = &now
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE feedback_items
		SET status = $2, resolved_at = $3, updated_at = NOW()
		WHERE id = $1`, itemID, status, resolvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to move feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("feedback not found")
	}

	return s.GetFeedback(ctx, id)
}

func (s *FeedbackService) SetVisibility(ctx context.Context, id string, visibility feedback.Visibility) (*feedback.Item, error) {
	if visibility != feedback.VisibilityPublic && visibility != feedback.VisibilityHidden {
		return nil, fmt.Errorf("invalid visibility: %s", visibility)
	}

	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid feedback id")
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE feedback_items SET visibility = $2, updated_at = NOW() WHERE id = $1`,
		itemID, visibility)
	if err != nil {
		return nil, fmt.Errorf("failed to set visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("feedback not found")
	}

	return s.GetFeedback(ctx, id)
}

// Changelog is the public feed: done items explicitly marked public.
func (s *FeedbackService) Changelog(ctx context.Context) ([]*feedback.ChangelogEntry, error) {
	query := `
	SELECT id, title, body, category, resolved_at
	FROM feedback_items
	WHERE status = $1 AND visibility = $2
	ORDER BY resolved_at DESC NULLS LAST
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, feedback.StatusDone, feedback.VisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to get changelog: %w", err)
	}
	defer rows.Close()

	entries := []*feedback.ChangelogEntry{}
	for rows.Next() {
		e := &feedback.ChangelogEntry{}
		if err := rows.Scan(&e.ID, &e.Title, &e.Body, &e.Category, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan changelog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ExportCSV streams every feedback item as CSV, header row first.
func (s *FeedbackService) ExportCSV(ctx context.Context, w io.Writer) error {
	items, err := s.ListFeedback(ctx, "")
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{
		"id",
		"user_id",
		"title",
		"body",
		"category",
		"status",
		"visibility",
		"priority",
		"votes",
		"admin_notes",
		"resolved_at",
		"created_at",
		"updated_at",
	}); err != nil {
		return err
	}

	for _, item := range items {
		userID := ""
		if item.UserID != nil {
			userID = item.UserID.String()
		}
		adminNotes := ""
		if item.AdminNotes != nil {
			adminNotes = *item.AdminNotes
		}
		resolvedAt := ""
		if item.ResolvedAt != nil {
			resolvedAt = item.ResolvedAt.Format(time.RFC3339)
		}

		if err := writer.Write([]string{
			item.ID.String(),
			userID,
			item.Title,
			item.Body,
			string(item.Category),
			string(item.Status),
			string(item.Visibility),
			strconv.Itoa(item.Priority),
			strconv.Itoa(item.Votes),
			adminNotes,
			resolvedAt,
			item.CreatedAt.Format(time.RFC3339),
			item.UpdatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func scanFeedbackItems(rows pgx.Rows) ([]*feedback.Item, error) {
	items := []*feedback.Item{}
	for rows.Next() {
		item := &feedback.Item{}
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Body, &item.Category, &item.Status,
			&item.Visibility, &item.Priority, &item.Votes, &item.AdminNotes, &item.ResolvedAt,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
