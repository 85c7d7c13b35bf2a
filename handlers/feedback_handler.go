package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"stepLeagueAPI/internal/feedback"
	"stepLeagueAPI/internal/notification"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"

	"github.com/gorilla/mux"
)

type FeedbackHandler struct {
	feedbackService     *services.FeedbackService
	notificationService *services.NotificationService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService, notificationService *services.NotificationService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService:     feedbackService,
		notificationService: notificationService,
	}
}

func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req feedback.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.feedbackService.CreateFeedback(ctx, clerkID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "required") {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to create feedback")
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

// Admin routes below. The router guards them with AdminMiddleware.

func (h *FeedbackHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := feedback.Status(r.URL.Query().Get("status"))
	if status != "" && !feedback.ValidStatus(status) {
		respondWithError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	items, err := h.feedbackService.ListFeedback(ctx, status)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list feedback")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *FeedbackHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	board, err := h.feedbackService.GetBoard(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get board")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *FeedbackHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.feedbackService.GetFeedback(ctx, mux.Vars(r)["id"])
	if err != nil {
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "invalid") {
			respondWithError(w, http.StatusNotFound, "Feedback not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get feedback")
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *FeedbackHandler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req feedback.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.feedbackService.UpdateFeedback(ctx, mux.Vars(r)["id"], &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "invalid") {
			respondWithError(w, http.StatusNotFound, "Feedback not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update feedback")
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *FeedbackHandler) MoveStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req feedback.StatusPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.feedbackService.MoveStatus(ctx, mux.Vars(r)["id"], req.Status)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "invalid status"):
			respondWithError(w, http.StatusBadRequest, errMsg)
		case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "invalid"):
			respondWithError(w, http.StatusNotFound, "Feedback not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to move feedback")
		}
		return
	}

	// Tell the author their feedback moved, unless it was submitted anonymously.
	if item.UserID != nil && h.notificationService != nil {
		go func() {
			nctx, ncancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer ncancel()
			_, err := h.notificationService.CreateNotification(nctx, &notification.CreateNotificationRequest{
				UserID:   *item.UserID,
				Type:     notification.TypeFeedbackStatusMoved,
				Priority: notification.PriorityLow,
				Data: map[string]any{
					"title":  item.Title,
					"status": string(item.Status),
				},
			})
			if err != nil {
				log.Printf("Failed to notify feedback author: %v", err)
			}
		}()
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *FeedbackHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req feedback.VisibilityPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.feedbackService.SetVisibility(ctx, mux.Vars(r)["id"], req.Visibility)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "invalid visibility"):
			respondWithError(w, http.StatusBadRequest, errMsg)
		case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "invalid"):
			respondWithError(w, http.StatusNotFound, "Feedback not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to set visibility")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

// GetChangelog is public: done items explicitly marked visible.
func (h *FeedbackHandler) GetChangelog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.feedbackService.Changelog(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get changelog")
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

func (h *FeedbackHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="feedback.csv"`)

	if err := h.feedbackService.ExportCSV(ctx, w); err != nil {
		log.Printf("Feedback CSV export failed: %v", err)
	}
}
