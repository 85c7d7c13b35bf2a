package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stepLeagueAPI/internal/share"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"
)

type ShareHandler struct {
	shareService *services.ShareService
}

func NewShareHandler(shareService *services.ShareService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
	}
}

// GetShareOptions returns the block catalog, the blocks the caller's data
// can fill, and the defaults for the requested context.
func (h *ShareHandler) GetShareOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	shareCtx := share.ShareContext(r.URL.Query().Get("context"))
	start, end, err := parseRangeParams(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	options, err := h.shareService.ShareOptions(ctx, clerkID, shareCtx, start, end)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get share options")
		return
	}

	respondWithJSON(w, http.StatusOK, options)
}

func (h *ShareHandler) BuildMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req services.BuildMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.shareService.BuildShareMessage(ctx, clerkID, &req)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "unknown content block") || strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "before start_date"):
			respondWithError(w, http.StatusBadRequest, errMsg)
		case strings.Contains(errMsg, "not found"):
			respondWithError(w, http.StatusNotFound, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to build message")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ShareHandler) GetShareCard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	card, err := h.shareService.ShareCard(ctx, clerkID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to generate share card")
		return
	}

	respondWithJSON(w, http.StatusOK, card)
}

// parseRangeParams reads optional start/end query params, defaulting to the
// last seven days.
func parseRangeParams(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	start := now.AddDate(0, 0, -6)
	end := now

	if s := r.URL.Query().Get("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("start_date")
		}
		start = parsed
	}
	if e := r.URL.Query().Get("end_date"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("end_date")
		}
		end = parsed
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errRangeOrder
	}
	return start, end, nil
}

type paramError string

func (e paramError) Error() string { return string(e) }

func errInvalidDate(param string) error {
	return paramError("invalid " + param + ", expected YYYY-MM-DD")
}

var errRangeOrder = paramError("end_date before start_date")
