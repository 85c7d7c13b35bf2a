package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stepLeagueAPI/internal/analytics"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

func (h *AnalyticsHandler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req analytics.TrackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.analyticsService.TrackEvent(ctx, clerkID, &req); err != nil {
		if strings.Contains(err.Error(), "required") {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to track event")
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "tracked"})
}

func (h *AnalyticsHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req analytics.HeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deviceInfo := map[string]string{
		"app_version":  req.AppVersion,
		"platform":     req.Platform,
		"os_version":   req.OSVersion,
		"device_model": req.DeviceModel,
	}

	if err := h.analyticsService.UpdatePresence(ctx, clerkID, deviceInfo); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update presence")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *AnalyticsHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.analyticsService.SetUserInactive(ctx, clerkID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (h *AnalyticsHandler) ReportCrash(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var report analytics.CrashReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.analyticsService.ReportCrash(ctx, clerkID, &report); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to report crash")
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "reported"})
}

// GetSummary is admin only, guarded by AdminMiddleware in the router.
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summary, err := h.analyticsService.GetSummary(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get summary")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
