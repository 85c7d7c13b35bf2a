package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stepLeagueAPI/internal/verification"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"

	"github.com/gorilla/mux"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
}

func NewVerificationHandler(verificationService *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
	}
}

// CreateSubmission accepts a screenshot claim and answers 202: verification
// happens in the background, clients poll the status endpoint.
func (h *VerificationHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req verification.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.verificationService.CreateSubmission(ctx, clerkID, &req)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "required") || strings.Contains(errMsg, "positive"):
			respondWithError(w, http.StatusBadRequest, errMsg)
		case strings.Contains(errMsg, "not found"):
			respondWithError(w, http.StatusNotFound, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to create submission")
		}
		return
	}

	w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	respondWithJSON(w, http.StatusAccepted, resp)
}

func (h *VerificationHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	resp, err := h.verificationService.GetSubmission(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "invalid"):
			respondWithError(w, http.StatusBadRequest, errMsg)
		case strings.Contains(errMsg, "not found"):
			respondWithError(w, http.StatusNotFound, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to get submission")
		}
		return
	}

	if resp.Submission.Status == verification.StatusPending {
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	}
	respondWithJSON(w, http.StatusOK, resp)
}
