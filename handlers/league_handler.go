package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stepLeagueAPI/internal/league"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"

	"github.com/gorilla/mux"
)

type LeagueHandler struct {
	leagueService *services.LeagueService
}

func NewLeagueHandler(leagueService *services.LeagueService) *LeagueHandler {
	return &LeagueHandler{
		leagueService: leagueService,
	}
}

func (h *LeagueHandler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req league.CreateLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.leagueService.CreateLeague(ctx, clerkID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "at least") {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to create league")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *LeagueHandler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	l, err := h.leagueService.GetLeague(ctx, mux.Vars(r)["id"])
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, "League not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get league")
		return
	}

	respondWithJSON(w, http.StatusOK, l)
}

func (h *LeagueHandler) JoinLeague(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req league.JoinLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	joined, err := h.leagueService.JoinLeague(ctx, clerkID, mux.Vars(r)["id"], req.InviteCode)
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "not found"):
			respondWithError(w, http.StatusNotFound, errMsg)
		case strings.Contains(errMsg, "invite code"):
			respondWithError(w, http.StatusForbidden, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to join league")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, joined)
}

func (h *LeagueHandler) LeaveLeague(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.leagueService.LeaveLeague(ctx, clerkID, mux.Vars(r)["id"]); err != nil {
		if strings.Contains(err.Error(), "not found") {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to leave league")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Left league successfully"})
}

func (h *LeagueHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.leagueService.GetLeagueLeaderboard(ctx, clerkID, mux.Vars(r)["id"])
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "membership not found"):
			respondWithError(w, http.StatusForbidden, errMsg)
		case strings.Contains(errMsg, "not found"):
			respondWithError(w, http.StatusNotFound, errMsg)
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeagueHandler) GetGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.leagueService.GetGlobalLeaderboard(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get global leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}
