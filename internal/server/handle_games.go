package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verdictlab/crisisquiz/internal/domain"
	"github.com/verdictlab/crisisquiz/internal/game"
)

type CreateGameRequest struct {
	PlayerName string `json:"playerName"`
}

type CreateGameResponse struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
}

func handleCreateGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.PlayerName = strings.TrimSpace(req.PlayerName)
		if req.PlayerName == "" {
			writeError(w, http.StatusBadRequest, "playerName is required")
			return
		}

		playerID := uuid.NewString()
		g, err := svc.CreateGame(r.Context(), playerID, req.PlayerName)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateGameResponse{
			GameCode: g.Code,
			PlayerID: playerID,
		})
	}
}

type JoinGameRequest struct {
	PlayerName string `json:"playerName"`
}

type JoinGameResponse struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
}

func handleJoinGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.PlayerName = strings.TrimSpace(req.PlayerName)
		if req.PlayerName == "" {
			writeError(w, http.StatusBadRequest, "playerName is required")
			return
		}

		code := chi.URLParam(r, "code")
		playerID := uuid.NewString()
		g, err := svc.JoinGame(r.Context(), code, playerID, req.PlayerName)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, JoinGameResponse{
			GameCode: g.Code,
			PlayerID: playerID,
		})
	}
}

func handleGetGame(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.GetGame(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleLeaderboard(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		roundNumber := 0
		if raw := r.URL.Query().Get("round"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "round must be a number")
				return
			}
			roundNumber = n
		}
		if roundNumber == 0 {
			g, err := svc.GetGame(r.Context(), code)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			roundNumber = g.CurrentRound
		}

		entries, err := svc.Leaderboard(r.Context(), code, roundNumber)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"round":       roundNumber,
			"leaderboard": entries,
		})
	}
}

type TimerResponse struct {
	RemainingSeconds int  `json:"remainingSeconds"`
	InGrace          bool `json:"inGrace"`
	Expired          bool `json:"expired"`
}

func handleTimer(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, armed := svc.TimerSnapshot(chi.URLParam(r, "code"))
		if !armed {
			writeError(w, http.StatusNotFound, "no round in progress")
			return
		}
		writeJSON(w, http.StatusOK, TimerResponse{
			RemainingSeconds: int(snap.Remaining.Seconds()),
			InGrace:          snap.InGrace(),
			Expired:          snap.Phase == domain.TimerExpired,
		})
	}
}
