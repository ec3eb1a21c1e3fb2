package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/verdictlab/crisisquiz/internal/domain"
	"github.com/verdictlab/crisisquiz/internal/game"
)

type SubmitRequest struct {
	Proposal          string   `json:"proposal"`
	SelectedVariables []string `json:"selectedVariables"`
}

// handleSubmit records a player's entry for the current round. Players
// get exactly one submission per round; a second attempt is rejected
// here before any judge is consulted.
func handleSubmit(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.Header.Get(playerHeader)
		if playerID == "" {
			writeError(w, http.StatusUnauthorized, playerHeader+" header required")
			return
		}

		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Proposal) == "" {
			writeError(w, http.StatusBadRequest, "proposal is required")
			return
		}

		code := chi.URLParam(r, "code")
		g, err := svc.GetGame(r.Context(), code)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if round, ok := g.Rounds[g.CurrentRound]; ok {
			if _, submitted := round.Submissions[playerID]; submitted {
				writeDomainError(w, domain.ErrAlreadySubmitted)
				return
			}
		}

		progress := func(index int, judge domain.Judge) {
			logger.Info("judge evaluating submission",
				"game", code, "player", playerID,
				"judge", judge.ID, "position", index+1)
		}

		sub, err := svc.SubmitProposal(r.Context(), code, playerID, req.Proposal,
			req.SelectedVariables, progress)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	}
}
