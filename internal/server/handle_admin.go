package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/verdictlab/crisisquiz/internal/game"
)

// actorID extracts the acting player's identity, writing an error
// response when the header is absent.
func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(playerHeader)
	if id == "" {
		writeError(w, http.StatusUnauthorized, playerHeader+" header required")
		return "", false
	}
	return id, true
}

// roundParam parses the {round} URL parameter.
func roundParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "round must be a positive number")
		return 0, false
	}
	return n, true
}

func handleStartRound(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		round, ok := roundParam(w, r)
		if !ok {
			return
		}

		g, err := svc.StartRound(r.Context(), chi.URLParam(r, "code"), actor, round)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleProcessRound(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		round, ok := roundParam(w, r)
		if !ok {
			return
		}

		g, err := svc.ProcessRound(r.Context(), chi.URLParam(r, "code"), actor, round)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleAdvance(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}

		g, err := svc.AdvanceToNextRound(r.Context(), chi.URLParam(r, "code"), actor)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleFinish(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}

		g, err := svc.FinishGame(r.Context(), chi.URLParam(r, "code"), actor)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handlePause(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		if err := svc.PauseRound(r.Context(), chi.URLParam(r, "code"), actor); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleResume(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}
		if err := svc.ResumeRound(r.Context(), chi.URLParam(r, "code"), actor); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDeactivatePlayer(svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorID(w, r)
		if !ok {
			return
		}

		err := svc.DeactivatePlayer(r.Context(),
			chi.URLParam(r, "code"), actor, chi.URLParam(r, "playerID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
