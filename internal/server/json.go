package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verdictlab/crisisquiz/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a game-engine error onto an HTTP status. The
// sentinel, not the wrapping, decides the status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrRoundNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNotAdmin):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrGameAlreadyStarted),
		errors.Is(err, domain.ErrGameCompleted),
		errors.Is(err, domain.ErrRoundNotActive),
		errors.Is(err, domain.ErrRoundProcessed),
		errors.Is(err, domain.ErrAlreadySubmitted),
		errors.Is(err, domain.ErrPlayerInactive),
		errors.Is(err, domain.ErrGameExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
