package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verdictlab/crisisquiz/internal/game"
)

// handleEvents streams game snapshots over SSE. The first event carries
// the current document; every subsequent mutation pushes a fresh one.
func handleEvents(logger *slog.Logger, svc *game.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		code := chi.URLParam(r, "code")
		ch, cancel, err := svc.Watch(r.Context(), code)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case g, open := <-ch:
				if !open {
					return
				}
				data, err := json.Marshal(g)
				if err != nil {
					logger.Error("encoding game snapshot", "game", code, "error", err)
					continue
				}
				fmt.Fprintf(w, "event: game\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
