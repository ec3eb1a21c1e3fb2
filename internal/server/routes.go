package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdictlab/crisisquiz/internal/game"
)

// playerHeader identifies the acting player on every game route. Create
// and join mint the id; clients echo it back on subsequent requests.
const playerHeader = "X-Player-ID"

func addRoutes(r chi.Router, logger *slog.Logger, svc *game.Service) {
	r.Get("/healthz", handleHealth())
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", handleCreateGame(svc))

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", handleGetGame(svc))
			r.Post("/join", handleJoinGame(svc))
			r.Get("/timer", handleTimer(svc))
			r.Get("/events", handleEvents(logger, svc))
			r.Get("/leaderboard", handleLeaderboard(svc))
			r.Post("/submissions", handleSubmit(logger, svc))

			// Admin actions. The engine enforces the role; the routes
			// only carry the actor identity through.
			r.Post("/rounds/{round}/start", handleStartRound(svc))
			r.Post("/rounds/{round}/process", handleProcessRound(svc))
			r.Post("/advance", handleAdvance(svc))
			r.Post("/finish", handleFinish(svc))
			r.Post("/pause", handlePause(svc))
			r.Post("/resume", handleResume(svc))
			r.Delete("/players/{playerID}", handleDeactivatePlayer(svc))
		})
	})
}
