package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/partyround/fishbowl/internal/game"
	"github.com/partyround/fishbowl/internal/presence"
)

func addRoutes(r chi.Router, logger *slog.Logger, m *game.Machine, registry presence.Registry, checks map[string]Checker) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Fishbowl API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, checks))

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", handleCreateGame(logger, m))
		r.Post("/{code}/join", handleJoin(logger, m, broker))
		r.Get("/{code}/state", handleState(logger, m))
		r.Get("/{code}/ring", handleRingCheck(logger, m))
	})

	// Player routes — actor resolved from the Bearer session token.
	r.Route("/api/game", func(r chi.Router) {
		r.Post("/team", handlePickTeam(logger, m, broker))
		r.Post("/phrases", handleSubmitPhrases(logger, m, broker))
		r.Post("/start", handleStartGame(logger, m, broker))
		r.Post("/round/start", handleStartRound(logger, m, broker))
		r.Post("/turn/begin", handleBeginTurn(logger, m, broker))
		r.Post("/turn/pause", handlePauseTurn(logger, m, broker))
		r.Post("/turn/resume", handleResumeTurn(logger, m, broker))
		r.Post("/turn/end", handleEndTurn(logger, m, broker))
		r.Get("/phrase", handleCurrentPhrase(logger, m))
		r.Post("/guess", handleGuess(logger, m, broker))
		r.Post("/skip", handleSkip(logger, m, broker))
		r.Get("/events", handleEvents(broker, m))
	})

	r.Get("/ws/presence", handlePresence(logger, m, registry, broker))
}
