package server

import (
	"log/slog"
	"net/http"

	"github.com/partyround/fishbowl/internal/game"
)

type PickTeamRequest struct {
	TeamID string `json:"teamId"`
}

func handlePickTeam(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req PickTeamRequest
		if err := readJSON(r, &req); err != nil || req.TeamID == "" {
			writeError(w, http.StatusBadRequest, "teamId is required")
			return
		}

		if err := m.PickTeam(r.Context(), sess.PlayerID, req.TeamID); err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:     "team_picked",
			PlayerID: sess.PlayerID,
			TeamID:   req.TeamID,
		})
		writeJSON(w, http.StatusOK, map[string]string{"teamId": req.TeamID})
	}
}

type SubmitPhrasesRequest struct {
	Phrases []string `json:"phrases"`
}

func handleSubmitPhrases(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req SubmitPhrasesRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := m.SubmitPhrases(r.Context(), sess.PlayerID, req.Phrases); err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:     "phrases_submitted",
			PlayerID: sess.PlayerID,
		})
		writeJSON(w, http.StatusOK, map[string]int{"submitted": len(req.Phrases)})
	}
}
