package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/partyround/fishbowl/internal/fishbowl"
	"github.com/partyround/fishbowl/internal/game"
)

type CreateGameRequest struct {
	TeamCount        int `json:"teamCount"`
	PhrasesPerPlayer int `json:"phrasesPerPlayer"`
	TimerSeconds     int `json:"timerSeconds"`
}

type TeamInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

type CreateGameResponse struct {
	Code             string     `json:"code"`
	TeamCount        int        `json:"teamCount"`
	PhrasesPerPlayer int        `json:"phrasesPerPlayer"`
	TimerSeconds     int        `json:"timerSeconds"`
	Teams            []TeamInfo `json:"teams"`
}

func handleCreateGame(logger *slog.Logger, m *game.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := m.CreateGame(r.Context(), game.CreateGameRequest{
			TeamCount:        req.TeamCount,
			PhrasesPerPlayer: req.PhrasesPerPlayer,
			TimerSeconds:     req.TimerSeconds,
		})
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateGameResponse{
			Code:             result.Game.ID,
			TeamCount:        result.Game.TeamCount,
			PhrasesPerPlayer: result.Game.PhrasesPerPlayer,
			TimerSeconds:     result.Game.TimerSeconds,
			Teams:            teamInfos(result.Teams),
		})
	}
}

func teamInfos(teams []fishbowl.Team) []TeamInfo {
	out := make([]TeamInfo, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamInfo{ID: t.ID, Name: t.Name, Color: t.Color, Score: t.ScoreTotal})
	}
	return out
}

type JoinRequest struct {
	PlayerName string `json:"playerName"`
}

type JoinResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	GameCode string `json:"gameCode"`
}

func handleJoin(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))

		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := m.Join(r.Context(), code, req.PlayerName)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(code, Event{
			Type:       "player_joined",
			PlayerID:   result.Player.ID,
			PlayerName: result.Player.Name,
		})

		writeJSON(w, http.StatusOK, JoinResponse{
			Token:    result.SessionToken,
			PlayerID: result.Player.ID,
			GameCode: code,
		})
	}
}

type PlayerInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	TeamID      *string `json:"teamId"`
	IsConnected bool    `json:"isConnected"`
}

type TeamScore struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	ScoreRound1 int    `json:"scoreRound1"`
	ScoreRound2 int    `json:"scoreRound2"`
	ScoreRound3 int    `json:"scoreRound3"`
	ScoreTotal  int    `json:"scoreTotal"`
}

type TurnInfo struct {
	ID         string  `json:"id"`
	Round      int     `json:"round"`
	PlayerID   string  `json:"playerId"`
	PlayerName string  `json:"playerName"`
	TeamID     string  `json:"teamId"`
	StartedAt  *string `json:"startedAt"`
	Guessed    int     `json:"guessed"`
	Skipped    int     `json:"skipped"`
	Points     int     `json:"points"`
}

type StateResponse struct {
	Code           string       `json:"code"`
	Status         string       `json:"status"`
	SubStatus      string       `json:"subStatus"`
	Round          int          `json:"round"`
	RoundName      string       `json:"roundName"`
	TimerSeconds   int          `json:"timerSeconds"`
	Teams          []TeamScore  `json:"teams"`
	Players        []PlayerInfo `json:"players"`
	PhrasesTotal   int          `json:"phrasesTotal"`
	PhrasesActive  int          `json:"phrasesActive"`
	PhrasesGuessed int          `json:"phrasesGuessed"`
	PhrasesSkipped int          `json:"phrasesSkipped"`
	CurrentTurn    *TurnInfo    `json:"currentTurn"`
}

func handleState(logger *slog.Logger, m *game.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))

		snap, err := m.State(r.Context(), code)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		resp := StateResponse{
			Code:           snap.Game.ID,
			Status:         string(snap.Game.Status),
			SubStatus:      string(snap.Game.SubStatus),
			Round:          snap.Game.CurrentRound,
			RoundName:      snap.RoundName,
			TimerSeconds:   snap.Game.TimerSeconds,
			PhrasesTotal:   snap.Phrases.Total,
			PhrasesActive:  snap.Phrases.Active,
			PhrasesGuessed: snap.Phrases.Guessed,
			PhrasesSkipped: snap.Phrases.Skipped,
		}
		for _, t := range snap.Teams {
			resp.Teams = append(resp.Teams, TeamScore{
				ID: t.ID, Name: t.Name, Color: t.Color,
				ScoreRound1: t.ScoreRound1, ScoreRound2: t.ScoreRound2,
				ScoreRound3: t.ScoreRound3, ScoreTotal: t.ScoreTotal,
			})
		}
		for _, p := range snap.Players {
			resp.Players = append(resp.Players, PlayerInfo{
				ID: p.ID, Name: p.Name, TeamID: p.TeamID, IsConnected: p.IsConnected,
			})
		}
		if snap.CurrentTurn != nil {
			resp.CurrentTurn = &TurnInfo{
				ID:         snap.CurrentTurn.ID,
				Round:      snap.CurrentTurn.Round,
				PlayerID:   snap.CurrentTurn.PlayerID,
				PlayerName: snap.CurrentPlayer.Name,
				TeamID:     snap.CurrentTurn.TeamID,
				StartedAt:  snap.CurrentTurn.StartedAt,
				Guessed:    snap.CurrentTurn.PhrasesGuessed,
				Skipped:    snap.CurrentTurn.PhrasesSkipped,
				Points:     snap.CurrentTurn.PointsScored,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleRingCheck exposes the turn-order integrity diagnostic for
// operational tooling.
func handleRingCheck(logger *slog.Logger, m *game.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))
		if err := m.VerifyRing(r.Context(), code); err != nil {
			writeEngineError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"ring": "ok"})
	}
}
