package server

import (
	"log/slog"
	"net/http"

	"github.com/partyround/fishbowl/internal/fishbowl"
	"github.com/partyround/fishbowl/internal/game"
)

type StartGameResponse struct {
	Code              string    `json:"code"`
	Status            string    `json:"status"`
	SubStatus         string    `json:"subStatus"`
	TurnOrderSize     int       `json:"turnOrderSize"`
	TurnOrderComplete bool      `json:"turnOrderComplete"`
	FirstTurn         *TurnInfo `json:"firstTurn"`
}

func handleStartGame(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		result, err := m.StartGame(r.Context(), sess.GameID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:       "game_started",
			GameStatus: string(result.Game.Status),
			SubStatus:  string(result.Game.SubStatus),
			Round:      1,
			RoundName:  fishbowl.RoundName(1),
			TurnID:     result.FirstTurn.ID,
			PlayerID:   result.FirstPlayer.ID,
			PlayerName: result.FirstPlayer.Name,
			TeamID:     result.FirstTurn.TeamID,
		})

		writeJSON(w, http.StatusOK, StartGameResponse{
			Code:              result.Game.ID,
			Status:            string(result.Game.Status),
			SubStatus:         string(result.Game.SubStatus),
			TurnOrderSize:     result.TurnOrderSize,
			TurnOrderComplete: true,
			FirstTurn: &TurnInfo{
				ID:         result.FirstTurn.ID,
				Round:      result.FirstTurn.Round,
				PlayerID:   result.FirstPlayer.ID,
				PlayerName: result.FirstPlayer.Name,
				TeamID:     result.FirstTurn.TeamID,
			},
		})
	}
}

type StartRoundResponse struct {
	Round     int       `json:"round"`
	RoundName string    `json:"roundName"`
	Turn      *TurnInfo `json:"turn"`
	TeamName  string    `json:"teamName"`
}

func handleStartRound(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		result, err := m.StartRound(r.Context(), sess.GameID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:       "round_started",
			Round:      result.Round,
			RoundName:  result.RoundName,
			TurnID:     result.Turn.ID,
			PlayerID:   result.Player.ID,
			PlayerName: result.Player.Name,
			TeamID:     result.Team.ID,
		})

		writeJSON(w, http.StatusOK, StartRoundResponse{
			Round:     result.Round,
			RoundName: result.RoundName,
			TeamName:  result.Team.Name,
			Turn: &TurnInfo{
				ID:         result.Turn.ID,
				Round:      result.Turn.Round,
				PlayerID:   result.Player.ID,
				PlayerName: result.Player.Name,
				TeamID:     result.Team.ID,
			},
		})
	}
}

func handleBeginTurn(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		turn, err := m.BeginTurn(r.Context(), sess.PlayerID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:     "turn_started",
			Round:    turn.Round,
			TurnID:   turn.ID,
			PlayerID: turn.PlayerID,
			TeamID:   turn.TeamID,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"turnId":    turn.ID,
			"startedAt": turn.StartedAt,
		})
	}
}

func handlePauseTurn(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		if err := m.PauseTurn(r.Context(), sess.PlayerID); err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{Type: "turn_paused", PlayerID: sess.PlayerID})
		writeJSON(w, http.StatusOK, map[string]string{"subStatus": string(fishbowl.SubTurnPaused)})
	}
}

func handleResumeTurn(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		result, err := m.ResumeTurn(r.Context(), sess.PlayerID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:       "turn_resumed",
			TurnID:     result.Turn.ID,
			PlayerID:   result.Player.ID,
			PlayerName: result.Player.Name,
		})
		writeJSON(w, http.StatusOK, map[string]any{
			"turnId":  result.Turn.ID,
			"newTurn": result.NewTurn,
		})
	}
}

type EndTurnResponse struct {
	Ended  TurnInfo  `json:"ended"`
	Next   *TurnInfo `json:"next"`
	Paused bool      `json:"paused"`
}

func handleEndTurn(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		result, err := m.EndTurn(r.Context(), sess.PlayerID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		resp := EndTurnResponse{
			Ended: TurnInfo{
				ID:       result.Ended.ID,
				Round:    result.Ended.Round,
				PlayerID: result.Ended.PlayerID,
				TeamID:   result.Ended.TeamID,
				Guessed:  result.Ended.PhrasesGuessed,
				Skipped:  result.Ended.PhrasesSkipped,
				Points:   result.Ended.PointsScored,
			},
			Paused: result.Paused,
		}

		event := Event{
			Type:     "turn_ended",
			Round:    result.Ended.Round,
			TurnID:   result.Ended.ID,
			PlayerID: result.Ended.PlayerID,
			TeamID:   result.Ended.TeamID,
			Points:   result.Ended.PointsScored,
		}
		broker.Publish(sess.GameID, event)

		if result.Next != nil {
			resp.Next = &TurnInfo{
				ID:         result.Next.ID,
				Round:      result.Next.Round,
				PlayerID:   result.NextPlayer.ID,
				PlayerName: result.NextPlayer.Name,
				TeamID:     result.Next.TeamID,
			}
			broker.Publish(sess.GameID, Event{
				Type:       "turn_starting",
				Round:      result.Next.Round,
				TurnID:     result.Next.ID,
				PlayerID:   result.NextPlayer.ID,
				PlayerName: result.NextPlayer.Name,
				TeamID:     result.Next.TeamID,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type PhraseResponse struct {
	PhraseID      string  `json:"phraseId"`
	Status        string  `json:"status"`
	NextPhraseID  *string `json:"nextPhraseId"`
	NextPhrase    *string `json:"nextPhrase"`
	Round         int     `json:"round"`
	RoundComplete bool    `json:"roundComplete"`
	GameComplete  bool    `json:"gameComplete"`
}

func phraseResponse(result game.PhraseResult) PhraseResponse {
	resp := PhraseResponse{
		PhraseID:      result.Phrase.ID,
		Status:        string(result.Phrase.Status),
		Round:         result.Round,
		RoundComplete: result.RoundComplete,
		GameComplete:  result.GameComplete,
	}
	if result.NextPhrase != nil {
		resp.NextPhraseID = &result.NextPhrase.ID
		resp.NextPhrase = &result.NextPhrase.Text
	}
	return resp
}

type PlayPhraseRequest struct {
	PhraseID string `json:"phraseId"`
}

func handleGuess(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req PlayPhraseRequest
		if err := readJSON(r, &req); err != nil || req.PhraseID == "" {
			writeError(w, http.StatusBadRequest, "phraseId is required")
			return
		}

		result, err := m.GuessPhrase(r.Context(), sess.PlayerID, req.PhraseID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:     "phrase_guessed",
			Round:    *result.Phrase.GuessedInRound,
			PlayerID: sess.PlayerID,
			TeamID:   *result.Phrase.GuessedByTeamID,
			Points:   1,
		})
		if result.RoundComplete {
			broker.Publish(sess.GameID, Event{Type: "round_complete", Round: *result.Phrase.GuessedInRound})
		}
		if result.GameComplete {
			broker.Publish(sess.GameID, Event{Type: "game_complete"})
		}

		writeJSON(w, http.StatusOK, phraseResponse(result))
	}
}

func handleSkip(logger *slog.Logger, m *game.Machine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req PlayPhraseRequest
		if err := readJSON(r, &req); err != nil || req.PhraseID == "" {
			writeError(w, http.StatusBadRequest, "phraseId is required")
			return
		}

		result, err := m.SkipPhrase(r.Context(), sess.PlayerID, req.PhraseID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}

		broker.Publish(sess.GameID, Event{
			Type:     "phrase_skipped",
			Round:    result.Round,
			PlayerID: sess.PlayerID,
		})
		writeJSON(w, http.StatusOK, phraseResponse(result))
	}
}

func handleCurrentPhrase(logger *slog.Logger, m *game.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, m)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		phrase, found, err := m.CurrentPhrase(r.Context(), sess.PlayerID)
		if err != nil {
			writeEngineError(w, logger, err)
			return
		}
		if !found {
			writeJSON(w, http.StatusOK, map[string]any{"phrase": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"phraseId": phrase.ID,
			"phrase":   phrase.Text,
		})
	}
}
