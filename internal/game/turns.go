package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

type StartGameResult struct {
	Game          fishbowl.Game
	TurnOrderSize int
	FirstTurn     fishbowl.Turn
	FirstPlayer   fishbowl.Player
}

// StartGame moves a game from setup to playing. This is the single
// largest atomic operation in the engine: roster and phrase validation,
// snake-draft ring construction, start-player selection, and first-turn
// creation commit together or not at all.
func (m *Machine) StartGame(ctx context.Context, code string) (StartGameResult, error) {
	var result StartGameResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, err := q.GetGame(ctx, code)
		if err != nil {
			return err
		}
		if game.Status != fishbowl.StatusSetup {
			return conflictf(string(game.Status), string(fishbowl.StatusSetup),
				"game can only be started from setup")
		}
		if err := m.validateStart(ctx, q, game); err != nil {
			return err
		}

		players, err := q.ListPlayers(ctx, game.ID)
		if err != nil {
			return err
		}
		sequence := m.builder.Sequence(players)
		nodes := m.builder.Nodes(game.ID, sequence)
		if err := q.InsertTurnOrder(ctx, nodes); err != nil {
			return err
		}

		first, err := m.nav.RandomStartPlayer(ctx, q, game.ID)
		if errors.Is(err, ErrNoEligiblePlayer) {
			return validationf("no connected players to start with")
		}
		if err != nil {
			return err
		}

		turn := fishbowl.Turn{
			ID:       uuid.NewString(),
			GameID:   game.ID,
			Round:    1,
			TeamID:   *first.TeamID,
			PlayerID: first.ID,
		}
		if err := q.InsertTurn(ctx, turn); err != nil {
			return err
		}

		ts := m.timestamp()
		game.Status = fishbowl.StatusPlaying
		game.SubStatus = fishbowl.SubRoundIntro
		game.CurrentRound = 1
		game.CurrentTurnID = &turn.ID
		game.StartedAt = &ts
		if err := q.UpdateGameState(ctx, game); err != nil {
			return err
		}

		result = StartGameResult{
			Game:          game,
			TurnOrderSize: len(nodes),
			FirstTurn:     turn,
			FirstPlayer:   first,
		}
		return nil
	})
	return result, err
}

type StartRoundResult struct {
	Round     int
	RoundName string
	Turn      fishbowl.Turn
	Player    fishbowl.Player
	Team      fishbowl.Team
}

// StartRound moves from round_intro to turn_starting and returns the
// whole phrase pool to active: every round replays the same phrases
// under a different rule. For round 1 the turn created by StartGame is
// reused; for later rounds the acting player is the ring successor of
// whoever took the previous round's last turn.
func (m *Machine) StartRound(ctx context.Context, code string) (StartRoundResult, error) {
	var result StartRoundResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, err := q.GetGame(ctx, code)
		if err != nil {
			return err
		}
		if game.Status != fishbowl.StatusPlaying || game.SubStatus != fishbowl.SubRoundIntro {
			return conflictf(string(game.SubStatus), string(fishbowl.SubRoundIntro),
				"round can only start from the round intro")
		}

		if err := q.ResetPhrasePool(ctx, game.ID); err != nil {
			return err
		}

		var turn fishbowl.Turn
		if game.CurrentTurnID != nil {
			// Round 1: the opening turn was created by StartGame.
			turn, err = q.GetTurn(ctx, *game.CurrentTurnID)
			if err != nil {
				return err
			}
		} else {
			var actor fishbowl.Player
			prev, found, err := q.LastCompletedTurn(ctx, game.ID)
			if err != nil {
				return err
			}
			if found {
				actor, err = m.nav.NextPlayer(ctx, q, game.ID, prev.PlayerID)
			} else {
				actor, err = m.nav.RandomStartPlayer(ctx, q, game.ID)
			}
			if errors.Is(err, ErrNoEligiblePlayer) {
				return conflictf(string(game.SubStatus), string(fishbowl.SubTurnStarting),
					"no connected player to take the next turn")
			}
			if err != nil {
				return err
			}

			turn = fishbowl.Turn{
				ID:       uuid.NewString(),
				GameID:   game.ID,
				Round:    game.CurrentRound,
				TeamID:   *actor.TeamID,
				PlayerID: actor.ID,
			}
			if err := q.InsertTurn(ctx, turn); err != nil {
				return err
			}
			game.CurrentTurnID = &turn.ID
		}

		game.SubStatus = fishbowl.SubTurnStarting
		if err := q.UpdateGameState(ctx, game); err != nil {
			return err
		}

		player, err := q.GetPlayer(ctx, turn.PlayerID)
		if err != nil {
			return err
		}
		team, err := q.GetTeam(ctx, turn.TeamID)
		if err != nil {
			return err
		}
		result = StartRoundResult{
			Round:     game.CurrentRound,
			RoundName: fishbowl.RoundName(game.CurrentRound),
			Turn:      turn,
			Player:    player,
			Team:      team,
		}
		return nil
	})
	return result, err
}

// BeginTurn starts the clock on the current turn: turn_starting to
// turn_active. Only the acting player may begin their own turn.
func (m *Machine) BeginTurn(ctx context.Context, actorID string) (fishbowl.Turn, error) {
	var result fishbowl.Turn
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, turn, err := m.currentTurn(ctx, q, actorID)
		if err != nil {
			return err
		}
		if game.SubStatus != fishbowl.SubTurnStarting {
			return conflictf(string(game.SubStatus), string(fishbowl.SubTurnStarting),
				"turn is not waiting to start")
		}
		if turn.PlayerID != actorID {
			return forbiddenf("only the acting player may start the turn")
		}

		ts := m.timestamp()
		if err := q.SetTurnStarted(ctx, turn.ID, ts); err != nil {
			return err
		}
		turn.StartedAt = &ts

		game.SubStatus = fishbowl.SubTurnActive
		if err := q.UpdateGameState(ctx, game); err != nil {
			return err
		}
		result = turn
		return nil
	})
	return result, err
}

// PauseTurn suspends the active turn, typically because the acting player
// dropped mid-turn. Any player in the game may pause; no new turn is
// created and the clock state is preserved.
func (m *Machine) PauseTurn(ctx context.Context, actorID string) error {
	return m.store.Tx(ctx, func(q *Queries) error {
		game, _, err := m.currentTurn(ctx, q, actorID)
		if err != nil {
			return err
		}
		if game.SubStatus != fishbowl.SubTurnActive {
			return conflictf(string(game.SubStatus), string(fishbowl.SubTurnActive),
				"only an active turn can be paused")
		}
		game.SubStatus = fishbowl.SubTurnPaused
		return q.UpdateGameState(ctx, game)
	})
}

type ResumeResult struct {
	Turn    fishbowl.Turn
	Player  fishbowl.Player
	NewTurn bool
}

// ResumeTurn continues a paused game. If the paused turn still exists it
// simply goes back to turn_active. If the pause came from the
// everyone-disconnected case (no current turn), a fresh turn is created
// for a random connected player instead.
func (m *Machine) ResumeTurn(ctx context.Context, actorID string) (ResumeResult, error) {
	var result ResumeResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		actor, err := q.GetPlayer(ctx, actorID)
		if err != nil {
			return err
		}
		game, err := q.GetGame(ctx, actor.GameID)
		if err != nil {
			return err
		}
		if game.SubStatus != fishbowl.SubTurnPaused {
			return conflictf(string(game.SubStatus), string(fishbowl.SubTurnPaused),
				"game is not paused")
		}

		if game.CurrentTurnID != nil {
			turn, err := q.GetTurn(ctx, *game.CurrentTurnID)
			if err != nil {
				return err
			}
			player, err := q.GetPlayer(ctx, turn.PlayerID)
			if err != nil {
				return err
			}
			game.SubStatus = fishbowl.SubTurnActive
			if err := q.UpdateGameState(ctx, game); err != nil {
				return err
			}
			result = ResumeResult{Turn: turn, Player: player}
			return nil
		}

		player, err := m.nav.RandomStartPlayer(ctx, q, game.ID)
		if errors.Is(err, ErrNoEligiblePlayer) {
			return conflictf(string(game.SubStatus), string(fishbowl.SubTurnStarting),
				"no connected player to resume with")
		}
		if err != nil {
			return err
		}
		turn := fishbowl.Turn{
			ID:       uuid.NewString(),
			GameID:   game.ID,
			Round:    game.CurrentRound,
			TeamID:   *player.TeamID,
			PlayerID: player.ID,
		}
		if err := q.InsertTurn(ctx, turn); err != nil {
			return err
		}
		game.CurrentTurnID = &turn.ID
		game.SubStatus = fishbowl.SubTurnStarting
		if err := q.UpdateGameState(ctx, game); err != nil {
			return err
		}
		result = ResumeResult{Turn: turn, Player: player, NewTurn: true}
		return nil
	})
	return result, err
}

type EndTurnResult struct {
	Ended      fishbowl.Turn
	Next       *fishbowl.Turn
	NextPlayer *fishbowl.Player
	// Paused is set when no connected player could take the next turn;
	// the game stays in turn_paused with no current turn until someone
	// reconnects and resumes.
	Paused bool
}

// EndTurn completes the current turn, folds its counters into the owning
// team's round and total score, and hands the game to the ring successor.
// Only the acting player may end their own turn.
func (m *Machine) EndTurn(ctx context.Context, actorID string) (EndTurnResult, error) {
	var result EndTurnResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, turn, err := m.currentTurn(ctx, q, actorID)
		if err != nil {
			return err
		}
		if game.SubStatus != fishbowl.SubTurnActive && game.SubStatus != fishbowl.SubTurnPaused {
			return conflictf(string(game.SubStatus), string(fishbowl.SubTurnActive),
				"no turn in progress to end")
		}
		if turn.PlayerID != actorID {
			return forbiddenf("only the acting player may end the turn")
		}

		if err := m.completeTurn(ctx, q, game, &turn); err != nil {
			return err
		}
		result.Ended = turn

		next, err := m.nav.NextPlayer(ctx, q, game.ID, turn.PlayerID)
		if errors.Is(err, ErrNoEligiblePlayer) {
			game.CurrentTurnID = nil
			game.SubStatus = fishbowl.SubTurnPaused
			result.Paused = true
			return q.UpdateGameState(ctx, game)
		}
		if err != nil {
			return err
		}

		nextTurn := fishbowl.Turn{
			ID:       uuid.NewString(),
			GameID:   game.ID,
			Round:    game.CurrentRound,
			TeamID:   *next.TeamID,
			PlayerID: next.ID,
		}
		if err := q.InsertTurn(ctx, nextTurn); err != nil {
			return err
		}
		game.CurrentTurnID = &nextTurn.ID
		game.SubStatus = fishbowl.SubTurnStarting
		if err := q.UpdateGameState(ctx, game); err != nil {
			return err
		}

		result.Next = &nextTurn
		result.NextPlayer = &next
		return nil
	})
	return result, err
}

type PhraseResult struct {
	Phrase        fishbowl.Phrase
	NextPhrase    *fishbowl.Phrase
	RoundComplete bool
	GameComplete  bool
	// Round is the round in play after the guess; it advances when the
	// guess cleared the pool and the game has rounds left.
	Round int
}

// GuessPhrase resolves an active phrase as guessed by the current team
// and credits the current turn. Clearing the last phrase of the pool
// completes the round in the same transaction: the turn is closed and
// scored, and the game moves to the next round's intro, or to
// game_complete after round 3.
func (m *Machine) GuessPhrase(ctx context.Context, actorID, phraseID string) (PhraseResult, error) {
	var result PhraseResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, turn, err := m.activeTurnFor(ctx, q, actorID)
		if err != nil {
			return err
		}

		phrase, err := q.GetPhrase(ctx, phraseID)
		if err != nil {
			return err
		}
		if phrase.GameID != game.ID {
			return notFoundf("phrase %s not found", phraseID)
		}
		if phrase.Status != fishbowl.PhraseActive {
			return conflictf(string(phrase.Status), string(fishbowl.PhraseActive),
				"phrase has already been resolved")
		}

		if err := q.MarkPhraseGuessed(ctx, phraseID, game.CurrentRound, turn.TeamID); err != nil {
			return err
		}
		if err := q.AddTurnGuess(ctx, turn.ID, 1); err != nil {
			return err
		}
		turn.PhrasesGuessed++
		turn.PointsScored++

		phrase.Status = fishbowl.PhraseGuessed
		phrase.GuessedInRound = &game.CurrentRound
		teamID := turn.TeamID
		phrase.GuessedByTeamID = &teamID
		result.Phrase = phrase
		result.Round = game.CurrentRound

		active, err := q.CountPhrasesByStatus(ctx, game.ID, fishbowl.PhraseActive)
		if err != nil {
			return err
		}
		skipped, err := q.CountPhrasesByStatus(ctx, game.ID, fishbowl.PhraseSkipped)
		if err != nil {
			return err
		}
		if active == 0 && skipped == 0 {
			return m.finishRound(ctx, q, game, &turn, &result)
		}

		if active > 0 {
			next, found, err := q.RandomActivePhrase(ctx, game.ID)
			if err != nil {
				return err
			}
			if found {
				result.NextPhrase = &next
			}
		}
		return nil
	})
	return result, err
}

// finishRound closes the turn that cleared the pool and advances the
// game: round_complete, then either the next round's intro or the end of
// the game. All within the caller's transaction.
func (m *Machine) finishRound(ctx context.Context, q *Queries, game fishbowl.Game, turn *fishbowl.Turn, result *PhraseResult) error {
	if err := m.completeTurn(ctx, q, game, turn); err != nil {
		return err
	}
	game.CurrentTurnID = nil
	game.SubStatus = fishbowl.SubRoundComplete
	result.RoundComplete = true

	if game.CurrentRound < fishbowl.TotalRounds {
		game.CurrentRound++
		game.SubStatus = fishbowl.SubRoundIntro
		result.Round = game.CurrentRound
	} else {
		ts := m.timestamp()
		game.Status = fishbowl.StatusFinished
		game.SubStatus = fishbowl.SubGameComplete
		game.FinishedAt = &ts
		result.GameComplete = true
	}
	return q.UpdateGameState(ctx, game)
}

// SkipPhrase shelves an active phrase for the rest of the current turn.
// Skipped phrases return to the pool when the turn completes, so a round
// can never dead-end with everything skipped.
func (m *Machine) SkipPhrase(ctx context.Context, actorID, phraseID string) (PhraseResult, error) {
	var result PhraseResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, turn, err := m.activeTurnFor(ctx, q, actorID)
		if err != nil {
			return err
		}

		phrase, err := q.GetPhrase(ctx, phraseID)
		if err != nil {
			return err
		}
		if phrase.GameID != game.ID {
			return notFoundf("phrase %s not found", phraseID)
		}
		if phrase.Status != fishbowl.PhraseActive {
			return conflictf(string(phrase.Status), string(fishbowl.PhraseActive),
				"phrase has already been resolved")
		}

		if err := q.MarkPhraseSkipped(ctx, phraseID); err != nil {
			return err
		}
		if err := q.AddTurnSkip(ctx, turn.ID); err != nil {
			return err
		}
		phrase.Status = fishbowl.PhraseSkipped
		result.Phrase = phrase
		result.Round = game.CurrentRound

		next, found, err := q.RandomActivePhrase(ctx, game.ID)
		if err != nil {
			return err
		}
		if found {
			result.NextPhrase = &next
		}
		return nil
	})
	return result, err
}

// CurrentPhrase serves the acting player a random phrase from the active
// pool, or found=false when everything left is skipped.
func (m *Machine) CurrentPhrase(ctx context.Context, actorID string) (fishbowl.Phrase, bool, error) {
	var phrase fishbowl.Phrase
	var found bool
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, _, err := m.activeTurnFor(ctx, q, actorID)
		if err != nil {
			return err
		}
		phrase, found, err = q.RandomActivePhrase(ctx, game.ID)
		return err
	})
	return phrase, found, err
}

// completeTurn is the single place a turn is closed and scored. The
// aggregation into the team's round and total score happens here exactly
// once, never recomputed from phrase history. Skipped phrases return to
// the active pool for the next turn.
func (m *Machine) completeTurn(ctx context.Context, q *Queries, game fishbowl.Game, turn *fishbowl.Turn) error {
	ts := m.timestamp()
	turn.EndedAt = &ts
	turn.IsComplete = true
	if turn.StartedAt != nil {
		if start, err := time.Parse(time.RFC3339Nano, *turn.StartedAt); err == nil {
			turn.DurationSecs = int(m.now().UTC().Sub(start).Seconds())
		}
	}
	if err := q.CompleteTurn(ctx, *turn); err != nil {
		return err
	}
	if err := q.AddTeamScore(ctx, turn.TeamID, game.CurrentRound, turn.PointsScored); err != nil {
		return err
	}
	return q.ReactivateSkippedPhrases(ctx, game.ID)
}

// currentTurn resolves the actor's game and its current turn. The actor
// only anchors the lookup; authorization against the turn's player is the
// caller's concern.
func (m *Machine) currentTurn(ctx context.Context, q *Queries, actorID string) (fishbowl.Game, fishbowl.Turn, error) {
	actor, err := q.GetPlayer(ctx, actorID)
	if err != nil {
		return fishbowl.Game{}, fishbowl.Turn{}, err
	}
	game, err := q.GetGame(ctx, actor.GameID)
	if err != nil {
		return fishbowl.Game{}, fishbowl.Turn{}, err
	}
	if game.Status != fishbowl.StatusPlaying {
		return game, fishbowl.Turn{}, conflictf(string(game.Status), string(fishbowl.StatusPlaying),
			"game is not in progress")
	}
	if game.CurrentTurnID == nil {
		return game, fishbowl.Turn{}, conflictf(string(game.SubStatus), string(fishbowl.SubTurnActive),
			"game has no current turn")
	}
	turn, err := q.GetTurn(ctx, *game.CurrentTurnID)
	if err != nil {
		return game, fishbowl.Turn{}, err
	}
	return game, turn, nil
}

// activeTurnFor resolves the current turn and checks that the game is in
// turn_active with actorID as the acting player.
func (m *Machine) activeTurnFor(ctx context.Context, q *Queries, actorID string) (fishbowl.Game, fishbowl.Turn, error) {
	game, turn, err := m.currentTurn(ctx, q, actorID)
	if err != nil {
		return game, turn, err
	}
	if game.SubStatus != fishbowl.SubTurnActive {
		return game, turn, conflictf(string(game.SubStatus), string(fishbowl.SubTurnActive),
			"no active turn")
	}
	if turn.PlayerID != actorID {
		return game, turn, forbiddenf("only the acting player may play phrases")
	}
	return game, turn, nil
}
