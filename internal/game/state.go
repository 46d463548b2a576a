package game

import (
	"context"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

// PhraseCounts summarizes the pool without exposing phrase texts to
// players who have not submitted them.
type PhraseCounts struct {
	Total   int
	Active  int
	Guessed int
	Skipped int
}

// Snapshot is the full read-side view of a game, sufficient for a client
// to render or resynchronize after a rejected operation.
type Snapshot struct {
	Game          fishbowl.Game
	RoundName     string
	Teams         []fishbowl.Team
	Players       []fishbowl.Player
	Phrases       PhraseCounts
	CurrentTurn   *fishbowl.Turn
	CurrentPlayer *fishbowl.Player
}

// State reads a consistent snapshot of the game in one transaction.
func (m *Machine) State(ctx context.Context, code string) (Snapshot, error) {
	var snap Snapshot
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, err := q.GetGame(ctx, code)
		if err != nil {
			return err
		}
		snap.Game = game
		snap.RoundName = fishbowl.RoundName(game.CurrentRound)

		if snap.Teams, err = q.ListTeams(ctx, game.ID); err != nil {
			return err
		}
		if snap.Players, err = q.ListPlayers(ctx, game.ID); err != nil {
			return err
		}

		if snap.Phrases.Total, err = q.CountPhrases(ctx, game.ID); err != nil {
			return err
		}
		if snap.Phrases.Active, err = q.CountPhrasesByStatus(ctx, game.ID, fishbowl.PhraseActive); err != nil {
			return err
		}
		if snap.Phrases.Guessed, err = q.CountPhrasesByStatus(ctx, game.ID, fishbowl.PhraseGuessed); err != nil {
			return err
		}
		if snap.Phrases.Skipped, err = q.CountPhrasesByStatus(ctx, game.ID, fishbowl.PhraseSkipped); err != nil {
			return err
		}

		if game.CurrentTurnID != nil {
			turn, err := q.GetTurn(ctx, *game.CurrentTurnID)
			if err != nil {
				return err
			}
			snap.CurrentTurn = &turn
			player, err := q.GetPlayer(ctx, turn.PlayerID)
			if err != nil {
				return err
			}
			snap.CurrentPlayer = &player
		}
		return nil
	})
	return snap, err
}
