package game

import (
	"context"
	"math/rand"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

// Navigator is the read side of the turn-order ring. All traversal is by
// repeated id lookup against the store, never by live pointers, and every
// walk is bounded by the ring size so a corrupted ring cannot loop forever.
type Navigator struct {
	rng *rand.Rand
}

func NewNavigator(rng *rand.Rand) *Navigator {
	return &Navigator{rng: rng}
}

// NextPlayer follows next links from currentPlayerID and returns the first
// connected player. Wrapping all the way back to currentPlayerID is valid
// when that player is the only one connected. If nobody in the ring is
// connected it returns ErrNoEligiblePlayer; a missing ring node surfaces
// as an integrity error.
func (n *Navigator) NextPlayer(ctx context.Context, q *Queries, gameID, currentPlayerID string) (fishbowl.Player, error) {
	node, err := q.GetTurnNode(ctx, gameID, currentPlayerID)
	if err != nil {
		return fishbowl.Player{}, err
	}

	size, err := q.CountTurnNodes(ctx, gameID)
	if err != nil {
		return fishbowl.Player{}, err
	}

	cursor := node.NextPlayerID
	for hop := 0; hop < size; hop++ {
		player, err := q.GetPlayer(ctx, cursor)
		if err != nil {
			return fishbowl.Player{}, integrityf("ring references unknown player %s: %v", cursor, err)
		}
		if player.IsConnected {
			return player, nil
		}
		if cursor == currentPlayerID {
			// Completed a full lap without finding anyone connected.
			break
		}
		next, err := q.GetTurnNode(ctx, gameID, cursor)
		if err != nil {
			return fishbowl.Player{}, err
		}
		cursor = next.NextPlayerID
	}
	return fishbowl.Player{}, ErrNoEligiblePlayer
}

// CurrentPlayer resolves the game's current turn to its player. Returns
// nil when no turn is current (before the first round starts).
func (n *Navigator) CurrentPlayer(ctx context.Context, q *Queries, gameID string) (*fishbowl.Player, error) {
	game, err := q.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.CurrentTurnID == nil {
		return nil, nil
	}
	turn, err := q.GetTurn(ctx, *game.CurrentTurnID)
	if err != nil {
		return nil, err
	}
	player, err := q.GetPlayer(ctx, turn.PlayerID)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// RandomStartPlayer picks a uniformly random connected player from the
// ring, or ErrNoEligiblePlayer if the ring is empty or fully disconnected.
func (n *Navigator) RandomStartPlayer(ctx context.Context, q *Queries, gameID string) (fishbowl.Player, error) {
	connected, err := q.ListConnectedRingPlayers(ctx, gameID)
	if err != nil {
		return fishbowl.Player{}, err
	}
	if len(connected) == 0 {
		return fishbowl.Player{}, ErrNoEligiblePlayer
	}
	return connected[n.rng.Intn(len(connected))], nil
}
