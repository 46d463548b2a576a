package game

import (
	"context"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

// CheckRing validates that a game's persisted turn order is one closed
// cycle touching every enrolled node exactly once. It is a read-only
// diagnostic in O(n): not needed on the happy path, but available to
// tests and operational tooling. An empty ring is vacuously valid.
func CheckRing(ctx context.Context, q *Queries, gameID string) error {
	nodes, err := q.ListTurnNodes(ctx, gameID)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return nil
	}

	byPlayer := make(map[string]fishbowl.TurnOrderNode, len(nodes))
	for _, n := range nodes {
		if _, dup := byPlayer[n.PlayerID]; dup {
			return integrityf("player %s appears in the ring twice", n.PlayerID)
		}
		byPlayer[n.PlayerID] = n
	}

	for _, n := range nodes {
		next, ok := byPlayer[n.NextPlayerID]
		if !ok {
			return integrityf("node %s: dangling next_player_id %s", n.PlayerID, n.NextPlayerID)
		}
		if next.PrevPlayerID != n.PlayerID {
			return integrityf("node %s: next node %s points back to %s", n.PlayerID, next.PlayerID, next.PrevPlayerID)
		}
		if _, ok := byPlayer[n.PrevPlayerID]; !ok {
			return integrityf("node %s: dangling prev_player_id %s", n.PlayerID, n.PrevPlayerID)
		}
	}

	// Walk the next links: after exactly len(nodes) steps we must be back
	// at the start having seen every node once. Anything else means
	// sub-cycles or stray nodes.
	start := nodes[0].PlayerID
	seen := make(map[string]bool, len(nodes))
	cursor := start
	for i := 0; i < len(nodes); i++ {
		if seen[cursor] {
			return integrityf("ring revisits player %s after %d steps", cursor, i)
		}
		seen[cursor] = true
		cursor = byPlayer[cursor].NextPlayerID
	}
	if cursor != start {
		return integrityf("ring walk from %s does not close (ends at %s)", start, cursor)
	}
	return nil
}
