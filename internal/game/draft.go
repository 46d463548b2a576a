package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

// Builder constructs the snake-draft turn order for a game. The random
// source is injected so tests can assert exact sequences.
type Builder struct {
	rng *rand.Rand
}

func NewBuilder(rng *rand.Rand) *Builder {
	return &Builder{rng: rng}
}

// Sequence produces the circular draft order for the given roster.
// Players within each team are shuffled, the team order itself is
// shuffled, then positions are filled snake-style: even positions visit
// teams in order, odd positions in reverse, so no team always picks
// first. Teams that run out of players are simply skipped; the ring
// still closes because neighbours are computed against the final
// sequence length.
//
// Every player must already have a team; the state machine validates
// that before calling.
func (b *Builder) Sequence(players []fishbowl.Player) []fishbowl.Player {
	byTeam := make(map[string][]fishbowl.Player)
	var teamIDs []string
	for _, p := range players {
		if p.TeamID == nil {
			continue
		}
		id := *p.TeamID
		if _, seen := byTeam[id]; !seen {
			teamIDs = append(teamIDs, id)
		}
		byTeam[id] = append(byTeam[id], p)
	}

	maxSize := 0
	for _, id := range teamIDs {
		b.rng.Shuffle(len(byTeam[id]), func(i, j int) {
			byTeam[id][i], byTeam[id][j] = byTeam[id][j], byTeam[id][i]
		})
		if len(byTeam[id]) > maxSize {
			maxSize = len(byTeam[id])
		}
	}
	b.rng.Shuffle(len(teamIDs), func(i, j int) {
		teamIDs[i], teamIDs[j] = teamIDs[j], teamIDs[i]
	})

	sequence := make([]fishbowl.Player, 0, len(players))
	for pos := 0; pos < maxSize; pos++ {
		for i := range teamIDs {
			id := teamIDs[i]
			if pos%2 == 1 {
				id = teamIDs[len(teamIDs)-1-i]
			}
			if pos < len(byTeam[id]) {
				sequence = append(sequence, byTeam[id][pos])
			}
		}
	}
	return sequence
}

// Nodes materializes a draft sequence as the doubly linked ring of
// turn-order nodes for gameID.
func (b *Builder) Nodes(gameID string, sequence []fishbowl.Player) []fishbowl.TurnOrderNode {
	n := len(sequence)
	nodes := make([]fishbowl.TurnOrderNode, 0, n)
	for i, p := range sequence {
		nodes = append(nodes, fishbowl.TurnOrderNode{
			ID:           uuid.NewString(),
			GameID:       gameID,
			PlayerID:     p.ID,
			TeamID:       *p.TeamID,
			NextPlayerID: sequence[(i+1)%n].ID,
			PrevPlayerID: sequence[(i-1+n)%n].ID,
		})
	}
	return nodes
}
