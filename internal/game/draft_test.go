package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

func draftRoster(teamSizes ...int) []fishbowl.Player {
	var players []fishbowl.Player
	for t, size := range teamSizes {
		teamID := fmt.Sprintf("team-%d", t)
		for i := 0; i < size; i++ {
			id := teamID
			players = append(players, fishbowl.Player{
				ID:     fmt.Sprintf("p-%d-%d", t, i),
				TeamID: &id,
			})
		}
	}
	return players
}

func teamOf(p fishbowl.Player) string { return *p.TeamID }

func TestSequenceSnakeOrder(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(42)))
	roster := draftRoster(3, 3)

	seq := b.Sequence(roster)
	require.Len(t, seq, 6)

	// Each draft row of two visits the teams in alternating direction:
	// whichever team picks first in one row picks last in the next.
	for row := 0; row+3 < len(seq); row += 2 {
		require.NotEqual(t, teamOf(seq[row]), teamOf(seq[row+1]))
		require.Equal(t, teamOf(seq[row]), teamOf(seq[row+3]))
		require.Equal(t, teamOf(seq[row+1]), teamOf(seq[row+2]))
	}

	// Every player appears exactly once.
	seen := map[string]bool{}
	for _, p := range seq {
		require.False(t, seen[p.ID], "player %s drafted twice", p.ID)
		seen[p.ID] = true
	}
	require.Len(t, seen, len(roster))
}

func TestSequenceDeterministicForSeed(t *testing.T) {
	roster := draftRoster(4, 4, 4)

	a := NewBuilder(rand.New(rand.NewSource(7))).Sequence(roster)
	b := NewBuilder(rand.New(rand.NewSource(7))).Sequence(roster)
	require.Equal(t, a, b)

	c := NewBuilder(rand.New(rand.NewSource(8))).Sequence(roster)
	require.Len(t, c, len(a))
}

func TestSequenceUnevenTeams(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(3)))
	roster := draftRoster(4, 2)

	seq := b.Sequence(roster)
	require.Len(t, seq, 6)

	seen := map[string]bool{}
	for _, p := range seq {
		require.False(t, seen[p.ID])
		seen[p.ID] = true
	}

	// Once the smaller team runs out, the remaining positions belong to
	// the larger one.
	require.Equal(t, "team-0", teamOf(seq[4]))
	require.Equal(t, "team-0", teamOf(seq[5]))
}

func TestNodesCloseTheRing(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(11)))
	seq := b.Sequence(draftRoster(3, 3, 2))

	nodes := b.Nodes("G1", seq)
	require.Len(t, nodes, len(seq))

	byPlayer := map[string]fishbowl.TurnOrderNode{}
	for _, n := range nodes {
		require.Equal(t, "G1", n.GameID)
		require.NotEmpty(t, n.ID)
		byPlayer[n.PlayerID] = n
	}

	for _, n := range nodes {
		next, ok := byPlayer[n.NextPlayerID]
		require.True(t, ok, "dangling next link from %s", n.PlayerID)
		require.Equal(t, n.PlayerID, next.PrevPlayerID)
	}

	// Following next links visits every player and returns to the start.
	start := nodes[0].PlayerID
	cursor := start
	for i := 0; i < len(nodes); i++ {
		cursor = byPlayer[cursor].NextPlayerID
	}
	require.Equal(t, start, cursor)
}

func TestNodesSinglePlayerSelfRing(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(1)))
	seq := draftRoster(1)

	nodes := b.Nodes("G1", seq)
	require.Len(t, nodes, 1)
	require.Equal(t, seq[0].ID, nodes[0].NextPlayerID)
	require.Equal(t, seq[0].ID, nodes[0].PrevPlayerID)
}
