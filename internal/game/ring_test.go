package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// startedFixture builds a ready game and starts it, returning the fixture
// with the turn order persisted.
func startedFixture(t *testing.T, seed int64) (*fixture, StartGameResult) {
	t.Helper()
	m := testMachine(t, seed)
	f := setupReadyGame(t, m)
	result, err := m.StartGame(context.Background(), f.code)
	require.NoError(t, err)
	return f, result
}

func TestCheckRingValidAfterStart(t *testing.T) {
	f, result := startedFixture(t, 21)
	require.Equal(t, 4, result.TurnOrderSize)
	require.NoError(t, f.m.VerifyRing(context.Background(), f.code))
}

func TestCheckRingEmptyIsValid(t *testing.T) {
	m := testMachine(t, 22)
	ctx := context.Background()
	created, err := m.CreateGame(ctx, CreateGameRequest{})
	require.NoError(t, err)
	require.NoError(t, m.VerifyRing(ctx, created.Game.ID))
}

func TestCheckRingDanglingNext(t *testing.T) {
	f, _ := startedFixture(t, 23)
	ctx := context.Background()

	_, err := f.m.store.db.ExecContext(ctx, `
		UPDATE turn_order SET next_player_id = 'ghost'
		WHERE game_id = ? AND player_id = ?
	`, f.code, f.players[0].ID)
	require.NoError(t, err)

	err = f.m.VerifyRing(ctx, f.code)
	require.Error(t, err)
	require.Equal(t, KindIntegrity, KindOf(err))
	require.Contains(t, err.Error(), "dangling")
}

func TestCheckRingBrokenReciprocity(t *testing.T) {
	f, _ := startedFixture(t, 24)
	ctx := context.Background()

	// Point one node's next at itself: the target's prev no longer
	// points back.
	_, err := f.m.store.db.ExecContext(ctx, `
		UPDATE turn_order SET next_player_id = player_id
		WHERE game_id = ? AND player_id = ?
	`, f.code, f.players[1].ID)
	require.NoError(t, err)

	err = f.m.VerifyRing(ctx, f.code)
	require.Error(t, err)
	require.Equal(t, KindIntegrity, KindOf(err))
}

func TestCheckRingSubCycles(t *testing.T) {
	f, _ := startedFixture(t, 25)
	ctx := context.Background()

	// Split the four-node ring into two two-node cycles: a<->b and c<->d,
	// where a,b,c,d follow the persisted ring order.
	nodes, err := f.m.store.ListTurnNodes(ctx, f.code)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	byPlayer := map[string]string{}
	for _, n := range nodes {
		byPlayer[n.PlayerID] = n.NextPlayerID
	}
	a := nodes[0].PlayerID
	b := byPlayer[a]
	c := byPlayer[b]
	d := byPlayer[c]

	pairs := [][2]string{{a, b}, {b, a}, {c, d}, {d, c}}
	for _, p := range pairs {
		_, err := f.m.store.db.ExecContext(ctx, `
			UPDATE turn_order SET next_player_id = ?, prev_player_id = ?
			WHERE game_id = ? AND player_id = ?
		`, p[1], p[1], f.code, p[0])
		require.NoError(t, err)
	}

	err = f.m.VerifyRing(ctx, f.code)
	require.Error(t, err)
	require.Equal(t, KindIntegrity, KindOf(err))
}
