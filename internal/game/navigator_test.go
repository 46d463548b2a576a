package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// ringOrder returns the player ids of the started game in ring order,
// beginning at start.
func ringOrder(t *testing.T, f *fixture, start string) []string {
	t.Helper()
	ctx := context.Background()

	order := []string{start}
	cursor := start
	for i := 0; i < len(f.players)-1; i++ {
		node, err := f.m.store.GetTurnNode(ctx, f.code, cursor)
		require.NoError(t, err)
		order = append(order, node.NextPlayerID)
		cursor = node.NextPlayerID
	}
	return order
}

func TestNextPlayerFollowsRing(t *testing.T) {
	f, result := startedFixture(t, 31)
	ctx := context.Background()
	q := &f.m.store.Queries

	order := ringOrder(t, f, result.FirstPlayer.ID)

	next, err := f.m.nav.NextPlayer(ctx, q, f.code, order[0])
	require.NoError(t, err)
	require.Equal(t, order[1], next.ID)
}

func TestNextPlayerSkipsDisconnected(t *testing.T) {
	f, result := startedFixture(t, 32)
	ctx := context.Background()
	q := &f.m.store.Queries

	order := ringOrder(t, f, result.FirstPlayer.ID)
	require.NoError(t, f.m.store.SetPlayerConnected(ctx, order[1], false))

	next, err := f.m.nav.NextPlayer(ctx, q, f.code, order[0])
	require.NoError(t, err)
	require.Equal(t, order[2], next.ID)
}

func TestNextPlayerSelfWrap(t *testing.T) {
	f, result := startedFixture(t, 33)
	ctx := context.Background()
	q := &f.m.store.Queries

	order := ringOrder(t, f, result.FirstPlayer.ID)
	for _, id := range order[1:] {
		require.NoError(t, f.m.store.SetPlayerConnected(ctx, id, false))
	}

	// The only connected player is a valid successor of themselves.
	next, err := f.m.nav.NextPlayer(ctx, q, f.code, order[0])
	require.NoError(t, err)
	require.Equal(t, order[0], next.ID)
}

func TestNextPlayerNoneConnected(t *testing.T) {
	f, result := startedFixture(t, 34)
	ctx := context.Background()
	q := &f.m.store.Queries

	for _, p := range f.players {
		require.NoError(t, f.m.store.SetPlayerConnected(ctx, p.ID, false))
	}

	_, err := f.m.nav.NextPlayer(ctx, q, f.code, result.FirstPlayer.ID)
	require.ErrorIs(t, err, ErrNoEligiblePlayer)
}

func TestNextPlayerUnknownStart(t *testing.T) {
	f, _ := startedFixture(t, 35)
	ctx := context.Background()
	q := &f.m.store.Queries

	_, err := f.m.nav.NextPlayer(ctx, q, f.code, "nobody")
	require.Error(t, err)
	require.Equal(t, KindIntegrity, KindOf(err))
}

func TestRandomStartPlayerOnlyConnected(t *testing.T) {
	f, _ := startedFixture(t, 36)
	ctx := context.Background()
	q := &f.m.store.Queries

	for _, p := range f.players[1:] {
		require.NoError(t, f.m.store.SetPlayerConnected(ctx, p.ID, false))
	}

	for i := 0; i < 10; i++ {
		p, err := f.m.nav.RandomStartPlayer(ctx, q, f.code)
		require.NoError(t, err)
		require.Equal(t, f.players[0].ID, p.ID)
	}
}

func TestRandomStartPlayerEmptyRing(t *testing.T) {
	m := testMachine(t, 37)
	ctx := context.Background()
	created, err := m.CreateGame(ctx, CreateGameRequest{})
	require.NoError(t, err)

	_, err = m.nav.RandomStartPlayer(ctx, &m.store.Queries, created.Game.ID)
	require.ErrorIs(t, err, ErrNoEligiblePlayer)
}

func TestCurrentPlayer(t *testing.T) {
	m := testMachine(t, 38)
	ctx := context.Background()
	f := setupReadyGame(t, m)
	q := &m.store.Queries

	// No turn before the game starts.
	p, err := m.nav.CurrentPlayer(ctx, q, f.code)
	require.NoError(t, err)
	require.Nil(t, p)

	result, err := m.StartGame(ctx, f.code)
	require.NoError(t, err)

	p, err = m.nav.CurrentPlayer(ctx, q, f.code)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, result.FirstPlayer.ID, p.ID)
}
