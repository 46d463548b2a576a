package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

func TestStartGameBuildsRingAndFirstTurn(t *testing.T) {
	f, result := startedFixture(t, 41)
	ctx := context.Background()

	require.Equal(t, 4, result.TurnOrderSize)
	require.Equal(t, fishbowl.StatusPlaying, result.Game.Status)
	require.Equal(t, fishbowl.SubRoundIntro, result.Game.SubStatus)
	require.Equal(t, 1, result.Game.CurrentRound)
	require.NotNil(t, result.Game.StartedAt)
	require.NoError(t, f.m.VerifyRing(ctx, f.code))

	require.Equal(t, 1, result.FirstTurn.Round)
	require.Equal(t, result.FirstPlayer.ID, result.FirstTurn.PlayerID)
	require.Equal(t, *result.FirstPlayer.TeamID, result.FirstTurn.TeamID)
	require.NotNil(t, result.Game.CurrentTurnID)
	require.Equal(t, result.FirstTurn.ID, *result.Game.CurrentTurnID)
}

func TestStartGameOnlyFromSetup(t *testing.T) {
	f, _ := startedFixture(t, 42)
	_, err := f.m.StartGame(context.Background(), f.code)
	require.Equal(t, KindStateConflict, KindOf(err))
}

func TestStartRoundReusesOpeningTurn(t *testing.T) {
	f, started := startedFixture(t, 43)
	ctx := context.Background()

	result, err := f.m.StartRound(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, 1, result.Round)
	require.Equal(t, "Taboo", result.RoundName)
	require.Equal(t, started.FirstTurn.ID, result.Turn.ID)
	require.Equal(t, started.FirstPlayer.ID, result.Player.ID)

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnStarting, snap.Game.SubStatus)
}

func TestBeginTurnActorOnly(t *testing.T) {
	f, _ := startedFixture(t, 44)
	ctx := context.Background()

	round, err := f.m.StartRound(ctx, f.code)
	require.NoError(t, err)

	var other string
	for _, p := range f.players {
		if p.ID != round.Player.ID {
			other = p.ID
			break
		}
	}
	_, err = f.m.BeginTurn(ctx, other)
	require.Equal(t, KindForbidden, KindOf(err))

	turn, err := f.m.BeginTurn(ctx, round.Player.ID)
	require.NoError(t, err)
	require.NotNil(t, turn.StartedAt)

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnActive, snap.Game.SubStatus)

	// A second begin finds the turn already active.
	_, err = f.m.BeginTurn(ctx, round.Player.ID)
	require.Equal(t, KindStateConflict, KindOf(err))
}

// beginFirstTurn drives a started game into turn_active and returns the
// acting player's id.
func beginFirstTurn(t *testing.T, f *fixture) string {
	t.Helper()
	ctx := context.Background()

	round, err := f.m.StartRound(ctx, f.code)
	require.NoError(t, err)
	_, err = f.m.BeginTurn(ctx, round.Player.ID)
	require.NoError(t, err)
	return round.Player.ID
}

func TestEndTurnHandsOffToRingSuccessor(t *testing.T) {
	f, _ := startedFixture(t, 45)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	node, err := f.m.store.GetTurnNode(ctx, f.code, actor)
	require.NoError(t, err)

	result, err := f.m.EndTurn(ctx, actor)
	require.NoError(t, err)
	require.True(t, result.Ended.IsComplete)
	require.NotNil(t, result.Ended.EndedAt)
	require.False(t, result.Paused)
	require.NotNil(t, result.Next)
	require.NotNil(t, result.NextPlayer)
	require.Equal(t, node.NextPlayerID, result.NextPlayer.ID)
	require.Equal(t, 1, result.Next.Round)

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnStarting, snap.Game.SubStatus)
	require.Equal(t, result.Next.ID, *snap.Game.CurrentTurnID)
}

func TestEndTurnWrongActorLeavesStateUntouched(t *testing.T) {
	f, _ := startedFixture(t, 46)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	var other string
	for _, p := range f.players {
		if p.ID != actor {
			other = p.ID
			break
		}
	}

	before, err := f.m.State(ctx, f.code)
	require.NoError(t, err)

	_, err = f.m.EndTurn(ctx, other)
	require.Equal(t, KindForbidden, KindOf(err))

	after, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, before.Game.SubStatus, after.Game.SubStatus)
	require.Equal(t, *before.Game.CurrentTurnID, *after.Game.CurrentTurnID)
	require.False(t, after.CurrentTurn.IsComplete)
}

func TestEndTurnSkipsDisconnectedSuccessor(t *testing.T) {
	f, _ := startedFixture(t, 47)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	order := ringOrder(t, f, actor)
	require.NoError(t, f.m.store.SetPlayerConnected(ctx, order[1], false))

	result, err := f.m.EndTurn(ctx, actor)
	require.NoError(t, err)
	require.NotNil(t, result.NextPlayer)
	require.Equal(t, order[2], result.NextPlayer.ID)
}

func TestEndTurnEveryoneGonePausesGame(t *testing.T) {
	f, _ := startedFixture(t, 48)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	for _, p := range f.players {
		require.NoError(t, f.m.store.SetPlayerConnected(ctx, p.ID, false))
	}

	result, err := f.m.EndTurn(ctx, actor)
	require.NoError(t, err)
	require.True(t, result.Paused)
	require.Nil(t, result.Next)

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnPaused, snap.Game.SubStatus)
	require.Nil(t, snap.Game.CurrentTurnID)

	// Nothing can resume until someone reconnects.
	_, err = f.m.ResumeTurn(ctx, actor)
	require.Equal(t, KindStateConflict, KindOf(err))

	require.NoError(t, f.m.store.SetPlayerConnected(ctx, f.players[2].ID, true))
	resumed, err := f.m.ResumeTurn(ctx, actor)
	require.NoError(t, err)
	require.True(t, resumed.NewTurn)
	require.Equal(t, f.players[2].ID, resumed.Player.ID)

	snap, err = f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnStarting, snap.Game.SubStatus)
	require.Equal(t, resumed.Turn.ID, *snap.Game.CurrentTurnID)
}

func TestPauseAndResumeKeepTurn(t *testing.T) {
	f, _ := startedFixture(t, 49)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	// Anyone in the game may pause.
	var other string
	for _, p := range f.players {
		if p.ID != actor {
			other = p.ID
			break
		}
	}
	require.NoError(t, f.m.PauseTurn(ctx, other))

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnPaused, snap.Game.SubStatus)

	// Pausing twice is a conflict.
	require.Equal(t, KindStateConflict, KindOf(f.m.PauseTurn(ctx, other)))

	resumed, err := f.m.ResumeTurn(ctx, other)
	require.NoError(t, err)
	require.False(t, resumed.NewTurn)
	require.Equal(t, actor, resumed.Player.ID)

	snap, err = f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.SubTurnActive, snap.Game.SubStatus)
}

func TestGuessRequiresActiveTurn(t *testing.T) {
	f, _ := startedFixture(t, 50)
	ctx := context.Background()

	round, err := f.m.StartRound(ctx, f.code)
	require.NoError(t, err)

	// Still turn_starting: nothing can be guessed yet.
	_, err = f.m.GuessPhrase(ctx, round.Player.ID, "whatever")
	require.Equal(t, KindStateConflict, KindOf(err))
}

// guessAll drains the active pool as the current actor and returns the
// final PhraseResult (the one that completed the round).
func guessAll(t *testing.T, f *fixture, actor string) PhraseResult {
	t.Helper()
	ctx := context.Background()

	for {
		phrase, found, err := f.m.CurrentPhrase(ctx, actor)
		require.NoError(t, err)
		require.True(t, found, "active pool drained without completing the round")

		result, err := f.m.GuessPhrase(ctx, actor, phrase.ID)
		require.NoError(t, err)
		require.Equal(t, fishbowl.PhraseGuessed, result.Phrase.Status)
		if result.RoundComplete {
			return result
		}
	}
}

func TestFullGameThreeRounds(t *testing.T) {
	f, _ := startedFixture(t, 51)
	ctx := context.Background()

	wantNames := []string{"Taboo", "Charades", "One Word"}
	for round := 1; round <= fishbowl.TotalRounds; round++ {
		start, err := f.m.StartRound(ctx, f.code)
		require.NoError(t, err)
		require.Equal(t, round, start.Round)
		require.Equal(t, wantNames[round-1], start.RoundName)

		_, err = f.m.BeginTurn(ctx, start.Player.ID)
		require.NoError(t, err)

		result := guessAll(t, f, start.Player.ID)
		require.True(t, result.RoundComplete)

		if round < fishbowl.TotalRounds {
			require.False(t, result.GameComplete)
			require.Equal(t, round+1, result.Round)

			snap, err := f.m.State(ctx, f.code)
			require.NoError(t, err)
			require.Equal(t, fishbowl.SubRoundIntro, snap.Game.SubStatus)
			require.Equal(t, round+1, snap.Game.CurrentRound)
			require.Nil(t, snap.Game.CurrentTurnID)
			// Guessed phrases stay guessed across rounds; StartRound
			// reactivates them for the next pass.
			require.Equal(t, 4, snap.Phrases.Guessed)
		} else {
			require.True(t, result.GameComplete)
		}
	}

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, fishbowl.StatusFinished, snap.Game.Status)
	require.Equal(t, fishbowl.SubGameComplete, snap.Game.SubStatus)
	require.NotNil(t, snap.Game.FinishedAt)

	// 4 phrases per round over 3 rounds, one point each.
	total := 0
	for _, team := range snap.Teams {
		total += team.ScoreTotal
		require.Equal(t, team.ScoreRound1+team.ScoreRound2+team.ScoreRound3, team.ScoreTotal)
	}
	require.Equal(t, 12, total)

	// The finished game rejects further play.
	_, err = f.m.StartRound(ctx, f.code)
	require.Equal(t, KindStateConflict, KindOf(err))
}

func TestGuessedPhrasesResetBetweenRounds(t *testing.T) {
	f, _ := startedFixture(t, 52)
	ctx := context.Background()

	start, err := f.m.StartRound(ctx, f.code)
	require.NoError(t, err)
	_, err = f.m.BeginTurn(ctx, start.Player.ID)
	require.NoError(t, err)
	guessAll(t, f, start.Player.ID)

	// Starting round 2 returns the full pool to active.
	start2, err := f.m.StartRound(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, 2, start2.Round)
	t.Log("round 2 actor", start2.Player.Name)

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, 4, snap.Phrases.Active)
	require.Equal(t, 0, snap.Phrases.Guessed)
}

func TestSkipShelvesUntilTurnEnds(t *testing.T) {
	f, _ := startedFixture(t, 53)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	phrase, found, err := f.m.CurrentPhrase(ctx, actor)
	require.NoError(t, err)
	require.True(t, found)

	result, err := f.m.SkipPhrase(ctx, actor, phrase.ID)
	require.NoError(t, err)
	require.Equal(t, fishbowl.PhraseSkipped, result.Phrase.Status)
	require.NotNil(t, result.NextPhrase)
	require.NotEqual(t, phrase.ID, result.NextPhrase.ID)

	// A skipped phrase cannot be guessed or skipped again this turn.
	_, err = f.m.GuessPhrase(ctx, actor, phrase.ID)
	require.Equal(t, KindStateConflict, KindOf(err))
	_, err = f.m.SkipPhrase(ctx, actor, phrase.ID)
	require.Equal(t, KindStateConflict, KindOf(err))

	// Guess the three remaining phrases: the round must not complete
	// while a skipped phrase is outstanding.
	for i := 0; i < 3; i++ {
		p, found, err := f.m.CurrentPhrase(ctx, actor)
		require.NoError(t, err)
		require.True(t, found)
		r, err := f.m.GuessPhrase(ctx, actor, p.ID)
		require.NoError(t, err)
		require.False(t, r.RoundComplete)
	}

	_, found, err = f.m.CurrentPhrase(ctx, actor)
	require.NoError(t, err)
	require.False(t, found)

	// Ending the turn returns the skip to the pool.
	ended, err := f.m.EndTurn(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, 1, ended.Ended.PhrasesSkipped)
	require.Equal(t, 3, ended.Ended.PhrasesGuessed)
	require.Equal(t, 3, ended.Ended.PointsScored)

	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Phrases.Active)
	require.Equal(t, 0, snap.Phrases.Skipped)
}

func TestGuessCreditsActingTeam(t *testing.T) {
	f, _ := startedFixture(t, 54)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)
	actingTeam := *f.player(actor).TeamID

	phrase, _, err := f.m.CurrentPhrase(ctx, actor)
	require.NoError(t, err)
	result, err := f.m.GuessPhrase(ctx, actor, phrase.ID)
	require.NoError(t, err)

	require.NotNil(t, result.Phrase.GuessedInRound)
	require.Equal(t, 1, *result.Phrase.GuessedInRound)
	require.NotNil(t, result.Phrase.GuessedByTeamID)
	require.Equal(t, actingTeam, *result.Phrase.GuessedByTeamID)

	// Scores land when the turn completes, not per guess.
	snap, err := f.m.State(ctx, f.code)
	require.NoError(t, err)
	for _, team := range snap.Teams {
		require.Zero(t, team.ScoreTotal)
	}

	_, err = f.m.EndTurn(ctx, actor)
	require.NoError(t, err)

	snap, err = f.m.State(ctx, f.code)
	require.NoError(t, err)
	for _, team := range snap.Teams {
		if team.ID == actingTeam {
			require.Equal(t, 1, team.RoundScore(1))
			require.Equal(t, 1, team.ScoreTotal)
		} else {
			require.Zero(t, team.ScoreTotal)
		}
	}
}

func TestHandoffsLapTheWholeRing(t *testing.T) {
	f, _ := startedFixture(t, 55)
	ctx := context.Background()
	actor := beginFirstTurn(t, f)

	// One full lap of handoffs visits every player exactly once and comes
	// back to the opener.
	acted := map[string]bool{actor: true}
	current := actor
	for i := 0; i < len(f.players); i++ {
		result, err := f.m.EndTurn(ctx, current)
		require.NoError(t, err)
		require.NotNil(t, result.NextPlayer)

		current = result.NextPlayer.ID
		if i < len(f.players)-1 {
			require.False(t, acted[current], "player %s acted twice in one lap", current)
		}
		acted[current] = true

		_, err = f.m.BeginTurn(ctx, current)
		require.NoError(t, err)
	}
	require.Len(t, acted, len(f.players))
	require.Equal(t, actor, current)
}
