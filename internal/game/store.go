package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every entity query
// below works standalone or inside a state-machine transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries is the entity-level read/write surface over the game database.
type Queries struct {
	q querier
}

// Store is the transactional entity store. Reads may run directly on the
// embedded Queries; every mutation of game state goes through Tx so the
// whole operation commits or rolls back as one unit.
type Store struct {
	Queries
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{Queries: Queries{q: db}, db: db}
}

// Tx runs fn inside a single database transaction. Any error from fn rolls
// the transaction back entirely; partial writes are never observable.
func (s *Store) Tx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&Queries{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// --- games ---

func (s *Queries) InsertGame(ctx context.Context, g fishbowl.Game) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO games (id, status, sub_status, team_count, phrases_per_player, timer_seconds, current_round)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`, g.ID, g.Status, g.SubStatus, g.TeamCount, g.PhrasesPerPlayer, g.TimerSeconds)
	return err
}

func (s *Queries) GetGame(ctx context.Context, code string) (fishbowl.Game, error) {
	var g fishbowl.Game
	var currentTurnID, startedAt, finishedAt sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT id, status, sub_status, team_count, phrases_per_player, timer_seconds,
			current_round, current_turn_id, created_at, started_at, finished_at
		FROM games WHERE id = ?
	`, code).Scan(&g.ID, &g.Status, &g.SubStatus, &g.TeamCount, &g.PhrasesPerPlayer,
		&g.TimerSeconds, &g.CurrentRound, &currentTurnID, &g.CreatedAt, &startedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, notFoundf("game %s not found", code)
	}
	if currentTurnID.Valid {
		g.CurrentTurnID = &currentTurnID.String
	}
	if startedAt.Valid {
		g.StartedAt = &startedAt.String
	}
	if finishedAt.Valid {
		g.FinishedAt = &finishedAt.String
	}
	return g, err
}

// UpdateGameState persists the mutable lifecycle fields of a game.
func (s *Queries) UpdateGameState(ctx context.Context, g fishbowl.Game) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE games
		SET status = ?, sub_status = ?, current_round = ?, current_turn_id = ?,
			started_at = ?, finished_at = ?
		WHERE id = ?
	`, g.Status, g.SubStatus, g.CurrentRound, g.CurrentTurnID, g.StartedAt, g.FinishedAt, g.ID)
	return err
}

func (s *Queries) GameExists(ctx context.Context, code string) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// --- teams ---

func (s *Queries) InsertTeam(ctx context.Context, t fishbowl.Team) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO teams (id, game_id, name, color)
		VALUES (?, ?, ?, ?)
	`, t.ID, t.GameID, t.Name, t.Color)
	return err
}

func (s *Queries) GetTeam(ctx context.Context, teamID string) (fishbowl.Team, error) {
	var t fishbowl.Team
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, name, color, score_round_1, score_round_2, score_round_3, score_total
		FROM teams WHERE id = ?
	`, teamID).Scan(&t.ID, &t.GameID, &t.Name, &t.Color,
		&t.ScoreRound1, &t.ScoreRound2, &t.ScoreRound3, &t.ScoreTotal)
	if errors.Is(err, sql.ErrNoRows) {
		return t, notFoundf("team %s not found", teamID)
	}
	return t, err
}

func (s *Queries) ListTeams(ctx context.Context, gameID string) ([]fishbowl.Team, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, game_id, name, color, score_round_1, score_round_2, score_round_3, score_total
		FROM teams WHERE game_id = ? ORDER BY name
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []fishbowl.Team
	for rows.Next() {
		var t fishbowl.Team
		if err := rows.Scan(&t.ID, &t.GameID, &t.Name, &t.Color,
			&t.ScoreRound1, &t.ScoreRound2, &t.ScoreRound3, &t.ScoreTotal); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// AddTeamScore adds points to a team's per-round counter and its total.
// round must be 1..3; the caller (turn completion) guarantees that.
func (s *Queries) AddTeamScore(ctx context.Context, teamID string, round, points int) error {
	col, ok := map[int]string{1: "score_round_1", 2: "score_round_2", 3: "score_round_3"}[round]
	if !ok {
		return integrityf("no score column for round %d", round)
	}
	_, err := s.q.ExecContext(ctx,
		`UPDATE teams SET `+col+` = `+col+` + ?, score_total = score_total + ? WHERE id = ?`,
		points, points, teamID)
	return err
}

// --- players ---

func (s *Queries) InsertPlayer(ctx context.Context, p fishbowl.Player, sessionID string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO players (id, game_id, team_id, name, session_id, is_connected)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.GameID, p.TeamID, p.Name, sessionID, p.IsConnected)
	return err
}

func (s *Queries) GetPlayer(ctx context.Context, playerID string) (fishbowl.Player, error) {
	var p fishbowl.Player
	var teamID sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, team_id, name, is_connected, joined_at
		FROM players WHERE id = ?
	`, playerID).Scan(&p.ID, &p.GameID, &teamID, &p.Name, &p.IsConnected, &p.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFoundf("player %s not found", playerID)
	}
	if teamID.Valid {
		p.TeamID = &teamID.String
	}
	return p, err
}

func (s *Queries) ListPlayers(ctx context.Context, gameID string) ([]fishbowl.Player, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, game_id, team_id, name, is_connected, joined_at
		FROM players WHERE game_id = ? ORDER BY joined_at
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []fishbowl.Player
	for rows.Next() {
		var p fishbowl.Player
		var teamID sql.NullString
		if err := rows.Scan(&p.ID, &p.GameID, &teamID, &p.Name, &p.IsConnected, &p.JoinedAt); err != nil {
			return nil, err
		}
		if teamID.Valid {
			p.TeamID = &teamID.String
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *Queries) SetPlayerTeam(ctx context.Context, playerID, teamID string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE players SET team_id = ? WHERE id = ?`, teamID, playerID)
	return err
}

// SetPlayerConnected flips the presence flag. Owned by the presence layer;
// the engine itself only calls this from tests.
func (s *Queries) SetPlayerConnected(ctx context.Context, playerID string, connected bool) error {
	_, err := s.q.ExecContext(ctx, `UPDATE players SET is_connected = ? WHERE id = ?`, connected, playerID)
	return err
}

// PlayerSession identifies the caller behind a session token.
type PlayerSession struct {
	PlayerID string
	GameID   string
	TeamID   *string
}

var ErrNoSession = errors.New("no valid session")

func (s *Queries) PlayerFromToken(ctx context.Context, token string) (PlayerSession, error) {
	var sess PlayerSession
	var teamID sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, team_id FROM players WHERE session_id = ?
	`, token).Scan(&sess.PlayerID, &sess.GameID, &teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, ErrNoSession
	}
	if teamID.Valid {
		sess.TeamID = &teamID.String
	}
	return sess, err
}

// --- phrases ---

func (s *Queries) InsertPhrases(ctx context.Context, phrases []fishbowl.Phrase) error {
	for _, p := range phrases {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO phrases (id, game_id, player_id, text, status)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, p.GameID, p.PlayerID, p.Text, p.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Queries) GetPhrase(ctx context.Context, phraseID string) (fishbowl.Phrase, error) {
	var p fishbowl.Phrase
	var round sql.NullInt64
	var teamID sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, player_id, text, status, guessed_in_round, guessed_by_team_id
		FROM phrases WHERE id = ?
	`, phraseID).Scan(&p.ID, &p.GameID, &p.PlayerID, &p.Text, &p.Status, &round, &teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFoundf("phrase %s not found", phraseID)
	}
	if round.Valid {
		r := int(round.Int64)
		p.GuessedInRound = &r
	}
	if teamID.Valid {
		p.GuessedByTeamID = &teamID.String
	}
	return p, err
}

func (s *Queries) CountPhrases(ctx context.Context, gameID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phrases WHERE game_id = ?`, gameID).Scan(&n)
	return n, err
}

func (s *Queries) CountPhrasesByPlayer(ctx context.Context, playerID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phrases WHERE player_id = ?`, playerID).Scan(&n)
	return n, err
}

func (s *Queries) CountPhrasesByStatus(ctx context.Context, gameID string, status fishbowl.PhraseStatus) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phrases WHERE game_id = ? AND status = ?`, gameID, status).Scan(&n)
	return n, err
}

func (s *Queries) MarkPhraseGuessed(ctx context.Context, phraseID string, round int, teamID string) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE phrases SET status = 'guessed', guessed_in_round = ?, guessed_by_team_id = ?
		WHERE id = ?
	`, round, teamID, phraseID)
	return err
}

func (s *Queries) MarkPhraseSkipped(ctx context.Context, phraseID string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE phrases SET status = 'skipped' WHERE id = ?`, phraseID)
	return err
}

// ReactivateSkippedPhrases returns every skipped phrase to the active pool.
// Guessed phrases stay guessed.
func (s *Queries) ReactivateSkippedPhrases(ctx context.Context, gameID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE phrases SET status = 'active' WHERE game_id = ? AND status = 'skipped'`, gameID)
	return err
}

// ResetPhrasePool returns every phrase of the game to the active pool.
// Runs at round start: each round plays the same phrases over again.
// guessed_in_round and guessed_by_team_id are left as a record of the
// previous round until the phrase is guessed again.
func (s *Queries) ResetPhrasePool(ctx context.Context, gameID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE phrases SET status = 'active' WHERE game_id = ? AND status != 'active'`, gameID)
	return err
}

// RandomActivePhrase picks one phrase from the active pool, or reports
// found=false when the pool is empty.
func (s *Queries) RandomActivePhrase(ctx context.Context, gameID string) (fishbowl.Phrase, bool, error) {
	var p fishbowl.Phrase
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, player_id, text, status
		FROM phrases WHERE game_id = ? AND status = 'active'
		ORDER BY RANDOM() LIMIT 1
	`, gameID).Scan(&p.ID, &p.GameID, &p.PlayerID, &p.Text, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, nil
	}
	return p, err == nil, err
}

// --- turns ---

func (s *Queries) InsertTurn(ctx context.Context, t fishbowl.Turn) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO turns (id, game_id, round, team_id, player_id, started_at, is_complete)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, t.ID, t.GameID, t.Round, t.TeamID, t.PlayerID, t.StartedAt)
	return err
}

func (s *Queries) GetTurn(ctx context.Context, turnID string) (fishbowl.Turn, error) {
	var t fishbowl.Turn
	var startedAt, endedAt sql.NullString
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, round, team_id, player_id, started_at, ended_at,
			duration_secs, phrases_guessed, phrases_skipped, points_scored, is_complete
		FROM turns WHERE id = ?
	`, turnID).Scan(&t.ID, &t.GameID, &t.Round, &t.TeamID, &t.PlayerID, &startedAt, &endedAt,
		&t.DurationSecs, &t.PhrasesGuessed, &t.PhrasesSkipped, &t.PointsScored, &t.IsComplete)
	if errors.Is(err, sql.ErrNoRows) {
		return t, notFoundf("turn %s not found", turnID)
	}
	if startedAt.Valid {
		t.StartedAt = &startedAt.String
	}
	if endedAt.Valid {
		t.EndedAt = &endedAt.String
	}
	return t, err
}

// LastCompletedTurn returns the most recently completed turn of a game,
// or found=false if no turn has completed yet.
func (s *Queries) LastCompletedTurn(ctx context.Context, gameID string) (fishbowl.Turn, bool, error) {
	var id string
	err := s.q.QueryRowContext(ctx, `
		SELECT id FROM turns WHERE game_id = ? AND is_complete = 1
		ORDER BY ended_at DESC LIMIT 1
	`, gameID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fishbowl.Turn{}, false, nil
	}
	if err != nil {
		return fishbowl.Turn{}, false, err
	}
	t, err := s.GetTurn(ctx, id)
	return t, err == nil, err
}

func (s *Queries) SetTurnStarted(ctx context.Context, turnID, startedAt string) error {
	_, err := s.q.ExecContext(ctx, `UPDATE turns SET started_at = ? WHERE id = ?`, startedAt, turnID)
	return err
}

// CompleteTurn marks a turn done and persists its final counters.
func (s *Queries) CompleteTurn(ctx context.Context, t fishbowl.Turn) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE turns SET is_complete = 1, ended_at = ?, duration_secs = ?
		WHERE id = ?
	`, t.EndedAt, t.DurationSecs, t.ID)
	return err
}

func (s *Queries) AddTurnGuess(ctx context.Context, turnID string, points int) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE turns SET phrases_guessed = phrases_guessed + 1, points_scored = points_scored + ?
		WHERE id = ?
	`, points, turnID)
	return err
}

func (s *Queries) AddTurnSkip(ctx context.Context, turnID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE turns SET phrases_skipped = phrases_skipped + 1 WHERE id = ?`, turnID)
	return err
}

// --- turn order ring ---

func (s *Queries) InsertTurnOrder(ctx context.Context, nodes []fishbowl.TurnOrderNode) error {
	for _, n := range nodes {
		_, err := s.q.ExecContext(ctx, `
			INSERT INTO turn_order (id, game_id, player_id, team_id, next_player_id, prev_player_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, n.ID, n.GameID, n.PlayerID, n.TeamID, n.NextPlayerID, n.PrevPlayerID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Queries) GetTurnNode(ctx context.Context, gameID, playerID string) (fishbowl.TurnOrderNode, error) {
	var n fishbowl.TurnOrderNode
	err := s.q.QueryRowContext(ctx, `
		SELECT id, game_id, player_id, team_id, next_player_id, prev_player_id
		FROM turn_order WHERE game_id = ? AND player_id = ?
	`, gameID, playerID).Scan(&n.ID, &n.GameID, &n.PlayerID, &n.TeamID, &n.NextPlayerID, &n.PrevPlayerID)
	if errors.Is(err, sql.ErrNoRows) {
		return n, integrityf("no ring node for player %s in game %s", playerID, gameID)
	}
	return n, err
}

func (s *Queries) ListTurnNodes(ctx context.Context, gameID string) ([]fishbowl.TurnOrderNode, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, game_id, player_id, team_id, next_player_id, prev_player_id
		FROM turn_order WHERE game_id = ?
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []fishbowl.TurnOrderNode
	for rows.Next() {
		var n fishbowl.TurnOrderNode
		if err := rows.Scan(&n.ID, &n.GameID, &n.PlayerID, &n.TeamID, &n.NextPlayerID, &n.PrevPlayerID); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *Queries) CountTurnNodes(ctx context.Context, gameID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turn_order WHERE game_id = ?`, gameID).Scan(&n)
	return n, err
}

// ListConnectedRingPlayers returns the players enrolled in the ring whose
// presence flag is currently set, in stable (joined_at) order.
func (s *Queries) ListConnectedRingPlayers(ctx context.Context, gameID string) ([]fishbowl.Player, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT p.id, p.game_id, p.team_id, p.name, p.is_connected, p.joined_at
		FROM turn_order o
		JOIN players p ON p.id = o.player_id
		WHERE o.game_id = ? AND p.is_connected = 1
		ORDER BY p.joined_at
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []fishbowl.Player
	for rows.Next() {
		var p fishbowl.Player
		var teamID sql.NullString
		if err := rows.Scan(&p.ID, &p.GameID, &teamID, &p.Name, &p.IsConnected, &p.JoinedAt); err != nil {
			return nil, err
		}
		if teamID.Valid {
			p.TeamID = &teamID.String
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
