// Package game implements the turn ordering and game progression engine:
// the snake-draft turn order builder, the connectivity-aware ring
// navigator, the ring integrity checker, and the game/round/turn state
// machine. Every state-machine operation runs as a single store
// transaction; a failed precondition rolls the whole operation back.
package game

import (
	"context"
	"crypto/rand"
	"fmt"
	mrand "math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/partyround/fishbowl/internal/fishbowl"
)

// Machine owns every status/sub_status transition of a game and the turn
// lifecycle coupled to it. The random source drives the snake draft and
// start-player selection and is injected for deterministic tests.
type Machine struct {
	store   *Store
	builder *Builder
	nav     *Navigator
	now     func() time.Time
}

func NewMachine(store *Store, rng *mrand.Rand) *Machine {
	return &Machine{
		store:   store,
		builder: NewBuilder(rng),
		nav:     NewNavigator(rng),
		now:     time.Now,
	}
}

// Store exposes the machine's entity store for read-only collaborators
// (presence flag updates, session lookups).
func (m *Machine) Store() *Store { return m.store }

func (m *Machine) timestamp() string {
	return m.now().UTC().Format(time.RFC3339Nano)
}

// Join codes skip ambiguous characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newGameCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return fmt.Sprintf("%x", buf), nil
}

var teamPalette = []struct {
	Name  string
	Color string
}{
	{"Red", "#e74c3c"},
	{"Blue", "#3498db"},
	{"Green", "#2ecc71"},
	{"Yellow", "#f1c40f"},
	{"Purple", "#9b59b6"},
	{"Orange", "#e67e22"},
}

type CreateGameRequest struct {
	TeamCount        int
	PhrasesPerPlayer int
	TimerSeconds     int
}

type CreateGameResult struct {
	Game  fishbowl.Game
	Teams []fishbowl.Team
}

// CreateGame creates a game in setup status with its teams. Teams are
// created once here and never added later.
func (m *Machine) CreateGame(ctx context.Context, req CreateGameRequest) (CreateGameResult, error) {
	if req.TeamCount == 0 {
		req.TeamCount = 2
	}
	if req.PhrasesPerPlayer == 0 {
		req.PhrasesPerPlayer = 3
	}
	if req.TimerSeconds == 0 {
		req.TimerSeconds = 60
	}
	if req.TeamCount < 2 || req.TeamCount > len(teamPalette) {
		return CreateGameResult{}, validationf("team count must be between 2 and %d", len(teamPalette))
	}
	if req.PhrasesPerPlayer < 1 || req.PhrasesPerPlayer > 10 {
		return CreateGameResult{}, validationf("phrases per player must be between 1 and 10")
	}
	if req.TimerSeconds < 10 || req.TimerSeconds > 300 {
		return CreateGameResult{}, validationf("timer must be between 10 and 300 seconds")
	}

	var result CreateGameResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		var code string
		for {
			var err error
			code, err = newGameCode()
			if err != nil {
				return err
			}
			exists, err := q.GameExists(ctx, code)
			if err != nil {
				return err
			}
			if !exists {
				break
			}
		}

		game := fishbowl.Game{
			ID:               code,
			Status:           fishbowl.StatusSetup,
			SubStatus:        fishbowl.SubWaitingForPlayers,
			TeamCount:        req.TeamCount,
			PhrasesPerPlayer: req.PhrasesPerPlayer,
			TimerSeconds:     req.TimerSeconds,
			CurrentRound:     1,
		}
		if err := q.InsertGame(ctx, game); err != nil {
			return err
		}

		teams := make([]fishbowl.Team, 0, req.TeamCount)
		for i := 0; i < req.TeamCount; i++ {
			team := fishbowl.Team{
				ID:     uuid.NewString(),
				GameID: code,
				Name:   teamPalette[i].Name,
				Color:  teamPalette[i].Color,
			}
			if err := q.InsertTeam(ctx, team); err != nil {
				return err
			}
			teams = append(teams, team)
		}

		result = CreateGameResult{Game: game, Teams: teams}
		return nil
	})
	return result, err
}

type JoinResult struct {
	Player       fishbowl.Player
	SessionToken string
	Game         fishbowl.Game
}

// Join enrolls a new player in a game still in setup. Players cannot join
// once the turn order has been built.
func (m *Machine) Join(ctx context.Context, code, name string) (JoinResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return JoinResult{}, validationf("player name is required")
	}

	var result JoinResult
	err := m.store.Tx(ctx, func(q *Queries) error {
		game, err := q.GetGame(ctx, code)
		if err != nil {
			return err
		}
		if game.Status != fishbowl.StatusSetup {
			return conflictf(string(game.Status), string(fishbowl.StatusSetup),
				"game %s has already started", code)
		}

		token, err := newSessionToken()
		if err != nil {
			return err
		}
		player := fishbowl.Player{
			ID:          uuid.NewString(),
			GameID:      game.ID,
			Name:        name,
			IsConnected: true,
		}
		if err := q.InsertPlayer(ctx, player, token); err != nil {
			return err
		}
		if err := m.refreshReadiness(ctx, q, game); err != nil {
			return err
		}

		result = JoinResult{Player: player, SessionToken: token, Game: game}
		return nil
	})
	return result, err
}

// PickTeam assigns the player to one of the game's teams. Allowed any
// number of times while the game is in setup.
func (m *Machine) PickTeam(ctx context.Context, playerID, teamID string) error {
	return m.store.Tx(ctx, func(q *Queries) error {
		player, err := q.GetPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		game, err := q.GetGame(ctx, player.GameID)
		if err != nil {
			return err
		}
		if game.Status != fishbowl.StatusSetup {
			return conflictf(string(game.Status), string(fishbowl.StatusSetup),
				"teams are locked once the game starts")
		}
		team, err := q.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if team.GameID != game.ID {
			return validationf("team %s does not belong to game %s", teamID, game.ID)
		}
		if err := q.SetPlayerTeam(ctx, playerID, teamID); err != nil {
			return err
		}
		return m.refreshReadiness(ctx, q, game)
	})
}

// SubmitPhrases adds phrases to the player's quota. The batch is rejected
// if it would push the player past phrases_per_player.
func (m *Machine) SubmitPhrases(ctx context.Context, playerID string, texts []string) error {
	cleaned := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			return validationf("phrases must not be empty")
		}
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		return validationf("at least one phrase is required")
	}

	return m.store.Tx(ctx, func(q *Queries) error {
		player, err := q.GetPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		game, err := q.GetGame(ctx, player.GameID)
		if err != nil {
			return err
		}
		if game.Status != fishbowl.StatusSetup {
			return conflictf(string(game.Status), string(fishbowl.StatusSetup),
				"phrases are locked once the game starts")
		}

		have, err := q.CountPhrasesByPlayer(ctx, playerID)
		if err != nil {
			return err
		}
		if have+len(cleaned) > game.PhrasesPerPlayer {
			return validationf("player %s may submit %d phrases, already has %d",
				playerID, game.PhrasesPerPlayer, have)
		}

		phrases := make([]fishbowl.Phrase, 0, len(cleaned))
		for _, text := range cleaned {
			phrases = append(phrases, fishbowl.Phrase{
				ID:       uuid.NewString(),
				GameID:   game.ID,
				PlayerID: playerID,
				Text:     text,
				Status:   fishbowl.PhraseActive,
			})
		}
		if err := q.InsertPhrases(ctx, phrases); err != nil {
			return err
		}
		return m.refreshReadiness(ctx, q, game)
	})
}

// refreshReadiness recomputes the setup sub-status after any roster or
// phrase change. ready_to_start can regress to waiting_for_players, e.g.
// when a new player joins without phrases.
func (m *Machine) refreshReadiness(ctx context.Context, q *Queries, game fishbowl.Game) error {
	if game.Status != fishbowl.StatusSetup {
		return nil
	}
	err := m.validateStart(ctx, q, game)
	sub := fishbowl.SubReadyToStart
	if err != nil {
		if KindOf(err) != KindValidation {
			return err
		}
		sub = fishbowl.SubWaitingForPlayers
	}
	if sub == game.SubStatus {
		return nil
	}
	game.SubStatus = sub
	return q.UpdateGameState(ctx, game)
}

// validateStart checks every precondition for leaving setup: enough
// players overall and per team, everyone on a team, everyone's phrase
// quota met. Returns a validation error naming the first unmet condition.
func (m *Machine) validateStart(ctx context.Context, q *Queries, game fishbowl.Game) error {
	players, err := q.ListPlayers(ctx, game.ID)
	if err != nil {
		return err
	}
	if len(players) < 2*game.TeamCount {
		return validationf("need at least %d players, have %d", 2*game.TeamCount, len(players))
	}

	perTeam := make(map[string]int)
	for _, p := range players {
		if p.TeamID == nil {
			return validationf("player %s has not picked a team", p.Name)
		}
		perTeam[*p.TeamID]++
	}
	if len(perTeam) < game.TeamCount {
		return validationf("every team needs players; only %d of %d teams have any",
			len(perTeam), game.TeamCount)
	}

	total, err := q.CountPhrases(ctx, game.ID)
	if err != nil {
		return err
	}
	if total < len(players)*game.PhrasesPerPlayer {
		return validationf("phrase pool has %d of %d required phrases",
			total, len(players)*game.PhrasesPerPlayer)
	}
	for _, p := range players {
		n, err := q.CountPhrasesByPlayer(ctx, p.ID)
		if err != nil {
			return err
		}
		if n < game.PhrasesPerPlayer {
			return validationf("player %s has submitted %d of %d phrases",
				p.Name, n, game.PhrasesPerPlayer)
		}
	}
	return nil
}

// VerifyRing exposes the ring integrity check for operational tooling.
func (m *Machine) VerifyRing(ctx context.Context, code string) error {
	game, err := m.store.GetGame(ctx, code)
	if err != nil {
		return err
	}
	return CheckRing(ctx, &m.store.Queries, game.ID)
}
