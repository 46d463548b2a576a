// Package fishbowl defines the core domain types for the party game.
// It has zero external dependencies — everything here is pure Go.
package fishbowl

// GameStatus is the coarse lifecycle phase of a game.
type GameStatus string

const (
	StatusSetup    GameStatus = "setup"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// SubStatus is the fine-grained phase within a GameStatus. Each value is
// legal for exactly one status; see LegalSubStatuses.
type SubStatus string

const (
	SubWaitingForPlayers SubStatus = "waiting_for_players"
	SubReadyToStart      SubStatus = "ready_to_start"
	SubRoundIntro        SubStatus = "round_intro"
	SubTurnStarting      SubStatus = "turn_starting"
	SubTurnActive        SubStatus = "turn_active"
	SubTurnPaused        SubStatus = "turn_paused"
	SubRoundComplete     SubStatus = "round_complete"
	SubGameComplete      SubStatus = "game_complete"
)

// LegalSubStatuses maps each game status to the sub-statuses allowed
// while the game is in it.
var LegalSubStatuses = map[GameStatus][]SubStatus{
	StatusSetup:    {SubWaitingForPlayers, SubReadyToStart},
	StatusPlaying:  {SubRoundIntro, SubTurnStarting, SubTurnActive, SubTurnPaused, SubRoundComplete},
	StatusFinished: {SubGameComplete},
}

// TotalRounds is fixed by the game rules: three passes over the same
// phrase pool, each with a different guessing rule.
const TotalRounds = 3

var roundNames = [TotalRounds + 1]string{"", "Taboo", "Charades", "One Word"}

// RoundName returns the fixed rule name for a 1-based round number.
// Round numbers outside 1..3 return the empty string.
func RoundName(round int) string {
	if round < 1 || round > TotalRounds {
		return ""
	}
	return roundNames[round]
}

type PhraseStatus string

const (
	PhraseActive  PhraseStatus = "active"
	PhraseGuessed PhraseStatus = "guessed"
	PhraseSkipped PhraseStatus = "skipped"
)

// Game is the aggregate root. ID is the 6-character join code.
type Game struct {
	ID               string
	Status           GameStatus
	SubStatus        SubStatus
	TeamCount        int
	PhrasesPerPlayer int
	TimerSeconds     int
	CurrentRound     int
	CurrentTurnID    *string
	CreatedAt        string
	StartedAt        *string
	FinishedAt       *string
}

type Team struct {
	ID          string
	GameID      string
	Name        string
	Color       string
	ScoreRound1 int
	ScoreRound2 int
	ScoreRound3 int
	ScoreTotal  int
}

// RoundScore returns the team's score for a 1-based round number.
func (t Team) RoundScore(round int) int {
	switch round {
	case 1:
		return t.ScoreRound1
	case 2:
		return t.ScoreRound2
	case 3:
		return t.ScoreRound3
	}
	return 0
}

// Player belongs to a game and, once picked, a team. IsConnected is
// owned by the presence layer; the engine only reads it.
type Player struct {
	ID          string
	GameID      string
	TeamID      *string
	Name        string
	IsConnected bool
	JoinedAt    string
}

type Phrase struct {
	ID              string
	GameID          string
	PlayerID        string
	Text            string
	Status          PhraseStatus
	GuessedInRound  *int
	GuessedByTeamID *string
}

// Turn is one player's timed, scored attempt at clearing phrases.
type Turn struct {
	ID             string
	GameID         string
	Round          int
	TeamID         string
	PlayerID       string
	StartedAt      *string
	EndedAt        *string
	DurationSecs   int
	PhrasesGuessed int
	PhrasesSkipped int
	PointsScored   int
	IsComplete     bool
}

// TurnOrderNode is one entry in a game's circular turn order. The nodes
// for a game form exactly one directed cycle over every enrolled player.
// Nodes are written once at game start and never mutated; disconnection
// is represented by Player.IsConnected, not by rewriting links.
type TurnOrderNode struct {
	ID           string
	GameID       string
	PlayerID     string
	TeamID       string
	NextPlayerID string
	PrevPlayerID string
}
