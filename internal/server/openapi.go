package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConflictResponse is returned for state conflicts, with the actual vs
// expected game state so clients can resynchronize.
type ConflictResponse struct {
	Error    string `json:"error"`
	Current  string `json:"current"`
	Expected string `json:"expected"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Fishbowl API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Fishbowl party game: teams, phrase pool, and three timed guessing rounds.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/games
	postGames, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGames.SetSummary("Create game")
	postGames.SetDescription("Creates a game in setup status with its teams and returns the 6-character join code.")
	postGames.AddReqStructure(CreateGameRequest{})
	postGames.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGames.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postGames)

	// POST /api/games/{code}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/games/{code}/join")
	postJoin.SetSummary("Join a game")
	postJoin.SetDescription("Enrolls a player by name while the game is in setup. Returns a session token.")
	postJoin.AddReqStructure(struct {
		Code string `path:"code"`
	}{})
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postJoin.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// GET /api/games/{code}/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/games/{code}/state")
	getState.SetSummary("Game snapshot")
	getState.SetDescription("Full game state: teams, scores, players, phrase counts, current turn.")
	getState.AddRespStructure(StateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// GET /api/games/{code}/ring
	getRing, _ := r.NewOperationContext(http.MethodGet, "/api/games/{code}/ring")
	getRing.SetSummary("Turn order integrity check")
	getRing.SetDescription("Verifies the persisted turn order forms a single closed ring over the roster.")
	getRing.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getRing.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getRing)

	// POST /api/game/team
	postTeam, _ := r.NewOperationContext(http.MethodPost, "/api/game/team")
	postTeam.SetSummary("Pick team")
	postTeam.SetDescription("Assigns the player to a team during setup. Requires Bearer token.")
	postTeam.AddReqStructure(PickTeamRequest{})
	postTeam.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postTeam)

	// POST /api/game/phrases
	postPhrases, _ := r.NewOperationContext(http.MethodPost, "/api/game/phrases")
	postPhrases.SetSummary("Submit phrases")
	postPhrases.SetDescription("Adds phrases toward the player's quota. Requires Bearer token.")
	postPhrases.AddReqStructure(SubmitPhrasesRequest{})
	postPhrases.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postPhrases.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPhrases)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start game")
	postStart.SetDescription("Validates the roster and phrase pool, builds the turn order, and creates the first turn. Requires Bearer token.")
	postStart.AddRespStructure(StartGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStart.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/game/round/start
	postRound, _ := r.NewOperationContext(http.MethodPost, "/api/game/round/start")
	postRound.SetSummary("Start round")
	postRound.SetDescription("Moves from the round intro to the next turn, returning skipped phrases to the pool. Requires Bearer token.")
	postRound.AddRespStructure(StartRoundResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRound.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRound)

	// POST /api/game/turn/begin
	postBegin, _ := r.NewOperationContext(http.MethodPost, "/api/game/turn/begin")
	postBegin.SetSummary("Begin turn")
	postBegin.SetDescription("The acting player starts their timed turn. Only the player named on the pending turn may call this.")
	postBegin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postBegin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postBegin.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postBegin)

	// POST /api/game/turn/pause
	postPause, _ := r.NewOperationContext(http.MethodPost, "/api/game/turn/pause")
	postPause.SetSummary("Pause turn")
	postPause.SetDescription("Pauses the active turn. Any player in the game may call this.")
	postPause.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postPause.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postPause)

	// POST /api/game/turn/resume
	postResume, _ := r.NewOperationContext(http.MethodPost, "/api/game/turn/resume")
	postResume.SetSummary("Resume turn")
	postResume.SetDescription("Resumes a paused turn. If the paused turn was abandoned, a fresh turn is created for a random connected player.")
	postResume.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postResume.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postResume)

	// POST /api/game/turn/end
	postEnd, _ := r.NewOperationContext(http.MethodPost, "/api/game/turn/end")
	postEnd.SetSummary("End turn")
	postEnd.SetDescription("Completes the current turn, folds its score into the team totals, and hands off to the next connected player. Only the acting player may call this.")
	postEnd.AddRespStructure(EndTurnResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postEnd.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postEnd.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postEnd)

	// GET /api/game/phrase
	getPhrase, _ := r.NewOperationContext(http.MethodGet, "/api/game/phrase")
	getPhrase.SetSummary("Draw phrase")
	getPhrase.SetDescription("Returns a random active phrase for the acting player to perform.")
	getPhrase.AddRespStructure(PhraseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPhrase.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getPhrase)

	// POST /api/game/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/game/guess")
	postGuess.SetSummary("Mark phrase guessed")
	postGuess.SetDescription("Resolves an active phrase as guessed by the current team. Clearing the pool completes the round.")
	postGuess.AddReqStructure(PlayPhraseRequest{})
	postGuess.AddRespStructure(PhraseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	// POST /api/game/skip
	postSkip, _ := r.NewOperationContext(http.MethodPost, "/api/game/skip")
	postSkip.SetSummary("Skip phrase")
	postSkip.SetDescription("Shelves an active phrase for the rest of the current turn.")
	postSkip.AddReqStructure(PlayPhraseRequest{})
	postSkip.AddRespStructure(PhraseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postSkip.AddRespStructure(ConflictResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSkip)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of game events. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/presence
	getPresence, _ := r.NewOperationContext(http.MethodGet, "/ws/presence")
	getPresence.SetSummary("Presence websocket")
	getPresence.SetDescription("Holding this socket open marks the player connected; closing it marks them disconnected. Pass token as query parameter.")
	getPresence.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getPresence)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
