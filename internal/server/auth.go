package server

import (
	"net/http"
	"strings"

	"github.com/partyround/fishbowl/internal/game"
)

func playerFromRequest(r *http.Request, m *game.Machine) (game.PlayerSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return game.PlayerSession{}, game.ErrNoSession
	}
	return m.Store().PlayerFromToken(r.Context(), token)
}
