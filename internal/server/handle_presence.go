package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/partyround/fishbowl/internal/game"
	"github.com/partyround/fishbowl/internal/presence"
)

// handlePresence holds a websocket open for the lifetime of a player's
// session. The open connection is the connectivity signal: accepting it
// registers the player and sets is_connected, any inbound frame extends
// the TTL, and close (or error) tears both down. The turn navigator only
// ever reads the stored flag this handler maintains.
func handlePresence(logger *slog.Logger, m *game.Machine, registry presence.Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}

		sess, err := m.Store().PlayerFromToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		setConnected(r.Context(), logger, m, registry, broker, sess, true)
		defer func() {
			// The request context is gone once the client drops; use a
			// fresh one for the teardown writes.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			setConnected(ctx, logger, m, registry, broker, sess, false)
		}()

		for {
			// Any frame counts as a heartbeat; the payload is ignored.
			if _, _, err := conn.Read(r.Context()); err != nil {
				logger.Debug("presence socket closed", "player_id", sess.PlayerID, "error", err)
				return
			}
			if err := registry.Heartbeat(r.Context(), sess.PlayerID); err != nil {
				logger.Error("presence heartbeat failed", "player_id", sess.PlayerID, "error", err)
			}
		}
	}
}

func setConnected(ctx context.Context, logger *slog.Logger, m *game.Machine, registry presence.Registry, broker *Broker, sess game.PlayerSession, connected bool) {
	var err error
	if connected {
		err = registry.Connect(ctx, sess.PlayerID)
	} else {
		err = registry.Disconnect(ctx, sess.PlayerID)
	}
	if err != nil {
		logger.Error("presence registry update failed", "player_id", sess.PlayerID, "error", err)
	}

	if err := m.Store().SetPlayerConnected(ctx, sess.PlayerID, connected); err != nil {
		logger.Error("updating is_connected failed", "player_id", sess.PlayerID, "error", err)
		return
	}

	event := Event{Type: "player_disconnected", PlayerID: sess.PlayerID}
	if connected {
		event.Type = "player_connected"
	}
	broker.Publish(sess.GameID, event)
}
