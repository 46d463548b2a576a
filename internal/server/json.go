package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/partyround/fishbowl/internal/game"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP status
// codes. State conflicts include the actual vs expected state so clients
// can resynchronize; integrity and store errors are logged and hidden.
func writeEngineError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var e *game.Error
	if !errors.As(err, &e) {
		logger.Error("engine operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch e.Kind {
	case game.KindValidation:
		writeError(w, http.StatusBadRequest, e.Reason)
	case game.KindForbidden:
		writeError(w, http.StatusForbidden, e.Reason)
	case game.KindNotFound:
		writeError(w, http.StatusNotFound, e.Reason)
	case game.KindStateConflict:
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":    e.Reason,
			"current":  e.Current,
			"expected": e.Expected,
		})
	default:
		logger.Error("integrity error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
