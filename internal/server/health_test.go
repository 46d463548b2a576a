package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleHealth(t *testing.T) {
	ok := CheckerFunc(func(ctx context.Context) error { return nil })
	bad := CheckerFunc(func(ctx context.Context) error { return errors.New("unreachable") })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		checks     map[string]Checker
		wantStatus int
		want       map[string]string
	}{
		{
			name:       "all healthy",
			checks:     map[string]Checker{"sqlite": ok, "redis": ok},
			wantStatus: http.StatusOK,
			want:       map[string]string{"sqlite": "ok", "redis": "ok"},
		},
		{
			name:       "one dependency down",
			checks:     map[string]Checker{"sqlite": ok, "redis": bad},
			wantStatus: http.StatusServiceUnavailable,
			want:       map[string]string{"sqlite": "ok", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handleHealth(logger, tt.checks)

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			h(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding: %v", err)
			}
			for name, want := range tt.want {
				if got := body[name].Status; got != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}
