package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything that can report whether its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth answers 200 "OK" when the store responds within two seconds
// and 503 otherwise.
//
// HTTP: GET /healthz
func HandleHealth(store Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Error("health check failed", slog.String("error", err.Error()))
			writeText(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		writeText(w, http.StatusOK, "OK")
	}
}
