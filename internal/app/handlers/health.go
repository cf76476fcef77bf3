package handlers

import (
	"log/slog"
	"net/http"
)

// HealthHandler обрабатывает GET /api/health.
func HealthHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HealthHandler"
		logger := log.With(slog.String("op", op))

		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}
