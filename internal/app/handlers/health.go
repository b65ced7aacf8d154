package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
)

// HealthHandler обрабатывает запрос GET /health: проверяет доступность БД
func HealthHandler(log *slog.Logger, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HealthHandler"

		if err := db.PingContext(r.Context()); err != nil {
			log.Error("health check failed", slog.String("op", op), slog.Any("error", err))
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
