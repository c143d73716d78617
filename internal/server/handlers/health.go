package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"space-mining-server/internal/shared/database"
	sharedredis "space-mining-server/internal/shared/redis"
	"space-mining-server/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Redis     string `json:"redis"`
}

type HealthHandler struct {
	db    *database.DB
	redis *sharedredis.Client
}

func NewHealthHandler(db *database.DB, redis *sharedredis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "connected",
		Redis:     "disabled",
	}

	if err := h.db.PingContext(ctx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "disconnected"
	}

	if h.redis != nil {
		resp.Redis = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			logger.Warn("Redis ping failed", "error", err)
			resp.Status = "degraded"
			resp.Redis = "disconnected"
		}
	}

	response.Success(w, http.StatusOK, "", resp)
}
