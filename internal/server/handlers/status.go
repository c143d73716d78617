package handlers

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/response"
)

type GameStatusResponse struct {
	Game            string `json:"game"`
	Players         int    `json:"players"`
	ActiveAsteroids int    `json:"active_asteroids"`
}

type GameStatusHandler struct {
	players   *player.Service
	celestial *celestial.Service
}

func NewGameStatusHandler(players *player.Service, celestial *celestial.Service) *GameStatusHandler {
	return &GameStatusHandler{players: players, celestial: celestial}
}

func (h *GameStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "game_status")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	playerCount, err := h.players.GetPlayerCount(ctx)
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to get player count", err))
		return
	}

	asteroids, err := h.celestial.ListAsteroids(ctx)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", GameStatusResponse{
		Game:            "Space Mining",
		Players:         playerCount,
		ActiveAsteroids: asteroids.Count,
	})
}
