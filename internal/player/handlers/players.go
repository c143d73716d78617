package handlers

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/response"
)

type PlayersHandler struct {
	service *player.Service
}

func NewPlayersHandler(service *player.Service) *PlayersHandler {
	return &PlayersHandler{service: service}
}

func (h *PlayersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players", "remote_addr", r.RemoteAddr)

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	players, err := h.service.GetAllPlayers(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	logger.Debug("Players list completed", "player_count", len(players))
	response.Success(w, http.StatusOK, "", players)
}
