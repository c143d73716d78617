package handlers

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/middleware"
	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/response"
)

type MeHandler struct {
	service *player.Service
}

func NewMeHandler(service *player.Service) *MeHandler {
	return &MeHandler{service: service}
}

// ServeHTTP returns the caller's profile, balance and faction modifiers
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "me")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}
	actor, ok := middleware.GetActor(r)
	if !ok {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	profile, err := h.service.GetProfile(r.Context(), actor.PlayerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", profile)
}
