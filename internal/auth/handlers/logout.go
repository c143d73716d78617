package handlers

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/cookies"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/response"
)

type LogoutHandler struct {
	cfg *config.Config
}

func NewLogoutHandler(cfg *config.Config) *LogoutHandler {
	return &LogoutHandler{cfg: cfg}
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "logout")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	cookies.ClearAuthCookie(w, h.cfg)
	response.Success(w, http.StatusOK, "Logged out", nil)
}
