package handlers

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/auth"
	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/cookies"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/request"
	"space-mining-server/internal/shared/response"
)

type RegisterHandler struct {
	players *player.Service
	tokens  *auth.TokenService
	cfg     *config.Config
}

func NewRegisterHandler(players *player.Service, tokens *auth.TokenService, cfg *config.Config) *RegisterHandler {
	return &RegisterHandler{players: players, tokens: tokens, cfg: cfg}
}

type registerRequest struct {
	Username string `json:"username"`
	Faction  string `json:"faction"`
}

type registerResponse struct {
	Player *player.Player `json:"player"`
	Token  string         `json:"token"`
}

// ServeHTTP creates a player, signs a session token and sets it as the auth cookie
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "register")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req registerRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	p, err := h.players.Register(r.Context(), req.Username, req.Faction, player.PlayerRoleUser)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	token, err := h.tokens.Generate(p.ID, p.Username, string(p.Faction), p.Role.String())
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to generate session token", err))
		return
	}
	cookies.SetAuthCookie(w, h.cfg, token)

	logger.Info("Player registered", "player_id", p.ID, "faction", p.Faction)
	response.Success(w, http.StatusCreated, "Welcome aboard", registerResponse{Player: p, Token: token})
}
