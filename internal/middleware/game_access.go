package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/response"
)

// PlayerLookup resolves a token's player id to the stored player.
type PlayerLookup interface {
	GetPlayerByID(ctx context.Context, id int) (*player.Player, error)
}

// GameAccessMiddleware admits only tokens whose player still exists and
// resolves the acting player's faction from storage rather than from the token.
type GameAccessMiddleware struct {
	auth    *Authenticator
	players PlayerLookup
}

func NewGameAccessMiddleware(auth *Authenticator, players PlayerLookup) *GameAccessMiddleware {
	return &GameAccessMiddleware{auth: auth, players: players}
}

func (m *GameAccessMiddleware) Require(next http.Handler) http.Handler {
	return m.auth.JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "game_access",
			"method", r.Method,
			"path", r.URL.Path,
		)

		claims := GetUserFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		p, err := m.players.GetPlayerByID(r.Context(), claims.PlayerID)
		if err != nil {
			if errors.GetType(err) == errors.ErrorTypeNotFound {
				response.Error(w, r, logger, errors.Unauthorized("player no longer exists"))
				return
			}
			response.Error(w, r, logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), ActorContextKey, p.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// GetActor returns the acting player resolved by GameAccessMiddleware
func GetActor(r *http.Request) (player.Actor, bool) {
	actor, ok := r.Context().Value(ActorContextKey).(player.Actor)
	return actor, ok
}
