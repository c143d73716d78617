package middleware

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/errors"
	"space-mining-server/internal/shared/response"
)

// RequireRole admits requests whose token carries role. It must run after JWTMiddleware.
func RequireRole(role player.PlayerRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := slog.With(
				"middleware", "require_role",
				"role", role,
				"method", r.Method,
				"path", r.URL.Path,
			)

			claims := GetUserFromContext(r)
			if claims == nil {
				response.Error(w, r, logger, errors.Unauthorized("authentication required"))
				return
			}

			if player.ParsePlayerRole(claims.Role) != role {
				logger.Warn("Player lacks required role",
					"player_id", claims.PlayerID,
					"player_role", claims.Role)
				response.Error(w, r, logger, errors.Forbidden(role.String()+" access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards operator endpoints such as asteroid spawning
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.JWTMiddleware(RequireRole(player.PlayerRoleAdmin)(next))
}
