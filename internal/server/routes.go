package server

import (
	"log/slog"
	"net/http"

	"space-mining-server/internal/auth"
	authHandlers "space-mining-server/internal/auth/handlers"
	"space-mining-server/internal/celestial"
	celestialHandlers "space-mining-server/internal/celestial/handlers"
	"space-mining-server/internal/fleet"
	fleetHandlers "space-mining-server/internal/fleet/handlers"
	"space-mining-server/internal/middleware"
	"space-mining-server/internal/mine"
	mineHandlers "space-mining-server/internal/mine/handlers"
	"space-mining-server/internal/mission"
	missionHandlers "space-mining-server/internal/mission/handlers"
	"space-mining-server/internal/player"
	playerHandlers "space-mining-server/internal/player/handlers"
	serverHandlers "space-mining-server/internal/server/handlers"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/database"
	sharedredis "space-mining-server/internal/shared/redis"
)

type Services struct {
	Players   *player.Service
	Celestial *celestial.Service
	Mines     *mine.Service
	Fleet     *fleet.Service
	Missions  *mission.Service
	Tokens    *auth.TokenService
}

type Routes struct {
	db       *database.DB
	redis    *sharedredis.Client
	services Services
	cfg      *config.Config
	logger   *slog.Logger
}

func NewRoutes(db *database.DB, redis *sharedredis.Client, services Services, cfg *config.Config, logger *slog.Logger) *Routes {
	return &Routes{
		db:       db,
		redis:    redis,
		services: services,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	authenticator := middleware.NewAuthenticator(r.services.Tokens)
	game := middleware.NewGameAccessMiddleware(authenticator, r.services.Players)

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.redis)
	statusHandler := serverHandlers.NewGameStatusHandler(r.services.Players, r.services.Celestial)
	playersHandler := playerHandlers.NewPlayersHandler(r.services.Players)
	meHandler := playerHandlers.NewMeHandler(r.services.Players)
	registerHandler := authHandlers.NewRegisterHandler(r.services.Players, r.services.Tokens, r.cfg)
	logoutHandler := authHandlers.NewLogoutHandler(r.cfg)

	celestialHandler := celestialHandlers.NewCelestialHandler(r.services.Celestial,
		r.cfg.Game.AsteroidSpawnCount, r.cfg.Game.AsteroidLifetimeDays)
	mineHandler := mineHandlers.NewMineHandler(r.services.Mines)
	shipHandler := fleetHandlers.NewShipHandler(r.services.Fleet)
	missionHandler := missionHandlers.NewMissionHandler(r.services.Missions)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/api/game/status", statusHandler)
	mux.Handle("/api/players", playersHandler)

	// Auth endpoints
	mux.Handle("/auth/register", registerHandler)
	mux.Handle("/auth/logout", logoutHandler)

	// Player endpoints (authenticated, actor resolved from storage)
	mux.Handle("/api/players/me", game.Require(meHandler))

	mux.Handle("/api/celestial", game.Require(http.HandlerFunc(celestialHandler.List)))
	mux.Handle("/api/celestial/planets", game.Require(http.HandlerFunc(celestialHandler.Planets)))
	mux.Handle("/api/celestial/asteroids", game.Require(http.HandlerFunc(celestialHandler.Asteroids)))
	mux.Handle("/api/celestial/{id}", game.Require(http.HandlerFunc(celestialHandler.Get)))

	// preview/{bodyId} and {bodyId}/collect overlap on path alone, so these carry methods
	mux.Handle("/api/mines", game.Require(http.HandlerFunc(mineHandler.List)))
	mux.Handle("/api/mines/build", game.Require(http.HandlerFunc(mineHandler.Build)))
	mux.Handle("/api/mines/collect-all", game.Require(http.HandlerFunc(mineHandler.CollectAll)))
	mux.Handle("GET /api/mines/preview/{bodyId}", game.Require(http.HandlerFunc(mineHandler.Preview)))
	mux.Handle("POST /api/mines/{bodyId}/collect", game.Require(http.HandlerFunc(mineHandler.Collect)))
	mux.Handle("POST /api/mines/{bodyId}/upgrade", game.Require(http.HandlerFunc(mineHandler.Upgrade)))

	mux.Handle("/api/ships/templates", game.Require(http.HandlerFunc(shipHandler.GetTemplates)))
	mux.Handle("/api/ships/templates/{id}", game.Require(http.HandlerFunc(shipHandler.GetTemplate)))
	mux.Handle("/api/ships/build", game.Require(http.HandlerFunc(shipHandler.Build)))
	mux.Handle("/api/ships/fleet", game.Require(http.HandlerFunc(shipHandler.GetFleet)))
	mux.Handle("/api/ships/fleet/{id}", game.Require(http.HandlerFunc(shipHandler.Ship)))

	mux.Handle("/api/missions", game.Require(http.HandlerFunc(missionHandler.List)))
	mux.Handle("/api/missions/send", game.Require(http.HandlerFunc(missionHandler.Send)))
	mux.Handle("/api/missions/collect-all", game.Require(http.HandlerFunc(missionHandler.CollectAll)))
	mux.Handle("/api/missions/preview/{shipId}/{targetId}", game.Require(http.HandlerFunc(missionHandler.Preview)))
	mux.Handle("/api/missions/{id}", game.Require(http.HandlerFunc(missionHandler.Get)))
	mux.Handle("/api/missions/{id}/collect", game.Require(http.HandlerFunc(missionHandler.Collect)))

	// Admin-only endpoints (authenticated + admin role)
	mux.Handle("/api/celestial/spawn-asteroids", authenticator.RequireAdmin(http.HandlerFunc(celestialHandler.Spawn)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/game/status", "/api/players"},
		"auth_endpoints", []string{"/auth/register", "/auth/logout"},
		"game_prefixes", []string{"/api/players/me", "/api/celestial", "/api/mines", "/api/ships", "/api/missions"},
		"admin_endpoints", []string{"/api/celestial/spawn-asteroids"},
	)

	return mux
}
