package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"space-mining-server/internal/auth"
	"space-mining-server/internal/catalog"
	"space-mining-server/internal/celestial"
	"space-mining-server/internal/fleet"
	"space-mining-server/internal/ledger"
	"space-mining-server/internal/middleware"
	"space-mining-server/internal/mine"
	"space-mining-server/internal/mission"
	"space-mining-server/internal/player"
	"space-mining-server/internal/server"
	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/logger"
	sharedredis "space-mining-server/internal/shared/redis"
	"space-mining-server/migrations"
)

func main() {
	if err := config.Init(); err != nil {
		slog.Error("Failed to initialize config", "error", err)
		os.Exit(1)
	}
	logger.Init()

	cfg := config.GlobalConfig
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect()
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		log.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := sharedredis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, cleanup throttling stays in-process", "error", err)
		redisClient = nil
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", "error", err)
		}
	}()

	cat, err := catalog.Load(cfg.Game.BalancePath)
	if err != nil {
		log.Error("Failed to load game balance", "error", err)
		os.Exit(1)
	}
	factions := cat.FactionTable()
	clk := clock.RealClock{}
	base := slog.Default()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration, clk)
	if err != nil {
		log.Error("Failed to initialize token service", "error", err)
		os.Exit(1)
	}

	playerRepo := player.NewRepository(db, base)
	ledgerRepo := ledger.NewRepository(db, base)
	celestialRepo := celestial.NewRepository(db, base)
	mineRepo := mine.NewRepository(db, base)
	fleetRepo := fleet.NewRepository(db, base)
	missionRepo := mission.NewRepository(db, base)

	generator := celestial.NewGenerator(cat.Asteroids.Archetypes, cat.Asteroids.Names, clk, nil)
	gate := celestial.NewCleanupGate(redisClient, cfg.Game.AsteroidCleanupEvery, clk)

	services := server.Services{
		Players:   player.NewService(playerRepo, factions, cat.StartingResources, base),
		Celestial: celestial.NewService(celestialRepo, mineRepo, generator, gate, db, clk, cfg.Game, base),
		Mines:     mine.NewService(mineRepo, celestialRepo, ledgerRepo, factions, db, clk, base),
		Fleet:     fleet.NewService(fleetRepo, ledgerRepo, factions, db, base),
		Missions:  mission.NewService(missionRepo, fleetRepo, celestialRepo, ledgerRepo, factions, db, clk, nil, cfg.Game, base),
		Tokens:    tokens,
	}

	if _, err := services.Fleet.SeedTemplates(ctx, cat.Templates()); err != nil {
		log.Error("Failed to seed ship templates", "error", err)
		os.Exit(1)
	}
	if _, err := services.Celestial.SeedPermanent(ctx, cat.PermanentBodies()); err != nil {
		log.Error("Failed to seed celestial bodies", "error", err)
		os.Exit(1)
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
	})
	defer rateLimiter.Stop()

	mux := server.NewRoutes(db, redisClient, services, cfg, base).Setup()
	handler := middleware.RequestID(middleware.NewCORS(cfg.Frontend).Middleware(rateLimiter.Middleware(mux)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Space mining server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
