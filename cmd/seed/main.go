// Command seed loads the balance catalog into the database, tops up the
// asteroid field and optionally registers a player.
//
//	seed [-asteroids] [-count N] [-days D] [-player NAME -faction F [-admin]]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"space-mining-server/internal/auth"
	"space-mining-server/internal/catalog"
	"space-mining-server/internal/celestial"
	"space-mining-server/internal/fleet"
	"space-mining-server/internal/ledger"
	"space-mining-server/internal/mine"
	"space-mining-server/internal/player"
	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/logger"
	"space-mining-server/migrations"
)

func main() {
	onlyAsteroids := flag.Bool("asteroids", false, "only top up asteroids")
	count := flag.Int("count", 3, "number of active asteroids to keep")
	days := flag.Int("days", 0, "lifetime of new asteroids in days (defaults to ASTEROID_LIFETIME_DAYS)")
	playerName := flag.String("player", "", "register a player with this username")
	factionName := flag.String("faction", "EU", "faction of the registered player")
	admin := flag.Bool("admin", false, "give the registered player the admin role")
	flag.Parse()

	if err := run(*onlyAsteroids, *count, *days, *playerName, *factionName, *admin); err != nil {
		slog.Error("Seed failed", "error", err)
		os.Exit(1)
	}
}

func run(onlyAsteroids bool, count, days int, playerName, factionName string, admin bool) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	logger.Init()

	cfg := config.GlobalConfig
	log := slog.With("component", "seed")
	ctx := context.Background()

	if days <= 0 {
		days = cfg.Game.AsteroidLifetimeDays
	}

	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Game.BalancePath)
	if err != nil {
		return err
	}
	factions := cat.FactionTable()
	clk := clock.RealClock{}
	base := slog.Default()

	celestialRepo := celestial.NewRepository(db, base)
	generator := celestial.NewGenerator(cat.Asteroids.Archetypes, cat.Asteroids.Names, clk, nil)
	// the seed always sweeps, so no gate
	celestialService := celestial.NewService(celestialRepo, mine.NewRepository(db, base), generator, nil, db, clk, cfg.Game, base)

	if !onlyAsteroids {
		fleetService := fleet.NewService(fleet.NewRepository(db, base), ledger.NewRepository(db, base), factions, db, base)
		templates, err := fleetService.SeedTemplates(ctx, cat.Templates())
		if err != nil {
			return err
		}
		bodies, err := celestialService.SeedPermanent(ctx, cat.PermanentBodies())
		if err != nil {
			return err
		}
		log.Info("Catalog seeded", "ship_templates", templates, "new_bodies", bodies)
	}

	asteroids, err := celestialService.ListAsteroids(ctx)
	if err != nil {
		return err
	}
	if missing := count - asteroids.Count; missing > 0 {
		spawned, err := celestialService.SpawnAsteroids(ctx, missing, days)
		if err != nil {
			return err
		}
		for _, a := range spawned {
			log.Info("Asteroid spawned", "name", a.Name, "distance", a.Distance, "expires_at", a.Temporary.ExpiresAt)
		}
	} else {
		log.Info("Enough active asteroids", "active", asteroids.Count, "wanted", count)
	}

	if playerName == "" {
		return nil
	}

	role := player.PlayerRoleUser
	if admin {
		role = player.PlayerRoleAdmin
	}
	players := player.NewService(player.NewRepository(db, base), factions, cat.StartingResources, base)
	p, err := players.Register(ctx, playerName, factionName, role)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration, clk)
	if err != nil {
		return err
	}
	token, err := tokens.Generate(p.ID, p.Username, string(p.Faction), p.Role.String())
	if err != nil {
		return err
	}

	log.Info("Player registered", "player_id", p.ID, "faction", p.Faction, "role", p.Role)
	fmt.Println(token)
	return nil
}
