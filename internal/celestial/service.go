package celestial

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

const maxAsteroidLifetimeDays = 30

type Store interface {
	Create(ctx context.Context, body *Body, tx *database.Tx) (*Body, error)
	GetByID(ctx context.Context, id int, tx *database.Tx) (*Body, error)
	ListActive(ctx context.Context, now time.Time) ([]Body, error)
	ListPermanent(ctx context.Context) ([]Body, error)
	ListActiveAsteroids(ctx context.Context, now time.Time) ([]Body, error)
	NameExists(ctx context.Context, name string, tx *database.Tx) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MineSummary is the mine occupancy of one body as seen by one player.
type MineSummary struct {
	Count int
	Own   *PlayerMine
}

// MineIndex reports mine occupancy per body id.
type MineIndex interface {
	MineSummaries(ctx context.Context, playerID int) (map[int]MineSummary, error)
}

type Service struct {
	store     Store
	mines     MineIndex
	generator *Generator
	gate      CleanupGate
	txr       database.TxRunner
	clock     clock.Clock
	cfg       config.GameConfig
	logger    *slog.Logger
}

func NewService(store Store, mines MineIndex, generator *Generator, gate CleanupGate, txr database.TxRunner, clk clock.Clock, cfg config.GameConfig, logger *slog.Logger) *Service {
	logger.Debug("Initializing celestial service")

	return &Service{
		store:     store,
		mines:     mines,
		generator: generator,
		gate:      gate,
		txr:       txr,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
	}
}

// ListBodies returns every targetable body with the caller's mine state
func (s *Service) ListBodies(ctx context.Context, playerID int) (*ListResult, error) {
	logger := s.logger.With("component", "celestial_service", "operation", "list_bodies", "player_id", playerID)

	s.maybeCleanup(ctx)
	now := s.clock.Now()

	bodies, err := s.store.ListActive(ctx, now)
	if err != nil {
		return nil, errors.WrapInternal("failed to list celestial bodies", err)
	}

	summaries, err := s.mines.MineSummaries(ctx, playerID)
	if err != nil {
		return nil, errors.WrapInternal("failed to load mine occupancy", err)
	}

	result := &ListResult{Bodies: make([]BodyView, 0, len(bodies))}
	for _, body := range bodies {
		if body.IsExpired(now) {
			continue
		}

		view := BodyView{
			Body:                body,
			EstimatedTravelTime: int(math.Round(body.Distance * 10)),
		}
		if summary, ok := summaries[body.ID]; ok {
			view.CurrentMines = summary.Count
			view.PlayerMine = summary.Own
		}
		view.CanBuildMine = !body.IsTemporary() && view.PlayerMine == nil && view.CurrentMines < body.MaxMines()
		if body.Temporary != nil {
			remaining := body.Temporary.ExpiresAt.Sub(now).Milliseconds()
			view.TimeUntilExpire = &remaining
		}

		switch {
		case body.IsTemporary():
			result.Stats.Asteroids++
		case body.Type == BodyTypePlanet:
			result.Stats.Planets++
		case body.Type == BodyTypeMoon:
			result.Stats.Moons++
		}
		if view.PlayerMine != nil {
			result.Stats.PlayerMines++
		}
		result.Bodies = append(result.Bodies, view)
	}
	result.Stats.Total = len(result.Bodies)

	logger.Debug("Celestial bodies listed", "count", result.Stats.Total)
	return result, nil
}

func (s *Service) ListPermanent(ctx context.Context) ([]Body, error) {
	bodies, err := s.store.ListPermanent(ctx)
	if err != nil {
		return nil, errors.WrapInternal("failed to list planets", err)
	}
	if bodies == nil {
		bodies = []Body{}
	}
	return bodies, nil
}

func (s *Service) ListAsteroids(ctx context.Context) (*AsteroidList, error) {
	cleaned := s.maybeCleanup(ctx)
	now := s.clock.Now()

	asteroids, err := s.store.ListActiveAsteroids(ctx, now)
	if err != nil {
		return nil, errors.WrapInternal("failed to list asteroids", err)
	}

	active := make([]Body, 0, len(asteroids))
	for _, a := range asteroids {
		if !a.IsExpired(now) {
			active = append(active, a)
		}
	}

	return &AsteroidList{Asteroids: active, Count: len(active), CleanedExpired: cleaned}, nil
}

func (s *Service) GetBody(ctx context.Context, id int) (*Body, error) {
	if id <= 0 {
		return nil, errors.Validationf("invalid celestial body id %d", id)
	}

	body, err := s.store.GetByID(ctx, id, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to get celestial body", err)
	}
	if body == nil {
		return nil, errors.NotFoundf("celestial body %d not found", id)
	}
	if body.IsExpired(s.clock.Now()) {
		return nil, errors.Gone("asteroid_expired", "this asteroid has expired").
			WithDetail("expired_at", body.Temporary.ExpiresAt)
	}
	return body, nil
}

// SpawnAsteroids generates and stores count new asteroids in one unit
func (s *Service) SpawnAsteroids(ctx context.Context, count, days int) ([]Body, error) {
	logger := s.logger.With("component", "celestial_service", "operation", "spawn_asteroids", "count", count, "days", days)

	if count < 1 || count > s.cfg.MaxSpawnPerRequest {
		return nil, errors.Validationf("count must be between 1 and %d", s.cfg.MaxSpawnPerRequest)
	}
	if days < 1 || days > maxAsteroidLifetimeDays {
		return nil, errors.Validationf("days must be between 1 and %d", maxAsteroidLifetimeDays)
	}

	spawned := make([]Body, 0, count)
	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		names := txNames{store: s.store, tx: tx}
		for i := 0; i < count; i++ {
			body, err := s.generator.Generate(ctx, days, names)
			if err != nil {
				return err
			}
			created, err := s.store.Create(ctx, body, tx)
			if err != nil {
				return err
			}
			spawned = append(spawned, *created)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapInternal("failed to spawn asteroids", err)
	}

	logger.Info("Asteroids spawned", "spawned", len(spawned))
	return spawned, nil
}

// SeedPermanent stores the permanent bodies whose names are not yet taken
func (s *Service) SeedPermanent(ctx context.Context, bodies []*Body) (int, error) {
	logger := s.logger.With("component", "celestial_service", "operation", "seed_permanent")

	created := 0
	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		for _, body := range bodies {
			if body.IsTemporary() {
				return fmt.Errorf("seed body %q is not permanent", body.Name)
			}
			exists, err := s.store.NameExists(ctx, body.Name, tx)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if _, err := s.store.Create(ctx, body, tx); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, errors.WrapInternal("failed to seed celestial bodies", err)
	}

	logger.Info("Permanent bodies seeded", "created", created, "total", len(bodies))
	return created, nil
}

// CleanupExpired purges expired asteroids regardless of the gate
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, errors.WrapInternal("failed to clean up asteroids", err)
	}
	return deleted, nil
}

// maybeCleanup never fails the caller; read paths filter expired bodies themselves
func (s *Service) maybeCleanup(ctx context.Context) int64 {
	if s.gate != nil && !s.gate.Allow(ctx) {
		return 0
	}
	deleted, err := s.CleanupExpired(ctx)
	if err != nil {
		s.logger.With("component", "celestial_service", "operation", "cleanup").
			Warn("Lazy asteroid cleanup failed", "error", err)
		return 0
	}
	return deleted
}

type txNames struct {
	store Store
	tx    *database.Tx
}

func (n txNames) NameExists(ctx context.Context, name string) (bool, error) {
	return n.store.NameExists(ctx, name, n.tx)
}
