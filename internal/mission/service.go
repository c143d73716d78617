package mission

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/faction"
	"space-mining-server/internal/fleet"
	"space-mining-server/internal/player"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type Store interface {
	Create(ctx context.Context, m *Mission, tx *database.Tx) (*Mission, error)
	Get(ctx context.Context, ownerID, id int, tx *database.Tx) (*Mission, error)
	GetForUpdate(ctx context.Context, ownerID, id int, tx *database.Tx) (*Mission, error)
	List(ctx context.Context, ownerID int, filter ListFilter) ([]Mission, error)
	ListReadyForUpdate(ctx context.Context, ownerID int, now time.Time, tx *database.Tx) ([]Mission, error)
	UpdateStatus(ctx context.Context, id int, status Status, tx *database.Tx) error
	SaveYield(ctx context.Context, id int, mined resources.Resources, bonusCollected bool, tx *database.Tx) error
	MarkCollected(ctx context.Context, id int, tx *database.Tx) error
}

type Ships interface {
	GetShip(ctx context.Context, ownerID, shipID int, tx *database.Tx) (*fleet.Ship, error)
	GetShipForUpdate(ctx context.Context, ownerID, shipID int, tx *database.Tx) (*fleet.Ship, error)
	AssignMission(ctx context.Context, shipID, missionID int, tx *database.Tx) (bool, error)
	ReleaseShips(ctx context.Context, shipIDs []int, tx *database.Tx) error
}

type Bodies interface {
	GetByID(ctx context.Context, id int, tx *database.Tx) (*celestial.Body, error)
	ClaimBonus(ctx context.Context, id int, tx *database.Tx) (*resources.Resources, error)
}

type Ledger interface {
	GetBalance(ctx context.Context, playerID int, tx *database.Tx) (resources.Resources, error)
	ApplyDelta(ctx context.Context, playerID int, delta resources.Resources, tx *database.Tx) (resources.Resources, error)
}

// globalRand draws from the goroutine-safe top level generator
type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

type Service struct {
	store    Store
	ships    Ships
	bodies   Bodies
	ledger   Ledger
	factions faction.Table
	txr      database.TxRunner
	clock    clock.Clock
	rng      Rand
	cfg      config.GameConfig
	logger   *slog.Logger
}

// NewService wires the mission engine. A nil rng uses the shared math/rand/v2 source.
func NewService(store Store, ships Ships, bodies Bodies, ledger Ledger, factions faction.Table, txr database.TxRunner, clk clock.Clock, rng Rand, cfg config.GameConfig, logger *slog.Logger) *Service {
	logger.Debug("Initializing mission service")

	if rng == nil {
		rng = globalRand{}
	}
	return &Service{
		store:    store,
		ships:    ships,
		bodies:   bodies,
		ledger:   ledger,
		factions: factions,
		txr:      txr,
		clock:    clk,
		rng:      rng,
		cfg:      cfg,
		logger:   logger,
	}
}

func view(m Mission, now time.Time) MissionView {
	m.Status = DeriveStatus(m.Status, m.Times, now)
	return MissionView{
		Mission:          m,
		TotalTimeMinutes: m.TravelTimeMinutes*2 + m.MiningTimeMinutes,
		Progress:         Progress(m.Times, now),
		IsReadyToCollect: IsReadyToCollect(m.Status, m.Times, now),
	}
}

// sendChecks lists every reason the ship cannot fly this plan, in the order Send reports them
func sendChecks(ship *fleet.Ship, target *celestial.Body, plan Plan, fuel int64, now time.Time) []error {
	var errs []error
	if !ship.IsIdle() {
		errs = append(errs, errors.Conflict("ship_busy", "ship is already on a mission").
			WithDetail("status", ship.Status))
	}
	switch {
	case !target.IsTemporary():
		errs = append(errs, errors.Conflict("target_not_asteroid", "mining missions can only target asteroids").
			WithDetail("target_type", target.Type))
	case target.IsExpired(now):
		errs = append(errs, errors.Gone("asteroid_expired", "this asteroid has expired").
			WithDetail("expired_at", target.Temporary.ExpiresAt))
	case target.ExpiresBefore(plan.ReturnTime):
		errs = append(errs, errors.Conflict("asteroid_expires_too_soon", "asteroid will expire before the mission returns").
			WithDetail("expires_at", target.Temporary.ExpiresAt).
			WithDetail("return_time", plan.ReturnTime))
	}
	if fuel < plan.FuelNeeded {
		errs = append(errs, errors.Insufficient(string(resources.Fuel), plan.FuelNeeded, fuel))
	}
	return errs
}

func (s *Service) loadTarget(ctx context.Context, targetID int, tx *database.Tx) (*celestial.Body, error) {
	target, err := s.bodies.GetByID(ctx, targetID, tx)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.NotFoundf("mission target %d not found", targetID)
	}
	return target, nil
}

func validateIDs(shipID, targetID int) error {
	if shipID <= 0 {
		return errors.Validationf("invalid ship id %d", shipID)
	}
	if targetID <= 0 {
		return errors.Validationf("invalid target id %d", targetID)
	}
	return nil
}

// Preview computes the mission a ship would fly and every reason it could not launch now
func (s *Service) Preview(ctx context.Context, actor player.Actor, shipID, targetID int) (*Preview, error) {
	if err := validateIDs(shipID, targetID); err != nil {
		return nil, err
	}

	ship, err := s.ships.GetShip(ctx, actor.PlayerID, shipID, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to load ship", err)
	}
	if ship == nil {
		return nil, errors.NotFoundf("ship %d not found", shipID)
	}
	target, err := s.loadTarget(ctx, targetID, nil)
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to load mission target", err)
	}
	balance, err := s.ledger.GetBalance(ctx, actor.PlayerID, nil)
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to load player resources", err)
	}

	now := s.clock.Now()
	speed := fleet.AdjustedSpeed(ship.Template.Speed, s.factions.Lookup(actor.Faction).Speed())
	plan := NewPlan(snapshotShip(ship, speed), snapshotTarget(target), now)

	issues, err := errors.ToIssues(sendChecks(ship, target, plan, balance.Fuel, now))
	if err != nil {
		return nil, errors.WrapInternal("failed to check mission preconditions", err)
	}

	preview := &Preview{
		Ship: PreviewShip{
			ID:              ship.ID,
			Name:            ship.Name,
			Status:          ship.Status,
			TemplateName:    ship.Template.Name,
			CargoCapacity:   ship.Template.CargoCapacity,
			Speed:           speed,
			FuelConsumption: ship.Template.FuelConsumption,
		},
		Target: PreviewTarget{
			ID:                target.ID,
			Name:              target.Name,
			Type:              target.Type,
			Distance:          target.Distance,
			MiningDifficulty:  target.MiningDifficulty,
			ResourceModifiers: target.ResourceModifiers,
		},
		Mission:    plan,
		PlayerFuel: balance.Fuel,
		CanSend:    len(issues) == 0,
		Issues:     issues,
	}
	if target.Temporary != nil {
		expiresAt := target.Temporary.ExpiresAt
		preview.Target.ExpiresAt = &expiresAt
	}
	return preview, nil
}

// Send launches an idle ship. Fuel debit, mission record and ship status change commit together.
func (s *Service) Send(ctx context.Context, actor player.Actor, shipID, targetID int) (*SendResult, error) {
	logger := s.logger.With("component", "mission_service", "operation", "send",
		"player_id", actor.PlayerID, "ship_id", shipID, "target_id", targetID)

	if err := validateIDs(shipID, targetID); err != nil {
		return nil, err
	}

	var result SendResult
	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		ship, err := s.ships.GetShipForUpdate(ctx, actor.PlayerID, shipID, tx)
		if err != nil {
			return err
		}
		if ship == nil {
			return errors.NotFoundf("ship %d not found", shipID)
		}
		target, err := s.loadTarget(ctx, targetID, tx)
		if err != nil {
			return err
		}
		balance, err := s.ledger.GetBalance(ctx, actor.PlayerID, tx)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		speed := fleet.AdjustedSpeed(ship.Template.Speed, s.factions.Lookup(actor.Faction).Speed())
		shipSnap, targetSnap := snapshotShip(ship, speed), snapshotTarget(target)
		plan := NewPlan(shipSnap, targetSnap, now)

		if errs := sendChecks(ship, target, plan, balance.Fuel, now); len(errs) > 0 {
			return errs[0]
		}

		m, err := s.store.Create(ctx, &Mission{
			OwnerID:           actor.PlayerID,
			ShipID:            &ship.ID,
			TargetID:          &target.ID,
			Type:              TypeMining,
			Status:            StatusInProgress,
			Times:             plan.Timeline,
			TravelTimeMinutes: plan.TravelTimeMinutes,
			MiningTimeMinutes: plan.MiningTimeMinutes,
			FuelUsed:          plan.FuelNeeded,
			Distance:          target.Distance,
			Ship:              shipSnap,
			Target:            targetSnap,
		}, tx)
		if err != nil {
			return err
		}

		assigned, err := s.ships.AssignMission(ctx, ship.ID, m.ID, tx)
		if err != nil {
			return err
		}
		if !assigned {
			return errors.Conflict("ship_busy", "ship is already on a mission")
		}

		remaining, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, resources.Resources{Fuel: -plan.FuelNeeded}, tx)
		if err != nil {
			return err
		}

		result = SendResult{Mission: view(*m, now), Resources: remaining}
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to send mission", err)
	}

	logger.Info("Mission launched",
		"mission_id", result.Mission.ID,
		"fuel_used", result.Mission.FuelUsed,
		"return_time", result.Mission.Times.ReturnTime,
	)
	return &result, nil
}

// persistStatus stores a newly derived phase. Reads never fail because of it.
func (s *Service) persistStatus(ctx context.Context, m Mission, derived Status) {
	if derived == m.Status {
		return
	}
	if err := s.store.UpdateStatus(ctx, m.ID, derived, nil); err != nil {
		s.logger.With("component", "mission_service", "operation", "persist_status", "mission_id", m.ID).
			Warn("Failed to persist mission status", "status", derived, "error", err)
	}
}

func (s *Service) List(ctx context.Context, actor player.Actor, filter ListFilter) (*ListResult, error) {
	if filter.Limit <= 0 || filter.Limit > s.cfg.MissionListLimit {
		filter.Limit = s.cfg.MissionListLimit
	}

	missions, err := s.store.List(ctx, actor.PlayerID, filter)
	if err != nil {
		return nil, errors.WrapInternal("failed to list missions", err)
	}

	now := s.clock.Now()
	result := &ListResult{Missions: make([]MissionView, 0, len(missions))}
	for _, m := range missions {
		v := view(m, now)
		s.persistStatus(ctx, m, v.Status)
		result.Missions = append(result.Missions, v)

		switch v.Status {
		case StatusInProgress:
			result.Stats.InProgress++
		case StatusMining:
			result.Stats.Mining++
		case StatusReturning:
			result.Stats.Returning++
		}
		if v.IsReadyToCollect {
			result.Stats.ReadyToCollect++
		}
	}
	result.Stats.Total = len(result.Missions)
	return result, nil
}

func (s *Service) Get(ctx context.Context, actor player.Actor, id int) (*MissionView, error) {
	if id <= 0 {
		return nil, errors.Validationf("invalid mission id %d", id)
	}

	m, err := s.store.Get(ctx, actor.PlayerID, id, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to get mission", err)
	}
	if m == nil {
		return nil, errors.NotFoundf("mission %d not found", id)
	}

	v := view(*m, s.clock.Now())
	s.persistStatus(ctx, *m, v.Status)
	return &v, nil
}

// ensureYield returns the cached yield, computing and storing it on first use.
// The asteroid bonus is claimed on the body row, so at most one mission ever receives it.
func (s *Service) ensureYield(ctx context.Context, m *Mission, mods faction.Modifiers, tx *database.Tx) (resources.Resources, error) {
	if m.MinedResources != nil {
		return *m.MinedResources, nil
	}

	var bonus *resources.Resources
	if m.TargetID != nil {
		claimed, err := s.bodies.ClaimBonus(ctx, *m.TargetID, tx)
		if err != nil {
			return resources.Resources{}, err
		}
		bonus = claimed
	}

	mined := ComputeYield(m.Ship.CargoCapacity, m.Target.ResourceModifiers, mods.MiningBonus, bonus, s.rng)
	if err := s.store.SaveYield(ctx, m.ID, mined, bonus != nil, tx); err != nil {
		return resources.Resources{}, err
	}

	m.MinedResources = &mined
	m.BonusCollected = bonus != nil
	return mined, nil
}

// Collect credits a returned mission and frees its ship
func (s *Service) Collect(ctx context.Context, actor player.Actor, id int) (*CollectResult, error) {
	logger := s.logger.With("component", "mission_service", "operation", "collect", "player_id", actor.PlayerID, "mission_id", id)

	if id <= 0 {
		return nil, errors.Validationf("invalid mission id %d", id)
	}

	mods := s.factions.Lookup(actor.Faction)
	var result CollectResult

	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		m, err := s.store.GetForUpdate(ctx, actor.PlayerID, id, tx)
		if err != nil {
			return err
		}
		if m == nil {
			return errors.NotFoundf("mission %d not found", id)
		}
		if m.Status == StatusCollected {
			return errors.Conflict("already_collected", "resources from this mission were already collected")
		}

		now := s.clock.Now()
		status := DeriveStatus(m.Status, m.Times, now)
		if !IsReadyToCollect(status, m.Times, now) {
			return errors.Conflict("mission_not_ready", "mission has not returned yet").
				WithDetail("status", status).
				WithDetail("return_time", m.Times.ReturnTime)
		}

		mined, err := s.ensureYield(ctx, m, mods, tx)
		if err != nil {
			return err
		}
		balance, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, mined, tx)
		if err != nil {
			return err
		}
		if m.ShipID != nil {
			if err := s.ships.ReleaseShips(ctx, []int{*m.ShipID}, tx); err != nil {
				return err
			}
		}
		if err := s.store.MarkCollected(ctx, m.ID, tx); err != nil {
			return err
		}

		result = CollectResult{
			Collected: Collected{
				MissionID:      m.ID,
				ShipName:       m.Ship.Name,
				TargetName:     m.Target.Name,
				MinedResources: mined,
				BonusCollected: m.BonusCollected,
			},
			Resources: balance,
		}
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to collect mission", err)
	}

	logger.Info("Mission collected", "mined_total", result.MinedResources.Total(), "bonus", result.BonusCollected)
	return &result, nil
}

// CollectAll collects every returned mission of the player in one unit
func (s *Service) CollectAll(ctx context.Context, actor player.Actor) (*CollectAllResult, error) {
	logger := s.logger.With("component", "mission_service", "operation", "collect_all", "player_id", actor.PlayerID)

	mods := s.factions.Lookup(actor.Faction)
	result := CollectAllResult{Missions: []Collected{}}

	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		ready, err := s.store.ListReadyForUpdate(ctx, actor.PlayerID, s.clock.Now(), tx)
		if err != nil {
			return err
		}
		if len(ready) == 0 {
			return errors.Conflict("nothing_to_collect", "no missions are ready to collect")
		}

		var shipIDs []int
		for i := range ready {
			m := &ready[i]
			mined, err := s.ensureYield(ctx, m, mods, tx)
			if err != nil {
				return err
			}
			if err := s.store.MarkCollected(ctx, m.ID, tx); err != nil {
				return err
			}
			if m.ShipID != nil {
				shipIDs = append(shipIDs, *m.ShipID)
			}

			result.TotalResources = result.TotalResources.Add(mined)
			result.Missions = append(result.Missions, Collected{
				MissionID:      m.ID,
				ShipName:       m.Ship.Name,
				TargetName:     m.Target.Name,
				MinedResources: mined,
				BonusCollected: m.BonusCollected,
			})
		}

		if err := s.ships.ReleaseShips(ctx, shipIDs, tx); err != nil {
			return err
		}
		balance, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, result.TotalResources, tx)
		if err != nil {
			return err
		}
		result.CollectedCount = len(result.Missions)
		result.Resources = balance
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to collect missions", err)
	}

	logger.Info("Missions collected", "count", result.CollectedCount, "mined_total", result.TotalResources.Total())
	return &result, nil
}
