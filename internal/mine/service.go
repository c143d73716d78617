package mine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/faction"
	"space-mining-server/internal/ledger"
	"space-mining-server/internal/player"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type Store interface {
	ListByOwner(ctx context.Context, ownerID int, tx *database.Tx) ([]Mine, error)
	ListByOwnerForUpdate(ctx context.Context, ownerID int, tx *database.Tx) ([]Mine, error)
	GetForUpdate(ctx context.Context, bodyID, ownerID int, tx *database.Tx) (*Mine, error)
	Occupancy(ctx context.Context, bodyID, ownerID int, tx *database.Tx) (int, int, error)
	Create(ctx context.Context, bodyID, ownerID int, now time.Time, tx *database.Tx) (*Mine, error)
	SetLevel(ctx context.Context, mineID, level int, tx *database.Tx) error
	MarkCollected(ctx context.Context, mineID int, at time.Time, tx *database.Tx) error
}

// Bodies is the celestial body lookup mines are built against
type Bodies interface {
	GetByID(ctx context.Context, id int, tx *database.Tx) (*celestial.Body, error)
	GetByIDForUpdate(ctx context.Context, id int, tx *database.Tx) (*celestial.Body, error)
}

type Ledger interface {
	GetBalance(ctx context.Context, playerID int, tx *database.Tx) (resources.Resources, error)
	ApplyDelta(ctx context.Context, playerID int, delta resources.Resources, tx *database.Tx) (resources.Resources, error)
}

type Service struct {
	store    Store
	bodies   Bodies
	ledger   Ledger
	factions faction.Table
	txr      database.TxRunner
	clock    clock.Clock
	logger   *slog.Logger
}

func NewService(store Store, bodies Bodies, ledger Ledger, factions faction.Table, txr database.TxRunner, clk clock.Clock, logger *slog.Logger) *Service {
	logger.Debug("Initializing mine service")

	return &Service{
		store:    store,
		bodies:   bodies,
		ledger:   ledger,
		factions: factions,
		txr:      txr,
		clock:    clk,
		logger:   logger,
	}
}

func (s *Service) view(m Mine, mods faction.Modifiers, now time.Time) MineView {
	acc := Accumulate(m.Level, m.LastCollected, m.ResourceModifiers, mods.MiningBonus, now)
	v := MineView{
		Mine:                 m,
		ProductionPerHour:    ProductionPerHour(m.Level, m.ResourceModifiers, mods.MiningBonus),
		AccumulatedResources: acc.Resources,
		HoursAccumulated:     roundHours(acc.Hours),
		CanUpgrade:           m.Level < MaxLevel,
	}
	if v.CanUpgrade {
		cost := BuildCost(m.Level+1, mods.CostReduction())
		v.UpgradeCost = &cost
	}
	return v
}

func (s *Service) List(ctx context.Context, actor player.Actor) (*ListResult, error) {
	mines, err := s.store.ListByOwner(ctx, actor.PlayerID, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to list mines", err)
	}

	mods := s.factions.Lookup(actor.Faction)
	now := s.clock.Now()

	result := &ListResult{
		Mines: make([]MineView, 0, len(mines)),
		Stats: Stats{MaxAccumulationHours: MaxAccumulationHours},
	}
	for _, m := range mines {
		v := s.view(m, mods, now)
		result.Mines = append(result.Mines, v)
		result.Stats.TotalProductionPerHour = result.Stats.TotalProductionPerHour.Add(v.ProductionPerHour)
		result.Stats.TotalAccumulated = result.Stats.TotalAccumulated.Add(v.AccumulatedResources)
	}
	result.Stats.TotalMines = len(result.Mines)
	return result, nil
}

// buildChecks lists every reason a mine cannot be built, in the order Build reports them
func buildChecks(body *celestial.Body, count, ownLevel int, balance, cost resources.Resources) []error {
	var errs []error
	if body.IsTemporary() {
		errs = append(errs, errors.Conflict("temporary_body", "mines cannot be built on asteroids"))
	}
	if ownLevel > 0 {
		errs = append(errs, errors.Conflict("mine_exists", "you already have a mine on this body").
			WithDetail("existing_level", ownLevel))
	}
	if !body.IsTemporary() && count >= body.MaxMines() {
		errs = append(errs, errors.Conflict("mine_slots_full", "no free mine slots on this body").
			WithDetail("current_mines", count).
			WithDetail("max_mines", body.MaxMines()))
	}
	return append(errs, ledger.CheckFunds(balance, cost)...)
}

func (s *Service) getBody(ctx context.Context, bodyID int, tx *database.Tx, lock bool) (*celestial.Body, error) {
	if bodyID <= 0 {
		return nil, errors.Validationf("invalid celestial body id %d", bodyID)
	}

	var (
		body *celestial.Body
		err  error
	)
	if lock {
		body, err = s.bodies.GetByIDForUpdate(ctx, bodyID, tx)
	} else {
		body, err = s.bodies.GetByID(ctx, bodyID, tx)
	}
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.NotFoundf("celestial body %d not found", bodyID)
	}
	return body, nil
}

// Preview reports the cost and output of a level 1 mine and every blocking issue
func (s *Service) Preview(ctx context.Context, actor player.Actor, bodyID int) (*Preview, error) {
	body, err := s.getBody(ctx, bodyID, nil, false)
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to load celestial body", err)
	}

	count, ownLevel, err := s.store.Occupancy(ctx, bodyID, actor.PlayerID, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to load mine occupancy", err)
	}
	balance, err := s.ledger.GetBalance(ctx, actor.PlayerID, nil)
	if err != nil {
		return nil, err
	}

	mods := s.factions.Lookup(actor.Faction)
	cost := BuildCost(1, mods.CostReduction())
	perHour := ProductionPerHour(1, body.ResourceModifiers, mods.MiningBonus)

	issues, err := errors.ToIssues(buildChecks(body, count, ownLevel, balance, cost))
	if err != nil {
		return nil, errors.WrapInternal("failed to check mine preconditions", err)
	}

	return &Preview{
		Body: PreviewBody{
			ID:                body.ID,
			Name:              body.Name,
			Type:              body.Type,
			ResourceModifiers: body.ResourceModifiers,
			CurrentMines:      count,
			MaxMines:          body.MaxMines(),
		},
		Level:             1,
		BuildCost:         cost,
		ProductionPerHour: perHour,
		ProductionPerDay: resources.Resources{
			Iron:       perHour.Iron * 24,
			RareMetals: perHour.RareMetals * 24,
			Crystals:   perHour.Crystals * 24,
			Fuel:       perHour.Fuel * 24,
		},
		PlayerResources: balance,
		CanBuild:        len(issues) == 0,
		Issues:          issues,
	}, nil
}

// Build places a level 1 mine. The body row stays locked so slot counting holds under concurrent builds.
func (s *Service) Build(ctx context.Context, actor player.Actor, bodyID int) (*BuildResult, error) {
	logger := s.logger.With("component", "mine_service", "operation", "build", "player_id", actor.PlayerID, "body_id", bodyID)

	mods := s.factions.Lookup(actor.Faction)
	cost := BuildCost(1, mods.CostReduction())
	var result BuildResult

	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		body, err := s.getBody(ctx, bodyID, tx, true)
		if err != nil {
			return err
		}
		count, ownLevel, err := s.store.Occupancy(ctx, bodyID, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		balance, err := s.ledger.GetBalance(ctx, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		if errs := buildChecks(body, count, ownLevel, balance, cost); len(errs) > 0 {
			return errs[0]
		}

		now := s.clock.Now()
		m, err := s.store.Create(ctx, bodyID, actor.PlayerID, now, tx)
		if err != nil {
			return err
		}
		remaining, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, cost.Negate(), tx)
		if err != nil {
			return err
		}

		result = BuildResult{Mine: s.view(*m, mods, now), Cost: cost, Resources: remaining}
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to build mine", err)
	}

	logger.Info("Mine built", "mine_id", result.Mine.ID, "body_name", result.Mine.BodyName)
	return &result, nil
}

// Upgrade raises the owner's mine on a body by one level. Banked production is kept.
func (s *Service) Upgrade(ctx context.Context, actor player.Actor, bodyID int) (*UpgradeResult, error) {
	logger := s.logger.With("component", "mine_service", "operation", "upgrade", "player_id", actor.PlayerID, "body_id", bodyID)

	if bodyID <= 0 {
		return nil, errors.Validationf("invalid celestial body id %d", bodyID)
	}

	mods := s.factions.Lookup(actor.Faction)
	var result UpgradeResult

	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		m, err := s.store.GetForUpdate(ctx, bodyID, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		if m == nil {
			return errors.NotFoundf("you have no mine on celestial body %d", bodyID)
		}
		if m.Level >= MaxLevel {
			return errors.Conflict("max_level", fmt.Sprintf("mine is already at the maximum level %d", MaxLevel))
		}

		cost := BuildCost(m.Level+1, mods.CostReduction())
		balance, err := s.ledger.GetBalance(ctx, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		if short := ledger.CheckFunds(balance, cost); len(short) > 0 {
			return short[0]
		}

		if err := s.store.SetLevel(ctx, m.ID, m.Level+1, tx); err != nil {
			return err
		}
		remaining, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, cost.Negate(), tx)
		if err != nil {
			return err
		}

		result.PreviousLevel = m.Level
		m.Level++
		result.Mine = s.view(*m, mods, s.clock.Now())
		result.Cost = cost
		result.Resources = remaining
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to upgrade mine", err)
	}

	logger.Info("Mine upgraded", "mine_id", result.Mine.ID, "level", result.Mine.Level)
	return &result, nil
}

// collect banks one locked mine and resets its clock. It returns a zero Collection when nothing accrued.
func (s *Service) collect(ctx context.Context, m Mine, mods faction.Modifiers, now time.Time, tx *database.Tx) (Collection, error) {
	acc := Accumulate(m.Level, m.LastCollected, m.ResourceModifiers, mods.MiningBonus, now)
	if acc.Resources.IsZero() {
		return Collection{}, nil
	}
	if err := s.store.MarkCollected(ctx, m.ID, now, tx); err != nil {
		return Collection{}, err
	}
	return Collection{
		BodyID:           m.BodyID,
		BodyName:         m.BodyName,
		Collected:        acc.Resources,
		HoursAccumulated: roundHours(acc.Hours),
	}, nil
}

func (s *Service) Collect(ctx context.Context, actor player.Actor, bodyID int) (*CollectResult, error) {
	logger := s.logger.With("component", "mine_service", "operation", "collect", "player_id", actor.PlayerID, "body_id", bodyID)

	if bodyID <= 0 {
		return nil, errors.Validationf("invalid celestial body id %d", bodyID)
	}

	mods := s.factions.Lookup(actor.Faction)
	var result CollectResult

	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		m, err := s.store.GetForUpdate(ctx, bodyID, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		if m == nil {
			return errors.NotFoundf("you have no mine on celestial body %d", bodyID)
		}

		c, err := s.collect(ctx, *m, mods, s.clock.Now(), tx)
		if err != nil {
			return err
		}
		if c.Collected.IsZero() {
			return errors.Conflict("nothing_to_collect", "nothing has accumulated since the last collection").
				WithDetail("last_collected", m.LastCollected)
		}

		balance, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, c.Collected, tx)
		if err != nil {
			return err
		}
		result = CollectResult{Collection: c, Resources: balance}
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to collect mine", err)
	}

	logger.Info("Mine collected", "collected_total", result.Collected.Total())
	return &result, nil
}

// CollectAll banks every mine of the player in one unit and credits the sum once
func (s *Service) CollectAll(ctx context.Context, actor player.Actor) (*CollectAllResult, error) {
	logger := s.logger.With("component", "mine_service", "operation", "collect_all", "player_id", actor.PlayerID)

	mods := s.factions.Lookup(actor.Faction)
	result := CollectAllResult{Details: []Collection{}}

	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		mines, err := s.store.ListByOwnerForUpdate(ctx, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		if len(mines) == 0 {
			return errors.Conflict("no_mines", "you do not own any mines")
		}

		now := s.clock.Now()
		for _, m := range mines {
			c, err := s.collect(ctx, m, mods, now, tx)
			if err != nil {
				return err
			}
			if c.Collected.IsZero() {
				continue
			}
			result.TotalCollected = result.TotalCollected.Add(c.Collected)
			result.Details = append(result.Details, c)
		}
		if result.TotalCollected.IsZero() {
			return errors.Conflict("nothing_to_collect", "all mines are empty")
		}

		balance, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, result.TotalCollected, tx)
		if err != nil {
			return err
		}
		result.MinesCollected = len(result.Details)
		result.Resources = balance
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to collect mines", err)
	}

	logger.Info("Mines collected", "mines", result.MinesCollected, "collected_total", result.TotalCollected.Total())
	return &result, nil
}
