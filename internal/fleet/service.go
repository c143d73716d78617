package fleet

import (
	"context"
	"log/slog"

	"space-mining-server/internal/faction"
	"space-mining-server/internal/ledger"
	"space-mining-server/internal/player"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type Store interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id int, tx *database.Tx) (*Template, error)
	UpsertTemplate(ctx context.Context, t Template, tx *database.Tx) (*Template, error)
	CountShips(ctx context.Context, ownerID int, tx *database.Tx) (int, error)
	CreateShip(ctx context.Context, ownerID, templateID int, name string, tx *database.Tx) (*Ship, error)
	ListShips(ctx context.Context, ownerID int) ([]Ship, error)
	GetShip(ctx context.Context, ownerID, shipID int, tx *database.Tx) (*Ship, error)
	GetShipForUpdate(ctx context.Context, ownerID, shipID int, tx *database.Tx) (*Ship, error)
	DeleteShip(ctx context.Context, ownerID, shipID int, tx *database.Tx) error
}

// Ledger is the balance store debited and credited by the shipyard
type Ledger interface {
	GetBalance(ctx context.Context, playerID int, tx *database.Tx) (resources.Resources, error)
	ApplyDelta(ctx context.Context, playerID int, delta resources.Resources, tx *database.Tx) (resources.Resources, error)
}

type Service struct {
	store    Store
	ledger   Ledger
	factions faction.Table
	txr      database.TxRunner
	logger   *slog.Logger
}

func NewService(store Store, ledger Ledger, factions faction.Table, txr database.TxRunner, logger *slog.Logger) *Service {
	logger.Debug("Initializing fleet service")

	return &Service{
		store:    store,
		ledger:   ledger,
		factions: factions,
		txr:      txr,
		logger:   logger,
	}
}

func (s *Service) priced(t Template, mods faction.Modifiers) TemplateView {
	reduction := mods.CostReduction()
	return TemplateView{
		Template:             t,
		AdjustedBuildCost:    AdjustedCost(t.BaseBuildCost, reduction),
		CostReduction:        reduction,
		CostReductionPercent: -percentDelta(reduction),
	}
}

func (s *Service) view(ship Ship, mods faction.Modifiers) ShipView {
	v := ShipView{Ship: ship}
	if ship.Template != nil {
		v.AdjustedSpeed = AdjustedSpeed(ship.Template.Speed, mods.Speed())
	}
	return v
}

// ListTemplates returns every template priced for the caller's faction
func (s *Service) ListTemplates(ctx context.Context, actor player.Actor) ([]TemplateView, error) {
	templates, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, errors.WrapInternal("failed to list ship templates", err)
	}

	mods := s.factions.Lookup(actor.Faction)
	views := make([]TemplateView, 0, len(templates))
	for _, t := range templates {
		views = append(views, s.priced(t, mods))
	}
	return views, nil
}

func (s *Service) GetTemplate(ctx context.Context, actor player.Actor, id int) (*TemplateView, error) {
	if id <= 0 {
		return nil, errors.Validationf("invalid ship template id %d", id)
	}

	t, err := s.store.GetTemplate(ctx, id, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to get ship template", err)
	}
	if t == nil {
		return nil, errors.NotFoundf("ship template %d not found", id)
	}

	view := s.priced(*t, s.factions.Lookup(actor.Faction))
	return &view, nil
}

// Build debits the adjusted cost and creates an idle ship in one unit
func (s *Service) Build(ctx context.Context, actor player.Actor, templateID int, name string) (*BuildResult, error) {
	logger := s.logger.With("component", "fleet_service", "operation", "build", "player_id", actor.PlayerID, "template_id", templateID)

	if templateID <= 0 {
		return nil, errors.Validationf("invalid ship template id %d", templateID)
	}
	name, err := NormalizeShipName(name)
	if err != nil {
		return nil, err
	}

	mods := s.factions.Lookup(actor.Faction)
	var result BuildResult

	err = s.txr.WithTx(ctx, func(tx *database.Tx) error {
		t, err := s.store.GetTemplate(ctx, templateID, tx)
		if err != nil {
			return err
		}
		if t == nil {
			return errors.NotFoundf("ship template %d not found", templateID)
		}

		cost := AdjustedCost(t.BaseBuildCost, mods.CostReduction())
		balance, err := s.ledger.GetBalance(ctx, actor.PlayerID, tx)
		if err != nil {
			return err
		}
		if short := ledger.CheckFunds(balance, cost); len(short) > 0 {
			return short[0]
		}

		if name == "" {
			owned, err := s.store.CountShips(ctx, actor.PlayerID, tx)
			if err != nil {
				return err
			}
			name = DefaultShipName(t.Name, owned)
		}

		ship, err := s.store.CreateShip(ctx, actor.PlayerID, t.ID, name, tx)
		if err != nil {
			return err
		}

		remaining, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, cost.Negate(), tx)
		if err != nil {
			return err
		}

		result = BuildResult{Ship: s.view(*ship, mods), Cost: cost, Resources: remaining}
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to build ship", err)
	}

	logger.Info("Ship built", "ship_id", result.Ship.ID, "ship_name", result.Ship.Name)
	return &result, nil
}

func (s *Service) ListFleet(ctx context.Context, actor player.Actor) (*FleetResult, error) {
	ships, err := s.store.ListShips(ctx, actor.PlayerID)
	if err != nil {
		return nil, errors.WrapInternal("failed to list fleet", err)
	}

	mods := s.factions.Lookup(actor.Faction)
	result := &FleetResult{
		Ships:             make([]ShipView, 0, len(ships)),
		SpeedBonusPercent: percentDelta(mods.Speed()),
	}
	for _, ship := range ships {
		result.Ships = append(result.Ships, s.view(ship, mods))
		result.Stats.TotalShips++
		switch ship.Status {
		case ShipStatusIdle:
			result.Stats.IdleShips++
		case ShipStatusOnMission:
			result.Stats.OnMissionShips++
		}
		if ship.Template != nil {
			result.Stats.TotalCargoCapacity += ship.Template.CargoCapacity
		}
	}
	return result, nil
}

func (s *Service) GetShip(ctx context.Context, actor player.Actor, shipID int) (*ShipView, error) {
	if shipID <= 0 {
		return nil, errors.Validationf("invalid ship id %d", shipID)
	}

	ship, err := s.store.GetShip(ctx, actor.PlayerID, shipID, nil)
	if err != nil {
		return nil, errors.WrapInternal("failed to get ship", err)
	}
	if ship == nil {
		return nil, errors.NotFoundf("ship %d not found", shipID)
	}

	view := s.view(*ship, s.factions.Lookup(actor.Faction))
	return &view, nil
}

// Scrap deletes an idle ship and refunds half of its base cost
func (s *Service) Scrap(ctx context.Context, actor player.Actor, shipID int) (*ScrapResult, error) {
	logger := s.logger.With("component", "fleet_service", "operation", "scrap", "player_id", actor.PlayerID, "ship_id", shipID)

	if shipID <= 0 {
		return nil, errors.Validationf("invalid ship id %d", shipID)
	}

	var result ScrapResult
	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		ship, err := s.store.GetShipForUpdate(ctx, actor.PlayerID, shipID, tx)
		if err != nil {
			return err
		}
		if ship == nil {
			return errors.NotFoundf("ship %d not found", shipID)
		}
		if !ship.IsIdle() {
			return errors.Conflict("ship_not_idle", "cannot scrap a ship that is on a mission").
				WithDetail("status", ship.Status)
		}

		if err := s.store.DeleteShip(ctx, actor.PlayerID, shipID, tx); err != nil {
			return err
		}

		refund := ScrapRefund(ship.Template.BaseBuildCost)
		balance, err := s.ledger.ApplyDelta(ctx, actor.PlayerID, refund, tx)
		if err != nil {
			return err
		}

		result = ScrapResult{ShipName: ship.Name, Refund: refund, Resources: balance}
		return nil
	})
	if err != nil {
		if errors.IsGameRule(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to scrap ship", err)
	}

	logger.Info("Ship scrapped", "ship_name", result.ShipName, "refund_total", result.Refund.Total())
	return &result, nil
}

// SeedTemplates stores the catalog templates, updating ones that already exist
func (s *Service) SeedTemplates(ctx context.Context, templates []Template) (int, error) {
	err := s.txr.WithTx(ctx, func(tx *database.Tx) error {
		for _, t := range templates {
			if _, err := s.store.UpsertTemplate(ctx, t, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.WrapInternal("failed to seed ship templates", err)
	}

	s.logger.Info("Ship templates seeded", "component", "fleet_service", "count", len(templates))
	return len(templates), nil
}
