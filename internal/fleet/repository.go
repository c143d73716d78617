package fleet

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"space-mining-server/internal/shared/database"

	"github.com/lib/pq"
)

const templateColumns = `t.id, t.name, t.description, t.cargo_capacity, t.fuel_consumption,
	t.speed, t.tier, t.iron_cost, t.rare_metals_cost, t.crystals_cost, t.created_at`

const shipColumns = `s.id, s.owner_id, s.template_id, s.name, s.status,
	s.current_mission_id, s.created_at, s.updated_at`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing fleet repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var t Template
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.CargoCapacity,
		&t.FuelConsumption,
		&t.Speed,
		&t.Tier,
		&t.BaseBuildCost.Iron,
		&t.BaseBuildCost.RareMetals,
		&t.BaseBuildCost.Crystals,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanShip reads shipColumns followed by templateColumns
func scanShip(row rowScanner) (*Ship, error) {
	var (
		s         Ship
		t         Template
		missionID sql.NullInt64
	)
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.TemplateID,
		&s.Name,
		&s.Status,
		&missionID,
		&s.CreatedAt,
		&s.UpdatedAt,
		&t.ID,
		&t.Name,
		&t.Description,
		&t.CargoCapacity,
		&t.FuelConsumption,
		&t.Speed,
		&t.Tier,
		&t.BaseBuildCost.Iron,
		&t.BaseBuildCost.RareMetals,
		&t.BaseBuildCost.Crystals,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if missionID.Valid {
		id := int(missionID.Int64)
		s.CurrentMissionID = &id
	}
	s.Template = &t
	return &s, nil
}

func (r *Repository) ListTemplates(ctx context.Context) ([]Template, error) {
	logger := r.logger.With("component", "fleet_repository", "operation", "list_templates")

	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM ship_templates t ORDER BY t.tier, t.id`)
	if err != nil {
		logger.Error("Failed to query ship templates", "error", err)
		return nil, fmt.Errorf("failed to query ship templates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			logger.Error("Failed to scan ship template row", "error", err)
			return nil, fmt.Errorf("failed to scan ship template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ship templates: %w", err)
	}

	logger.Debug("Ship templates retrieved", "count", len(templates))
	return templates, nil
}

func (r *Repository) GetTemplate(ctx context.Context, id int, tx *database.Tx) (*Template, error) {
	t, err := scanTemplate(r.getExecutor(tx).QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM ship_templates t WHERE t.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get ship template", "component", "fleet_repository", "template_id", id, "error", err)
		return nil, fmt.Errorf("failed to get ship template: %w", err)
	}
	return t, nil
}

// UpsertTemplate stores a catalog template by name, refreshing its stats
func (r *Repository) UpsertTemplate(ctx context.Context, t Template, tx *database.Tx) (*Template, error) {
	stored, err := scanTemplate(r.getExecutor(tx).QueryRowContext(ctx, `
		INSERT INTO ship_templates AS t (name, description, cargo_capacity, fuel_consumption, speed, tier,
			iron_cost, rare_metals_cost, crystals_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			cargo_capacity = EXCLUDED.cargo_capacity,
			fuel_consumption = EXCLUDED.fuel_consumption,
			speed = EXCLUDED.speed,
			tier = EXCLUDED.tier,
			iron_cost = EXCLUDED.iron_cost,
			rare_metals_cost = EXCLUDED.rare_metals_cost,
			crystals_cost = EXCLUDED.crystals_cost
		RETURNING `+templateColumns,
		t.Name, t.Description, t.CargoCapacity, t.FuelConsumption, t.Speed, t.Tier,
		t.BaseBuildCost.Iron, t.BaseBuildCost.RareMetals, t.BaseBuildCost.Crystals,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert ship template %s: %w", t.Name, err)
	}
	return stored, nil
}

func (r *Repository) CountShips(ctx context.Context, ownerID int, tx *database.Tx) (int, error) {
	var count int
	err := r.getExecutor(tx).QueryRowContext(ctx, `SELECT COUNT(*) FROM ships WHERE owner_id = $1`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ships: %w", err)
	}
	return count, nil
}

func (r *Repository) CreateShip(ctx context.Context, ownerID, templateID int, name string, tx *database.Tx) (*Ship, error) {
	logger := r.logger.With(
		"component", "fleet_repository",
		"operation", "create_ship",
		"owner_id", ownerID,
		"template_id", templateID,
	)

	var id int
	err := r.getExecutor(tx).QueryRowContext(ctx, `
		INSERT INTO ships (owner_id, template_id, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, ownerID, templateID, name, ShipStatusIdle).Scan(&id)
	if err != nil {
		logger.Error("Failed to create ship", "error", err)
		return nil, fmt.Errorf("failed to create ship: %w", err)
	}

	ship, err := r.GetShip(ctx, ownerID, id, tx)
	if err != nil {
		return nil, err
	}
	if ship == nil {
		return nil, fmt.Errorf("ship %d vanished after insert", id)
	}

	logger.Info("Ship created", "ship_id", id)
	return ship, nil
}

func (r *Repository) ListShips(ctx context.Context, ownerID int) ([]Ship, error) {
	logger := r.logger.With("component", "fleet_repository", "operation", "list_ships", "owner_id", ownerID)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shipColumns+`, `+templateColumns+`
		FROM ships s
		JOIN ship_templates t ON t.id = s.template_id
		WHERE s.owner_id = $1
		ORDER BY s.created_at DESC, s.id DESC`, ownerID)
	if err != nil {
		logger.Error("Failed to query ships", "error", err)
		return nil, fmt.Errorf("failed to query ships: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var ships []Ship
	for rows.Next() {
		s, err := scanShip(rows)
		if err != nil {
			logger.Error("Failed to scan ship row", "error", err)
			return nil, fmt.Errorf("failed to scan ship: %w", err)
		}
		ships = append(ships, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ships: %w", err)
	}
	return ships, nil
}

// GetShip returns nil when the ship does not exist or belongs to someone else
func (r *Repository) GetShip(ctx context.Context, ownerID, shipID int, tx *database.Tx) (*Ship, error) {
	return r.getShip(ctx, tx, `
		SELECT `+shipColumns+`, `+templateColumns+`
		FROM ships s
		JOIN ship_templates t ON t.id = s.template_id
		WHERE s.id = $1 AND s.owner_id = $2`, shipID, ownerID)
}

// GetShipForUpdate locks the ship row until tx ends
func (r *Repository) GetShipForUpdate(ctx context.Context, ownerID, shipID int, tx *database.Tx) (*Ship, error) {
	return r.getShip(ctx, tx, `
		SELECT `+shipColumns+`, `+templateColumns+`
		FROM ships s
		JOIN ship_templates t ON t.id = s.template_id
		WHERE s.id = $1 AND s.owner_id = $2
		FOR UPDATE OF s`, shipID, ownerID)
}

func (r *Repository) getShip(ctx context.Context, tx *database.Tx, query string, shipID, ownerID int) (*Ship, error) {
	ship, err := scanShip(r.getExecutor(tx).QueryRowContext(ctx, query, shipID, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get ship", "component", "fleet_repository", "ship_id", shipID, "error", err)
		return nil, fmt.Errorf("failed to get ship: %w", err)
	}
	return ship, nil
}

func (r *Repository) DeleteShip(ctx context.Context, ownerID, shipID int, tx *database.Tx) error {
	result, err := r.getExecutor(tx).ExecContext(ctx,
		`DELETE FROM ships WHERE id = $1 AND owner_id = $2`, shipID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete ship: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted ship: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("ship %d was not deleted", shipID)
	}
	return nil
}

// AssignMission flips an idle ship to on_mission. It reports false when the ship was not idle.
func (r *Repository) AssignMission(ctx context.Context, shipID, missionID int, tx *database.Tx) (bool, error) {
	result, err := r.getExecutor(tx).ExecContext(ctx, `
		UPDATE ships
		SET status = $3, current_mission_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		shipID, missionID, ShipStatusOnMission, ShipStatusIdle)
	if err != nil {
		return false, fmt.Errorf("failed to assign ship to mission: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check ship assignment: %w", err)
	}
	return n == 1, nil
}

// ReleaseShips returns ships to idle and detaches them from their missions
func (r *Repository) ReleaseShips(ctx context.Context, shipIDs []int, tx *database.Tx) error {
	if len(shipIDs) == 0 {
		return nil
	}

	ids := make([]int64, len(shipIDs))
	for i, id := range shipIDs {
		ids[i] = int64(id)
	}

	_, err := r.getExecutor(tx).ExecContext(ctx, `
		UPDATE ships
		SET status = $2, current_mission_id = NULL, updated_at = NOW()
		WHERE id = ANY($1)`, pq.Array(ids), ShipStatusIdle)
	if err != nil {
		r.logger.Error("Failed to release ships", "component", "fleet_repository", "count", len(shipIDs), "error", err)
		return fmt.Errorf("failed to release ships: %w", err)
	}
	return nil
}
