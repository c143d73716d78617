package mission

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
)

const missionColumns = `id, owner_id, ship_id, target_id, type, status,
	start_time, arrival_time, mining_end_time, return_time,
	travel_time_minutes, mining_time_minutes, fuel_used, distance,
	ship_snapshot, target_snapshot, mined_resources, bonus_collected,
	created_at, updated_at`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing mission repository")

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

func nullableID(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	id := int(v.Int64)
	return &id
}

func scanMission(row rowScanner) (*Mission, error) {
	var (
		m         Mission
		shipID    sql.NullInt64
		targetID  sql.NullInt64
		shipRaw   []byte
		targetRaw []byte
		minedRaw  []byte
	)

	err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&shipID,
		&targetID,
		&m.Type,
		&m.Status,
		&m.Times.StartTime,
		&m.Times.ArrivalTime,
		&m.Times.MiningEndTime,
		&m.Times.ReturnTime,
		&m.TravelTimeMinutes,
		&m.MiningTimeMinutes,
		&m.FuelUsed,
		&m.Distance,
		&shipRaw,
		&targetRaw,
		&minedRaw,
		&m.BonusCollected,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.ShipID = nullableID(shipID)
	m.TargetID = nullableID(targetID)
	if err := json.Unmarshal(shipRaw, &m.Ship); err != nil {
		return nil, fmt.Errorf("failed to decode ship snapshot: %w", err)
	}
	if err := json.Unmarshal(targetRaw, &m.Target); err != nil {
		return nil, fmt.Errorf("failed to decode target snapshot: %w", err)
	}
	if len(minedRaw) > 0 {
		var mined resources.Resources
		if err := json.Unmarshal(minedRaw, &mined); err != nil {
			return nil, fmt.Errorf("failed to decode mined resources: %w", err)
		}
		m.MinedResources = &mined
	}
	return &m, nil
}

func (r *Repository) Create(ctx context.Context, m *Mission, tx *database.Tx) (*Mission, error) {
	logger := r.logger.With("component", "mission_repository", "operation", "create", "owner_id", m.OwnerID)

	shipRaw, err := json.Marshal(m.Ship)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ship snapshot: %w", err)
	}
	targetRaw, err := json.Marshal(m.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to encode target snapshot: %w", err)
	}

	created, err := scanMission(r.getExecutor(tx).QueryRowContext(ctx, `
		INSERT INTO missions (owner_id, ship_id, target_id, type, status,
			start_time, arrival_time, mining_end_time, return_time,
			travel_time_minutes, mining_time_minutes, fuel_used, distance,
			ship_snapshot, target_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb, $15::jsonb)
		RETURNING `+missionColumns,
		m.OwnerID,
		m.ShipID,
		m.TargetID,
		m.Type,
		m.Status,
		m.Times.StartTime,
		m.Times.ArrivalTime,
		m.Times.MiningEndTime,
		m.Times.ReturnTime,
		m.TravelTimeMinutes,
		m.MiningTimeMinutes,
		m.FuelUsed,
		m.Distance,
		string(shipRaw),
		string(targetRaw),
	))
	if err != nil {
		logger.Error("Failed to create mission", "error", err)
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}

	logger.Info("Mission created", "mission_id", created.ID)
	return created, nil
}

func (r *Repository) Get(ctx context.Context, ownerID, id int, tx *database.Tx) (*Mission, error) {
	return r.getOne(ctx, tx, `SELECT `+missionColumns+` FROM missions WHERE id = $1 AND owner_id = $2`, id, ownerID)
}

// GetForUpdate locks the mission row until tx ends
func (r *Repository) GetForUpdate(ctx context.Context, ownerID, id int, tx *database.Tx) (*Mission, error) {
	return r.getOne(ctx, tx, `SELECT `+missionColumns+` FROM missions WHERE id = $1 AND owner_id = $2 FOR UPDATE`, id, ownerID)
}

func (r *Repository) getOne(ctx context.Context, tx *database.Tx, query string, id, ownerID int) (*Mission, error) {
	m, err := scanMission(r.getExecutor(tx).QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get mission", "component", "mission_repository", "mission_id", id, "error", err)
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return m, nil
}

func (r *Repository) List(ctx context.Context, ownerID int, filter ListFilter) ([]Mission, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	switch {
	case filter.Status != "":
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	case filter.ActiveOnly:
		args = append(args, StatusCollected)
		conditions = append(conditions, fmt.Sprintf("status <> $%d", len(args)))
	}
	args = append(args, filter.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM missions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, missionColumns, strings.Join(conditions, " AND "), len(args))

	return r.list(ctx, nil, "list", query, args...)
}

// ListReadyForUpdate locks every uncollected mission of the owner whose return time has passed
func (r *Repository) ListReadyForUpdate(ctx context.Context, ownerID int, now time.Time, tx *database.Tx) ([]Mission, error) {
	return r.list(ctx, tx, "list_ready_for_update", `
		SELECT `+missionColumns+`
		FROM missions
		WHERE owner_id = $1 AND status <> $2 AND return_time <= $3
		ORDER BY return_time, id
		FOR UPDATE`, ownerID, StatusCollected, now)
}

func (r *Repository) list(ctx context.Context, tx *database.Tx, operation, query string, args ...interface{}) ([]Mission, error) {
	logger := r.logger.With("component", "mission_repository", "operation", operation)

	rows, err := r.getExecutor(tx).QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query missions", "error", err)
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var missions []Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			logger.Error("Failed to scan mission row", "error", err)
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missions: %w", err)
	}

	logger.Debug("Missions retrieved", "count", len(missions))
	return missions, nil
}

// UpdateStatus persists a time-derived phase. A collected mission is never moved back.
func (r *Repository) UpdateStatus(ctx context.Context, id int, status Status, tx *database.Tx) error {
	_, err := r.getExecutor(tx).ExecContext(ctx, `
		UPDATE missions SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $3`, id, status, StatusCollected)
	if err != nil {
		return fmt.Errorf("failed to update mission status: %w", err)
	}
	return nil
}

// SaveYield caches the computed yield so repeated reads never re-roll it
func (r *Repository) SaveYield(ctx context.Context, id int, mined resources.Resources, bonusCollected bool, tx *database.Tx) error {
	raw, err := json.Marshal(mined)
	if err != nil {
		return fmt.Errorf("failed to encode mined resources: %w", err)
	}
	_, err = r.getExecutor(tx).ExecContext(ctx, `
		UPDATE missions SET mined_resources = $2::jsonb, bonus_collected = $3, updated_at = NOW()
		WHERE id = $1 AND mined_resources IS NULL`, id, string(raw), bonusCollected)
	if err != nil {
		return fmt.Errorf("failed to save mission yield: %w", err)
	}
	return nil
}

func (r *Repository) MarkCollected(ctx context.Context, id int, tx *database.Tx) error {
	result, err := r.getExecutor(tx).ExecContext(ctx, `
		UPDATE missions SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $2`, id, StatusCollected)
	if err != nil {
		return fmt.Errorf("failed to mark mission collected: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check collected mission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mission %d was already collected", id)
	}
	return nil
}
