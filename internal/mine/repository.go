package mine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

const mineColumns = `m.id, m.body_id, m.owner_id, m.level, m.last_collected, m.created_at,
	b.name, b.type, b.iron_modifier, b.rare_metals_modifier, b.crystals_modifier, b.fuel_modifier`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing mine repository")

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

func scanMine(row rowScanner) (*Mine, error) {
	var m Mine
	err := row.Scan(
		&m.ID,
		&m.BodyID,
		&m.OwnerID,
		&m.Level,
		&m.LastCollected,
		&m.CreatedAt,
		&m.BodyName,
		&m.BodyType,
		&m.ResourceModifiers.Iron,
		&m.ResourceModifiers.RareMetals,
		&m.ResourceModifiers.Crystals,
		&m.ResourceModifiers.Fuel,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID int, tx *database.Tx) ([]Mine, error) {
	return r.list(ctx, tx, "list_by_owner", `
		SELECT `+mineColumns+`
		FROM mines m
		JOIN celestial_bodies b ON b.id = m.body_id
		WHERE m.owner_id = $1 AND b.is_temporary = false
		ORDER BY b.distance, m.id`, ownerID)
}

// ListByOwnerForUpdate locks every mine of the owner until tx ends
func (r *Repository) ListByOwnerForUpdate(ctx context.Context, ownerID int, tx *database.Tx) ([]Mine, error) {
	return r.list(ctx, tx, "list_by_owner_for_update", `
		SELECT `+mineColumns+`
		FROM mines m
		JOIN celestial_bodies b ON b.id = m.body_id
		WHERE m.owner_id = $1 AND b.is_temporary = false
		ORDER BY b.distance, m.id
		FOR UPDATE OF m`, ownerID)
}

func (r *Repository) list(ctx context.Context, tx *database.Tx, operation, query string, args ...interface{}) ([]Mine, error) {
	logger := r.logger.With("component", "mine_repository", "operation", operation)

	rows, err := r.getExecutor(tx).QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query mines", "error", err)
		return nil, fmt.Errorf("failed to query mines: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var mines []Mine
	for rows.Next() {
		m, err := scanMine(rows)
		if err != nil {
			logger.Error("Failed to scan mine row", "error", err)
			return nil, fmt.Errorf("failed to scan mine: %w", err)
		}
		mines = append(mines, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mines: %w", err)
	}

	logger.Debug("Mines retrieved", "count", len(mines))
	return mines, nil
}

// GetForUpdate returns the owner's mine on a body, locked until tx ends, or nil
func (r *Repository) GetForUpdate(ctx context.Context, bodyID, ownerID int, tx *database.Tx) (*Mine, error) {
	m, err := scanMine(r.getExecutor(tx).QueryRowContext(ctx, `
		SELECT `+mineColumns+`
		FROM mines m
		JOIN celestial_bodies b ON b.id = m.body_id
		WHERE m.body_id = $1 AND m.owner_id = $2
		FOR UPDATE OF m`, bodyID, ownerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get mine", "component", "mine_repository", "body_id", bodyID, "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to get mine: %w", err)
	}
	return m, nil
}

// Occupancy returns the number of mines on a body and the owner's level there (0 when none)
func (r *Repository) Occupancy(ctx context.Context, bodyID, ownerID int, tx *database.Tx) (int, int, error) {
	var (
		count int
		level sql.NullInt64
	)
	err := r.getExecutor(tx).QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(CASE WHEN owner_id = $2 THEN level END)
		FROM mines
		WHERE body_id = $1`, bodyID, ownerID).Scan(&count, &level)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count mines: %w", err)
	}
	return count, int(level.Int64), nil
}

func (r *Repository) Create(ctx context.Context, bodyID, ownerID int, now time.Time, tx *database.Tx) (*Mine, error) {
	logger := r.logger.With("component", "mine_repository", "operation", "create", "body_id", bodyID, "owner_id", ownerID)

	var id int
	err := r.getExecutor(tx).QueryRowContext(ctx, `
		INSERT INTO mines (body_id, owner_id, level, last_collected, created_at)
		VALUES ($1, $2, 1, $3, $3)
		RETURNING id`, bodyID, ownerID, now).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errors.Conflict("mine_exists", "you already have a mine on this body")
		}
		logger.Error("Failed to create mine", "error", err)
		return nil, fmt.Errorf("failed to create mine: %w", err)
	}

	m, err := r.GetForUpdate(ctx, bodyID, ownerID, tx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("mine %d vanished after insert", id)
	}

	logger.Info("Mine created", "mine_id", id)
	return m, nil
}

func (r *Repository) SetLevel(ctx context.Context, mineID, level int, tx *database.Tx) error {
	_, err := r.getExecutor(tx).ExecContext(ctx,
		`UPDATE mines SET level = $2, updated_at = NOW() WHERE id = $1`, mineID, level)
	if err != nil {
		return fmt.Errorf("failed to set mine level: %w", err)
	}
	return nil
}

func (r *Repository) MarkCollected(ctx context.Context, mineID int, at time.Time, tx *database.Tx) error {
	_, err := r.getExecutor(tx).ExecContext(ctx,
		`UPDATE mines SET last_collected = $2, updated_at = NOW() WHERE id = $1`, mineID, at)
	if err != nil {
		return fmt.Errorf("failed to mark mine collected: %w", err)
	}
	return nil
}

// MineSummaries reports, per body, how many mines exist and the player's own mine
func (r *Repository) MineSummaries(ctx context.Context, playerID int) (map[int]celestial.MineSummary, error) {
	logger := r.logger.With("component", "mine_repository", "operation", "mine_summaries", "player_id", playerID)

	rows, err := r.db.QueryContext(ctx, `
		SELECT body_id,
			COUNT(*),
			MAX(CASE WHEN owner_id = $1 THEN level END),
			MAX(CASE WHEN owner_id = $1 THEN last_collected END)
		FROM mines
		GROUP BY body_id`, playerID)
	if err != nil {
		logger.Error("Failed to query mine occupancy", "error", err)
		return nil, fmt.Errorf("failed to query mine occupancy: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	summaries := make(map[int]celestial.MineSummary)
	for rows.Next() {
		var (
			bodyID        int
			summary       celestial.MineSummary
			level         sql.NullInt64
			lastCollected sql.NullTime
		)
		if err := rows.Scan(&bodyID, &summary.Count, &level, &lastCollected); err != nil {
			return nil, fmt.Errorf("failed to scan mine occupancy: %w", err)
		}
		if level.Valid {
			summary.Own = &celestial.PlayerMine{Level: int(level.Int64), LastCollected: lastCollected.Time}
		}
		summaries[bodyID] = summary
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mine occupancy: %w", err)
	}
	return summaries, nil
}
