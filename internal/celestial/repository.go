package celestial

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
)

const bodyColumns = `id, name, type, distance,
	iron_modifier, rare_metals_modifier, crystals_modifier, fuel_modifier,
	mining_difficulty, description, is_temporary, max_mines,
	expires_at, bonus_resources, bonus_claimed, created_at`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing celestial repository")

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

func scanBody(row rowScanner) (*Body, error) {
	var (
		b           Body
		isTemporary bool
		maxMines    int
		expiresAt   sql.NullTime
		bonusRaw    []byte
		claimed     bool
	)

	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Type,
		&b.Distance,
		&b.ResourceModifiers.Iron,
		&b.ResourceModifiers.RareMetals,
		&b.ResourceModifiers.Crystals,
		&b.ResourceModifiers.Fuel,
		&b.MiningDifficulty,
		&b.Description,
		&isTemporary,
		&maxMines,
		&expiresAt,
		&bonusRaw,
		&claimed,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if !isTemporary {
		b.Permanent = &Permanent{MaxMines: maxMines}
		return &b, nil
	}

	b.Temporary = &Temporary{ExpiresAt: expiresAt.Time, BonusClaimed: claimed}
	if len(bonusRaw) > 0 {
		var bonus resources.Resources
		if err := json.Unmarshal(bonusRaw, &bonus); err != nil {
			return nil, fmt.Errorf("failed to decode bonus resources: %w", err)
		}
		b.Temporary.BonusResources = &bonus
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, body *Body, tx *database.Tx) (*Body, error) {
	exec := r.getExecutor(tx)

	logger := r.logger.With(
		"component", "celestial_repository",
		"operation", "create",
		"name", body.Name,
		"type", body.Type,
	)

	var (
		expiresAt interface{}
		bonus     interface{}
	)
	if body.Temporary != nil {
		expiresAt = body.Temporary.ExpiresAt
		if body.Temporary.BonusResources != nil {
			raw, err := json.Marshal(body.Temporary.BonusResources)
			if err != nil {
				return nil, fmt.Errorf("failed to encode bonus resources: %w", err)
			}
			bonus = string(raw)
		}
	}

	query := `
		INSERT INTO celestial_bodies (name, type, distance,
			iron_modifier, rare_metals_modifier, crystals_modifier, fuel_modifier,
			mining_difficulty, description, is_temporary, max_mines, expires_at, bonus_resources)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb)
		RETURNING ` + bodyColumns

	created, err := scanBody(exec.QueryRowContext(ctx, query,
		body.Name,
		body.Type,
		body.Distance,
		body.ResourceModifiers.Iron,
		body.ResourceModifiers.RareMetals,
		body.ResourceModifiers.Crystals,
		body.ResourceModifiers.Fuel,
		body.MiningDifficulty,
		body.Description,
		body.IsTemporary(),
		body.MaxMines(),
		expiresAt,
		bonus,
	))
	if err != nil {
		logger.Error("Failed to create celestial body", "error", err)
		return nil, fmt.Errorf("failed to create celestial body: %w", err)
	}

	logger.Info("Celestial body created", "body_id", created.ID)
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int, tx *database.Tx) (*Body, error) {
	return r.getOne(ctx, tx, "get_by_id", `SELECT `+bodyColumns+` FROM celestial_bodies WHERE id = $1`, id)
}

// GetByIDForUpdate locks the body row until tx ends
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int, tx *database.Tx) (*Body, error) {
	return r.getOne(ctx, tx, "get_by_id_for_update", `SELECT `+bodyColumns+` FROM celestial_bodies WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) getOne(ctx context.Context, tx *database.Tx, operation, query string, id int) (*Body, error) {
	logger := r.logger.With("component", "celestial_repository", "operation", operation, "body_id", id)

	body, err := scanBody(r.getExecutor(tx).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Celestial body not found")
			return nil, nil
		}
		logger.Error("Failed to get celestial body", "error", err)
		return nil, fmt.Errorf("failed to get celestial body: %w", err)
	}
	return body, nil
}

// ListActive returns permanent bodies and unexpired asteroids ordered by distance
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]Body, error) {
	return r.list(ctx, "list_active", `
		SELECT `+bodyColumns+`
		FROM celestial_bodies
		WHERE is_temporary = false OR expires_at > $1
		ORDER BY distance, id`, now)
}

func (r *Repository) ListPermanent(ctx context.Context) ([]Body, error) {
	return r.list(ctx, "list_permanent", `
		SELECT `+bodyColumns+`
		FROM celestial_bodies
		WHERE is_temporary = false
		ORDER BY distance, id`)
}

func (r *Repository) ListActiveAsteroids(ctx context.Context, now time.Time) ([]Body, error) {
	return r.list(ctx, "list_active_asteroids", `
		SELECT `+bodyColumns+`
		FROM celestial_bodies
		WHERE is_temporary = true AND expires_at > $1
		ORDER BY expires_at, id`, now)
}

func (r *Repository) list(ctx context.Context, operation, query string, args ...interface{}) ([]Body, error) {
	logger := r.logger.With("component", "celestial_repository", "operation", operation)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query celestial bodies", "error", err)
		return nil, fmt.Errorf("failed to query celestial bodies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var bodies []Body
	for rows.Next() {
		body, err := scanBody(rows)
		if err != nil {
			logger.Error("Failed to scan celestial body row", "error", err)
			return nil, fmt.Errorf("failed to scan celestial body: %w", err)
		}
		bodies = append(bodies, *body)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating celestial bodies: %w", err)
	}

	logger.Debug("Celestial bodies retrieved", "count", len(bodies))
	return bodies, nil
}

func (r *Repository) NameExists(ctx context.Context, name string, tx *database.Tx) (bool, error) {
	var exists bool
	err := r.getExecutor(tx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM celestial_bodies WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check body name: %w", err)
	}
	return exists, nil
}

func (r *Repository) CountPermanent(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM celestial_bodies WHERE is_temporary = false`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count celestial bodies: %w", err)
	}
	return count, nil
}

// DeleteExpired purges asteroids whose expiry has passed. Missions keep their target snapshot.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	logger := r.logger.With("component", "celestial_repository", "operation", "delete_expired")

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM celestial_bodies WHERE is_temporary = true AND expires_at < $1`, now)
	if err != nil {
		logger.Error("Failed to delete expired asteroids", "error", err)
		return 0, fmt.Errorf("failed to delete expired asteroids: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted asteroids: %w", err)
	}
	if deleted > 0 {
		logger.Info("Expired asteroids purged", "count", deleted)
	}
	return deleted, nil
}

// ClaimBonus marks an asteroid's one-time bonus as taken and returns it.
// It returns nil when there is no bonus left to claim.
func (r *Repository) ClaimBonus(ctx context.Context, id int, tx *database.Tx) (*resources.Resources, error) {
	logger := r.logger.With("component", "celestial_repository", "operation", "claim_bonus", "body_id", id)

	var raw []byte
	err := r.getExecutor(tx).QueryRowContext(ctx, `
		UPDATE celestial_bodies
		SET bonus_claimed = true
		WHERE id = $1 AND is_temporary = true AND bonus_resources IS NOT NULL AND bonus_claimed = false
		RETURNING bonus_resources`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("Failed to claim asteroid bonus", "error", err)
		return nil, fmt.Errorf("failed to claim asteroid bonus: %w", err)
	}

	var bonus resources.Resources
	if err := json.Unmarshal(raw, &bonus); err != nil {
		return nil, fmt.Errorf("failed to decode bonus resources: %w", err)
	}

	logger.Info("Asteroid bonus claimed", "bonus_total", bonus.Total())
	return &bonus, nil
}
