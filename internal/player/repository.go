package player

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"space-mining-server/internal/faction"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
)

const playerColumns = `id, username, faction, role, iron, rare_metals, crystals, fuel, created_at, updated_at`

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing player repository")
	return &Repository{db: db, logger: logger}
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

func scanPlayer(row rowScanner) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.Faction,
		&p.Role,
		&p.Resources.Iron,
		&p.Resources.RareMetals,
		&p.Resources.Crystals,
		&p.Resources.Fuel,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetPlayerCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players").Scan(&count); err != nil {
		r.logger.Error("Failed to get player count", "component", "player_repository", "error", err)
		return 0, fmt.Errorf("failed to get player count: %w", err)
	}
	return count, nil
}

func (r *Repository) GetAllPlayers(ctx context.Context) ([]Player, error) {
	logger := r.logger.With("component", "player_repository", "operation", "get_all")

	rows, err := r.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY created_at DESC`)
	if err != nil {
		logger.Error("Failed to query players", "error", err)
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			logger.Error("Failed to scan player row", "error", err)
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	logger.Debug("Players retrieved", "count", len(players))
	return players, nil
}

func (r *Repository) GetPlayerByID(ctx context.Context, id int, tx *database.Tx) (*Player, error) {
	return r.getOne(ctx, tx, "get_by_id", `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
}

func (r *Repository) GetPlayerByUsername(ctx context.Context, username string, tx *database.Tx) (*Player, error) {
	return r.getOne(ctx, tx, "get_by_username", `SELECT `+playerColumns+` FROM players WHERE LOWER(username) = LOWER($1)`, username)
}

func (r *Repository) getOne(ctx context.Context, tx *database.Tx, operation, query string, arg interface{}) (*Player, error) {
	logger := r.logger.With("component", "player_repository", "operation", operation)

	p, err := scanPlayer(r.getExecutor(tx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("No player found")
			return nil, nil
		}
		logger.Error("Database error getting player", "error", err)
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

func (r *Repository) CreatePlayer(ctx context.Context, username string, f faction.Faction, role PlayerRole, starting resources.Resources, tx *database.Tx) (*Player, error) {
	logger := r.logger.With("component", "player_repository", "operation", "create", "username", username, "faction", f)

	query := `
		INSERT INTO players (username, faction, role, iron, rare_metals, crystals, fuel)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + playerColumns

	p, err := scanPlayer(r.getExecutor(tx).QueryRowContext(ctx, query,
		username, f, role, starting.Iron, starting.RareMetals, starting.Crystals, starting.Fuel))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errUsernameTaken(username)
		}
		logger.Error("Failed to create player", "error", err)
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	logger.Info("Player created", "player_id", p.ID)
	return p, nil
}
