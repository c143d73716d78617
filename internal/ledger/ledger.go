// Package ledger owns player resource balances. Balances only change through
// ApplyDelta, a single guarded UPDATE, so concurrent credits never overwrite each other.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing ledger repository")
	return &Repository{db: db, logger: logger}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) GetBalance(ctx context.Context, playerID int, tx *database.Tx) (resources.Resources, error) {
	var bal resources.Resources
	err := r.getExecutor(tx).QueryRowContext(ctx,
		`SELECT iron, rare_metals, crystals, fuel FROM players WHERE id = $1`, playerID,
	).Scan(&bal.Iron, &bal.RareMetals, &bal.Crystals, &bal.Fuel)
	if err != nil {
		if err == sql.ErrNoRows {
			return resources.Resources{}, errors.NotFoundf("player %d not found", playerID)
		}
		r.logger.Error("Failed to read balance", "component", "ledger", "player_id", playerID, "error", err)
		return resources.Resources{}, fmt.Errorf("failed to read balance: %w", err)
	}
	return bal, nil
}

// ApplyDelta adds delta to the balance in one statement and returns the new balance.
// No component may drop below zero; if one would, nothing is written.
func (r *Repository) ApplyDelta(ctx context.Context, playerID int, delta resources.Resources, tx *database.Tx) (resources.Resources, error) {
	logger := r.logger.With("component", "ledger", "operation", "apply_delta", "player_id", playerID)

	var bal resources.Resources
	err := r.getExecutor(tx).QueryRowContext(ctx, `
		UPDATE players
		SET iron = iron + $2,
			rare_metals = rare_metals + $3,
			crystals = crystals + $4,
			fuel = fuel + $5,
			updated_at = NOW()
		WHERE id = $1
			AND iron + $2 >= 0
			AND rare_metals + $3 >= 0
			AND crystals + $4 >= 0
			AND fuel + $5 >= 0
		RETURNING iron, rare_metals, crystals, fuel`,
		playerID, delta.Iron, delta.RareMetals, delta.Crystals, delta.Fuel,
	).Scan(&bal.Iron, &bal.RareMetals, &bal.Crystals, &bal.Fuel)
	if err == nil {
		logger.Debug("Balance updated", "delta_total", delta.Total())
		return bal, nil
	}
	if err != sql.ErrNoRows {
		logger.Error("Failed to apply balance delta", "error", err)
		return resources.Resources{}, fmt.Errorf("failed to apply balance delta: %w", err)
	}

	current, err := r.GetBalance(ctx, playerID, tx)
	if err != nil {
		return resources.Resources{}, err
	}
	return resources.Resources{}, InsufficientFor(current, delta.Negate())
}

// InsufficientFor describes the first resource where balance cannot cover cost
func InsufficientFor(balance, cost resources.Resources) error {
	kind, short := resources.Shortfall(balance, cost)
	if !short {
		return errors.Conflict("balance_changed", "balance changed during the operation, try again")
	}
	return errors.Insufficient(string(kind), cost.Get(kind), balance.Get(kind))
}

// CheckFunds reports every resource in cost the balance cannot cover, in reporting order
func CheckFunds(balance, cost resources.Resources) []error {
	var errs []error
	for _, k := range resources.Kinds {
		if balance.Get(k) < cost.Get(k) {
			errs = append(errs, errors.Insufficient(string(k), cost.Get(k), balance.Get(k)))
		}
	}
	return errs
}
