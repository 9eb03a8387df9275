package repository

import (
	"context"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) GetActiveCycleConfig() (*domain.CycleConfig, error) {
	query := `
		SELECT id, start_date, cycle_length_days, active, created_at, version
		FROM cycle_configs
		WHERE active
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	cfg := &domain.CycleConfig{}
	dst := []any{&cfg.ID, &cfg.StartDate, &cfg.CycleLengthDays, &cfg.Active, &cfg.CreatedAt, &cfg.Version}
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(dst...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CreateCycleConfig activates the new config and retires the previous
// one in the same transaction, so exactly one config is ever active.
func (r *Repository) CreateCycleConfig(cfg *domain.CycleConfig) error {
	ctx, cancel := r.txCtx(context.Background())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE cycle_configs SET active = false, version = version + 1 WHERE active`); err != nil {
		return err
	}

	query := `
		INSERT INTO cycle_configs (start_date, cycle_length_days, active)
		VALUES ($1, $2, true)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, cfg.StartDate, cfg.CycleLengthDays).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.Version); err != nil {
		return err
	}
	cfg.Active = true

	return tx.Commit()
}
