package repository

import (
	"context"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
)

func (r *Repository) CreateShift(shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (team_id, cycle_day, shift_type, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	params := []any{shift.TeamID, shift.CycleDay, shift.Type, shift.StartTime, shift.EndTime}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.ID, &shift.CreatedAt, &shift.Version); err != nil {
		return mapConflict(err)
	}

	return nil
}

func (r *Repository) GetShiftByID(id int64) (*domain.Shift, error) {
	query := `
		SELECT team_id, cycle_day, shift_type, start_time, end_time, created_at, version
		FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	shift := &domain.Shift{
		ID: id,
	}

	dst := []any{&shift.TeamID, &shift.CycleDay, &shift.Type, &shift.StartTime, &shift.EndTime, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return shift, nil
}

func (r *Repository) GetShiftsByTeam(teamID int64) ([]*domain.Shift, error) {
	query := `
		SELECT id, team_id, cycle_day, shift_type, start_time, end_time, created_at, version
		FROM shifts
		WHERE team_id = $1
		ORDER BY cycle_day
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		var shift domain.Shift
		dst := []any{&shift.ID, &shift.TeamID, &shift.CycleDay, &shift.Type, &shift.StartTime, &shift.EndTime, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, &shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) GetShiftsByCycleDay(cycleDay int32) ([]*domain.Shift, error) {
	query := `
		SELECT id, team_id, cycle_day, shift_type, start_time, end_time, created_at, version
		FROM shifts
		WHERE cycle_day = $1
		ORDER BY team_id
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, cycleDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := []*domain.Shift{}
	for rows.Next() {
		var shift domain.Shift
		dst := []any{&shift.ID, &shift.TeamID, &shift.CycleDay, &shift.Type, &shift.StartTime, &shift.EndTime, &shift.CreatedAt, &shift.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		shifts = append(shifts, &shift)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (r *Repository) UpdateShift(shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET
			shift_type = $1,
			start_time = $2,
			end_time = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	params := []any{shift.Type, shift.StartTime, shift.EndTime, shift.ID, shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShift(id int64) error {
	query := `
		DELETE FROM shifts WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

// ShiftFor resolves the shift serving (team, shift type) on a calendar
// date, confirming the date actually falls on that shift's cycle day.
func (r *Repository) ShiftFor(ctx context.Context, teamID int64, shiftType domain.ShiftType, date time.Time) (*domain.Shift, error) {
	cycleCfg, err := r.GetActiveCycleConfig()
	if err != nil {
		return nil, err
	}

	cycleDay, err := roster.CycleDayOfConfig(date, cycleCfg)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, team_id, cycle_day, shift_type, start_time, end_time, created_at, version
		FROM shifts
		WHERE team_id = $1 AND cycle_day = $2 AND shift_type = $3
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	shift := &domain.Shift{}
	dst := []any{&shift.ID, &shift.TeamID, &shift.CycleDay, &shift.Type, &shift.StartTime, &shift.EndTime, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(qctx, query, teamID, cycleDay, shiftType).Scan(dst...); err != nil {
		return nil, err
	}

	return shift, nil
}
