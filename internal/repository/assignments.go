package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
)

const assignmentColumns = `id, shift_id, user_id, shift_date, is_extra, is_direct, replaced_user_id, replacement_order, is_partial, start_time, end_time, acting_lieutenant, acting_captain, created_at, version`

type rowScanner interface {
	Scan(dst ...any) error
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	var replaced sql.NullInt64
	var order sql.NullInt16
	var start, end sql.NullString

	dst := []any{
		&a.ID,
		&a.ShiftID,
		&a.UserID,
		&a.ShiftDate,
		&a.IsExtra,
		&a.IsDirect,
		&replaced,
		&order,
		&a.IsPartial,
		&start,
		&end,
		&a.ActingLieutenant,
		&a.ActingCaptain,
		&a.CreatedAt,
		&a.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if replaced.Valid {
		a.ReplacedUserID = &replaced.Int64
	}
	if order.Valid {
		a.ReplacementOrder = &order.Int16
	}
	if start.Valid {
		a.StartTime = &start.String
	}
	if end.Valid {
		a.EndTime = &end.String
	}

	return &a, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// upsertAssignment matches an existing row by (shift, user, date).
// Re-applying the same upsert yields one row, not two.
func upsertAssignment(ctx context.Context, db execer, a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (
			shift_id, user_id, shift_date, is_extra, is_direct,
			replaced_user_id, replacement_order, is_partial, start_time, end_time,
			acting_lieutenant, acting_captain
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (shift_id, user_id, shift_date) DO UPDATE SET
			is_extra = EXCLUDED.is_extra,
			is_direct = EXCLUDED.is_direct,
			replaced_user_id = EXCLUDED.replaced_user_id,
			replacement_order = EXCLUDED.replacement_order,
			is_partial = EXCLUDED.is_partial,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			acting_lieutenant = EXCLUDED.acting_lieutenant,
			acting_captain = EXCLUDED.acting_captain,
			version = assignments.version + 1
		RETURNING id, created_at, version
	`

	params := []any{
		a.ShiftID, a.UserID, roster.TruncateToDate(a.ShiftDate), a.IsExtra, a.IsDirect,
		a.ReplacedUserID, a.ReplacementOrder, a.IsPartial, a.StartTime, a.EndTime,
		a.ActingLieutenant, a.ActingCaptain,
	}
	if err := db.QueryRowContext(ctx, query, params...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
		return mapConflict(err)
	}

	return nil
}

func (r *Repository) UpsertAssignment(ctx context.Context, a *domain.Assignment) error {
	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return upsertAssignment(qctx, r.dbpool, a)
}

// ReplacementAssignments returns the existing rows for one
// (shift, date, replaced user) slot, ordered by replacement order.
func (r *Repository) ReplacementAssignments(ctx context.Context, shiftID int64, date time.Time, replacedUserID int64) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE shift_id = $1 AND shift_date = $2 AND replaced_user_id = $3
		ORDER BY replacement_order
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(qctx, query, shiftID, roster.TruncateToDate(date), replacedUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ApplyResolution persists the resolver's output in one transaction:
// both order rows of the slot are deleted and re-inserted from the
// resolution. The delete-then-reinsert never becomes observable
// half-applied.
func (r *Repository) ApplyResolution(ctx context.Context, res *roster.Resolution) error {
	tctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(tctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		DELETE FROM assignments
		WHERE shift_id = $1 AND shift_date = $2 AND replaced_user_id = $3
	`
	if _, err := tx.ExecContext(tctx, query, res.ShiftID, res.ShiftDate, res.ReplacedUserID); err != nil {
		return err
	}

	if res.R1 != nil {
		if err := upsertAssignment(tctx, tx, res.R1); err != nil {
			return err
		}
	}
	if err := upsertAssignment(tctx, tx, res.R2); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteReplacement withdraws one order row and promotes the surviving
// row, if any, back to sole full coverage. Returns
// roster.ErrReplacementNotFound when the slot has no row with the
// requested order and roster.ErrConflict when the rows changed
// underneath the withdrawal.
func (r *Repository) DeleteReplacement(ctx context.Context, shiftID int64, date time.Time, replacedUserID int64, order int16) error {
	existing, err := r.ReplacementAssignments(ctx, shiftID, date, replacedUserID)
	if err != nil {
		return err
	}
	plan, err := roster.PlanWithdrawal(existing, order)
	if err != nil {
		return err
	}

	tctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(tctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		DELETE FROM assignments
		WHERE id = $1 AND version = $2
	`
	result, err := tx.ExecContext(tctx, query, plan.Remove.ID, plan.Remove.Version)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return roster.ErrConflict
	}

	if plan.Promote != nil {
		query = `
			UPDATE assignments
			SET replacement_order = 1, is_partial = false, start_time = NULL, end_time = NULL, version = version + 1
			WHERE id = $1 AND version = $2
		`
		result, err := tx.ExecContext(tctx, query, plan.Promote.ID, plan.Promote.Version)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected != 1 {
			return roster.ErrConflict
		}
	}

	return tx.Commit()
}

// AssignmentsForUsers lists existing rows for any of the users on one
// shift instance.
func (r *Repository) AssignmentsForUsers(ctx context.Context, shiftID int64, date time.Time, userIDs []int64) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE shift_id = $1 AND shift_date = $2 AND user_id = ANY($3)
		ORDER BY id
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(qctx, query, shiftID, roster.TruncateToDate(date), userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Repository) GetAssignmentsForDate(date time.Time) ([]*domain.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE shift_date = $1
		ORDER BY shift_id, replacement_order NULLS LAST, id
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, roster.TruncateToDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// UserDutySpans lists the absolute on-duty spans of a user inside a
// time range, for the consecutive-hours guard: the user's own
// assignment rows plus their base cycle duty, minus days where a full
// replacement covers them. A partial replacement does not shorten the
// base span here; the guard stays conservative.
func (r *Repository) UserDutySpans(ctx context.Context, userID int64, from, to time.Time) ([]roster.Span, error) {
	spans, err := r.assignedSpans(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	base, err := r.baseDutySpans(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	return append(spans, base...), nil
}

func (r *Repository) assignedSpans(ctx context.Context, userID int64, from, to time.Time) ([]roster.Span, error) {
	query := `
		SELECT s.id, s.team_id, s.cycle_day, s.shift_type, s.start_time, s.end_time,
		       a.shift_date, a.is_partial, a.start_time, a.end_time
		FROM assignments a
		JOIN shifts s ON s.id = a.shift_id
		WHERE a.user_id = $1 AND a.shift_date BETWEEN $2 AND $3
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	// A duty can run into the next day, so reach one day further back.
	lo := roster.TruncateToDate(from).AddDate(0, 0, -1)
	hi := roster.TruncateToDate(to)

	rows, err := r.dbpool.QueryContext(qctx, query, userID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spans := []roster.Span{}
	for rows.Next() {
		var shift domain.Shift
		var a domain.Assignment
		var start, end sql.NullString

		dst := []any{&shift.ID, &shift.TeamID, &shift.CycleDay, &shift.Type, &shift.StartTime, &shift.EndTime, &a.ShiftDate, &a.IsPartial, &start, &end}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		if start.Valid {
			a.StartTime = &start.String
		}
		if end.Valid {
			a.EndTime = &end.String
		}

		iv, err := roster.IntervalOf(&shift, &a)
		if err != nil {
			return nil, err
		}
		span, err := roster.DutySpan(&shift, a.ShiftDate, iv)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return spans, nil
}

func (r *Repository) baseDutySpans(ctx context.Context, userID int64, from, to time.Time) ([]roster.Span, error) {
	user, err := r.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.TeamID == nil {
		return nil, nil
	}

	cycleCfg, err := r.GetActiveCycleConfig()
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	shifts, err := r.GetShiftsByTeam(*user.TeamID)
	if err != nil {
		return nil, err
	}

	lo := roster.TruncateToDate(from).AddDate(0, 0, -1)
	hi := roster.TruncateToDate(to)

	spans := []roster.Span{}
	for _, shift := range shifts {
		dates, err := roster.DatesForCycleDay(shift.CycleDay, cycleCfg.StartDate, cycleCfg.CycleLengthDays, lo, hi)
		if err != nil {
			return nil, err
		}

		for _, d := range dates {
			replaced, err := r.fullyReplacedOn(ctx, shift.ID, d, userID)
			if err != nil {
				return nil, err
			}
			if replaced {
				continue
			}

			span, err := roster.DutySpan(shift, d, roster.FullCoverage())
			if err != nil {
				return nil, err
			}
			spans = append(spans, span)
		}
	}

	return spans, nil
}

func (r *Repository) fullyReplacedOn(ctx context.Context, shiftID int64, date time.Time, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM assignments
			WHERE shift_id = $1 AND shift_date = $2 AND replaced_user_id = $3 AND NOT is_partial
		)
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var exists bool
	if err := r.dbpool.QueryRowContext(qctx, query, shiftID, roster.TruncateToDate(date), userID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
