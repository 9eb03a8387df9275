package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

const replacementColumns = `id, shift_date, shift_type, team_id, original_user_id, status, is_partial, start_time, end_time, application_deadline, created_at, version`

func scanReplacement(row rowScanner) (*domain.Replacement, error) {
	var rep domain.Replacement
	var original sql.NullInt64
	var start, end sql.NullString

	dst := []any{
		&rep.ID,
		&rep.ShiftDate,
		&rep.ShiftType,
		&rep.TeamID,
		&original,
		&rep.Status,
		&rep.IsPartial,
		&start,
		&end,
		&rep.ApplicationDeadline,
		&rep.CreatedAt,
		&rep.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if original.Valid {
		rep.OriginalUserID = &original.Int64
	}
	if start.Valid {
		rep.StartTime = &start.String
	}
	if end.Valid {
		rep.EndTime = &end.String
	}

	return &rep, nil
}

func (r *Repository) CreateReplacement(rep *domain.Replacement) error {
	query := `
		INSERT INTO replacements (shift_date, shift_type, team_id, original_user_id, is_partial, start_time, end_time, application_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	params := []any{rep.ShiftDate, rep.ShiftType, rep.TeamID, rep.OriginalUserID, rep.IsPartial, rep.StartTime, rep.EndTime, rep.ApplicationDeadline}
	dst := []any{&rep.ID, &rep.Status, &rep.CreatedAt, &rep.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return mapConflict(err)
	}

	return nil
}

func (r *Repository) GetReplacementByID(id int64) (*domain.Replacement, error) {
	query := `
		SELECT ` + replacementColumns + `
		FROM replacements WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	return scanReplacement(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetReplacementsByStatus(status domain.ReplacementStatus) ([]*domain.Replacement, error) {
	query := `
		SELECT ` + replacementColumns + `
		FROM replacements
		WHERE status = $1
		ORDER BY shift_date, id
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reps := []*domain.Replacement{}
	for rows.Next() {
		rep, err := scanReplacement(rows)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reps, nil
}

func (r *Repository) CancelReplacement(id int64, version int32) error {
	query := `
		UPDATE replacements
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND status = $4
		RETURNING version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	var v int32
	return r.dbpool.QueryRowContext(ctx, query, domain.ReplacementCancelled, id, version, domain.ReplacementOpen).Scan(&v)
}

func (r *Repository) CreateApplication(app *domain.ReplacementApplication) error {
	query := `
		INSERT INTO replacement_applications (replacement_id, applicant_id)
		VALUES ($1, $2)
		RETURNING id, status, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	dst := []any{&app.ID, &app.Status, &app.CreatedAt, &app.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, app.ReplacementID, app.ApplicantID).Scan(dst...); err != nil {
		return mapConflict(err)
	}

	return nil
}

func (r *Repository) GetApplicationByID(id int64) (*domain.ReplacementApplication, error) {
	query := `
		SELECT id, replacement_id, applicant_id, status, created_at, version
		FROM replacement_applications WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	var app domain.ReplacementApplication
	dst := []any{&app.ID, &app.ReplacementID, &app.ApplicantID, &app.Status, &app.CreatedAt, &app.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return &app, nil
}

func (r *Repository) GetApplicationsByReplacement(replacementID int64) ([]*domain.ReplacementApplication, error) {
	query := `
		SELECT id, replacement_id, applicant_id, status, created_at, version
		FROM replacement_applications
		WHERE replacement_id = $1
		ORDER BY created_at, id
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, replacementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []*domain.ReplacementApplication{}
	for rows.Next() {
		var app domain.ReplacementApplication
		dst := []any{&app.ID, &app.ReplacementID, &app.ApplicantID, &app.Status, &app.CreatedAt, &app.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		apps = append(apps, &app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}

// ApproveApplication marks one application approved, rejects the other
// pending ones on the same replacement and closes the replacement, all
// in one transaction.
func (r *Repository) ApproveApplication(ctx context.Context, app *domain.ReplacementApplication) error {
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
		UPDATE replacement_applications
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND status = $4
		RETURNING version
	`
	if err := tx.QueryRowContext(tctx, query, domain.ApplicationApproved, app.ID, app.Version, domain.ApplicationPending).Scan(&app.Version); err != nil {
		return err
	}

	query = `
		UPDATE replacement_applications
		SET status = $1, version = version + 1
		WHERE replacement_id = $2 AND id <> $3 AND status = $4
	`
	if _, err := tx.ExecContext(tctx, query, domain.ApplicationRejected, app.ReplacementID, app.ID, domain.ApplicationPending); err != nil {
		return err
	}

	query = `
		UPDATE replacements
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING version
	`
	var v int32
	if err := tx.QueryRowContext(tctx, query, domain.ReplacementAssigned, app.ReplacementID, domain.ReplacementOpen).Scan(&v); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) RejectApplication(app *domain.ReplacementApplication) error {
	query := `
		UPDATE replacement_applications
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND status = $4
		RETURNING version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, domain.ApplicationRejected, app.ID, app.Version, domain.ApplicationPending).Scan(&app.Version)
}

// ExpireOverdueReplacements cancels open replacements whose application
// deadline has passed without an approval, rejects their pending
// applications and returns the cancelled replacements for notification.
func (r *Repository) ExpireOverdueReplacements(ctx context.Context, now time.Time) ([]*domain.Replacement, error) {
	tctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(tctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE replacements
		SET status = $1, version = version + 1
		WHERE status = $2 AND application_deadline < $3
		RETURNING ` + replacementColumns + `
	`

	rows, err := tx.QueryContext(tctx, query, domain.ReplacementCancelled, domain.ReplacementOpen, now)
	if err != nil {
		return nil, err
	}

	reps := []*domain.Replacement{}
	ids := []int64{}
	for rows.Next() {
		rep, err := scanReplacement(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		reps = append(reps, rep)
		ids = append(ids, rep.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) > 0 {
		query = `
			UPDATE replacement_applications
			SET status = $1, version = version + 1
			WHERE replacement_id = ANY($2) AND status = $3
		`
		if _, err := tx.ExecContext(tctx, query, domain.ApplicationRejected, ids, domain.ApplicationPending); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return reps, nil
}
