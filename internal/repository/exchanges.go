package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
)

const exchangeColumns = `id, requester_id, target_id,
	requester_shift_date, requester_shift_type, requester_team_id,
	target_shift_date, target_shift_type, target_team_id,
	is_partial, requester_start_time, requester_end_time, target_start_time, target_end_time,
	status, approved_by, approved_at,
	requester_assignment_id, target_assignment_id, displaced,
	created_at, version`

func scanExchange(row rowScanner) (*domain.ShiftExchange, error) {
	var ex domain.ShiftExchange
	var reqStart, reqEnd, tgtStart, tgtEnd sql.NullString
	var approvedBy, reqAssignment, tgtAssignment sql.NullInt64
	var approvedAt sql.NullTime
	var displaced []byte

	dst := []any{
		&ex.ID, &ex.RequesterID, &ex.TargetID,
		&ex.RequesterShiftDate, &ex.RequesterShiftType, &ex.RequesterTeamID,
		&ex.TargetShiftDate, &ex.TargetShiftType, &ex.TargetTeamID,
		&ex.IsPartial, &reqStart, &reqEnd, &tgtStart, &tgtEnd,
		&ex.Status, &approvedBy, &approvedAt,
		&reqAssignment, &tgtAssignment, &displaced,
		&ex.CreatedAt, &ex.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if reqStart.Valid {
		ex.RequesterStartTime = &reqStart.String
	}
	if reqEnd.Valid {
		ex.RequesterEndTime = &reqEnd.String
	}
	if tgtStart.Valid {
		ex.TargetStartTime = &tgtStart.String
	}
	if tgtEnd.Valid {
		ex.TargetEndTime = &tgtEnd.String
	}
	if approvedBy.Valid {
		ex.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		ex.ApprovedAt = &approvedAt.Time
	}
	if reqAssignment.Valid {
		ex.RequesterAssignmentID = &reqAssignment.Int64
	}
	if tgtAssignment.Valid {
		ex.TargetAssignmentID = &tgtAssignment.Int64
	}
	if len(displaced) > 0 {
		if err := json.Unmarshal(displaced, &ex.Displaced); err != nil {
			return nil, err
		}
	}

	return &ex, nil
}

func (r *Repository) CreateExchange(ex *domain.ShiftExchange) error {
	query := `
		INSERT INTO shift_exchanges (
			requester_id, target_id,
			requester_shift_date, requester_shift_type, requester_team_id,
			target_shift_date, target_shift_type, target_team_id,
			is_partial, requester_start_time, requester_end_time, target_start_time, target_end_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, status, created_at, version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	params := []any{
		ex.RequesterID, ex.TargetID,
		ex.RequesterShiftDate, ex.RequesterShiftType, ex.RequesterTeamID,
		ex.TargetShiftDate, ex.TargetShiftType, ex.TargetTeamID,
		ex.IsPartial, ex.RequesterStartTime, ex.RequesterEndTime, ex.TargetStartTime, ex.TargetEndTime,
	}
	dst := []any{&ex.ID, &ex.Status, &ex.CreatedAt, &ex.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(dst...); err != nil {
		return mapConflict(err)
	}

	return nil
}

func (r *Repository) ExchangeByID(ctx context.Context, id int64) (*domain.ShiftExchange, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM shift_exchanges WHERE id = $1
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	return scanExchange(r.dbpool.QueryRowContext(qctx, query, id))
}

func (r *Repository) GetExchangesByUser(userID int64) ([]*domain.ShiftExchange, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM shift_exchanges
		WHERE requester_id = $1 OR target_id = $1
		ORDER BY created_at DESC, id DESC
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exchanges := []*domain.ShiftExchange{}
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exchanges, nil
}

func (r *Repository) GetExchangesByStatus(status domain.ExchangeStatus) ([]*domain.ShiftExchange, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM shift_exchanges
		WHERE status = $1
		ORDER BY created_at, id
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exchanges := []*domain.ShiftExchange{}
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exchanges, nil
}

func (r *Repository) RejectExchange(id int64, version int32) error {
	query := `
		UPDATE shift_exchanges
		SET status = $1, version = version + 1
		WHERE id = $2 AND version = $3 AND status = $4
		RETURNING version
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	var v int32
	return r.dbpool.QueryRowContext(ctx, query, domain.ExchangeRejected, id, version, domain.ExchangePending).Scan(&v)
}

func (r *Repository) ExchangeCountForYear(ctx context.Context, userID int64, year int) (int, error) {
	query := `
		SELECT COALESCE(
			(SELECT count FROM exchange_counters WHERE user_id = $1 AND year = $2), 0
		)
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	var count int
	if err := r.dbpool.QueryRowContext(qctx, query, userID, year).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// ApplySwap performs the whole approval in one transaction: the
// exchange row is locked while still pending, the displaced rows are
// deleted and snapshotted onto the exchange, the two swapped rows are
// inserted and the yearly counters are bumped. Any drift between the
// coordinator's read and this transaction aborts with a conflict.
func (r *Repository) ApplySwap(ctx context.Context, swap *roster.Swap) error {
	tctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(tctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ex := swap.Exchange

	query := `
		SELECT id FROM shift_exchanges
		WHERE id = $1 AND status = $2 AND version = $3
		FOR UPDATE
	`
	var locked int64
	if err := tx.QueryRowContext(tctx, query, ex.ID, domain.ExchangePending, ex.Version).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return roster.ErrConflict
		}
		return err
	}

	query = `
		DELETE FROM assignments WHERE id = $1 AND version = $2
	`
	for _, displaced := range swap.Displaced {
		res, err := tx.ExecContext(tctx, query, displaced.ID, displaced.Version)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return roster.ErrConflict
		}
	}

	if err := upsertAssignment(tctx, tx, swap.RequesterAssignment); err != nil {
		return err
	}
	if err := upsertAssignment(tctx, tx, swap.TargetAssignment); err != nil {
		return err
	}

	snapshot := []domain.Assignment{}
	for _, displaced := range swap.Displaced {
		snapshot = append(snapshot, *displaced)
	}
	displacedJSON, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query = `
		UPDATE shift_exchanges
		SET status = $1, approved_by = $2, approved_at = $3,
			requester_assignment_id = $4, target_assignment_id = $5, displaced = $6,
			version = version + 1
		WHERE id = $7
		RETURNING approved_at, version
	`
	params := []any{
		domain.ExchangeApproved, swap.ApproverID, time.Now(),
		swap.RequesterAssignment.ID, swap.TargetAssignment.ID, displacedJSON,
		ex.ID,
	}
	var approvedAt time.Time
	if err := tx.QueryRowContext(tctx, query, params...).Scan(&approvedAt, &ex.Version); err != nil {
		return err
	}

	if err := bumpCounter(tctx, tx, ex.RequesterID, swap.RequesterCounterYear); err != nil {
		return err
	}
	if err := bumpCounter(tctx, tx, ex.TargetID, swap.TargetCounterYear); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	ex.Status = domain.ExchangeApproved
	ex.ApprovedBy = &swap.ApproverID
	ex.ApprovedAt = &approvedAt
	ex.RequesterAssignmentID = &swap.RequesterAssignment.ID
	ex.TargetAssignmentID = &swap.TargetAssignment.ID
	ex.Displaced = snapshot

	return nil
}

// RevertSwap undoes an approved swap: the two rows the approval created
// are deleted by their recorded ids, the displaced snapshots are
// restored and the counters are decremented. If either recorded row no
// longer belongs to the expected party the whole revert aborts.
func (r *Repository) RevertSwap(ctx context.Context, revert *roster.SwapRevert) error {
	tctx, cancel := r.txCtx(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(tctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ex := revert.Exchange

	query := `
		SELECT id FROM shift_exchanges
		WHERE id = $1 AND status = $2 AND version = $3
		FOR UPDATE
	`
	var locked int64
	if err := tx.QueryRowContext(tctx, query, ex.ID, domain.ExchangeApproved, ex.Version).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return roster.ErrConflict
		}
		return err
	}

	// The requester sits on the row recorded as theirs, the target on
	// the other one. A mismatch means someone edited the swapped rows
	// after approval.
	query = `
		DELETE FROM assignments WHERE id = $1 AND user_id = $2
	`
	pairs := []struct {
		assignmentID *int64
		userID       int64
	}{
		{ex.RequesterAssignmentID, ex.RequesterID},
		{ex.TargetAssignmentID, ex.TargetID},
	}
	for _, pair := range pairs {
		if pair.assignmentID == nil {
			return roster.ErrSwapStateDrift
		}
		res, err := tx.ExecContext(tctx, query, *pair.assignmentID, pair.userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return roster.ErrSwapStateDrift
		}
	}

	for i := range ex.Displaced {
		restored := ex.Displaced[i]
		if err := upsertAssignment(tctx, tx, &restored); err != nil {
			return err
		}
	}

	if err := dropCounter(tctx, tx, ex.RequesterID, revert.RequesterCounterYear); err != nil {
		return err
	}
	if err := dropCounter(tctx, tx, ex.TargetID, revert.TargetCounterYear); err != nil {
		return err
	}

	query = `
		UPDATE shift_exchanges
		SET status = $1, requester_assignment_id = NULL, target_assignment_id = NULL, displaced = NULL,
			version = version + 1
		WHERE id = $2
		RETURNING version
	`
	if err := tx.QueryRowContext(tctx, query, domain.ExchangeCancelled, ex.ID).Scan(&ex.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	ex.Status = domain.ExchangeCancelled
	ex.RequesterAssignmentID = nil
	ex.TargetAssignmentID = nil
	ex.Displaced = nil

	return nil
}

func bumpCounter(ctx context.Context, tx *sql.Tx, userID int64, year int) error {
	query := `
		INSERT INTO exchange_counters (user_id, year, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, year) DO UPDATE SET count = exchange_counters.count + 1
	`
	_, err := tx.ExecContext(ctx, query, userID, year)
	return err
}

func dropCounter(ctx context.Context, tx *sql.Tx, userID int64, year int) error {
	query := `
		UPDATE exchange_counters
		SET count = GREATEST(count - 1, 0)
		WHERE user_id = $1 AND year = $2
	`
	_, err := tx.ExecContext(ctx, query, userID, year)
	return err
}
