package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, actor_id, action, table_name, record_id, old_values, new_values, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	qctx, cancel := r.queryCtx(ctx)
	defer cancel()

	entry.ID = uuid.NewString()

	params := []any{entry.ID, entry.ActorID, entry.Action, entry.TableName, entry.RecordID, []byte(entry.OldValues), []byte(entry.NewValues), entry.Description}
	return r.dbpool.QueryRowContext(qctx, query, params...).Scan(&entry.CreatedAt)
}

func (r *Repository) GetAuditEntries(limit int) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, actor_id, action, table_name, record_id, old_values, new_values, description, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		var entry domain.AuditEntry
		var oldValues, newValues []byte
		dst := []any{&entry.ID, &entry.ActorID, &entry.Action, &entry.TableName, &entry.RecordID, &oldValues, &newValues, &entry.Description, &entry.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entry.OldValues = oldValues
		entry.NewValues = newValues
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
