package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/repository"
)

// Sink records mutations for later review. Recording is best effort: a
// failed insert is logged and swallowed, the mutation it describes has
// already committed.
type Sink struct {
	repo   *repository.Repository
	logger *slog.Logger
}

func NewSink(repo *repository.Repository, logger *slog.Logger) *Sink {
	return &Sink{repo: repo, logger: logger}
}

func (s *Sink) Record(ctx context.Context, actorID int64, action, tableName string, recordID int64, oldValue, newValue any, description string) {
	entry := &domain.AuditEntry{
		ActorID:     actorID,
		Action:      action,
		TableName:   tableName,
		RecordID:    recordID,
		Description: description,
	}

	if oldValue != nil {
		if body, err := json.Marshal(oldValue); err == nil {
			entry.OldValues = body
		}
	}
	if newValue != nil {
		if body, err := json.Marshal(newValue); err == nil {
			entry.NewValues = body
		}
	}

	if err := s.repo.InsertAuditEntry(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry", "action", action, "table", tableName, "error", err.Error())
	}
}
