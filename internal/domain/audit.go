package domain

import (
	"encoding/json"
	"time"
)

type AuditEntry struct {
	ID          string          `json:"id"`
	ActorID     int64           `json:"actorID"`
	Action      string          `json:"action"`
	TableName   string          `json:"tableName"`
	RecordID    int64           `json:"recordID"`
	OldValues   json.RawMessage `json:"oldValues,omitempty"`
	NewValues   json.RawMessage `json:"newValues,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}
