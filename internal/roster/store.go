package roster

import (
	"context"
	"errors"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

// ErrConflict surfaces a constraint violation or a concurrent mutation
// of the same slot. Callers retry the whole operation.
var ErrConflict = errors.New("conflicting concurrent mutation")

// AssignmentStore is the persistence surface the resolver and the
// direct-assignment flow depend on. Multi-row methods run in a single
// transaction: either every statement commits or none does.
type AssignmentStore interface {
	// ReplacementAssignments returns the existing rows for one
	// (shift, date, replaced user) slot, ordered by replacement order.
	ReplacementAssignments(ctx context.Context, shiftID int64, date time.Time, replacedUserID int64) ([]*domain.Assignment, error)
	// ApplyResolution deletes both order rows of the slot and
	// re-inserts them from the resolution, atomically.
	ApplyResolution(ctx context.Context, res *Resolution) error
	// UpsertAssignment matches by (shift, user, date) and inserts or
	// updates; re-applying the same upsert yields one row, not two.
	UpsertAssignment(ctx context.Context, a *domain.Assignment) error
	// DeleteReplacement removes one order row and promotes the
	// surviving row, if any, back to sole full coverage at order 1.
	DeleteReplacement(ctx context.Context, shiftID int64, date time.Time, replacedUserID int64, order int16) error
}

// ExchangeStore is the persistence surface of the swap coordinator.
type ExchangeStore interface {
	ExchangeByID(ctx context.Context, id int64) (*domain.ShiftExchange, error)
	// ShiftFor resolves the shift serving (team, shift type) on the
	// given date, confirming the date falls on that shift's cycle day.
	ShiftFor(ctx context.Context, teamID int64, shiftType domain.ShiftType, date time.Time) (*domain.Shift, error)
	// AssignmentsForUsers lists existing assignment rows for any of the
	// users on one shift instance.
	AssignmentsForUsers(ctx context.Context, shiftID int64, date time.Time, userIDs []int64) ([]*domain.Assignment, error)
	ExchangeCountForYear(ctx context.Context, userID int64, year int) (int, error)
	// ApplySwap performs the whole approval in one transaction.
	ApplySwap(ctx context.Context, swap *Swap) error
	// RevertSwap undoes an approved swap in one transaction, aborting
	// entirely if the swapped rows have drifted.
	RevertSwap(ctx context.Context, revert *SwapRevert) error
}
