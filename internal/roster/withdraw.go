package roster

import (
	"errors"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

// ErrReplacementNotFound means the slot has no row with the requested
// replacement order.
var ErrReplacementNotFound = errors.New("no replacement row with that order")

// Withdrawal is the persisted outcome of removing one replacement row
// from a (shift, date, replaced user) slot. Remove names the row to
// delete; Promote, when a second row survives the withdrawal, is that
// row restored to sole full coverage at order 1.
type Withdrawal struct {
	Remove  *domain.Assignment
	Promote *domain.Assignment
}

// PlanWithdrawal computes the withdrawal of the given order from the
// slot's existing rows. Whichever order is withdrawn, the survivor
// takes back the whole window: a slot never holds an order-2 row
// without an order-1 row beneath it, and never a partial sole row.
func PlanWithdrawal(existing []*domain.Assignment, order int16) (*Withdrawal, error) {
	var target, survivor *domain.Assignment
	for _, a := range existing {
		if a.ReplacementOrder == nil {
			continue
		}
		if *a.ReplacementOrder == order {
			target = a
		} else {
			survivor = a
		}
	}
	if target == nil {
		return nil, ErrReplacementNotFound
	}

	w := &Withdrawal{Remove: target}
	if survivor != nil {
		promoted := *survivor
		one := int16(1)
		promoted.ReplacementOrder = &one
		promoted.IsPartial = false
		promoted.StartTime = nil
		promoted.EndTime = nil
		w.Promote = &promoted
	}

	return w, nil
}
