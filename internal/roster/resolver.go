package roster

import (
	"errors"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

// ErrMiddleInsertion is the policy rejection for a second replacement
// strictly inside the first one's coverage. Splitting one person's
// coverage into two disjoint pieces is disallowed as a product rule;
// the caller has to pick a boundary-touching interval instead.
var ErrMiddleInsertion = errors.New("replacement lies strictly inside the existing coverage")

// OverlapOutcome classifies how a new replacement interval (R2) relates
// to the existing one (R1). Exactly one outcome applies to any pair.
type OverlapOutcome int

const (
	OutcomeNoExistingR1 OverlapOutcome = iota
	OutcomeNoOverlap
	OutcomeFullCover
	OutcomeStartCover
	OutcomeEndCover
	OutcomeMiddleRejected
)

func (o OverlapOutcome) String() string {
	switch o {
	case OutcomeNoExistingR1:
		return "no_existing_r1"
	case OutcomeNoOverlap:
		return "no_overlap"
	case OutcomeFullCover:
		return "full_cover"
	case OutcomeStartCover:
		return "start_cover"
	case OutcomeEndCover:
		return "end_cover"
	case OutcomeMiddleRejected:
		return "middle_rejected"
	}
	return "unknown"
}

// Resolution is the complete new persisted state for one
// (shift, date, replaced user) slot. The store applies it in a single
// transaction: both order rows are deleted and re-inserted from this
// struct, never mutated in place, which keeps the operation idempotent.
type Resolution struct {
	Outcome        OverlapOutcome
	ShiftID        int64
	ShiftDate      time.Time
	ReplacedUserID *int64

	// R1 is the re-derived first replacement; nil when it was absent or
	// fully covered. R2 is always present.
	R1 *domain.Assignment
	R2 *domain.Assignment
}

// Classify applies the resolver policy in order, first match wins.
// Both intervals must be materialized. A nil r1 means no existing
// replacement covers the slot.
func Classify(r1 *Interval, r2 Interval) OverlapOutcome {
	switch {
	case r1 == nil:
		return OutcomeNoExistingR1
	case r2.Start >= r1.End || r2.End <= r1.Start:
		return OutcomeNoOverlap
	case r2.Start <= r1.Start && r2.End >= r1.End:
		return OutcomeFullCover
	case r2.Start <= r1.Start && r2.End < r1.End:
		return OutcomeStartCover
	case r2.Start > r1.Start && r2.End >= r1.End:
		return OutcomeEndCover
	default:
		return OutcomeMiddleRejected
	}
}

// ResolveSecondReplacement layers a new replacement interval onto the
// existing coverage of (shift, date, replacedUserID) and computes the
// resulting non-overlapping interval set. It only computes; all writes
// go through AssignmentStore.ApplyResolution.
func ResolveSecondReplacement(shift *domain.Shift, date time.Time, replacedUserID int64, existingR1 *domain.Assignment, newAssigneeID int64, newInterval Interval) (*Resolution, error) {
	window, err := ShiftWindow(shift)
	if err != nil {
		return nil, err
	}

	var r1iv *Interval
	if existingR1 != nil {
		iv, err := IntervalOf(shift, existingR1)
		if err != nil {
			return nil, err
		}
		m := iv.Materialize(window)
		r1iv = &m
	}
	r2iv := newInterval.Materialize(window)
	if r2iv.Start < 0 || r2iv.End > window || r2iv.Start >= r2iv.End {
		return nil, ErrInvalidInterval
	}

	res := &Resolution{
		Outcome:        Classify(r1iv, r2iv),
		ShiftID:        shift.ID,
		ShiftDate:      TruncateToDate(date),
		ReplacedUserID: &replacedUserID,
	}

	switch res.Outcome {
	case OutcomeNoExistingR1:
		// The order-1 slot is always occupied first, so a lone
		// replacement is promoted to act as the sole one.
		res.R2, err = buildReplacement(shift, res, newAssigneeID, r2iv, window, 1, nil)
	case OutcomeNoOverlap:
		res.R1, err = buildReplacement(shift, res, existingR1.UserID, *r1iv, window, 1, existingR1)
		if err == nil {
			res.R2, err = buildReplacement(shift, res, newAssigneeID, r2iv, window, 2, nil)
		}
	case OutcomeFullCover:
		// R1 has zero residual coverage and is dropped entirely.
		res.R2, err = buildReplacement(shift, res, newAssigneeID, r2iv, window, 1, nil)
	case OutcomeStartCover:
		res.R1, err = buildReplacement(shift, res, existingR1.UserID, Interval{Start: r2iv.End, End: r1iv.End}, window, 1, existingR1)
		if err == nil {
			res.R2, err = buildReplacement(shift, res, newAssigneeID, r2iv, window, 2, nil)
		}
	case OutcomeEndCover:
		res.R1, err = buildReplacement(shift, res, existingR1.UserID, Interval{Start: r1iv.Start, End: r2iv.Start}, window, 1, existingR1)
		if err == nil {
			res.R2, err = buildReplacement(shift, res, newAssigneeID, r2iv, window, 2, nil)
		}
	case OutcomeMiddleRejected:
		return res, ErrMiddleInsertion
	}
	if err != nil {
		return nil, err
	}

	return res, nil
}

// buildReplacement re-derives an assignment row from scratch. Acting
// designations of a shrunk R1 carry over from the previous row.
func buildReplacement(shift *domain.Shift, res *Resolution, userID int64, iv Interval, window int, order int16, prev *domain.Assignment) (*domain.Assignment, error) {
	a := &domain.Assignment{
		ShiftID:          res.ShiftID,
		UserID:           userID,
		ShiftDate:        res.ShiftDate,
		ReplacedUserID:   res.ReplacedUserID,
		ReplacementOrder: &order,
	}
	if prev != nil {
		a.IsDirect = prev.IsDirect
		a.ActingLieutenant = prev.ActingLieutenant
		a.ActingCaptain = prev.ActingCaptain
	}

	if iv.Start == 0 && iv.End == window {
		return a, nil
	}

	start, end, err := iv.Clocks(shift)
	if err != nil {
		return nil, err
	}
	a.IsPartial = true
	a.StartTime = &start
	a.EndTime = &end

	return a, nil
}
