package roster

import (
	"context"
	"errors"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

// ErrSlotFullyLayered rejects a replacement for a slot whose order-1
// and order-2 rows are both taken. The resolver only reasons about one
// existing row, so layering onto a full slot would silently drop the
// order-2 holder; the caller has to withdraw one of the rows first.
var ErrSlotFullyLayered = errors.New("both replacement orders of the slot are already taken")

// Assigner runs the direct-assignment flow: consecutive-hours guard,
// then either a plain upsert or, when the slot already has coverage,
// the overlap resolver.
type Assigner struct {
	store AssignmentStore
	hours *HoursChecker
}

func NewAssigner(store AssignmentStore, hours *HoursChecker) *Assigner {
	return &Assigner{store: store, hours: hours}
}

type DirectAssignmentInput struct {
	Shift            *domain.Shift
	Date             time.Time
	ReplacedUserID   *int64 // nil = extra firefighter slot
	AssigneeID       int64
	Interval         *Interval // nil = full coverage
	ActingLieutenant bool
	ActingCaptain    bool
	IsDirect         bool
	Force            bool
}

type DirectAssignmentResult struct {
	// HoursExceeded is set when the guard refused the assignment;
	// nothing was written in that case.
	HoursExceeded *ConsecutiveHoursExceeded
	Assignment    *domain.Assignment
	// Resolution is set when a second replacement was layered onto
	// existing coverage.
	Resolution *Resolution
}

func (as *Assigner) CreateDirectAssignment(ctx context.Context, in DirectAssignmentInput) (*DirectAssignmentResult, error) {
	iv := FullCoverage()
	if in.Interval != nil {
		iv = *in.Interval
	}

	if !in.Force {
		span, err := DutySpan(in.Shift, in.Date, iv)
		if err != nil {
			return nil, err
		}
		check, err := as.hours.Check(ctx, in.AssigneeID, span)
		if err != nil {
			return nil, err
		}
		if check.Exceeds {
			return &DirectAssignmentResult{
				HoursExceeded: &ConsecutiveHoursExceeded{UserID: in.AssigneeID, Hours: check.TotalHours},
			}, nil
		}
	}

	if in.ReplacedUserID == nil {
		return as.upsertExtra(ctx, in, iv)
	}

	existing, err := as.store.ReplacementAssignments(ctx, in.Shift.ID, in.Date, *in.ReplacedUserID)
	if err != nil {
		return nil, err
	}

	var r1 *domain.Assignment
	for _, a := range existing {
		if a.ReplacementOrder == nil {
			continue
		}
		if *a.ReplacementOrder == 2 {
			return nil, ErrSlotFullyLayered
		}
		if *a.ReplacementOrder == 1 {
			r1 = a
		}
	}

	res, err := ResolveSecondReplacement(in.Shift, in.Date, *in.ReplacedUserID, r1, in.AssigneeID, iv)
	if err != nil {
		return nil, err
	}
	res.R2.IsDirect = in.IsDirect
	res.R2.ActingLieutenant = in.ActingLieutenant
	res.R2.ActingCaptain = in.ActingCaptain

	if err := as.store.ApplyResolution(ctx, res); err != nil {
		return nil, err
	}

	return &DirectAssignmentResult{Assignment: res.R2, Resolution: res}, nil
}

func (as *Assigner) upsertExtra(ctx context.Context, in DirectAssignmentInput, iv Interval) (*DirectAssignmentResult, error) {
	a := &domain.Assignment{
		ShiftID:          in.Shift.ID,
		UserID:           in.AssigneeID,
		ShiftDate:        TruncateToDate(in.Date),
		IsExtra:          true,
		IsDirect:         in.IsDirect,
		ActingLieutenant: in.ActingLieutenant,
		ActingCaptain:    in.ActingCaptain,
	}

	if !iv.Full {
		start, end, err := iv.Clocks(in.Shift)
		if err != nil {
			return nil, err
		}
		a.IsPartial = true
		a.StartTime = &start
		a.EndTime = &end
	}

	if err := as.store.UpsertAssignment(ctx, a); err != nil {
		return nil, err
	}

	return &DirectAssignmentResult{Assignment: a}, nil
}
