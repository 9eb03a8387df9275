package roster

import (
	"context"
	"errors"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

var (
	ErrExchangeNotPending  = errors.New("exchange is not pending")
	ErrExchangeNotApproved = errors.New("exchange is not approved")
	// ErrSwapStateDrift means the rows an approval created can no
	// longer be located as recorded; the cancellation aborts rather
	// than partially reverting.
	ErrSwapStateDrift = errors.New("swapped assignments no longer match the exchange record")
	ErrSwapFailed     = errors.New("swap could not be applied")
)

// Swap is the complete write set of an exchange approval, applied by
// the store in one transaction.
type Swap struct {
	Exchange   *domain.ShiftExchange
	ApproverID int64

	RequesterShift *domain.Shift
	TargetShift    *domain.Shift

	// Displaced are the pre-existing rows for either party on either
	// shift. They are deleted and snapshotted onto the exchange so a
	// cancellation can restore the exact pre-approval state.
	Displaced []*domain.Assignment

	// RequesterAssignment puts the requester on the target's slot and
	// vice versa.
	RequesterAssignment *domain.Assignment
	TargetAssignment    *domain.Assignment

	RequesterCounterYear int
	TargetCounterYear    int
}

type SwapRevert struct {
	Exchange *domain.ShiftExchange
	ActorID  int64

	RequesterCounterYear int
	TargetCounterYear    int
}

type CounterWarning struct {
	UserID int64 `json:"userID"`
	Count  int   `json:"count"`
}

// SwapOutcome reports an approval. When Exceeded is set the guard
// refused the swap and nothing was written.
type SwapOutcome struct {
	Exceeded *ConsecutiveHoursExceeded `json:"exceeded,omitempty"`
	Warnings []CounterWarning          `json:"warnings,omitempty"`
}

// Coordinator orchestrates the atomic two-person shift swap.
type Coordinator struct {
	store         ExchangeStore
	hours         *HoursChecker
	warnThreshold int
}

func NewCoordinator(store ExchangeStore, hours *HoursChecker, warnThreshold int) *Coordinator {
	return &Coordinator{store: store, hours: hours, warnThreshold: warnThreshold}
}

// CounterYears derives the per-year counter buckets of an exchange:
// each party's counter is bumped for the year of the duty date they
// take over.
func CounterYears(ex *domain.ShiftExchange) (requesterYear, targetYear int) {
	return ex.TargetShiftDate.Year(), ex.RequesterShiftDate.Year()
}

// Approve validates and applies a pending exchange. The hours guard
// checks both parties in their new slots; force bypasses it. The write
// set commits in one transaction or not at all.
func (c *Coordinator) Approve(ctx context.Context, exchangeID, approverID int64, force bool) (*SwapOutcome, error) {
	ex, err := c.store.ExchangeByID(ctx, exchangeID)
	if err != nil {
		return nil, err
	}
	if ex.Status != domain.ExchangePending {
		return nil, ErrExchangeNotPending
	}

	reqShift, err := c.store.ShiftFor(ctx, ex.RequesterTeamID, ex.RequesterShiftType, ex.RequesterShiftDate)
	if err != nil {
		return nil, err
	}
	tgtShift, err := c.store.ShiftFor(ctx, ex.TargetTeamID, ex.TargetShiftType, ex.TargetShiftDate)
	if err != nil {
		return nil, err
	}

	reqIv, err := exchangeInterval(reqShift, ex.IsPartial, ex.RequesterStartTime, ex.RequesterEndTime)
	if err != nil {
		return nil, err
	}
	tgtIv, err := exchangeInterval(tgtShift, ex.IsPartial, ex.TargetStartTime, ex.TargetEndTime)
	if err != nil {
		return nil, err
	}

	if !force {
		// The requester steps into the target's slot and vice versa.
		if exceeded, err := c.checkParty(ctx, ex.RequesterID, tgtShift, ex.TargetShiftDate, tgtIv); err != nil {
			return nil, err
		} else if exceeded != nil {
			return &SwapOutcome{Exceeded: exceeded}, nil
		}
		if exceeded, err := c.checkParty(ctx, ex.TargetID, reqShift, ex.RequesterShiftDate, reqIv); err != nil {
			return nil, err
		} else if exceeded != nil {
			return &SwapOutcome{Exceeded: exceeded}, nil
		}
	}

	displaced, err := c.displacedRows(ctx, ex, reqShift, tgtShift)
	if err != nil {
		return nil, err
	}

	reqYear, tgtYear := CounterYears(ex)
	swap := &Swap{
		Exchange:             ex,
		ApproverID:           approverID,
		RequesterShift:       reqShift,
		TargetShift:          tgtShift,
		Displaced:            displaced,
		RequesterAssignment:  swapAssignment(tgtShift, ex.TargetShiftDate, ex.RequesterID, ex.TargetID, ex.IsPartial, ex.TargetStartTime, ex.TargetEndTime),
		TargetAssignment:     swapAssignment(reqShift, ex.RequesterShiftDate, ex.TargetID, ex.RequesterID, ex.IsPartial, ex.RequesterStartTime, ex.RequesterEndTime),
		RequesterCounterYear: reqYear,
		TargetCounterYear:    tgtYear,
	}

	if err := c.store.ApplySwap(ctx, swap); err != nil {
		return nil, err
	}

	outcome := &SwapOutcome{}
	for _, p := range []struct {
		userID int64
		year   int
	}{{ex.RequesterID, reqYear}, {ex.TargetID, tgtYear}} {
		count, err := c.store.ExchangeCountForYear(ctx, p.userID, p.year)
		if err != nil {
			// The swap is already committed; a failed counter read only
			// costs the soft warning.
			continue
		}
		if count >= c.warnThreshold {
			outcome.Warnings = append(outcome.Warnings, CounterWarning{UserID: p.userID, Count: count})
		}
	}

	return outcome, nil
}

// Cancel reverts an approved swap exactly: the two recorded rows are
// deleted, the displaced originals re-inserted, the counters
// decremented and the exchange marked cancelled, all in one
// transaction.
func (c *Coordinator) Cancel(ctx context.Context, exchangeID, actorID int64) error {
	ex, err := c.store.ExchangeByID(ctx, exchangeID)
	if err != nil {
		return err
	}
	if ex.Status != domain.ExchangeApproved {
		return ErrExchangeNotApproved
	}
	if ex.RequesterAssignmentID == nil || ex.TargetAssignmentID == nil {
		return ErrSwapStateDrift
	}

	reqYear, tgtYear := CounterYears(ex)
	return c.store.RevertSwap(ctx, &SwapRevert{
		Exchange:             ex,
		ActorID:              actorID,
		RequesterCounterYear: reqYear,
		TargetCounterYear:    tgtYear,
	})
}

func (c *Coordinator) checkParty(ctx context.Context, userID int64, shift *domain.Shift, date time.Time, iv Interval) (*ConsecutiveHoursExceeded, error) {
	span, err := DutySpan(shift, date, iv)
	if err != nil {
		return nil, err
	}
	check, err := c.hours.Check(ctx, userID, span)
	if err != nil {
		return nil, err
	}
	if check.Exceeds {
		return &ConsecutiveHoursExceeded{UserID: userID, Hours: check.TotalHours}, nil
	}
	return nil, nil
}

// displacedRows collects every pre-existing assignment for either
// party on either shift. Both shift instances may be the same slot.
func (c *Coordinator) displacedRows(ctx context.Context, ex *domain.ShiftExchange, reqShift, tgtShift *domain.Shift) ([]*domain.Assignment, error) {
	users := []int64{ex.RequesterID, ex.TargetID}

	rows, err := c.store.AssignmentsForUsers(ctx, reqShift.ID, ex.RequesterShiftDate, users)
	if err != nil {
		return nil, err
	}

	if tgtShift.ID != reqShift.ID || !TruncateToDate(ex.TargetShiftDate).Equal(TruncateToDate(ex.RequesterShiftDate)) {
		more, err := c.store.AssignmentsForUsers(ctx, tgtShift.ID, ex.TargetShiftDate, users)
		if err != nil {
			return nil, err
		}
		rows = append(rows, more...)
	}

	return rows, nil
}

func exchangeInterval(shift *domain.Shift, partial bool, start, end *string) (Interval, error) {
	if !partial || start == nil || end == nil {
		return FullCoverage(), nil
	}
	return NewInterval(shift, *start, *end)
}

func swapAssignment(shift *domain.Shift, date time.Time, userID, replacedUserID int64, partial bool, start, end *string) *domain.Assignment {
	order := int16(1)
	a := &domain.Assignment{
		ShiftID:          shift.ID,
		UserID:           userID,
		ShiftDate:        TruncateToDate(date),
		ReplacedUserID:   &replacedUserID,
		ReplacementOrder: &order,
	}
	if partial && start != nil && end != nil {
		a.IsPartial = true
		a.StartTime = start
		a.EndTime = end
	}
	return a
}
