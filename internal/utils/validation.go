package utils

import (
	"fmt"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/roster"
)

func ValidateShift(shift *domain.Shift, cycleLengthDays int32) error {
	if shift.CycleDay < 1 || shift.CycleDay > cycleLengthDays {
		return fmt.Errorf("cycle day %d is outside the %d-day cycle", shift.CycleDay, cycleLengthDays)
	}

	start, err := roster.ParseClock(shift.StartTime)
	if err != nil {
		return fmt.Errorf("start time %q is not a valid clock time", shift.StartTime)
	}
	end, err := roster.ParseClock(shift.EndTime)
	if err != nil {
		return fmt.Errorf("end time %q is not a valid clock time", shift.EndTime)
	}

	switch shift.Type {
	case domain.ShiftTypeFull24h:
		if start != end {
			return fmt.Errorf("a 24h shift must end at its start time, got %s to %s", shift.StartTime, shift.EndTime)
		}
	case domain.ShiftTypeDay:
		if end <= start {
			return fmt.Errorf("a day shift cannot run past midnight, got %s to %s", shift.StartTime, shift.EndTime)
		}
	case domain.ShiftTypeNight:
		// Night duty runs into the next calendar day.
	default:
		return fmt.Errorf("unknown shift type %q", shift.Type)
	}

	return nil
}

// ValidatePartialWindow checks the clock strings a request carries when
// it asks for partial coverage of a shift.
func ValidatePartialWindow(shift *domain.Shift, startClock, endClock *string) error {
	if startClock == nil || endClock == nil {
		return fmt.Errorf("a partial request must carry both a start and an end time")
	}

	if _, err := roster.NewInterval(shift, *startClock, *endClock); err != nil {
		return fmt.Errorf("window %s to %s does not fit the shift: %w", *startClock, *endClock, err)
	}

	return nil
}

func ValidateApplicationDeadline(deadline, shiftDate time.Time) error {
	if !deadline.Before(shiftDate) {
		return fmt.Errorf("the application deadline must fall before the shift date")
	}
	if deadline.Before(time.Now()) {
		return fmt.Errorf("the application deadline has already passed")
	}
	return nil
}

func ValidateExchangeRequest(ex *domain.ShiftExchange) error {
	if ex.RequesterID == ex.TargetID {
		return fmt.Errorf("cannot exchange a shift with oneself")
	}

	sameInstance := ex.RequesterShiftDate.Equal(ex.TargetShiftDate) &&
		ex.RequesterShiftType == ex.TargetShiftType &&
		ex.RequesterTeamID == ex.TargetTeamID
	if sameInstance {
		return fmt.Errorf("both sides of the exchange name the same shift instance")
	}

	if ex.IsPartial {
		if ex.RequesterStartTime == nil || ex.RequesterEndTime == nil || ex.TargetStartTime == nil || ex.TargetEndTime == nil {
			return fmt.Errorf("a partial exchange must carry start and end times for both sides")
		}
	}

	return nil
}
