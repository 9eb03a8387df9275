package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func dayShift() *domain.Shift {
	return &domain.Shift{TeamID: 1, CycleDay: 3, Type: domain.ShiftTypeDay, StartTime: "07:00:00", EndTime: "17:00:00"}
}

func TestValidateShift(t *testing.T) {
	require.NoError(t, ValidateShift(dayShift(), 28))

	night := &domain.Shift{TeamID: 1, CycleDay: 5, Type: domain.ShiftTypeNight, StartTime: "19:00:00", EndTime: "07:00:00"}
	require.NoError(t, ValidateShift(night, 28))

	full := &domain.Shift{TeamID: 1, CycleDay: 1, Type: domain.ShiftTypeFull24h, StartTime: "07:00:00", EndTime: "07:00:00"}
	require.NoError(t, ValidateShift(full, 28))
}

func TestValidateShiftRejectsBadCycleDay(t *testing.T) {
	s := dayShift()
	s.CycleDay = 0
	require.Error(t, ValidateShift(s, 28))

	s.CycleDay = 29
	require.Error(t, ValidateShift(s, 28))
}

func TestValidateShiftRejectsWrappingDayShift(t *testing.T) {
	s := dayShift()
	s.StartTime = "19:00:00"
	s.EndTime = "07:00:00"
	require.Error(t, ValidateShift(s, 28))
}

func TestValidateShiftRejectsUnbalanced24h(t *testing.T) {
	s := &domain.Shift{TeamID: 1, CycleDay: 1, Type: domain.ShiftTypeFull24h, StartTime: "07:00:00", EndTime: "08:00:00"}
	require.Error(t, ValidateShift(s, 28))
}

func TestValidateShiftRejectsBadClock(t *testing.T) {
	s := dayShift()
	s.StartTime = "25:00:00"
	require.Error(t, ValidateShift(s, 28))
}

func TestValidatePartialWindow(t *testing.T) {
	start, end := "09:00:00", "12:00:00"
	require.NoError(t, ValidatePartialWindow(dayShift(), &start, &end))

	require.Error(t, ValidatePartialWindow(dayShift(), nil, &end))
	require.Error(t, ValidatePartialWindow(dayShift(), &start, nil))

	past := "18:00:00"
	require.Error(t, ValidatePartialWindow(dayShift(), &start, &past))
}

func TestValidateApplicationDeadline(t *testing.T) {
	shiftDate := time.Now().AddDate(0, 0, 7)

	require.NoError(t, ValidateApplicationDeadline(shiftDate.Add(-24*time.Hour), shiftDate))
	require.Error(t, ValidateApplicationDeadline(shiftDate.Add(time.Hour), shiftDate))
	require.Error(t, ValidateApplicationDeadline(time.Now().Add(-time.Hour), shiftDate))
}

func TestValidateExchangeRequest(t *testing.T) {
	base := func() *domain.ShiftExchange {
		return &domain.ShiftExchange{
			RequesterID:        1,
			TargetID:           2,
			RequesterShiftDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			RequesterShiftType: domain.ShiftTypeDay,
			RequesterTeamID:    1,
			TargetShiftDate:    time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
			TargetShiftType:    domain.ShiftTypeDay,
			TargetTeamID:       2,
		}
	}

	require.NoError(t, ValidateExchangeRequest(base()))

	self := base()
	self.TargetID = 1
	require.Error(t, ValidateExchangeRequest(self))

	same := base()
	same.TargetShiftDate = same.RequesterShiftDate
	same.TargetTeamID = same.RequesterTeamID
	require.Error(t, ValidateExchangeRequest(same))

	partial := base()
	partial.IsPartial = true
	require.Error(t, ValidateExchangeRequest(partial))

	clock := "09:00:00"
	partial.RequesterStartTime, partial.RequesterEndTime = &clock, &clock
	partial.TargetStartTime, partial.TargetEndTime = &clock, &clock
	require.NoError(t, ValidateExchangeRequest(partial))
}
