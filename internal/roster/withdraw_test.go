package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func layeredSlot(shift *domain.Shift) []*domain.Assignment {
	r1 := partialR1(shift, 11, 42, "07:00:00", "12:00:00")
	r1.ID = 101
	r2 := partialR1(shift, 22, 42, "12:00:00", "17:00:00")
	r2.ID = 102
	r2.ReplacementOrder = ptr(int16(2))
	return []*domain.Assignment{r1, r2}
}

func TestPlanWithdrawalOrderTwoRestoresFirst(t *testing.T) {
	rows := layeredSlot(dayShift())

	w, err := PlanWithdrawal(rows, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(102), w.Remove.ID)
	require.NotNil(t, w.Promote)
	assert.Equal(t, int64(101), w.Promote.ID)
	assert.Equal(t, int16(1), *w.Promote.ReplacementOrder)
	assert.False(t, w.Promote.IsPartial)
	assert.Nil(t, w.Promote.StartTime)
	assert.Nil(t, w.Promote.EndTime)
}

func TestPlanWithdrawalOrderOnePromotesSecond(t *testing.T) {
	rows := layeredSlot(dayShift())

	w, err := PlanWithdrawal(rows, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(101), w.Remove.ID)
	require.NotNil(t, w.Promote)
	assert.Equal(t, int64(102), w.Promote.ID)
	assert.Equal(t, int64(22), w.Promote.UserID)
	assert.Equal(t, int16(1), *w.Promote.ReplacementOrder)
	assert.False(t, w.Promote.IsPartial)
	assert.Nil(t, w.Promote.StartTime)
	assert.Nil(t, w.Promote.EndTime)

	// The stored row is promoted through a copy, not mutated in place.
	assert.Equal(t, int16(2), *rows[1].ReplacementOrder)
	assert.True(t, rows[1].IsPartial)
}

func TestPlanWithdrawalSoleRow(t *testing.T) {
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "12:00:00")
	r1.ID = 101

	w, err := PlanWithdrawal([]*domain.Assignment{r1}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(101), w.Remove.ID)
	assert.Nil(t, w.Promote)
}

func TestPlanWithdrawalMissingOrder(t *testing.T) {
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "12:00:00")

	_, err := PlanWithdrawal([]*domain.Assignment{r1}, 2)
	assert.ErrorIs(t, err, ErrReplacementNotFound)

	_, err = PlanWithdrawal(nil, 1)
	assert.ErrorIs(t, err, ErrReplacementNotFound)
}

func TestPlanWithdrawalIgnoresExtraRows(t *testing.T) {
	shift := dayShift()
	extra := &domain.Assignment{
		ShiftID:   shift.ID,
		UserID:    33,
		ShiftDate: date(2024, time.May, 6),
		IsExtra:   true,
	}
	r1 := partialR1(shift, 11, 42, "07:00:00", "12:00:00")
	r1.ID = 101

	w, err := PlanWithdrawal([]*domain.Assignment{extra, r1}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(101), w.Remove.ID)
	assert.Nil(t, w.Promote)
}
