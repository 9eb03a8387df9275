package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func dayShift() *domain.Shift {
	return &domain.Shift{ID: 1, TeamID: 1, CycleDay: 1, Type: domain.ShiftTypeDay, StartTime: "07:00:00", EndTime: "17:00:00"}
}

func nightShift() *domain.Shift {
	return &domain.Shift{ID: 2, TeamID: 1, CycleDay: 1, Type: domain.ShiftTypeNight, StartTime: "19:00:00", EndTime: "07:00:00"}
}

func fullShift() *domain.Shift {
	return &domain.Shift{ID: 3, TeamID: 2, CycleDay: 1, Type: domain.ShiftTypeFull24h, StartTime: "07:00:00", EndTime: "07:00:00"}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("07:30:00")
	require.NoError(t, err)
	assert.Equal(t, 450, got)

	got, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 1439, got)

	_, err = ParseClock("25:00")
	assert.ErrorIs(t, err, ErrInvalidClock)
}

func TestShiftWindow(t *testing.T) {
	for _, tt := range []struct {
		shift *domain.Shift
		want  int
	}{
		{dayShift(), 600},
		{nightShift(), 720},
		{fullShift(), 1440},
	} {
		got, err := ShiftWindow(tt.shift)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewInterval(t *testing.T) {
	iv, err := NewInterval(dayShift(), "09:00", "12:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 120, End: 300}, iv)

	// Night shift crossing midnight stays on one linear timeline.
	iv, err = NewInterval(nightShift(), "23:00", "03:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 240, End: 480}, iv)

	// The naive string comparison "07:00" > "17:00" must not matter.
	iv, err = NewInterval(nightShift(), "19:00", "07:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 0, End: 720}, iv)
}

func TestNewIntervalWraparound(t *testing.T) {
	// On a 24h shift "end before start" means next day.
	iv, err := NewInterval(fullShift(), "22:00", "06:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 900, End: 1380}, iv)

	iv, err = NewInterval(fullShift(), "07:00", "07:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 0, End: 1440}, iv)

	// On a day shift a wrapped pair is a plain validation error.
	_, err = NewInterval(dayShift(), "12:00", "09:00")
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestNewIntervalOutsideWindow(t *testing.T) {
	_, err := NewInterval(dayShift(), "18:00", "19:00")
	assert.ErrorIs(t, err, ErrOutsideShift)
}

func TestIntervalComparisons(t *testing.T) {
	a := Interval{Start: 0, End: 300}
	b := Interval{Start: 120, End: 300}
	c := Interval{Start: 300, End: 600}

	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c)) // half-open: touching is not overlap
	assert.True(t, a.Covers(b))
	assert.False(t, b.Covers(a))
	assert.True(t, a.StartsBefore(b))
	assert.True(t, c.EndsAfter(a))
}

func TestMaterializeFullCoverage(t *testing.T) {
	window, err := ShiftWindow(dayShift())
	require.NoError(t, err)

	m := FullCoverage().Materialize(window)
	assert.Equal(t, Interval{Start: 0, End: 600}, m)
	assert.Equal(t, 10.0, m.Hours())
}

func TestClocksRoundTrip(t *testing.T) {
	shift := nightShift()

	iv, err := NewInterval(shift, "23:30", "04:00")
	require.NoError(t, err)

	start, end, err := iv.Clocks(shift)
	require.NoError(t, err)
	assert.Equal(t, "23:30:00", start)
	assert.Equal(t, "04:00:00", end)
}

func TestIntervalOf(t *testing.T) {
	full, err := IntervalOf(dayShift(), &domain.Assignment{IsPartial: false})
	require.NoError(t, err)
	assert.True(t, full.Full)

	s, e := "09:00:00", "12:00:00"
	part, err := IntervalOf(dayShift(), &domain.Assignment{IsPartial: true, StartTime: &s, EndTime: &e})
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 120, End: 300}, part)
}
