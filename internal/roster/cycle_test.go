package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCycleDayOf(t *testing.T) {
	start := date(2024, time.January, 1)

	tests := []struct {
		name   string
		d      time.Time
		length int32
		want   int32
	}{
		{"epoch is day one", start, 28, 1},
		{"second day", date(2024, time.January, 2), 28, 2},
		{"last day of first cycle", date(2024, time.January, 28), 28, 28},
		{"wraps to day one", date(2024, time.January, 29), 28, 1},
		{"day before epoch is last day", date(2023, time.December, 31), 28, 28},
		{"far before epoch", date(2023, time.January, 1), 28, 28}, // 365 days back, 365 mod 28 = 1
		{"length one always day one", date(2031, time.July, 14), 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CycleDayOf(tt.d, start, tt.length)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCycleDayOfRejectsNonPositiveLength(t *testing.T) {
	_, err := CycleDayOf(date(2024, time.March, 1), date(2024, time.January, 1), 0)
	assert.ErrorIs(t, err, ErrInvalidCycleLength)
}

func TestCycleDayOfAlwaysInRange(t *testing.T) {
	start := date(2024, time.February, 10)
	const length = int32(12)

	d := date(2022, time.June, 1)
	for i := 0; i < 1200; i++ {
		got, err := CycleDayOf(d, start, length)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, int32(1))
		assert.LessOrEqual(t, got, length)
		d = d.AddDate(0, 0, 1)
	}
}

func TestCycleDayOfIsPeriodic(t *testing.T) {
	start := date(2024, time.January, 1)
	const length = int32(28)

	d := date(2023, time.September, 3)
	for i := 0; i < 100; i++ {
		a, err := CycleDayOf(d, start, length)
		require.NoError(t, err)
		b, err := CycleDayOf(d.AddDate(0, 0, int(length)), start, length)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		d = d.AddDate(0, 0, 7)
	}
}

func TestCycleDayOfIgnoresTimeOfDayAndZone(t *testing.T) {
	start := date(2024, time.January, 1)
	budapest, err := time.LoadLocation("Europe/Budapest")
	require.NoError(t, err)

	// Same calendar date expressed with various times and zones,
	// including one inside the DST transition.
	variants := []time.Time{
		time.Date(2024, time.March, 31, 0, 30, 0, 0, budapest),
		time.Date(2024, time.March, 31, 3, 0, 0, 0, budapest),
		time.Date(2024, time.March, 31, 23, 59, 59, 0, budapest),
		time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC),
	}

	want, err := CycleDayOf(date(2024, time.March, 31), start, 28)
	require.NoError(t, err)
	for _, v := range variants {
		got, err := CycleDayOf(v, start, 28)
		require.NoError(t, err)
		assert.Equal(t, want, got, "variant %s", v)
	}
}

func TestDatesForCycleDay(t *testing.T) {
	start := date(2024, time.January, 1)

	got, err := DatesForCycleDay(3, start, 28, date(2024, time.January, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 3),
		date(2024, time.January, 31),
		date(2024, time.February, 28),
		date(2024, time.March, 27),
	}, got)

	// Every enumerated date maps back onto the requested cycle day.
	for _, d := range got {
		day, err := CycleDayOf(d, start, 28)
		require.NoError(t, err)
		assert.Equal(t, int32(3), day)
	}
}

func TestDatesForCycleDayEmptyRange(t *testing.T) {
	start := date(2024, time.January, 1)

	got, err := DatesForCycleDay(5, start, 28, date(2024, time.January, 6), date(2024, time.January, 10))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDatesForCycleDayIsRestartable(t *testing.T) {
	start := date(2024, time.January, 1)

	a, err := DatesForCycleDay(7, start, 14, date(2023, time.November, 1), date(2024, time.February, 1))
	require.NoError(t, err)
	b, err := DatesForCycleDay(7, start, 14, date(2023, time.November, 1), date(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDatesForCycleDayValidation(t *testing.T) {
	start := date(2024, time.January, 1)

	_, err := DatesForCycleDay(0, start, 28, start, start)
	assert.ErrorIs(t, err, ErrInvalidCycleDay)

	_, err = DatesForCycleDay(29, start, 28, start, start)
	assert.ErrorIs(t, err, ErrInvalidCycleDay)

	_, err = DatesForCycleDay(1, start, 0, start, start)
	assert.ErrorIs(t, err, ErrInvalidCycleLength)
}
