package roster

import (
	"errors"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

var (
	ErrInvalidCycleLength = errors.New("cycle length must be positive")
	ErrInvalidCycleDay    = errors.New("cycle day is outside the cycle")
)

// TruncateToDate strips the time-of-day and timezone from t. All cycle
// arithmetic happens on UTC midnights so that DST transitions and
// local-time parsing can never shift a date across a day boundary.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CycleDayOf maps a calendar date onto its 1-based position in the
// repeating duty cycle. Dates before the cycle start still map into
// [1, cycleLengthDays] via a true modulo.
func CycleDayOf(date time.Time, cycleStart time.Time, cycleLengthDays int32) (int32, error) {
	if cycleLengthDays <= 0 {
		return 0, ErrInvalidCycleLength
	}

	days := daysBetween(TruncateToDate(cycleStart), TruncateToDate(date))
	m := days % int64(cycleLengthDays)
	if m < 0 {
		m += int64(cycleLengthDays)
	}

	return int32(m) + 1, nil
}

// CycleDayOfConfig is CycleDayOf keyed by the active cycle config.
func CycleDayOfConfig(date time.Time, cfg *domain.CycleConfig) (int32, error) {
	return CycleDayOf(date, cfg.StartDate, cfg.CycleLengthDays)
}

// DatesForCycleDay enumerates, in ascending order, every calendar date
// in [rangeStart, rangeEnd] (inclusive, date granularity) that falls on
// the given cycle day. Pure function of its inputs.
func DatesForCycleDay(cycleDay int32, cycleStart time.Time, cycleLengthDays int32, rangeStart, rangeEnd time.Time) ([]time.Time, error) {
	if cycleLengthDays <= 0 {
		return nil, ErrInvalidCycleLength
	}
	if cycleDay < 1 || cycleDay > cycleLengthDays {
		return nil, ErrInvalidCycleDay
	}

	first := TruncateToDate(rangeStart)
	last := TruncateToDate(rangeEnd)

	cur, err := CycleDayOf(first, cycleStart, cycleLengthDays)
	if err != nil {
		return nil, err
	}

	offset := int64(cycleDay) - int64(cur)
	if offset < 0 {
		offset += int64(cycleLengthDays)
	}

	dates := []time.Time{}
	for d := first.AddDate(0, 0, int(offset)); !d.After(last); d = d.AddDate(0, 0, int(cycleLengthDays)) {
		dates = append(dates, d)
	}

	return dates, nil
}

// daysBetween counts whole days from a to b. Both arguments must
// already be UTC midnights, which makes the division exact.
func daysBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / (24 * time.Hour))
}
