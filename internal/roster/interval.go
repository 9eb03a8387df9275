package roster

import (
	"errors"
	"fmt"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

const minutesPerDay = 24 * 60

var (
	ErrInvalidClock    = errors.New("invalid clock time")
	ErrInvalidInterval = errors.New("interval end must be after its start")
	ErrOutsideShift    = errors.New("interval lies outside the shift's published window")
)

// Interval is a half-open coverage range [Start, End) measured in
// minutes from the shift's published start. Anchoring at the shift
// start puts wraparound shifts on one linear timeline, so comparisons
// never happen on raw clock strings. Full means the whole published
// window; Start/End are only meaningful once materialized.
type Interval struct {
	Full  bool
	Start int
	End   int
}

func FullCoverage() Interval {
	return Interval{Full: true}
}

// Materialize resolves a full-coverage interval against the shift's
// window length. Comparison methods require materialized intervals.
func (iv Interval) Materialize(window int) Interval {
	if iv.Full {
		return Interval{Start: 0, End: window}
	}
	return iv
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start < o.End && o.Start < iv.End
}

// Covers reports whether iv fully contains o.
func (iv Interval) Covers(o Interval) bool {
	return iv.Start <= o.Start && iv.End >= o.End
}

func (iv Interval) StartsBefore(o Interval) bool {
	return iv.Start < o.Start
}

func (iv Interval) EndsAfter(o Interval) bool {
	return iv.End > o.End
}

func (iv Interval) Minutes() int {
	return iv.End - iv.Start
}

func (iv Interval) Hours() float64 {
	return float64(iv.Minutes()) / 60
}

// ParseClock parses "15:04:05" (or "15:04") into minutes-of-day.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes-of-day (modulo one day) as "15:04:05".
func FormatClock(min int) string {
	min %= minutesPerDay
	if min < 0 {
		min += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d:00", min/60, min%60)
}

// ShiftWindow is the length of the shift's published window in minutes.
// An end at or before the start means the shift runs into the next day.
func ShiftWindow(shift *domain.Shift) (int, error) {
	start, err := ParseClock(shift.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(shift.EndTime)
	if err != nil {
		return 0, err
	}

	w := end - start
	if w <= 0 {
		w += minutesPerDay
	}
	return w, nil
}

// NewInterval builds a partial coverage interval from raw clock strings,
// anchored at the shift's start. A wrapped pair (end at or before start
// after anchoring) is only legal on a 24h shift, where it means "next
// day"; on day and night shifts it is rejected outright.
func NewInterval(shift *domain.Shift, startClock, endClock string) (Interval, error) {
	anchor, err := ParseClock(shift.StartTime)
	if err != nil {
		return Interval{}, err
	}
	window, err := ShiftWindow(shift)
	if err != nil {
		return Interval{}, err
	}

	startMin, err := ParseClock(startClock)
	if err != nil {
		return Interval{}, err
	}
	endMin, err := ParseClock(endClock)
	if err != nil {
		return Interval{}, err
	}

	s := (startMin - anchor + minutesPerDay) % minutesPerDay
	e := (endMin - anchor + minutesPerDay) % minutesPerDay
	if e <= s {
		if shift.Type != domain.ShiftTypeFull24h {
			return Interval{}, ErrInvalidInterval
		}
		e += minutesPerDay
	}

	if e > window {
		return Interval{}, ErrOutsideShift
	}

	return Interval{Start: s, End: e}, nil
}

// IntervalOf derives the coverage interval of an assignment. A non
// partial assignment (or one with missing bounds) covers the shift's
// full published window.
func IntervalOf(shift *domain.Shift, a *domain.Assignment) (Interval, error) {
	if a == nil || !a.IsPartial || a.StartTime == nil || a.EndTime == nil {
		return FullCoverage(), nil
	}
	return NewInterval(shift, *a.StartTime, *a.EndTime)
}

// Clocks converts a materialized interval back into the clock strings
// stored on an assignment row.
func (iv Interval) Clocks(shift *domain.Shift) (string, string, error) {
	anchor, err := ParseClock(shift.StartTime)
	if err != nil {
		return "", "", err
	}
	return FormatClock(anchor + iv.Start), FormatClock(anchor + iv.End), nil
}
