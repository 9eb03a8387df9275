package roster

import (
	"context"
	"time"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

// Span is an absolute on-duty time range.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// back-to-back shifts count as one consecutive span
func (s Span) touches(o Span) bool {
	return !s.Start.After(o.End) && !o.Start.After(s.End)
}

// SpanSource lists a user's existing on-duty spans inside a time range.
type SpanSource interface {
	UserDutySpans(ctx context.Context, userID int64, from, to time.Time) ([]Span, error)
}

// ConsecutiveHoursExceeded is a policy result, not an error: callers
// present it together with an override path.
type ConsecutiveHoursExceeded struct {
	UserID int64   `json:"userID"`
	Hours  float64 `json:"hours"`
}

type HoursCheck struct {
	Exceeds    bool    `json:"exceeds"`
	TotalHours float64 `json:"totalHours"`
}

// HoursChecker measures the consecutive on-duty span a prospective
// assignment would create and compares it against the limit.
type HoursChecker struct {
	src   SpanSource
	limit float64
}

func NewHoursChecker(src SpanSource, limit float64) *HoursChecker {
	return &HoursChecker{src: src, limit: limit}
}

func (c *HoursChecker) Limit() float64 {
	return c.limit
}

// Check chains the candidate span together with every existing span it
// touches, transitively in both directions, and measures the result.
// Two days of surrounding context is enough: no single duty exceeds 24h.
func (c *HoursChecker) Check(ctx context.Context, userID int64, candidate Span) (HoursCheck, error) {
	spans, err := c.src.UserDutySpans(ctx, userID, candidate.Start.Add(-48*time.Hour), candidate.End.Add(48*time.Hour))
	if err != nil {
		return HoursCheck{}, err
	}

	chain := candidate
	for changed := true; changed; {
		changed = false
		for _, s := range spans {
			if !chain.touches(s) {
				continue
			}
			if s.Start.Before(chain.Start) {
				chain.Start = s.Start
				changed = true
			}
			if s.End.After(chain.End) {
				chain.End = s.End
				changed = true
			}
		}
	}

	total := chain.Hours()
	return HoursCheck{Exceeds: total > c.limit, TotalHours: total}, nil
}

// DutySpan anchors a coverage interval of a shift instance on the
// absolute timeline.
func DutySpan(shift *domain.Shift, date time.Time, iv Interval) (Span, error) {
	anchor, err := ParseClock(shift.StartTime)
	if err != nil {
		return Span{}, err
	}
	window, err := ShiftWindow(shift)
	if err != nil {
		return Span{}, err
	}

	m := iv.Materialize(window)
	day := TruncateToDate(date)

	return Span{
		Start: day.Add(time.Duration(anchor+m.Start) * time.Minute),
		End:   day.Add(time.Duration(anchor+m.End) * time.Minute),
	}, nil
}
