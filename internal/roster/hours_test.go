package roster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpanSource struct {
	spans map[int64][]Span
}

func (f *fakeSpanSource) UserDutySpans(_ context.Context, userID int64, from, to time.Time) ([]Span, error) {
	out := []Span{}
	for _, s := range f.spans[userID] {
		if s.End.Before(from) || s.Start.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func span(start, end time.Time) Span { return Span{Start: start, End: end} }

func TestHoursCheckerIsolatedDuty(t *testing.T) {
	src := &fakeSpanSource{spans: map[int64][]Span{}}
	checker := NewHoursChecker(src, 38)

	day := date(2024, time.May, 6)
	check, err := checker.Check(context.Background(), 1, span(day.Add(7*time.Hour), day.Add(17*time.Hour)))
	require.NoError(t, err)
	assert.False(t, check.Exceeds)
	assert.Equal(t, 10.0, check.TotalHours)
}

func TestHoursCheckerChainsAdjacentDuties(t *testing.T) {
	day := date(2024, time.May, 6)
	src := &fakeSpanSource{spans: map[int64][]Span{
		1: {
			// 24h duty ending exactly when the candidate begins.
			span(day.Add(-17*time.Hour), day.Add(7*time.Hour)),
			// and a night duty chained after the candidate.
			span(day.Add(17*time.Hour), day.Add(31*time.Hour)),
		},
	}}
	checker := NewHoursChecker(src, 38)

	check, err := checker.Check(context.Background(), 1, span(day.Add(7*time.Hour), day.Add(17*time.Hour)))
	require.NoError(t, err)
	assert.True(t, check.Exceeds)
	assert.Equal(t, 48.0, check.TotalHours)
}

func TestHoursCheckerIgnoresDisjointDuties(t *testing.T) {
	day := date(2024, time.May, 6)
	src := &fakeSpanSource{spans: map[int64][]Span{
		1: {
			// Ends an hour before the candidate starts: a break resets
			// the consecutive span.
			span(day.Add(-18*time.Hour), day.Add(6*time.Hour)),
		},
	}}
	checker := NewHoursChecker(src, 38)

	check, err := checker.Check(context.Background(), 1, span(day.Add(7*time.Hour), day.Add(31*time.Hour)))
	require.NoError(t, err)
	assert.False(t, check.Exceeds)
	assert.Equal(t, 24.0, check.TotalHours)
}

func TestHoursCheckerExactLimitIsAllowed(t *testing.T) {
	day := date(2024, time.May, 6)
	src := &fakeSpanSource{spans: map[int64][]Span{
		1: {span(day.Add(-14*time.Hour), day.Add(7*time.Hour))},
	}}
	checker := NewHoursChecker(src, 38)

	// 21h existing + 17h candidate = exactly 38h: at the limit, not
	// above it.
	check, err := checker.Check(context.Background(), 1, span(day.Add(7*time.Hour), day.Add(24*time.Hour)))
	require.NoError(t, err)
	assert.False(t, check.Exceeds)
	assert.Equal(t, 38.0, check.TotalHours)
}

func TestDutySpanAnchorsWraparound(t *testing.T) {
	day := date(2024, time.May, 6)

	s, err := DutySpan(nightShift(), day, FullCoverage())
	require.NoError(t, err)
	assert.Equal(t, day.Add(19*time.Hour), s.Start)
	assert.Equal(t, day.Add(31*time.Hour), s.End) // 07:00 next day
	assert.Equal(t, 12.0, s.Hours())

	iv, err := NewInterval(fullShift(), "22:00", "06:00")
	require.NoError(t, err)
	s, err = DutySpan(fullShift(), day, iv)
	require.NoError(t, err)
	assert.Equal(t, day.Add(22*time.Hour), s.Start)
	assert.Equal(t, day.Add(30*time.Hour), s.End)
}
