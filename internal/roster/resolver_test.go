package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func partialR1(shift *domain.Shift, userID int64, replaced int64, start, end string) *domain.Assignment {
	return &domain.Assignment{
		ShiftID:          shift.ID,
		UserID:           userID,
		ShiftDate:        date(2024, time.May, 6),
		ReplacedUserID:   &replaced,
		ReplacementOrder: ptr(int16(1)),
		IsPartial:        true,
		StartTime:        &start,
		EndTime:          &end,
	}
}

func TestClassifyIsExhaustive(t *testing.T) {
	r1 := Interval{Start: 120, End: 480}

	tests := []struct {
		name string
		r1   *Interval
		r2   Interval
		want OverlapOutcome
	}{
		{"absent r1", nil, Interval{Start: 0, End: 60}, OutcomeNoExistingR1},
		{"strictly after", &r1, Interval{Start: 480, End: 600}, OutcomeNoOverlap},
		{"strictly before", &r1, Interval{Start: 0, End: 120}, OutcomeNoOverlap},
		{"exact cover", &r1, Interval{Start: 120, End: 480}, OutcomeFullCover},
		{"wider cover", &r1, Interval{Start: 60, End: 540}, OutcomeFullCover},
		{"start cover", &r1, Interval{Start: 60, End: 300}, OutcomeStartCover},
		{"start cover touching", &r1, Interval{Start: 120, End: 300}, OutcomeStartCover},
		{"end cover", &r1, Interval{Start: 300, End: 540}, OutcomeEndCover},
		{"end cover touching", &r1, Interval{Start: 300, End: 480}, OutcomeEndCover},
		{"strictly inside", &r1, Interval{Start: 180, End: 300}, OutcomeMiddleRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r1, tt.r2))
		})
	}
}

func TestResolveNoExistingR1PromotesToOrderOne(t *testing.T) {
	shift := dayShift()
	iv, err := NewInterval(shift, "09:00", "12:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, nil, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoExistingR1, res.Outcome)
	assert.Nil(t, res.R1)
	require.NotNil(t, res.R2)
	assert.Equal(t, int16(1), *res.R2.ReplacementOrder)
	assert.Equal(t, int64(7), res.R2.UserID)
	assert.True(t, res.R2.IsPartial)
	assert.Equal(t, "09:00:00", *res.R2.StartTime)
	assert.Equal(t, "12:00:00", *res.R2.EndTime)
}

func TestResolveBoundaryTouchShrinksR1(t *testing.T) {
	// R1 = [07:00,17:00), R2 = [07:00,12:00) -> R1 becomes [12:00,17:00).
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "17:00:00")

	iv, err := NewInterval(shift, "07:00", "12:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, OutcomeStartCover, res.Outcome)
	require.NotNil(t, res.R1)
	assert.Equal(t, "12:00:00", *res.R1.StartTime)
	assert.Equal(t, "17:00:00", *res.R1.EndTime)
	assert.Equal(t, int16(1), *res.R1.ReplacementOrder)
	assert.Equal(t, int64(11), res.R1.UserID)

	require.NotNil(t, res.R2)
	assert.Equal(t, int16(2), *res.R2.ReplacementOrder)
	assert.Equal(t, "07:00:00", *res.R2.StartTime)
	assert.Equal(t, "12:00:00", *res.R2.EndTime)
}

func TestResolveEndCoverShrinksR1(t *testing.T) {
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "17:00:00")

	iv, err := NewInterval(shift, "12:00", "17:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, OutcomeEndCover, res.Outcome)
	require.NotNil(t, res.R1)
	assert.Equal(t, "07:00:00", *res.R1.StartTime)
	assert.Equal(t, "12:00:00", *res.R1.EndTime)
}

func TestResolveFullCoverDeletesR1(t *testing.T) {
	// R1 = [07:00,17:00), R2 = [07:00,17:00) -> only R2 remains.
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "17:00:00")

	iv, err := NewInterval(shift, "07:00", "17:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFullCover, res.Outcome)
	assert.Nil(t, res.R1)
	require.NotNil(t, res.R2)
	// Sole coverage of the whole window is stored as non-partial.
	assert.False(t, res.R2.IsPartial)
	assert.Equal(t, int16(1), *res.R2.ReplacementOrder)
}

func TestResolveFullR1DefaultsToWholeWindow(t *testing.T) {
	// A non-partial R1 counts as full coverage, so a partial R2 at the
	// start shrinks it.
	shift := dayShift()
	r1 := &domain.Assignment{
		ShiftID:          shift.ID,
		UserID:           11,
		ShiftDate:        date(2024, time.May, 6),
		ReplacedUserID:   ptr(int64(42)),
		ReplacementOrder: ptr(int16(1)),
	}

	iv, err := NewInterval(shift, "07:00", "10:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, OutcomeStartCover, res.Outcome)
	require.NotNil(t, res.R1)
	assert.True(t, res.R1.IsPartial)
	assert.Equal(t, "10:00:00", *res.R1.StartTime)
	assert.Equal(t, "17:00:00", *res.R1.EndTime)
}

func TestResolveMiddleInsertionRejected(t *testing.T) {
	// R1 = [07:00,17:00), R2 = [09:00,12:00): rejected, never a
	// 3-interval split.
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "17:00:00")

	iv, err := NewInterval(shift, "09:00", "12:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	assert.ErrorIs(t, err, ErrMiddleInsertion)
	require.NotNil(t, res)
	assert.Equal(t, OutcomeMiddleRejected, res.Outcome)
}

func TestResolveNoOverlapKeepsR1Unchanged(t *testing.T) {
	// Touching at 12:00 is no overlap under half-open intervals.
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "12:00:00")

	iv, err := NewInterval(shift, "12:00", "17:00")
	require.NoError(t, err)

	res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoOverlap, res.Outcome)
	require.NotNil(t, res.R1)
	assert.Equal(t, "07:00:00", *res.R1.StartTime)
	assert.Equal(t, "12:00:00", *res.R1.EndTime)
	assert.Equal(t, int16(1), *res.R1.ReplacementOrder)
	require.NotNil(t, res.R2)
	assert.Equal(t, int16(2), *res.R2.ReplacementOrder)
}

func TestResolveResultsNeverOverlap(t *testing.T) {
	shift := dayShift()
	window, err := ShiftWindow(shift)
	require.NoError(t, err)

	// Sweep R2 over a grid of intervals against a fixed partial R1 and
	// check that whatever survives never overlaps.
	r1 := partialR1(shift, 11, 42, "09:00:00", "15:00:00")

	for s := 0; s < window; s += 60 {
		for e := s + 60; e <= window; e += 60 {
			res, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, Interval{Start: s, End: e})
			if err != nil {
				assert.ErrorIs(t, err, ErrMiddleInsertion)
				continue
			}

			r2iv, err := IntervalOf(shift, res.R2)
			require.NoError(t, err)
			if res.R1 == nil {
				continue
			}
			r1iv, err := IntervalOf(shift, res.R1)
			require.NoError(t, err)
			assert.False(t, r1iv.Materialize(window).Overlaps(r2iv.Materialize(window)),
				"overlap for r2=[%d,%d): r1=%+v r2=%+v", s, e, r1iv, r2iv)
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	// Re-running the resolver against the state it produced yields the
	// same final state.
	shift := dayShift()
	r1 := partialR1(shift, 11, 42, "07:00:00", "17:00:00")

	iv, err := NewInterval(shift, "07:00", "12:00")
	require.NoError(t, err)

	first, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, r1, 7, iv)
	require.NoError(t, err)

	second, err := ResolveSecondReplacement(shift, date(2024, time.May, 6), 42, first.R1, 7, iv)
	require.NoError(t, err)

	assert.Equal(t, first.R1, second.R1)
	assert.Equal(t, first.R2, second.R2)
}
