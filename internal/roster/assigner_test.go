package roster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

type fakeAssignmentStore struct {
	// rows keyed by (shift, date, replaced user, order)
	rows        map[int64][]*domain.Assignment
	resolutions []*Resolution
	upserts     []*domain.Assignment
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{rows: map[int64][]*domain.Assignment{}}
}

func (f *fakeAssignmentStore) ReplacementAssignments(_ context.Context, shiftID int64, d time.Time, replacedUserID int64) ([]*domain.Assignment, error) {
	out := []*domain.Assignment{}
	for _, a := range f.rows[shiftID] {
		if a.ShiftDate.Equal(TruncateToDate(d)) && a.ReplacedUserID != nil && *a.ReplacedUserID == replacedUserID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentStore) ApplyResolution(_ context.Context, res *Resolution) error {
	f.resolutions = append(f.resolutions, res)

	kept := []*domain.Assignment{}
	for _, a := range f.rows[res.ShiftID] {
		if a.ShiftDate.Equal(res.ShiftDate) && a.ReplacedUserID != nil && *a.ReplacedUserID == *res.ReplacedUserID {
			continue
		}
		kept = append(kept, a)
	}
	if res.R1 != nil {
		kept = append(kept, res.R1)
	}
	kept = append(kept, res.R2)
	f.rows[res.ShiftID] = kept
	return nil
}

func (f *fakeAssignmentStore) UpsertAssignment(_ context.Context, a *domain.Assignment) error {
	f.upserts = append(f.upserts, a)
	f.rows[a.ShiftID] = append(f.rows[a.ShiftID], a)
	return nil
}

func (f *fakeAssignmentStore) DeleteReplacement(_ context.Context, shiftID int64, d time.Time, replacedUserID int64, order int16) error {
	slot := []*domain.Assignment{}
	kept := []*domain.Assignment{}
	for _, a := range f.rows[shiftID] {
		if a.ShiftDate.Equal(TruncateToDate(d)) && a.ReplacedUserID != nil && *a.ReplacedUserID == replacedUserID {
			slot = append(slot, a)
			continue
		}
		kept = append(kept, a)
	}

	plan, err := PlanWithdrawal(slot, order)
	if err != nil {
		return err
	}
	for _, a := range slot {
		if a == plan.Remove {
			continue
		}
		if plan.Promote != nil && a.ID == plan.Promote.ID {
			a = plan.Promote
		}
		kept = append(kept, a)
	}
	f.rows[shiftID] = kept
	return nil
}

func newAssigner(store AssignmentStore, spans *fakeSpanSource) *Assigner {
	return NewAssigner(store, NewHoursChecker(spans, 38))
}

func TestCreateDirectAssignmentFreshSlot(t *testing.T) {
	store := newFakeAssignmentStore()
	a := newAssigner(store, &fakeSpanSource{spans: map[int64][]Span{}})

	res, err := a.CreateDirectAssignment(context.Background(), DirectAssignmentInput{
		Shift:          dayShift(),
		Date:           date(2024, time.May, 6),
		ReplacedUserID: ptr(int64(42)),
		AssigneeID:     7,
		IsDirect:       true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.HoursExceeded)
	require.NotNil(t, res.Assignment)
	assert.True(t, res.Assignment.IsDirect)
	assert.Equal(t, int16(1), *res.Assignment.ReplacementOrder)
	assert.False(t, res.Assignment.IsPartial)
	require.Len(t, store.resolutions, 1)
	assert.Equal(t, OutcomeNoExistingR1, store.resolutions[0].Outcome)
}

func TestCreateDirectAssignmentLayersSecondReplacement(t *testing.T) {
	shift := dayShift()
	store := newFakeAssignmentStore()
	store.rows[shift.ID] = []*domain.Assignment{partialR1(shift, 11, 42, "07:00:00", "17:00:00")}

	a := newAssigner(store, &fakeSpanSource{spans: map[int64][]Span{}})

	iv, err := NewInterval(shift, "07:00", "12:00")
	require.NoError(t, err)

	res, err := a.CreateDirectAssignment(context.Background(), DirectAssignmentInput{
		Shift:          shift,
		Date:           date(2024, time.May, 6),
		ReplacedUserID: ptr(int64(42)),
		AssigneeID:     7,
		Interval:       &iv,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)
	assert.Equal(t, OutcomeStartCover, res.Resolution.Outcome)
	assert.Equal(t, "12:00:00", *res.Resolution.R1.StartTime)
}

func TestCreateDirectAssignmentRefusesFullyLayeredSlot(t *testing.T) {
	shift := dayShift()
	r2 := partialR1(shift, 22, 42, "12:00:00", "17:00:00")
	r2.ReplacementOrder = ptr(int16(2))

	store := newFakeAssignmentStore()
	store.rows[shift.ID] = []*domain.Assignment{
		partialR1(shift, 11, 42, "07:00:00", "12:00:00"),
		r2,
	}

	a := newAssigner(store, &fakeSpanSource{spans: map[int64][]Span{}})

	iv, err := NewInterval(shift, "12:00", "17:00")
	require.NoError(t, err)

	_, err = a.CreateDirectAssignment(context.Background(), DirectAssignmentInput{
		Shift:          shift,
		Date:           date(2024, time.May, 6),
		ReplacedUserID: ptr(int64(42)),
		AssigneeID:     7,
		Interval:       &iv,
	})
	assert.ErrorIs(t, err, ErrSlotFullyLayered)
	assert.Empty(t, store.resolutions)

	// The order-2 holder keeps its coverage.
	remaining, err := store.ReplacementAssignments(context.Background(), shift.ID, date(2024, time.May, 6), 42)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, int64(22), remaining[1].UserID)
	assert.Equal(t, "12:00:00", *remaining[1].StartTime)
}

func TestCreateDirectAssignmentMiddleInsertionPropagates(t *testing.T) {
	shift := dayShift()
	store := newFakeAssignmentStore()
	store.rows[shift.ID] = []*domain.Assignment{partialR1(shift, 11, 42, "07:00:00", "17:00:00")}

	a := newAssigner(store, &fakeSpanSource{spans: map[int64][]Span{}})

	iv, err := NewInterval(shift, "09:00", "12:00")
	require.NoError(t, err)

	_, err = a.CreateDirectAssignment(context.Background(), DirectAssignmentInput{
		Shift:          shift,
		Date:           date(2024, time.May, 6),
		ReplacedUserID: ptr(int64(42)),
		AssigneeID:     7,
		Interval:       &iv,
	})
	assert.ErrorIs(t, err, ErrMiddleInsertion)
	assert.Empty(t, store.resolutions)
}

func TestCreateDirectAssignmentHoursGuard(t *testing.T) {
	day := date(2024, time.May, 6)
	spans := &fakeSpanSource{spans: map[int64][]Span{
		7: {span(day.Add(-24*time.Hour), day.Add(7*time.Hour))},
	}}
	store := newFakeAssignmentStore()
	a := newAssigner(store, spans)

	in := DirectAssignmentInput{
		Shift:          dayShift(),
		Date:           day,
		ReplacedUserID: ptr(int64(42)),
		AssigneeID:     7,
	}

	res, err := a.CreateDirectAssignment(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, res.HoursExceeded)
	assert.Equal(t, int64(7), res.HoursExceeded.UserID)
	assert.Equal(t, 41.0, res.HoursExceeded.Hours)
	assert.Empty(t, store.resolutions)

	in.Force = true
	res, err = a.CreateDirectAssignment(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, res.HoursExceeded)
	require.NotNil(t, res.Assignment)
}

func TestCreateDirectAssignmentExtraSlot(t *testing.T) {
	store := newFakeAssignmentStore()
	a := newAssigner(store, &fakeSpanSource{spans: map[int64][]Span{}})

	res, err := a.CreateDirectAssignment(context.Background(), DirectAssignmentInput{
		Shift:      dayShift(),
		Date:       date(2024, time.May, 6),
		AssigneeID: 7,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Assignment)
	assert.True(t, res.Assignment.IsExtra)
	assert.Nil(t, res.Assignment.ReplacedUserID)
	require.Len(t, store.upserts, 1)
	assert.Empty(t, store.resolutions)
}
