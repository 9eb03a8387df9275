package roster

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

// fakeExchangeStore mimics the repository's transactional semantics in
// memory: ApplySwap and RevertSwap either fully apply or leave the
// state untouched.
type fakeExchangeStore struct {
	exchanges   map[int64]*domain.ShiftExchange
	shifts      []*domain.Shift
	assignments map[int64]*domain.Assignment
	counters    map[int64]map[int]int
	nextID      int64
}

func newFakeExchangeStore(shifts ...*domain.Shift) *fakeExchangeStore {
	return &fakeExchangeStore{
		exchanges:   map[int64]*domain.ShiftExchange{},
		shifts:      shifts,
		assignments: map[int64]*domain.Assignment{},
		counters:    map[int64]map[int]int{},
		nextID:      1,
	}
}

func (f *fakeExchangeStore) addExchange(ex *domain.ShiftExchange) {
	ex.ID = f.nextID
	f.nextID++
	f.exchanges[ex.ID] = ex
}

func (f *fakeExchangeStore) addAssignment(a *domain.Assignment) *domain.Assignment {
	a.ID = f.nextID
	f.nextID++
	f.assignments[a.ID] = a
	return a
}

func (f *fakeExchangeStore) ExchangeByID(_ context.Context, id int64) (*domain.ShiftExchange, error) {
	ex, ok := f.exchanges[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *ex
	return &cp, nil
}

func (f *fakeExchangeStore) ShiftFor(_ context.Context, teamID int64, shiftType domain.ShiftType, _ time.Time) (*domain.Shift, error) {
	for _, s := range f.shifts {
		if s.TeamID == teamID && s.Type == shiftType {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeExchangeStore) AssignmentsForUsers(_ context.Context, shiftID int64, d time.Time, userIDs []int64) ([]*domain.Assignment, error) {
	out := []*domain.Assignment{}
	for _, a := range f.assignments {
		if a.ShiftID != shiftID || !a.ShiftDate.Equal(TruncateToDate(d)) {
			continue
		}
		for _, id := range userIDs {
			if a.UserID == id {
				cp := *a
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeExchangeStore) ExchangeCountForYear(_ context.Context, userID int64, year int) (int, error) {
	return f.counters[userID][year], nil
}

func (f *fakeExchangeStore) bump(userID int64, year, delta int) {
	if f.counters[userID] == nil {
		f.counters[userID] = map[int]int{}
	}
	f.counters[userID][year] += delta
}

func (f *fakeExchangeStore) ApplySwap(_ context.Context, swap *Swap) error {
	ex := f.exchanges[swap.Exchange.ID]

	for _, d := range swap.Displaced {
		cp := *d
		ex.Displaced = append(ex.Displaced, cp)
		delete(f.assignments, d.ID)
	}

	req := f.addAssignment(swap.RequesterAssignment)
	tgt := f.addAssignment(swap.TargetAssignment)

	now := time.Now()
	ex.Status = domain.ExchangeApproved
	ex.ApprovedBy = &swap.ApproverID
	ex.ApprovedAt = &now
	ex.RequesterAssignmentID = &req.ID
	ex.TargetAssignmentID = &tgt.ID

	f.bump(ex.RequesterID, swap.RequesterCounterYear, 1)
	f.bump(ex.TargetID, swap.TargetCounterYear, 1)
	return nil
}

func (f *fakeExchangeStore) RevertSwap(_ context.Context, revert *SwapRevert) error {
	ex := f.exchanges[revert.Exchange.ID]

	for _, id := range []int64{*ex.RequesterAssignmentID, *ex.TargetAssignmentID} {
		if _, ok := f.assignments[id]; !ok {
			return ErrSwapStateDrift
		}
	}
	delete(f.assignments, *ex.RequesterAssignmentID)
	delete(f.assignments, *ex.TargetAssignmentID)

	for _, d := range ex.Displaced {
		cp := d
		f.assignments[cp.ID] = &cp
	}
	ex.Displaced = nil

	f.bump(ex.RequesterID, revert.RequesterCounterYear, -1)
	f.bump(ex.TargetID, revert.TargetCounterYear, -1)
	ex.Status = domain.ExchangeCancelled
	ex.RequesterAssignmentID = nil
	ex.TargetAssignmentID = nil
	return nil
}

func (f *fakeExchangeStore) snapshot() map[int64]domain.Assignment {
	out := map[int64]domain.Assignment{}
	for id, a := range f.assignments {
		out[id] = *a
	}
	return out
}

const (
	requesterID = int64(100)
	targetID    = int64(200)
)

func pendingExchange() *domain.ShiftExchange {
	return &domain.ShiftExchange{
		RequesterID:        requesterID,
		TargetID:           targetID,
		RequesterShiftDate: date(2024, time.May, 6),
		RequesterShiftType: domain.ShiftTypeDay,
		RequesterTeamID:    1,
		TargetShiftDate:    date(2024, time.May, 13),
		TargetShiftType:    domain.ShiftTypeDay,
		TargetTeamID:       1,
		Status:             domain.ExchangePending,
	}
}

func newCoordinator(store *fakeExchangeStore, spans *fakeSpanSource) *Coordinator {
	return NewCoordinator(store, NewHoursChecker(spans, 38), 8)
}

func TestApproveSwapsBothParties(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	store.addExchange(ex)

	// Both parties hold their own base assignment rows before the swap.
	store.addAssignment(&domain.Assignment{ShiftID: 1, UserID: requesterID, ShiftDate: date(2024, time.May, 6)})
	store.addAssignment(&domain.Assignment{ShiftID: 1, UserID: targetID, ShiftDate: date(2024, time.May, 13)})

	c := newCoordinator(store, &fakeSpanSource{spans: map[int64][]Span{}})

	outcome, err := c.Approve(context.Background(), ex.ID, 1, false)
	require.NoError(t, err)
	assert.Nil(t, outcome.Exceeded)

	stored := store.exchanges[ex.ID]
	assert.Equal(t, domain.ExchangeApproved, stored.Status)
	require.NotNil(t, stored.RequesterAssignmentID)
	require.NotNil(t, stored.TargetAssignmentID)

	req := store.assignments[*stored.RequesterAssignmentID]
	require.NotNil(t, req)
	assert.Equal(t, requesterID, req.UserID)
	assert.Equal(t, date(2024, time.May, 13), req.ShiftDate)
	assert.Equal(t, targetID, *req.ReplacedUserID)

	tgt := store.assignments[*stored.TargetAssignmentID]
	require.NotNil(t, tgt)
	assert.Equal(t, targetID, tgt.UserID)
	assert.Equal(t, date(2024, time.May, 6), tgt.ShiftDate)

	// The displaced base rows are gone and snapshotted for cancellation.
	assert.Len(t, store.assignments, 2)
	assert.Len(t, stored.Displaced, 2)

	assert.Equal(t, 1, store.counters[requesterID][2024])
	assert.Equal(t, 1, store.counters[targetID][2024])
}

func TestApproveRejectsNonPending(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	ex.Status = domain.ExchangeRejected
	store.addExchange(ex)

	c := newCoordinator(store, &fakeSpanSource{spans: map[int64][]Span{}})

	_, err := c.Approve(context.Background(), ex.ID, 1, false)
	assert.ErrorIs(t, err, ErrExchangeNotPending)
}

func TestApproveGuardsConsecutiveHours(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	store.addExchange(ex)

	// The requester already has a long duty chained right before the
	// target slot they would take over.
	tgtDay := date(2024, time.May, 13)
	spans := &fakeSpanSource{spans: map[int64][]Span{
		requesterID: {span(tgtDay.Add(-23*time.Hour), tgtDay.Add(7*time.Hour))},
	}}
	c := newCoordinator(store, spans)

	outcome, err := c.Approve(context.Background(), ex.ID, 1, false)
	require.NoError(t, err)
	require.NotNil(t, outcome.Exceeded)
	assert.Equal(t, requesterID, outcome.Exceeded.UserID)
	assert.Equal(t, 40.0, outcome.Exceeded.Hours)

	// Nothing was applied.
	assert.Equal(t, domain.ExchangePending, store.exchanges[ex.ID].Status)
	assert.Empty(t, store.assignments)

	// An explicit override pushes it through.
	outcome, err = c.Approve(context.Background(), ex.ID, 1, true)
	require.NoError(t, err)
	assert.Nil(t, outcome.Exceeded)
	assert.Equal(t, domain.ExchangeApproved, store.exchanges[ex.ID].Status)
}

func TestApproveWarnsOnExchangeCount(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	store.addExchange(ex)
	store.bump(requesterID, 2024, 7) // the 8th this year trips the soft warning

	c := newCoordinator(store, &fakeSpanSource{spans: map[int64][]Span{}})

	outcome, err := c.Approve(context.Background(), ex.ID, 1, false)
	require.NoError(t, err)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, requesterID, outcome.Warnings[0].UserID)
	assert.Equal(t, 8, outcome.Warnings[0].Count)
}

func TestCancelRestoresPreApprovalState(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	store.addExchange(ex)

	store.addAssignment(&domain.Assignment{ShiftID: 1, UserID: requesterID, ShiftDate: date(2024, time.May, 6)})
	store.addAssignment(&domain.Assignment{ShiftID: 1, UserID: targetID, ShiftDate: date(2024, time.May, 13)})

	before := store.snapshot()

	c := newCoordinator(store, &fakeSpanSource{spans: map[int64][]Span{}})

	_, err := c.Approve(context.Background(), ex.ID, 1, false)
	require.NoError(t, err)

	err = c.Cancel(context.Background(), ex.ID, 1)
	require.NoError(t, err)

	// The exact pre-approval assignment set is back.
	assert.Equal(t, before, store.snapshot())
	assert.Equal(t, domain.ExchangeCancelled, store.exchanges[ex.ID].Status)
	assert.Equal(t, 0, store.counters[requesterID][2024])
	assert.Equal(t, 0, store.counters[targetID][2024])
}

func TestCancelRequiresApproved(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	store.addExchange(ex)

	c := newCoordinator(store, &fakeSpanSource{spans: map[int64][]Span{}})

	err := c.Cancel(context.Background(), ex.ID, 1)
	assert.ErrorIs(t, err, ErrExchangeNotApproved)
}

func TestCancelAbortsOnDrift(t *testing.T) {
	store := newFakeExchangeStore(dayShift())
	ex := pendingExchange()
	store.addExchange(ex)

	c := newCoordinator(store, &fakeSpanSource{spans: map[int64][]Span{}})

	_, err := c.Approve(context.Background(), ex.ID, 1, false)
	require.NoError(t, err)

	// Someone deleted one of the swapped rows behind our back.
	delete(store.assignments, *store.exchanges[ex.ID].RequesterAssignmentID)

	err = c.Cancel(context.Background(), ex.ID, 1)
	assert.ErrorIs(t, err, ErrSwapStateDrift)
	// The exchange stays approved, nothing was partially reverted.
	assert.Equal(t, domain.ExchangeApproved, store.exchanges[ex.ID].Status)
}
